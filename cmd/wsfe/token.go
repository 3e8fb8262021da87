package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-afip/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token <client_id>",
	Short: "Emite un JWT para que un sistema cliente use la API",
	Long: `Firma un token HS256 con JWT_SECRET. Los scopes habilitan las rutas:
  facturar   POST /api/afipws/facturador
  consultar  consultas, último autorizado y estado`,
	Example: `  wsfe token erp-mostrador --scope facturar --scope consultar --ttl 720h`,
	Args:    cobra.ExactArgs(1),
	RunE:    runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringSlice("scope", []string{jwt.ScopeFacturar, jwt.ScopeConsultar}, "scopes del token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "vigencia del token")
}

func runToken(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	if rt.cfg.HTTP.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET no configurado: la API corre sin autenticación")
	}
	scopes, _ := cmd.Flags().GetStringSlice("scope")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	tok, err := jwt.Generate(rt.cfg.HTTP.JWTSecret, args[0], rt.cfg.HTTP.JWTIssuer, scopes, ttl)
	if err != nil {
		return err
	}
	rt.log.Info().Str("client_id", args[0]).Strs("scopes", scopes).Dur("ttl", ttl).Msg("token emitido")
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
	return err
}
