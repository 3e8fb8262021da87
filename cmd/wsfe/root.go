package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	"github.com/jhoicas/facturador-afip/pkg/config"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "wsfe",
	Short: "Facturación electrónica AFIP (WSFEv1) desde la línea de comandos",
	Long: `wsfe autoriza y consulta comprobantes electrónicos contra el WSFEv1 de AFIP
usando la misma configuración que la API (variables de entorno o .env).

Variables requeridas:
  AFIP_CUIT          CUIT del emisor
  AFIP_TA_PATH_HOMO  ticket de acceso (TA.xml) de homologación
  AFIP_TA_PATH_PROD  ticket de acceso (TA.xml) de producción`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute ejecuta el comando raíz.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("production", false, "usar el entorno de producción (por defecto AFIP_PRODUCTION)")
}

// cliDeps dependencias armadas a partir de la configuración.
type cliDeps struct {
	cfg        *config.Config
	log        *logger.Logger
	uc         *billing.FacturadorUseCase
	production bool
}

func setup(cmd *cobra.Command) (*cliDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Output: os.Stderr})

	tickets := infraafip.NewFileTicketProvider(cfg.AFIP.TAPathHomo, cfg.AFIP.TAPathProd)
	client := infraafip.NewClient(infraafip.ClientConfig{
		CUIT:     cfg.AFIP.CUIT,
		URLHomo:  cfg.AFIP.WSFEURLHomo,
		URLProd:  cfg.AFIP.WSFEURLProd,
		Timeout:  cfg.AFIP.Timeout,
		RetryMax: cfg.AFIP.RetryMax,
	}, tickets, log.Component("wsfe"))
	uc := billing.NewFacturadorUseCase(client, billing.FacturadorConfig{
		CUIT:         cfg.AFIP.CUIT,
		SerializeNum: cfg.AFIP.SerializeNum,
	}, log.Component("facturador"))

	production := cfg.AFIP.Production
	if cmd.Flags().Changed("production") {
		production, _ = cmd.Flags().GetBool("production")
	}
	return &cliDeps{cfg: cfg, log: log, uc: uc, production: production}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
