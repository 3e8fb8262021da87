package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var consultarCmd = &cobra.Command{
	Use:   "consultar <tipo> <punto_venta> <numero>",
	Short: "Consulta un comprobante autorizado (FECompConsultar)",
	Args:  cobra.ExactArgs(3),
	RunE:  runConsultar,
}

var ultimoCmd = &cobra.Command{
	Use:   "ultimo <tipo> <punto_venta>",
	Short: "Último número autorizado (FECompUltimoAutorizado)",
	Args:  cobra.ExactArgs(2),
	RunE:  runUltimo,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Estado de los servidores de AFIP (FEDummy)",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(consultarCmd, ultimoCmd, statusCmd)
}

func runConsultar(cmd *cobra.Command, args []string) error {
	tipo, pto, err := parseTipoYPunto(args)
	if err != nil {
		return err
	}
	nro, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || nro <= 0 {
		return fmt.Errorf("número de comprobante inválido: %q", args[2])
	}
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	resp, err := rt.uc.QueryInvoice(cmd.Context(), tipo, pto, nro, rt.production)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runUltimo(cmd *cobra.Command, args []string) error {
	tipo, pto, err := parseTipoYPunto(args)
	if err != nil {
		return err
	}
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	resp, err := rt.uc.LastAuthorized(cmd.Context(), tipo, pto, rt.production)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := rt.uc.AuthorityStatus(cmd.Context(), rt.production)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), st)
}

func parseTipoYPunto(args []string) (int, int, error) {
	tipo, err := strconv.Atoi(args[0])
	if err != nil || tipo <= 0 {
		return 0, 0, fmt.Errorf("tipo de comprobante inválido: %q", args[0])
	}
	pto, err := strconv.Atoi(args[1])
	if err != nil || pto <= 0 {
		return 0, 0, fmt.Errorf("punto de venta inválido: %q", args[1])
	}
	return tipo, pto, nil
}
