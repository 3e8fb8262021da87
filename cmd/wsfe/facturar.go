package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-afip/internal/application/dto"
)

var facturarCmd = &cobra.Command{
	Use:   "facturar",
	Short: "Solicita el CAE de un comprobante",
	Long: `Lee el comprobante en JSON (mismo formato que POST /api/afipws/facturador)
desde --file o desde la entrada estándar y solicita su autorización.
Sin "nro" el número se asigna como último autorizado + 1.`,
	Example: `  # Factura B en homologación
  wsfe facturar --file factura.json

  # Desde stdin, en producción
  cat factura.json | wsfe facturar --production`,
	RunE: runFacturar,
}

func init() {
	rootCmd.AddCommand(facturarCmd)
	facturarCmd.Flags().StringP("file", "f", "", "archivo JSON del comprobante (por defecto stdin)")
}

func runFacturar(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	req, err := dto.DecodeFacturaRequest(in)
	if err != nil {
		return err
	}

	resp, err := rt.uc.Authorize(cmd.Context(), req, rt.production)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
