package billing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/application/dto"
	"github.com/jhoicas/facturador-afip/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// facturaB request del escenario Factura B a consumidor con DNI.
func facturaB() dto.FacturaRequest {
	return dto.FacturaRequest{
		TipoAfip:             ptr(6),
		PuntoVenta:           ptr(4000),
		TipoDocumento:        ptr(96),
		Documento:            ptr("22222222"),
		Total:                dec("121.00"),
		CondicionIVAReceptor: ptr(5),
		Neto:                 dec("100.00"),
		IVA:                  dec("21.00"),
		Neto105:              dec("0"),
		IVA105:               dec("0"),
	}
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "se esperaba ValidationError, llegó %T", err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	return verr.Fields
}

// ──────────────────────────────────────────────────────────────────────────────
// Campos obligatorios y total
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_EscenarioFacturaB(t *testing.T) {
	b, err := billing.BuildComprobante(facturaB(), fixedNow)
	require.NoError(t, err)

	c := b.Comprobante
	assert.True(t, c.ImpNeto.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, c.ImpIVA.Equal(decimal.RequireFromString("21.00")))
	assert.Nil(t, c.CbteNro, "sin número explícito no se resuelve en el builder")
	assert.Equal(t, 1, c.Concepto)
	assert.Equal(t, "PES", c.MonedaID)
	assert.True(t, c.MonedaCtz.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "20261018", c.FechaCbte)

	alic := b.IVAs.Alicuotas()
	require.Len(t, alic, 1, "no debe crearse la alícuota 10.5% con importe cero")
	assert.Equal(t, 5, alic[0].ID)
	assert.True(t, alic[0].BaseImp.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, alic[0].Importe.Equal(decimal.RequireFromString("21.00")))
}

func TestBuild_FaltanCamposListaExacta(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(r *dto.FacturaRequest)
		missing []string
	}{
		{"tipo_afip", func(r *dto.FacturaRequest) { r.TipoAfip = nil }, []string{"tipo_afip"}},
		{"documento vacío", func(r *dto.FacturaRequest) { r.Documento = ptr("") }, []string{"documento"}},
		{"varios", func(r *dto.FacturaRequest) {
			r.PuntoVenta = nil
			r.Total = nil
			r.CondicionIVAReceptor = nil
		}, []string{"punto_venta", "total", "condicion_iva_receptor"}},
		{"todos", func(r *dto.FacturaRequest) { *r = dto.FacturaRequest{} },
			[]string{"tipo_afip", "punto_venta", "tipo_documento", "documento", "total", "condicion_iva_receptor"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := facturaB()
			tc.mutate(&req)
			_, err := billing.BuildComprobante(req, fixedNow)
			assert.ElementsMatch(t, tc.missing, validationFields(t, err))
		})
	}
}

func TestBuild_TotalNoPositivo(t *testing.T) {
	for _, total := range []string{"0", "-10.50"} {
		req := facturaB()
		req.Total = dec(total)
		req.TipoAfip = nil // el total se informa aunque falten otros campos
		_, err := billing.BuildComprobante(req, fixedNow)
		assert.Equal(t, []string{"total"}, validationFields(t, err), "total=%s", total)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Totales y alícuotas
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_TotalesSonSumaRedondeadaDeAlicuotas(t *testing.T) {
	req := facturaB()
	req.Total = dec("233.57")
	req.Neto = dec("100.004")
	req.IVA = dec("21.001")
	req.Neto105 = dec("100.003")
	req.IVA105 = dec("10.502")
	req.Alicuotas = []dto.AlicuotaRequest{
		{ID: 6, BaseImp: decimal.RequireFromString("1.001"), Importe: decimal.RequireFromString("0.271")},
		{ID: 3, BaseImp: decimal.Zero, Importe: decimal.Zero}, // vacía: se omite
	}

	b, err := billing.BuildComprobante(req, fixedNow)
	require.NoError(t, err)

	var base, iva decimal.Decimal
	for _, a := range b.IVAs.Alicuotas() {
		base = base.Add(a.BaseImp)
		iva = iva.Add(a.Importe)
	}
	assert.Equal(t, 3, b.IVAs.Len())
	assert.True(t, b.Comprobante.ImpNeto.Equal(base.Round(2)), "neto=%s", b.Comprobante.ImpNeto)
	assert.True(t, b.Comprobante.ImpIVA.Equal(iva.Round(2)), "iva=%s", b.Comprobante.ImpIVA)
	assert.Equal(t, "201.01", b.Comprobante.ImpNeto.StringFixed(2))
	assert.Equal(t, "31.77", b.Comprobante.ImpIVA.StringFixed(2))
}

func TestBuild_NetoSinIVAEsInvalido(t *testing.T) {
	req := facturaB()
	req.IVA = dec("0")
	_, err := billing.BuildComprobante(req, fixedNow)
	assert.Contains(t, validationFields(t, err), "iva")
}

func TestBuild_ValoresInvalidosSeInformanJuntos(t *testing.T) {
	req := facturaB()
	req.Exento = dec("-1")
	req.FechaCbte = "2026-10-18"
	req.MonedaCtz = dec("0")
	req.Alicuotas = []dto.AlicuotaRequest{{ID: 7, BaseImp: decimal.NewFromInt(1), Importe: decimal.NewFromInt(1)}}

	_, err := billing.BuildComprobante(req, fixedNow)
	assert.ElementsMatch(t, []string{"exento", "fecha_cbte", "moneda_ctz", "alicuotas[0].id"}, validationFields(t, err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concepto
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_ConceptoDerivadoDeFechasDeServicio(t *testing.T) {
	cases := []struct {
		desde, hasta string
		want         int
	}{
		{"", "", 1},
		{"20261001", "", 3},
		{"", "20261031", 3},
		{"20261001", "20261031", 3},
	}
	for _, tc := range cases {
		req := facturaB()
		req.FechaServDesde = tc.desde
		req.FechaServHasta = tc.hasta
		b, err := billing.BuildComprobante(req, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, tc.want, b.Comprobante.Concepto, "desde=%q hasta=%q", tc.desde, tc.hasta)
	}
}

func TestBuild_FechaPorDefectoEnHoraArgentina(t *testing.T) {
	// 01:30 UTC del 19 sigue siendo 18 en Buenos Aires (UTC-3).
	now := time.Date(2026, 10, 19, 1, 30, 0, 0, time.UTC)
	b, err := billing.BuildComprobante(facturaB(), now)
	require.NoError(t, err)
	assert.Equal(t, "20261018", b.Comprobante.FechaCbte)
}

// La alícuota 0% se informa con su base aunque el importe sea cero; una entrada sin montos se ignora.
func TestBuild_AlicuotaCeroConBase(t *testing.T) {
	req := facturaB()
	req.Total = dec("171.00")
	req.Alicuotas = []dto.AlicuotaRequest{
		{ID: 3, BaseImp: decimal.NewFromInt(50), Importe: decimal.Zero},
		{ID: 6, BaseImp: decimal.Zero, Importe: decimal.Zero},
	}

	b, err := billing.BuildComprobante(req, fixedNow)
	require.NoError(t, err)

	alic := b.IVAs.Alicuotas()
	require.Len(t, alic, 2)
	assert.Equal(t, 5, alic[0].ID)
	assert.Equal(t, 3, alic[1].ID)
	assert.True(t, alic[1].Importe.IsZero())
	assert.Equal(t, "150.00", b.Comprobante.ImpNeto.StringFixed(2))
	assert.Equal(t, "21.00", b.Comprobante.ImpIVA.StringFixed(2))
}
