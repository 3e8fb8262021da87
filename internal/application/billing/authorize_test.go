package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/domain"
	domafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
)

func buildB(t *testing.T, mutate func(*billing.Borrador)) *billing.Borrador {
	t.Helper()
	b, err := billing.BuildComprobante(facturaB(), fixedNow)
	require.NoError(t, err)
	if mutate != nil {
		mutate(b)
	}
	return b
}

func authorizationKind(t *testing.T, err error) domain.AuthorizationErrorKind {
	t.Helper()
	var aerr *domain.AuthorizationError
	require.True(t, errors.As(err, &aerr), "se esperaba AuthorizationError, llegó %v", err)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	return aerr.Kind
}

// ──────────────────────────────────────────────────────────────────────────────
// Numeración
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthorize_AutonumeraUltimoMasUno(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{last: 4099}

	res, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	require.NoError(t, err)

	assert.Equal(t, int64(4100), res.CbteNro)
	assert.Equal(t, int64(4100), s.factura.Numero())
	assert.Equal(t, []string{"ultimo", "crear", "iva", "solicitar"}, s.calls)
}

func TestAuthorize_NumeroExplicitoNoConsultaUltimo(t *testing.T) {
	b := buildB(t, func(b *billing.Borrador) { b.Comprobante.SetNumero(77) })
	s := &fakeSession{last: 4099}

	res, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	require.NoError(t, err)

	assert.Equal(t, int64(77), res.CbteNro)
	assert.NotContains(t, s.calls, "ultimo")
}

func TestAuthorize_UltimoInaccesible(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{lastErr: errors.New("timeout")}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityUnreachable, authorizationKind(t, err))
	assert.NotContains(t, s.calls, "solicitar")
	assert.Nil(t, b.Comprobante.CbteNro)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificación de la respuesta
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthorize_Aprobado(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{last: 10, caeResp: &infraafip.CAEResponse{
		Resultado: "A", CAE: "74123456789012", Vencimiento: "20261028",
		Observaciones: []string{"10217: El credito fiscal discriminado..."},
	}}

	res, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	require.NoError(t, err)

	assert.Equal(t, "A", res.Resultado)
	assert.Equal(t, "74123456789012", res.CAE)
	assert.Equal(t, "20261028", res.VencimientoCAE)
	assert.Equal(t, "20261018", res.FechaCbte)
	assert.Equal(t, "121.00", res.ImpTotal.StringFixed(2))
	assert.Equal(t, []string{"10217: El credito fiscal discriminado..."}, res.Observaciones, "las observaciones son advertencias, no errores")
	assert.True(t, b.Comprobante.Autorizado())
	assert.Equal(t, "74123456789012", b.Comprobante.CAE())
}

func TestAuthorize_RechazoConMensajeTextual(t *testing.T) {
	b := buildB(t, nil)
	msg := "10016: El numero o fecha del comprobante no se corresponde con el proximo a autorizar"
	s := &fakeSession{last: 10, caeResp: &infraafip.CAEResponse{ErrMsg: msg, Resultado: "R"}}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityRejected, authorizationKind(t, err))

	var aerr *domain.AuthorizationError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, msg, aerr.Message)
	assert.False(t, b.Comprobante.Autorizado())
	assert.Empty(t, b.Comprobante.CAE())
	assert.Empty(t, b.Comprobante.VencimientoCAE())
	assert.Empty(t, b.Comprobante.Resultado())
}

// Resultado "R" sin Errors: los motivos vienen como observaciones y deben llegar al llamador.
func TestAuthorize_RechazoConObservaciones(t *testing.T) {
	b := buildB(t, nil)
	obs := []string{"10015: DocNro invalido", "10013: DocTipo no admitido"}
	s := &fakeSession{last: 10, caeResp: &infraafip.CAEResponse{Resultado: "R", Observaciones: obs}}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityRejected, authorizationKind(t, err))

	var aerr *domain.AuthorizationError
	require.True(t, errors.As(err, &aerr))
	assert.Contains(t, aerr.Message, "10015: DocNro invalido")
	assert.Contains(t, aerr.Message, "10013: DocTipo no admitido")
	assert.Equal(t, obs, aerr.Observaciones)
	assert.False(t, b.Comprobante.Autorizado())
}

func TestAuthorize_RechazoSinObservaciones(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{last: 10, caeResp: &infraafip.CAEResponse{Resultado: "R"}}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityRejected, authorizationKind(t, err))
}

// Un SOAP Fault es una respuesta de AFIP: se informa como rechazo con su texto.
func TestAuthorize_SOAPFaultEsRechazo(t *testing.T) {
	b := buildB(t, nil)
	fault := &infraafip.FaultError{Code: "soap:600", String: "ValidacionDeToken: No apareció CUIT en lista de relaciones"}
	s := &fakeSession{last: 10, caeErr: fault}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityRejected, authorizationKind(t, err))

	var aerr *domain.AuthorizationError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "600: ValidacionDeToken: No apareció CUIT en lista de relaciones", aerr.Message)
	assert.ErrorIs(t, err, fault)
}

func TestAuthorize_SOAPFaultEnUltimoAutorizado(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{lastErr: &infraafip.FaultError{Code: "ns1:cms.cert.expired", String: "Certificado expirado"}}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityRejected, authorizationKind(t, err))
	assert.NotContains(t, s.calls, "solicitar")
}

func TestAuthorize_AprobacionIncompleta(t *testing.T) {
	cases := map[string]*infraafip.CAEResponse{
		"cae vacío":          {Resultado: "A", CAE: "", Vencimiento: "20261028"},
		"vencimiento vacío":  {Resultado: "A", CAE: "74123456789012"},
		"resultado distinto": {Resultado: "P", CAE: "74123456789012", Vencimiento: "20261028"},
		"parcial sin CAE":    {Resultado: "P", Observaciones: []string{"10048: Campo ImpTotal no coincide"}},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			b := buildB(t, nil)
			s := &fakeSession{last: 10, caeResp: resp}

			_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
			assert.Equal(t, domain.UnexpectedAuthorityState, authorizationKind(t, err))
			assert.False(t, b.Comprobante.Autorizado())
		})
	}
}

func TestAuthorize_ErrorDeTransporteNoSeReintenta(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{last: 10, caeErr: errors.New("connection reset")}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.Equal(t, domain.AuthorityUnreachable, authorizationKind(t, err))

	solicitudes := 0
	for _, c := range s.calls {
		if c == "solicitar" {
			solicitudes++
		}
	}
	assert.Equal(t, 1, solicitudes)
}

// ──────────────────────────────────────────────────────────────────────────────
// Asociados y sellado
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthorize_NotaDeCreditoConAsociado(t *testing.T) {
	b := buildB(t, func(b *billing.Borrador) {
		tipo, pto, nro := 6, 4000, int64(4100)
		b.Comprobante.TipoCbte = 8
		b.Comprobante.AsociadoTipo = &tipo
		b.Comprobante.AsociadoPuntoVta = &pto
		b.Comprobante.AsociadoNumero = &nro
		b.Comprobante.AsociadoFecha = "20261017"
	})
	require.NoError(t, domafip.LinkAsociado(b.Comprobante, "20111111112"))
	s := &fakeSession{last: 3}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	require.NoError(t, err)

	require.Len(t, s.asociados, 1)
	assert.Equal(t, 6, s.asociados[0].Tipo)
	assert.Equal(t, int64(4100), s.asociados[0].Nro)
	assert.Equal(t, "20111111112", s.asociados[0].Cuit)
	assert.Equal(t, []string{"ultimo", "crear", "asociado", "iva", "solicitar"}, s.calls)
}

func TestAuthorize_SellaComprobanteYAlicuotas(t *testing.T) {
	b := buildB(t, nil)
	s := &fakeSession{last: 1, caeResp: nil}

	_, err := billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	require.NoError(t, err)

	assert.True(t, b.Comprobante.Sealed())
	assert.ErrorIs(t, b.IVAs.Add(5, b.Comprobante.ImpNeto, b.Comprobante.ImpIVA), domain.ErrComprobanteSealed)

	_, err = billing.Authorize(context.Background(), b.Comprobante, b.IVAs, s)
	assert.ErrorIs(t, err, domain.ErrAlreadyAuthorized)
}
