package billing_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fake de sesión WSFE
// ──────────────────────────────────────────────────────────────────────────────

// fakeSession registra lo que se carga y devuelve respuestas preconfiguradas.
type fakeSession struct {
	last    int64
	lastErr error

	caeResp *infraafip.CAEResponse
	caeErr  error

	consulta    *infraafip.ConsultaResponse
	consultaErr error

	calls     []string
	factura   *entity.Comprobante
	asociados []entity.CbteAsociado
	ivas      []entity.AlicuotaIVA
}

func approved() *infraafip.CAEResponse {
	return &infraafip.CAEResponse{Resultado: "A", CAE: "74123456789012", Vencimiento: "20261028"}
}

func (s *fakeSession) CompUltimoAutorizado(_ context.Context, _, _ int) (int64, error) {
	s.calls = append(s.calls, "ultimo")
	return s.last, s.lastErr
}

func (s *fakeSession) CrearFactura(c *entity.Comprobante) error {
	s.calls = append(s.calls, "crear")
	if c.CbteNro == nil {
		return errors.New("sin número")
	}
	s.factura = c
	return nil
}

func (s *fakeSession) AgregarCmpAsoc(ref entity.CbteAsociado) error {
	s.calls = append(s.calls, "asociado")
	s.asociados = append(s.asociados, ref)
	return nil
}

func (s *fakeSession) AgregarIva(iva entity.AlicuotaIVA) error {
	s.calls = append(s.calls, "iva")
	s.ivas = append(s.ivas, iva)
	return nil
}

func (s *fakeSession) CAESolicitar(_ context.Context) (*infraafip.CAEResponse, error) {
	s.calls = append(s.calls, "solicitar")
	if s.caeErr != nil {
		return nil, s.caeErr
	}
	if s.caeResp == nil {
		return approved(), nil
	}
	return s.caeResp, nil
}

func (s *fakeSession) CompConsultar(_ context.Context, _, _ int, _ int64) (*infraafip.ConsultaResponse, error) {
	s.calls = append(s.calls, "consultar")
	return s.consulta, s.consultaErr
}

// fakeFactory entrega siempre la misma sesión.
type fakeFactory struct {
	mu         sync.Mutex
	session    infraafip.WSFESession
	sessionErr error
	production []bool
	dummy      *infraafip.DummyStatus
}

func (f *fakeFactory) Session(_ context.Context, production bool) (infraafip.WSFESession, error) {
	f.mu.Lock()
	f.production = append(f.production, production)
	f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeFactory) Dummy(_ context.Context, _ bool) (*infraafip.DummyStatus, error) {
	if f.dummy == nil {
		return nil, errors.New("sin conexión")
	}
	return f.dummy, nil
}
