// Package afip implementa el cliente SOAP del WSFEv1 (Factura Electrónica Mercado Interno, AFIP)
// y la lectura del ticket de acceso emitido por el WSAA.
package afip

import (
	"context"

	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// ── Entornos ──────────────────────────────────────────────────────────────────

const (
	URLWSFEHomo = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	URLWSFEProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
)

// ── Puertos (interfaces) ──────────────────────────────────────────────────────

// CAEResponse estado expuesto por la sesión luego de FECAESolicitar.
// ErrMsg vacío indica que AFIP no informó errores.
type CAEResponse struct {
	ErrMsg        string
	Observaciones []string
	Resultado     string
	CAE           string
	Vencimiento   string
}

// ConsultaResponse estado expuesto luego de FECompConsultar.
// ErrCodes trae los códigos de Errors>Err en el mismo orden que ErrMsg.
type ConsultaResponse struct {
	ErrMsg        string
	ErrCodes      []string
	Observaciones []string
	Comprobante   *entity.ComprobanteConsultado
}

// DummyStatus estado de los servidores de AFIP (FEDummy).
type DummyStatus struct {
	AppServer  string `json:"app_server"`
	DbServer   string `json:"db_server"`
	AuthServer string `json:"auth_server"`
}

// WSFESession sesión autenticada contra el WSFEv1 para un único intento de autorización o consulta.
// CrearFactura, AgregarCmpAsoc y AgregarIva solo preparan la solicitud; CAESolicitar hace el envío.
// Una sesión no debe compartirse entre goroutines.
type WSFESession interface {
	CompUltimoAutorizado(ctx context.Context, tipoCbte, puntoVta int) (int64, error)
	CrearFactura(c *entity.Comprobante) error
	AgregarCmpAsoc(ref entity.CbteAsociado) error
	AgregarIva(iva entity.AlicuotaIVA) error
	CAESolicitar(ctx context.Context) (*CAEResponse, error)
	CompConsultar(ctx context.Context, tipoCbte, puntoVta int, nro int64) (*ConsultaResponse, error)
}

// WSFEClientFactory abre sesiones contra homologación o producción.
// La implementación concreta usa SOAP; para tests se puede inyectar un fake.
type WSFEClientFactory interface {
	Session(ctx context.Context, production bool) (WSFESession, error)
	Dummy(ctx context.Context, production bool) (*DummyStatus, error)
}
