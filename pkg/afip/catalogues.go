// Package afip contiene catálogos de las tablas de referencia del WSFEv1
// (Factura Electrónica Mercado Interno, AFIP Argentina).
package afip

// =============================================================================
// Conceptos (FEParamGetTiposConcepto)
// =============================================================================

const (
	ConceptoProductos = 1
	ConceptoServicios = 3
)

// =============================================================================
// Alícuotas de IVA (FEParamGetTiposIva)
// =============================================================================

const (
	IVA0   = 3
	IVA105 = 4
	IVA21  = 5
	IVA27  = 6
	IVA5   = 8
	IVA25  = 9
)

// ValidIVACodes códigos de alícuota aceptados por el agregador.
var ValidIVACodes = map[int]bool{
	IVA0: true, IVA105: true, IVA21: true, IVA27: true, IVA5: true, IVA25: true,
}

// =============================================================================
// Monedas (FEParamGetTiposMonedas)
// =============================================================================

const (
	MonedaPesos       = "PES"
	DefaultCotizacion = "1.000"
)

// =============================================================================
// Códigos de error WSFEv1
// =============================================================================

// ErrCodeNoExisteComprobante FECompConsultar: "No existen datos en nuestros registros
// para los parametros ingresados."
const ErrCodeNoExisteComprobante = "602"

// ResultadoAprobado valor de Resultado en FECAESolicitar cuando el comprobante fue aprobado.
const ResultadoAprobado = "A"

// ResultadoRechazado valor de Resultado cuando AFIP rechaza el comprobante (motivos en Observaciones).
const ResultadoRechazado = "R"

// FechaLayout formato de fechas del WSFEv1 (AAAAMMDD).
const FechaLayout = "20060102"
