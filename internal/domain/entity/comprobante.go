package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// Comprobante representa la cabecera de un comprobante electrónico a autorizar ante AFIP (WSFEv1).
//
// Los campos de autorización (CAE, vencimiento y resultado) no son exportados: solo se
// asignan una vez mediante Approve y luego quedan inmutables.
type Comprobante struct {
	TipoDoc              int    // 80=CUIT, 86=CUIL, 96=DNI, 99=consumidor final
	NroDoc               string // número de documento del receptor
	TipoCbte             int    // tipo_cbte AFIP (1=Factura A, 6=Factura B, 3=NC A, ...)
	PuntoVta             int
	CbteNro              *int64 // nil hasta resolver (explícito o autonumerado)
	FechaCbte            string // YYYYMMDD
	Concepto             int    // 1=productos, 3=servicios (derivado)
	ImpTotal             decimal.Decimal
	ImpTotConc           decimal.Decimal // no gravado
	ImpNeto              decimal.Decimal // suma redondeada de las bases de IVA
	ImpOpEx              decimal.Decimal // exento
	ImpTrib              decimal.Decimal
	ImpIVA               decimal.Decimal // suma redondeada de los importes de IVA
	MonedaID             string
	MonedaCtz            decimal.Decimal
	CondicionIVAReceptor int

	FechaServDesde string
	FechaServHasta string
	FechaVencPago  string

	Obs            string
	ObsGenerales   string
	ObsComerciales string

	// Datos del comprobante asociado (notas de crédito / débito).
	AsociadoTipo     *int
	AsociadoPuntoVta *int
	AsociadoNumero   *int64
	AsociadoFecha    string

	Asociados []CbteAsociado

	resultado      string
	cae            string
	fchVencimiento string
	sealed         bool
}

// Numero devuelve el número resuelto, o 0 si todavía no se resolvió.
func (c *Comprobante) Numero() int64 {
	if c.CbteNro == nil {
		return 0
	}
	return *c.CbteNro
}

// SetNumero fija el número de comprobante. cbt_desde y cbt_hasta siempre coinciden con él.
func (c *Comprobante) SetNumero(n int64) {
	c.CbteNro = &n
}

// Seal marca el comprobante como enviado: a partir de aquí no admite más asociados ni alícuotas.
func (c *Comprobante) Seal() { c.sealed = true }

// Sealed indica si el comprobante ya fue enviado a AFIP.
func (c *Comprobante) Sealed() bool { return c.sealed }

// Approve asigna los datos de autorización. Solo puede llamarse una vez por instancia.
func (c *Comprobante) Approve(resultado, cae, vencimiento string) error {
	if c.cae != "" {
		return domain.ErrAlreadyAuthorized
	}
	c.resultado = resultado
	c.cae = cae
	c.fchVencimiento = vencimiento
	return nil
}

// Autorizado indica si el comprobante ya tiene CAE.
func (c *Comprobante) Autorizado() bool { return c.cae != "" }

// CAE código de autorización electrónico.
func (c *Comprobante) CAE() string { return c.cae }

// VencimientoCAE fecha de vencimiento del CAE (YYYYMMDD).
func (c *Comprobante) VencimientoCAE() string { return c.fchVencimiento }

// Resultado código de resultado de AFIP ("A" aprobado).
func (c *Comprobante) Resultado() string { return c.resultado }

// AlicuotaIVA subtotal de IVA para un código de alícuota AFIP.
type AlicuotaIVA struct {
	ID      int // 3=0%, 4=10.5%, 5=21%, 6=27%, 8=5%, 9=2.5%
	BaseImp decimal.Decimal
	Importe decimal.Decimal
}

// CbteAsociado referencia a un comprobante previo (notas de crédito / débito).
// Cuit es el del emisor actual, no el del receptor.
type CbteAsociado struct {
	Tipo   int
	PtoVta int
	Nro    int64
	Cuit   string
	Fecha  string
}
