package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// FacturaRequest body para POST /api/afipws/facturador.
// Los campos obligatorios son punteros para distinguir "ausente" de "cero".
type FacturaRequest struct {
	TipoAfip             *int             `json:"tipo_afip" validate:"required"`
	PuntoVenta           *int             `json:"punto_venta" validate:"required"`
	TipoDocumento        *int             `json:"tipo_documento" validate:"required"`
	Documento            *string          `json:"documento" validate:"required,min=1"`
	Total                *decimal.Decimal `json:"total" validate:"required"`
	CondicionIVAReceptor *int             `json:"condicion_iva_receptor" validate:"required"`

	Nro       *int64 `json:"nro,omitempty"`        // si va vacío se autonumera
	FechaCbte string `json:"fecha_cbte,omitempty"` // AAAAMMDD; por defecto hoy

	Neto      *decimal.Decimal `json:"neto,omitempty"`    // neto gravado 21%
	IVA       *decimal.Decimal `json:"iva,omitempty"`     // IVA 21%
	Neto105   *decimal.Decimal `json:"neto105,omitempty"` // neto gravado 10.5%
	IVA105    *decimal.Decimal `json:"iva105,omitempty"`  // IVA 10.5%
	Exento    *decimal.Decimal `json:"exento,omitempty"`
	NoGravado *decimal.Decimal `json:"no_gravado,omitempty"`
	Tributos  *decimal.Decimal `json:"tributos,omitempty"`

	Alicuotas []AlicuotaRequest `json:"alicuotas,omitempty" validate:"dive"`

	MonedaID  string           `json:"moneda_id,omitempty"`
	MonedaCtz *decimal.Decimal `json:"moneda_ctz,omitempty"`

	FechaServDesde string `json:"fecha_serv_desde,omitempty"`
	FechaServHasta string `json:"fecha_serv_hasta,omitempty"`
	FechaVencPago  string `json:"fecha_venc_pago,omitempty"`

	Obs            string `json:"obs,omitempty"`
	ObsGenerales   string `json:"obs_generales,omitempty"`
	ObsComerciales string `json:"obs_comerciales,omitempty"`

	AsociadoTipoAfip          *int   `json:"asociado_tipo_afip,omitempty"`
	AsociadoPuntoVenta        *int   `json:"asociado_punto_venta,omitempty"`
	AsociadoNumeroComprobante *int64 `json:"asociado_numero_comprobante,omitempty"`
	AsociadoFechaComprobante  string `json:"asociado_fecha_comprobante,omitempty"`
}

// AlicuotaRequest alícuota adicional (códigos AFIP distintos de 21% y 10.5%).
type AlicuotaRequest struct {
	ID      int             `json:"id" validate:"required"`
	BaseImp decimal.Decimal `json:"base_imp"`
	Importe decimal.Decimal `json:"importe"`
}

// DecodeFacturaRequest decodifica el JSON rechazando campos desconocidos.
func DecodeFacturaRequest(r io.Reader) (FacturaRequest, error) {
	var req FacturaRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if name, ok := unknownField(err); ok {
			return req, domain.NewValidationError("campo desconocido", name)
		}
		if errors.Is(err, io.EOF) {
			return req, domain.NewValidationError("no se proporcionó un JSON válido")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, domain.NewValidationError("tipo de dato inválido", typeErr.Field)
		}
		return req, domain.NewValidationError("no se proporcionó un JSON válido: " + err.Error())
	}
	return req, nil
}

// DecodeFacturaRequestBytes atajo para cuerpos ya leídos (fiber).
func DecodeFacturaRequestBytes(body []byte) (FacturaRequest, error) {
	return DecodeFacturaRequest(bytes.NewReader(body))
}

func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}

// FacturaResponse eco del request con los datos de autorización.
type FacturaResponse struct {
	FacturaRequest
	CAE               string          `json:"cae"`
	VencimientoCAE    string          `json:"vencimiento_cae"`
	Resultado         string          `json:"resultado"`
	NumeroComprobante int64           `json:"numero_comprobante"`
	FechaComprobante  string          `json:"fecha_comprobante"`
	ImpNeto           decimal.Decimal `json:"imp_neto"`
	ImpIVA            decimal.Decimal `json:"imp_iva"`
	Observaciones     []string        `json:"observaciones,omitempty"`
}

// ConsultaResponse respuesta de GET /api/afipws/comprobantes/:tipo/:pto_vta/:nro.
// Encontrado=false es una respuesta normal (HTTP 200).
type ConsultaResponse struct {
	Encontrado  bool                    `json:"encontrado"`
	Mensaje     string                  `json:"mensaje"`
	Comprobante *ComprobanteConsultaDTO `json:"comprobante,omitempty"`
}

// ComprobanteConsultaDTO datos de un comprobante autorizado.
type ComprobanteConsultaDTO struct {
	TipoAfip       int             `json:"tipo_afip"`
	PuntoVenta     int             `json:"punto_venta"`
	Numero         int64           `json:"numero_comprobante"`
	Concepto       int             `json:"concepto"`
	TipoDocumento  int             `json:"tipo_documento"`
	Documento      string          `json:"documento"`
	FechaCbte      string          `json:"fecha_cbte"`
	Total          decimal.Decimal `json:"total"`
	Neto           decimal.Decimal `json:"neto"`
	IVA            decimal.Decimal `json:"iva"`
	Exento         decimal.Decimal `json:"exento"`
	NoGravado      decimal.Decimal `json:"no_gravado"`
	Tributos       decimal.Decimal `json:"tributos"`
	MonedaID       string          `json:"moneda_id"`
	MonedaCtz      decimal.Decimal `json:"moneda_ctz"`
	Resultado      string          `json:"resultado"`
	CAE            string          `json:"cae"`
	VencimientoCAE string          `json:"vencimiento_cae"`
	EmisionTipo    string          `json:"emision_tipo"`
	FechaProceso   string          `json:"fecha_proceso"`
	FechaServDesde string          `json:"fecha_serv_desde,omitempty"`
	FechaServHasta string          `json:"fecha_serv_hasta,omitempty"`
	FechaVencPago  string          `json:"fecha_venc_pago,omitempty"`

	Alicuotas []AlicuotaRequest     `json:"alicuotas,omitempty"`
	Asociados []AsociadoConsultaDTO `json:"asociados,omitempty"`
}

// AsociadoConsultaDTO comprobante asociado informado por FECompConsultar.
type AsociadoConsultaDTO struct {
	TipoAfip   int    `json:"tipo_afip"`
	PuntoVenta int    `json:"punto_venta"`
	Numero     int64  `json:"numero_comprobante"`
	Cuit       string `json:"cuit,omitempty"`
	Fecha      string `json:"fecha_comprobante,omitempty"`
}

// UltimoAutorizadoResponse respuesta de GET /api/afipws/ultimo/:tipo/:pto_vta.
type UltimoAutorizadoResponse struct {
	TipoAfip   int   `json:"tipo_afip"`
	PuntoVenta int   `json:"punto_venta"`
	Numero     int64 `json:"numero_comprobante"`
}
