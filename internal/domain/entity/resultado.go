package entity

import "github.com/shopspring/decimal"

// AuthorizationResult resultado de una autorización exitosa. Se construye completo o no se construye.
type AuthorizationResult struct {
	Resultado      string
	CAE            string
	VencimientoCAE string
	CbteNro        int64
	FechaCbte      string
	ImpTotal       decimal.Decimal
	ImpNeto        decimal.Decimal
	ImpIVA         decimal.Decimal
	ImpOpEx        decimal.Decimal
	ImpTotConc     decimal.Decimal
	ImpTrib        decimal.Decimal
	Observaciones  []string // advertencias de AFIP, nunca errores
}

// ComprobanteConsultado datos de un comprobante ya autorizado, tal como los devuelve FECompConsultar.
type ComprobanteConsultado struct {
	TipoCbte        int
	PuntoVta        int
	CbteDesde       int64
	CbteHasta       int64
	Concepto        int
	TipoDoc         int
	NroDoc          string
	FechaCbte       string
	ImpTotal        decimal.Decimal
	ImpTotConc      decimal.Decimal
	ImpNeto         decimal.Decimal
	ImpOpEx         decimal.Decimal
	ImpTrib         decimal.Decimal
	ImpIVA          decimal.Decimal
	FechaServDesde  string
	FechaServHasta  string
	FechaVencPago   string
	MonedaID        string
	MonedaCtz       decimal.Decimal
	Resultado       string
	CodAutorizacion string
	EmisionTipo     string
	FechaVto        string
	FechaProceso    string
	IVAs            []AlicuotaIVA
	Asociados       []CbteAsociado
}

// QueryResult resultado de una consulta. Found=false es un resultado normal, no un error.
type QueryResult struct {
	Found       bool
	Message     string
	Comprobante *ComprobanteConsultado
}
