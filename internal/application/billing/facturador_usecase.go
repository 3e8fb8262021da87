package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/jhoicas/facturador-afip/internal/application/dto"
	"github.com/jhoicas/facturador-afip/internal/domain"
	domafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
)

// FacturadorConfig datos del emisor para el caso de uso.
type FacturadorConfig struct {
	CUIT         string // CUIT del emisor; se informa en los comprobantes asociados
	SerializeNum bool   // serializar la autonumeración por (tipo, punto de venta)
}

// FacturadorUseCase punto de entrada para autorizar y consultar comprobantes.
// Cada llamada abre su propia sesión WSFE; no se comparte estado entre solicitudes
// salvo el candado de numeración.
type FacturadorUseCase struct {
	clients infraafip.WSFEClientFactory
	cfg     FacturadorConfig
	locks   *numberingLock
	log     zerolog.Logger
	now     func() time.Time
}

// NewFacturadorUseCase construye el caso de uso.
func NewFacturadorUseCase(clients infraafip.WSFEClientFactory, cfg FacturadorConfig, log zerolog.Logger) *FacturadorUseCase {
	return &FacturadorUseCase{
		clients: clients,
		cfg:     cfg,
		locks:   newNumberingLock(),
		log:     log,
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj usado para la fecha de emisión por defecto.
func (uc *FacturadorUseCase) WithClock(now func() time.Time) *FacturadorUseCase {
	uc.now = now
	return uc
}

// Authorize valida el request, arma el comprobante y solicita el CAE.
// Errores: *domain.ValidationError antes de cualquier llamada a AFIP, *domain.AuthorizationError después.
func (uc *FacturadorUseCase) Authorize(ctx context.Context, req dto.FacturaRequest, production bool) (*dto.FacturaResponse, error) {
	reqID := uuid.NewString()
	log := uc.log.With().Str("request_id", reqID).Bool("production", production).Logger()

	borrador, err := BuildComprobante(req, uc.now())
	if err != nil {
		log.Warn().Err(err).Msg("request de factura inválido")
		return nil, err
	}
	c := borrador.Comprobante
	if err := domafip.LinkAsociado(c, uc.cfg.CUIT); err != nil {
		return nil, err
	}

	if c.CbteNro == nil && uc.cfg.SerializeNum {
		unlock := uc.locks.Lock(numberingKey(production, c.TipoCbte, c.PuntoVta))
		defer unlock()
	}

	session, err := uc.clients.Session(ctx, production)
	if err != nil {
		log.Error().Err(err).Msg("no se pudo abrir sesión WSFE")
		return nil, unreachable(err)
	}

	log.Info().
		Int("tipo_cbte", c.TipoCbte).
		Int("punto_vta", c.PuntoVta).
		Int64("nro", c.Numero()).
		Str("total", c.ImpTotal.StringFixed(2)).
		Msg("solicitando CAE")

	res, err := Authorize(ctx, c, borrador.IVAs, session)
	if err != nil {
		var aerr *domain.AuthorizationError
		if errors.As(err, &aerr) {
			for _, obs := range aerr.Observaciones {
				log.Warn().Str("observacion", obs).Int64("nro", c.Numero()).Msg("observación de AFIP")
			}
		}
		log.Error().Err(err).Int64("nro", c.Numero()).Msg("autorización fallida")
		return nil, err
	}
	for _, obs := range res.Observaciones {
		log.Warn().Str("observacion", obs).Int64("nro", res.CbteNro).Msg("observación de AFIP")
	}
	log.Info().Int64("nro", res.CbteNro).Str("cae", res.CAE).Msg("comprobante autorizado")

	return toFacturaResponse(req, res), nil
}

// QueryInvoice consulta un comprobante. "No encontrado" no es error.
func (uc *FacturadorUseCase) QueryInvoice(ctx context.Context, tipoCbte, puntoVta int, nro int64, production bool) (*dto.ConsultaResponse, error) {
	log := uc.log.With().Str("request_id", uuid.NewString()).Bool("production", production).Logger()

	session, err := uc.clients.Session(ctx, production)
	if err != nil {
		log.Error().Err(err).Msg("no se pudo abrir sesión WSFE")
		return nil, queryUnreachable(err)
	}
	res, err := Query(ctx, session, tipoCbte, puntoVta, nro)
	if err != nil {
		log.Error().Err(err).Int("tipo_cbte", tipoCbte).Int("punto_vta", puntoVta).Int64("nro", nro).Msg("consulta fallida")
		return nil, err
	}
	log.Debug().Bool("encontrado", res.Found).Int64("nro", nro).Msg("consulta de comprobante")
	return toConsultaResponse(res), nil
}

// LastAuthorized último número autorizado para (tipo, punto de venta).
func (uc *FacturadorUseCase) LastAuthorized(ctx context.Context, tipoCbte, puntoVta int, production bool) (*dto.UltimoAutorizadoResponse, error) {
	session, err := uc.clients.Session(ctx, production)
	if err != nil {
		return nil, queryUnreachable(err)
	}
	last, err := session.CompUltimoAutorizado(ctx, tipoCbte, puntoVta)
	if err != nil {
		return nil, queryUnreachable(err)
	}
	return &dto.UltimoAutorizadoResponse{TipoAfip: tipoCbte, PuntoVenta: puntoVta, Numero: last}, nil
}

// AuthorityStatus estado de los servidores de AFIP (FEDummy). No requiere ticket.
func (uc *FacturadorUseCase) AuthorityStatus(ctx context.Context, production bool) (*infraafip.DummyStatus, error) {
	st, err := uc.clients.Dummy(ctx, production)
	if err != nil {
		return nil, queryUnreachable(err)
	}
	return st, nil
}

// ── Mapeo a DTOs ─────────────────────────────────────────────────────────────

func toFacturaResponse(req dto.FacturaRequest, res *entity.AuthorizationResult) *dto.FacturaResponse {
	return &dto.FacturaResponse{
		FacturaRequest:    req,
		CAE:               res.CAE,
		VencimientoCAE:    res.VencimientoCAE,
		Resultado:         res.Resultado,
		NumeroComprobante: res.CbteNro,
		FechaComprobante:  res.FechaCbte,
		ImpNeto:           res.ImpNeto,
		ImpIVA:            res.ImpIVA,
		Observaciones:     res.Observaciones,
	}
}

func toConsultaResponse(res *entity.QueryResult) *dto.ConsultaResponse {
	out := &dto.ConsultaResponse{Encontrado: res.Found, Mensaje: res.Message}
	if c := res.Comprobante; c != nil {
		alicuotas := lo.Map(c.IVAs, func(a entity.AlicuotaIVA, _ int) dto.AlicuotaRequest {
			return dto.AlicuotaRequest{ID: a.ID, BaseImp: a.BaseImp, Importe: a.Importe}
		})
		asociados := lo.Map(c.Asociados, func(a entity.CbteAsociado, _ int) dto.AsociadoConsultaDTO {
			return dto.AsociadoConsultaDTO{TipoAfip: a.Tipo, PuntoVenta: a.PtoVta, Numero: a.Nro, Cuit: a.Cuit, Fecha: a.Fecha}
		})
		out.Comprobante = &dto.ComprobanteConsultaDTO{
			TipoAfip:       c.TipoCbte,
			PuntoVenta:     c.PuntoVta,
			Numero:         c.CbteDesde,
			Concepto:       c.Concepto,
			TipoDocumento:  c.TipoDoc,
			Documento:      c.NroDoc,
			FechaCbte:      c.FechaCbte,
			Total:          c.ImpTotal,
			Neto:           c.ImpNeto,
			IVA:            c.ImpIVA,
			Exento:         c.ImpOpEx,
			NoGravado:      c.ImpTotConc,
			Tributos:       c.ImpTrib,
			MonedaID:       c.MonedaID,
			MonedaCtz:      c.MonedaCtz,
			Resultado:      c.Resultado,
			CAE:            c.CodAutorizacion,
			VencimientoCAE: c.FechaVto,
			EmisionTipo:    c.EmisionTipo,
			FechaProceso:   c.FechaProceso,
			FechaServDesde: c.FechaServDesde,
			FechaServHasta: c.FechaServHasta,
			FechaVencPago:  c.FechaVencPago,
			Alicuotas:      alicuotas,
			Asociados:      asociados,
		}
	}
	return out
}

func unreachable(err error) error {
	return &domain.AuthorizationError{Kind: domain.AuthorityUnreachable, Message: "AFIP no disponible", Err: err}
}

func queryUnreachable(err error) error {
	return &domain.QueryError{Kind: domain.AuthorityCommunicationFailed, Message: "AFIP no disponible", Err: err}
}
