package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturador-afip/internal/application/dto"
	"github.com/jhoicas/facturador-afip/internal/domain"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
)

// facturador contrato que el handler necesita del caso de uso.
// Lo implementa *billing.FacturadorUseCase.
type facturador interface {
	Authorize(ctx context.Context, req dto.FacturaRequest, production bool) (*dto.FacturaResponse, error)
	QueryInvoice(ctx context.Context, tipoCbte, puntoVta int, nro int64, production bool) (*dto.ConsultaResponse, error)
	LastAuthorized(ctx context.Context, tipoCbte, puntoVta int, production bool) (*dto.UltimoAutorizadoResponse, error)
	AuthorityStatus(ctx context.Context, production bool) (*infraafip.DummyStatus, error)
}

// AFIPHandler maneja /api/afipws.
type AFIPHandler struct {
	uc         facturador
	production bool // entorno por defecto; ?production=true|false lo reemplaza por request
	log        zerolog.Logger
}

// NewAFIPHandler construye el handler.
func NewAFIPHandler(uc facturador, production bool, log zerolog.Logger) *AFIPHandler {
	return &AFIPHandler{uc: uc, production: production, log: log}
}

// Test endpoint de prueba.
// GET /api/afipws/test
func (h *AFIPHandler) Test(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"test": "ok"})
}

// Status estado de los servidores de AFIP (FEDummy).
// GET /api/afipws/status
func (h *AFIPHandler) Status(c *fiber.Ctx) error {
	production, err := h.productionFlag(c)
	if err != nil {
		return h.writeError(c, err)
	}
	st, err := h.uc.AuthorityStatus(c.Context(), production)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(st)
}

// Facturar valida el comprobante y solicita el CAE.
// POST /api/afipws/facturador
func (h *AFIPHandler) Facturar(c *fiber.Ctx) error {
	production, err := h.productionFlag(c)
	if err != nil {
		return h.writeError(c, err)
	}
	req, err := dto.DecodeFacturaRequestBytes(c.Body())
	if err != nil {
		return h.writeError(c, err)
	}
	h.log.Info().Str("client_id", GetClientID(c)).Bool("production", production).Msg("facturando ...")

	resp, err := h.uc.Authorize(c.Context(), req, production)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(resp)
}

// Consultar busca un comprobante autorizado. Si no existe responde 200 con encontrado=false.
// GET /api/afipws/comprobantes/:tipo/:pto_vta/:nro
func (h *AFIPHandler) Consultar(c *fiber.Ctx) error {
	production, err := h.productionFlag(c)
	if err != nil {
		return h.writeError(c, err)
	}
	tipo, pto, err := tipoYPunto(c)
	if err != nil {
		return h.writeError(c, err)
	}
	nro, err := strconv.ParseInt(c.Params("nro"), 10, 64)
	if err != nil || nro <= 0 {
		return h.writeError(c, domain.NewValidationError("parámetro inválido", "nro"))
	}
	resp, err := h.uc.QueryInvoice(c.Context(), tipo, pto, nro, production)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(resp)
}

// Ultimo último número autorizado.
// GET /api/afipws/ultimo/:tipo/:pto_vta
func (h *AFIPHandler) Ultimo(c *fiber.Ctx) error {
	production, err := h.productionFlag(c)
	if err != nil {
		return h.writeError(c, err)
	}
	tipo, pto, err := tipoYPunto(c)
	if err != nil {
		return h.writeError(c, err)
	}
	resp, err := h.uc.LastAuthorized(c.Context(), tipo, pto, production)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(resp)
}

func (h *AFIPHandler) productionFlag(c *fiber.Ctx) (bool, error) {
	raw := c.Query("production")
	if raw == "" {
		return h.production, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError("parámetro inválido", "production")
	}
	return v, nil
}

func tipoYPunto(c *fiber.Ctx) (int, int, error) {
	var bad []string
	tipo, err := c.ParamsInt("tipo")
	if err != nil || tipo <= 0 {
		bad = append(bad, "tipo")
	}
	pto, err := c.ParamsInt("pto_vta")
	if err != nil || pto <= 0 {
		bad = append(bad, "pto_vta")
	}
	if len(bad) > 0 {
		return 0, 0, domain.NewValidationError("parámetro inválido", bad...)
	}
	return tipo, pto, nil
}

// writeError traduce la taxonomía de errores del facturador a HTTP.
func (h *AFIPHandler) writeError(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		aerr *domain.AuthorizationError
		qerr *domain.QueryError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: verr.Error(), Fields: verr.Fields})
	case errors.As(err, &aerr):
		h.log.Error().Err(err).Str("kind", string(aerr.Kind)).Msg("error al facturar")
		switch aerr.Kind {
		case domain.AuthorityUnreachable:
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: string(aerr.Kind), Message: aerr.Error()})
		case domain.UnexpectedAuthorityState:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: string(aerr.Kind), Message: aerr.Message})
		default:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "AUTHORIZATION_REJECTED", Message: aerr.Message})
		}
	case errors.As(err, &qerr):
		h.log.Error().Err(err).Msg("error de consulta")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: string(qerr.Kind), Message: qerr.Error()})
	case errors.Is(err, domain.ErrComprobanteSealed), errors.Is(err, domain.ErrAlreadyAuthorized):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		h.log.Error().Err(err).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
