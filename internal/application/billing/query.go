package billing

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// MensajeEncontrado mensaje fijo de una consulta exitosa; las observaciones de AFIP se agregan a continuación.
const MensajeEncontrado = "Comprobante encontrado"

// Query consulta un comprobante autorizado por (tipo, punto de venta, número).
// El código 602 de AFIP (inexistente) es un resultado normal con Found=false, nunca un error.
func Query(ctx context.Context, session infraafip.WSFESession, tipoCbte, puntoVta int, nro int64) (*entity.QueryResult, error) {
	resp, err := session.CompConsultar(ctx, tipoCbte, puntoVta, nro)
	if err != nil {
		return nil, &domain.QueryError{Kind: domain.AuthorityCommunicationFailed, Message: "error de comunicación con AFIP", Err: err}
	}

	if resp.ErrMsg != "" {
		// El mensaje completo acompaña al "no encontrado": ningún otro error se pierde.
		if lo.Contains(errCodes(resp), pkgafip.ErrCodeNoExisteComprobante) {
			return &entity.QueryResult{Found: false, Message: resp.ErrMsg}, nil
		}
		return nil, &domain.QueryError{Kind: domain.AuthorityCommunicationFailed, Message: resp.ErrMsg}
	}
	if resp.Comprobante == nil {
		return nil, &domain.QueryError{Kind: domain.AuthorityCommunicationFailed, Message: "AFIP no devolvió datos del comprobante"}
	}

	msg := MensajeEncontrado
	if len(resp.Observaciones) > 0 {
		msg += ". " + strings.Join(resp.Observaciones, "; ")
	}
	return &entity.QueryResult{Found: true, Message: msg, Comprobante: resp.Comprobante}, nil
}

// errCodes códigos de error de la respuesta. Sin códigos estructurados se toman
// del prefijo "codigo:" de cada línea de ErrMsg.
func errCodes(resp *infraafip.ConsultaResponse) []string {
	if len(resp.ErrCodes) > 0 {
		return resp.ErrCodes
	}
	return lo.FilterMap(strings.Split(resp.ErrMsg, "\n"), func(line string, _ int) (string, bool) {
		code, _, ok := strings.Cut(line, ":")
		code = strings.TrimSpace(code)
		return code, ok && code != ""
	})
}
