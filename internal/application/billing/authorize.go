package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/facturador-afip/internal/domain"
	domafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// Authorize solicita el CAE de un comprobante ya armado:
//
//	numeración (explícita o último autorizado + 1) → carga en la sesión → FECAESolicitar → clasificación
//
// No reintenta: un rechazo de AFIP con numeración automática puede haber consumido el número.
// Los datos de autorización del comprobante solo se asignan si la respuesta es una aprobación completa.
func Authorize(ctx context.Context, c *entity.Comprobante, ivas *domafip.IVAAggregator, session infraafip.WSFESession) (*entity.AuthorizationResult, error) {
	if c.Autorizado() {
		return nil, domain.ErrAlreadyAuthorized
	}
	if c.Sealed() {
		return nil, domain.ErrComprobanteSealed
	}

	// 1. Numeración
	if c.CbteNro == nil {
		last, err := session.CompUltimoAutorizado(ctx, c.TipoCbte, c.PuntoVta)
		if err != nil {
			return nil, transportError(err, fmt.Sprintf("no se pudo obtener el último comprobante autorizado (tipo %d, punto de venta %d)", c.TipoCbte, c.PuntoVta))
		}
		c.SetNumero(last + 1)
	}

	// 2. Carga y envío. A partir de aquí no se admiten más alícuotas ni asociados.
	c.Seal()
	ivas.Seal()

	if err := stage(c, ivas, session); err != nil {
		return nil, &domain.AuthorizationError{Kind: domain.AuthorityUnreachable, Message: "no se pudo preparar la solicitud", Err: err}
	}

	resp, err := session.CAESolicitar(ctx)
	if err != nil {
		return nil, transportError(err, "error de comunicación con AFIP (estado incierto: verificar el último autorizado antes de reintentar)")
	}

	// 3. Clasificación
	if resp.ErrMsg != "" {
		return nil, &domain.AuthorizationError{Kind: domain.AuthorityRejected, Message: resp.ErrMsg, Observaciones: resp.Observaciones}
	}
	// Un rechazo de validación llega con Resultado "R" y los motivos como observaciones.
	if resp.Resultado == pkgafip.ResultadoRechazado {
		msg := "comprobante rechazado por AFIP"
		if len(resp.Observaciones) > 0 {
			msg = strings.Join(resp.Observaciones, "\n")
		}
		return nil, &domain.AuthorizationError{Kind: domain.AuthorityRejected, Message: msg, Observaciones: resp.Observaciones}
	}
	if resp.Resultado != pkgafip.ResultadoAprobado || resp.CAE == "" || resp.Vencimiento == "" {
		msg := fmt.Sprintf("respuesta de AFIP incompleta: resultado=%q cae=%q vencimiento=%q", resp.Resultado, resp.CAE, resp.Vencimiento)
		if len(resp.Observaciones) > 0 {
			msg += ": " + strings.Join(resp.Observaciones, "; ")
		}
		return nil, &domain.AuthorizationError{Kind: domain.UnexpectedAuthorityState, Message: msg, Observaciones: resp.Observaciones}
	}

	// 4. Aprobado
	if err := c.Approve(resp.Resultado, resp.CAE, resp.Vencimiento); err != nil {
		return nil, err
	}
	return &entity.AuthorizationResult{
		Resultado:      c.Resultado(),
		CAE:            c.CAE(),
		VencimientoCAE: c.VencimientoCAE(),
		CbteNro:        c.Numero(),
		FechaCbte:      c.FechaCbte,
		ImpTotal:       c.ImpTotal,
		ImpNeto:        c.ImpNeto,
		ImpIVA:         c.ImpIVA,
		ImpOpEx:        c.ImpOpEx,
		ImpTotConc:     c.ImpTotConc,
		ImpTrib:        c.ImpTrib,
		Observaciones:  resp.Observaciones,
	}, nil
}

// stage carga cabecera, asociados y alícuotas en la sesión, en ese orden.
func stage(c *entity.Comprobante, ivas *domafip.IVAAggregator, session infraafip.WSFESession) error {
	if err := session.CrearFactura(c); err != nil {
		return err
	}
	for _, ref := range c.Asociados {
		if err := session.AgregarCmpAsoc(ref); err != nil {
			return err
		}
	}
	for _, iva := range ivas.Alicuotas() {
		if iva.Importe.IsZero() && iva.BaseImp.IsZero() {
			continue
		}
		if err := session.AgregarIva(iva); err != nil {
			return err
		}
	}
	return nil
}

// transportError clasifica un error de la sesión. Un SOAP Fault es una respuesta de AFIP
// (token vencido, CUIT no autorizado) y se informa como rechazo con su texto; el resto es de red.
func transportError(err error, msg string) error {
	var fault *infraafip.FaultError
	if errors.As(err, &fault) {
		return &domain.AuthorizationError{Kind: domain.AuthorityRejected, Message: fault.Message(), Err: err}
	}
	return &domain.AuthorizationError{Kind: domain.AuthorityUnreachable, Message: msg, Err: err}
}
