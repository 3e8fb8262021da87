package afip

import (
	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// LinkAsociado agrega al comprobante la referencia al comprobante asociado
// cuando AsociadoNumero no es nil. cuitEmisor es el CUIT del emisor actual.
// Invocarlo dos veces con el mismo estado no duplica la referencia.
func LinkAsociado(c *entity.Comprobante, cuitEmisor string) error {
	if c.AsociadoNumero == nil {
		return nil
	}
	if c.Sealed() {
		return domain.ErrComprobanteSealed
	}
	ref := entity.CbteAsociado{
		Nro:   *c.AsociadoNumero,
		Cuit:  cuitEmisor,
		Fecha: c.AsociadoFecha,
	}
	if c.AsociadoTipo != nil {
		ref.Tipo = *c.AsociadoTipo
	}
	if c.AsociadoPuntoVta != nil {
		ref.PtoVta = *c.AsociadoPuntoVta
	}
	for _, existing := range c.Asociados {
		if existing == ref {
			return nil
		}
	}
	c.Asociados = append(c.Asociados, ref)
	return nil
}

// DeriveConcepto servicios si hay alguna fecha de servicio, productos en otro caso.
func DeriveConcepto(fechaServDesde, fechaServHasta string) int {
	if fechaServDesde != "" || fechaServHasta != "" {
		return pkgafip.ConceptoServicios
	}
	return pkgafip.ConceptoProductos
}
