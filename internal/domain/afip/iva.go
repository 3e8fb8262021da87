// Package afip contiene la lógica de dominio pura para armar comprobantes WSFEv1:
// acumulación de alícuotas de IVA y vinculación de comprobantes asociados.
package afip

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// IVAAggregator acumula base imponible e importe por código de alícuota.
// Pertenece a un único comprobante y se descarta al terminar el intento de autorización.
type IVAAggregator struct {
	buckets map[int]*entity.AlicuotaIVA
	order   []int
	sealed  bool
}

// NewIVAAggregator crea un agregador vacío.
func NewIVAAggregator() *IVAAggregator {
	return &IVAAggregator{buckets: make(map[int]*entity.AlicuotaIVA)}
}

// Add suma base e importe a la alícuota id, creándola en el primer aporte.
// Los montos solo crecen: aportes negativos se rechazan.
func (a *IVAAggregator) Add(id int, base, importe decimal.Decimal) error {
	if a.sealed {
		return domain.ErrComprobanteSealed
	}
	if base.IsNegative() || importe.IsNegative() {
		return fmt.Errorf("%w: alícuota %d con montos negativos", domain.ErrInvalidInput, id)
	}
	b, ok := a.buckets[id]
	if !ok {
		b = &entity.AlicuotaIVA{ID: id, BaseImp: decimal.Zero, Importe: decimal.Zero}
		a.buckets[id] = b
		a.order = append(a.order, id)
	}
	b.BaseImp = b.BaseImp.Add(base)
	b.Importe = b.Importe.Add(importe)
	return nil
}

// Seal impide nuevos aportes (se llama al iniciar el envío).
func (a *IVAAggregator) Seal() { a.sealed = true }

// Alicuotas devuelve copias de las alícuotas en orden de creación.
func (a *IVAAggregator) Alicuotas() []entity.AlicuotaIVA {
	out := make([]entity.AlicuotaIVA, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.buckets[id])
	}
	return out
}

// Len cantidad de alícuotas distintas.
func (a *IVAAggregator) Len() int { return len(a.order) }

// Totales devuelve la suma de bases y la suma de importes, redondeadas a 2 decimales.
func (a *IVAAggregator) Totales() (neto, iva decimal.Decimal) {
	neto, iva = decimal.Zero, decimal.Zero
	for _, id := range a.order {
		neto = neto.Add(a.buckets[id].BaseImp)
		iva = iva.Add(a.buckets[id].Importe)
	}
	return neto.Round(2), iva.Round(2)
}
