package billing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/application/dto"
	"github.com/jhoicas/facturador-afip/internal/domain"
	domafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// Borrador comprobante normalizado junto con sus alícuotas, listo para autorizar.
// Ambos pertenecen a un único intento de autorización.
type Borrador struct {
	Comprobante *entity.Comprobante
	IVAs        *domafip.IVAAggregator
}

var validate = newValidator()

// newValidator reporta los errores con el nombre JSON del campo.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BuildComprobante valida el request y lo normaliza en un comprobante.
// No realiza llamadas de red ni resuelve numeración.
//
// Orden de validación: total <= 0 primero, luego campos obligatorios ausentes
// (todos juntos) y por último reglas de valor.
func BuildComprobante(req dto.FacturaRequest, now time.Time) (*Borrador, error) {
	if req.Total != nil && !req.Total.IsPositive() {
		return nil, domain.NewValidationError("el total debe ser mayor a cero", "total")
	}
	if missing := missingFields(req); len(missing) > 0 {
		return nil, domain.NewValidationError("faltan campos obligatorios", missing...)
	}
	if invalid := invalidFields(req); len(invalid) > 0 {
		return nil, domain.NewValidationError("valores inválidos", invalid...)
	}

	c := &entity.Comprobante{
		TipoDoc:              *req.TipoDocumento,
		NroDoc:               strings.TrimSpace(*req.Documento),
		TipoCbte:             *req.TipoAfip,
		PuntoVta:             *req.PuntoVenta,
		CbteNro:              req.Nro,
		FechaCbte:            req.FechaCbte,
		Concepto:             domafip.DeriveConcepto(req.FechaServDesde, req.FechaServHasta),
		ImpTotal:             req.Total.Round(2),
		ImpTotConc:           amount(req.NoGravado),
		ImpOpEx:              amount(req.Exento),
		ImpTrib:              amount(req.Tributos),
		MonedaID:             req.MonedaID,
		MonedaCtz:            decimal.RequireFromString(pkgafip.DefaultCotizacion),
		CondicionIVAReceptor: *req.CondicionIVAReceptor,
		FechaServDesde:       req.FechaServDesde,
		FechaServHasta:       req.FechaServHasta,
		FechaVencPago:        req.FechaVencPago,
		Obs:                  req.Obs,
		ObsGenerales:         req.ObsGenerales,
		ObsComerciales:       req.ObsComerciales,
		AsociadoTipo:         req.AsociadoTipoAfip,
		AsociadoPuntoVta:     req.AsociadoPuntoVenta,
		AsociadoNumero:       req.AsociadoNumeroComprobante,
		AsociadoFecha:        req.AsociadoFechaComprobante,
	}
	if c.FechaCbte == "" {
		c.FechaCbte = domafip.Hoy(now)
	}
	if c.MonedaID == "" {
		c.MonedaID = pkgafip.MonedaPesos
	}
	if req.MonedaCtz != nil {
		c.MonedaCtz = *req.MonedaCtz
	}

	ivas := domafip.NewIVAAggregator()
	// Solo se informan alícuotas con importe positivo.
	if iva := amount(req.IVA); iva.IsPositive() {
		if err := ivas.Add(pkgafip.IVA21, amount(req.Neto), iva); err != nil {
			return nil, err
		}
	}
	if iva := amount(req.IVA105); iva.IsPositive() {
		if err := ivas.Add(pkgafip.IVA105, amount(req.Neto105), iva); err != nil {
			return nil, err
		}
	}
	// Las alícuotas explícitas entran con base o importe positivo: la de 0% (id 3) nunca tiene importe.
	for _, a := range req.Alicuotas {
		if !a.BaseImp.IsPositive() && !a.Importe.IsPositive() {
			continue
		}
		if err := ivas.Add(a.ID, a.BaseImp, a.Importe); err != nil {
			return nil, err
		}
	}
	c.ImpNeto, c.ImpIVA = ivas.Totales()

	return &Borrador{Comprobante: c, IVAs: ivas}, nil
}

func missingFields(req dto.FacturaRequest) []string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		// "FacturaRequest.alicuotas[0].id" -> "alicuotas[0].id"
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			return ns[i+1:]
		}
		return fe.Field()
	})
	return lo.Uniq(fields)
}

func invalidFields(req dto.FacturaRequest) []string {
	var out []string

	montos := []struct {
		name string
		v    *decimal.Decimal
	}{
		{"neto", req.Neto}, {"iva", req.IVA},
		{"neto105", req.Neto105}, {"iva105", req.IVA105},
		{"exento", req.Exento}, {"no_gravado", req.NoGravado}, {"tributos", req.Tributos},
	}
	for _, m := range montos {
		if m.v != nil && m.v.IsNegative() {
			out = append(out, m.name)
		}
	}
	// Un neto gravado sin su IVA no llegaría a ninguna alícuota y el neto informado quedaría en cero.
	if amount(req.Neto).IsPositive() && !amount(req.IVA).IsPositive() {
		out = append(out, "iva")
	}
	if amount(req.Neto105).IsPositive() && !amount(req.IVA105).IsPositive() {
		out = append(out, "iva105")
	}

	fechas := []struct{ name, v string }{
		{"fecha_cbte", req.FechaCbte},
		{"fecha_serv_desde", req.FechaServDesde},
		{"fecha_serv_hasta", req.FechaServHasta},
		{"fecha_venc_pago", req.FechaVencPago},
		{"asociado_fecha_comprobante", req.AsociadoFechaComprobante},
	}
	for _, f := range fechas {
		if !domafip.FechaValida(f.v) {
			out = append(out, f.name)
		}
	}

	if req.MonedaCtz != nil && !req.MonedaCtz.IsPositive() {
		out = append(out, "moneda_ctz")
	}
	if req.Nro != nil && *req.Nro <= 0 {
		out = append(out, "nro")
	}

	for i, a := range req.Alicuotas {
		if !pkgafip.ValidIVACodes[a.ID] {
			out = append(out, fmt.Sprintf("alicuotas[%d].id", i))
		}
		if a.BaseImp.IsNegative() || a.Importe.IsNegative() {
			out = append(out, fmt.Sprintf("alicuotas[%d]", i))
		}
	}
	return lo.Uniq(out)
}

func amount(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
