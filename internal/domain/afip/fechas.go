package afip

import (
	"time"

	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// zonaArgentina huso horario de la fecha de emisión. Si la base tz no está disponible se usa UTC-3 fijo.
var zonaArgentina = func() *time.Location {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		return time.FixedZone("ART", -3*60*60)
	}
	return loc
}()

// Hoy fecha de emisión por defecto (AAAAMMDD, hora argentina).
func Hoy(now time.Time) string {
	return now.In(zonaArgentina).Format(pkgafip.FechaLayout)
}

// FechaValida indica si s respeta el formato AAAAMMDD. La cadena vacía se considera ausente y válida.
func FechaValida(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(pkgafip.FechaLayout, s)
	return err == nil
}
