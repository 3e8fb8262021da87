package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturador-afip/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Facturador facturador
	Production bool   // entorno AFIP por defecto
	JWTSecret  string // vacío: /api/afipws sin autenticación
	Logger     zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	h := NewAFIPHandler(deps.Facturador, deps.Production, deps.Logger)

	afipws := app.Group("/api/afipws")

	// Públicas (chequeo del registro de servicios y prueba)
	afipws.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	afipws.Get("/test", h.Test)

	// Con JWT las operaciones exigen scope; sin secret quedan abiertas (red interna).
	facturar := []fiber.Handler{}
	consultar := []fiber.Handler{}
	if deps.JWTSecret != "" {
		auth := AuthMiddleware(deps.JWTSecret)
		facturar = append(facturar, auth, RequireScope(jwt.ScopeFacturar))
		consultar = append(consultar, auth, RequireScope(jwt.ScopeConsultar))
	}

	afipws.Get("/status", append(consultar, h.Status)...)
	afipws.Post("/facturador", append(facturar, h.Facturar)...)
	afipws.Get("/comprobantes/:tipo/:pto_vta/:nro", append(consultar, h.Consultar)...)
	afipws.Get("/ultimo/:tipo/:pto_vta", append(consultar, h.Ultimo)...)
}
