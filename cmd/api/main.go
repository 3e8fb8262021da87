package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/facturador-afip/docs"
	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/application/dto"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	httpRouter "github.com/jhoicas/facturador-afip/internal/interfaces/http"
	"github.com/jhoicas/facturador-afip/pkg/config"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("afip_production", cfg.AFIP.Production).
		Msg("iniciando aplicación")

	tickets := infraafip.NewFileTicketProvider(cfg.AFIP.TAPathHomo, cfg.AFIP.TAPathProd)
	wsfe := infraafip.NewClient(infraafip.ClientConfig{
		CUIT:     cfg.AFIP.CUIT,
		URLHomo:  cfg.AFIP.WSFEURLHomo,
		URLProd:  cfg.AFIP.WSFEURLProd,
		Timeout:  cfg.AFIP.Timeout,
		RetryMax: cfg.AFIP.RetryMax,
	}, tickets, log.Component("wsfe"))

	facturadorUC := billing.NewFacturadorUseCase(wsfe, billing.FacturadorConfig{
		CUIT:         cfg.AFIP.CUIT,
		SerializeNum: cfg.AFIP.SerializeNum,
	}, log.Component("facturador"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.AFIP.Timeout + 5*time.Second, // FECAESolicitar puede tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturador AFIP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Service: cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Facturador: facturadorUC,
		Production: cfg.AFIP.Production,
		JWTSecret:  cfg.HTTP.JWTSecret,
		Logger:     log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
