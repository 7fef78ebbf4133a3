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

	"github.com/haythemba/gescom-api/internal/application/bulkinvoice"
	"github.com/haythemba/gescom-api/internal/application/conversion"
	"github.com/haythemba/gescom-api/internal/application/documents"
	"github.com/haythemba/gescom-api/internal/application/tracking"
	"github.com/haythemba/gescom-api/internal/infrastructure/postgres"
	httpRouter "github.com/haythemba/gescom-api/internal/interfaces/http"
	"github.com/haythemba/gescom-api/pkg/config"
	"github.com/haythemba/gescom-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("charger la configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("démarrage de l'application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion à PostgreSQL")
	}
	defer pool.Close()

	documentRepo := postgres.NewDocumentRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	trackingRepo := postgres.NewTrackingRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	inventory := postgres.NewInventory(pool)

	documentUC := documents.NewUseCase(txRunner, documentRepo, clientRepo, productRepo,
		cfg.Commerce.TimbreFiscal)
	conversionUC := conversion.NewUseCase(txRunner, inventory, cfg.Commerce.TimbreFiscal)
	bulkInvoiceUC := bulkinvoice.NewUseCase(txRunner, documentRepo, clientRepo, productRepo,
		inventory, cfg.Commerce.TimbreFiscal, cfg.Commerce.BulkMargin)
	trackingUC := tracking.NewUseCase(txRunner, documentRepo, trackingRepo, inventory)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Gescom API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DocumentUC:    documentUC,
		ConversionUC:  conversionUC,
		BulkInvoiceUC: bulkInvoiceUC,
		TrackingUC:    trackingUC,
		Products:      productRepo,
		Clients:       clientRepo,
	})

	// Arrêt propre sur SIGINT/SIGTERM.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("signal reçu, arrêt du serveur")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := cfg.HTTP.Addr()
	log.Info().Str("addr", addr).Msg("serveur HTTP à l'écoute")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("serveur HTTP")
	}
	log.Info().Msg("serveur arrêté")
}
