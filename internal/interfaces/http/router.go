package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/bulkinvoice"
	"github.com/haythemba/gescom-api/internal/application/conversion"
	"github.com/haythemba/gescom-api/internal/application/documents"
	"github.com/haythemba/gescom-api/internal/application/tracking"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// RouterDeps dépendances du router.
type RouterDeps struct {
	DocumentUC    *documents.UseCase
	ConversionUC  *conversion.UseCase
	BulkInvoiceUC *bulkinvoice.UseCase
	TrackingUC    *tracking.UseCase
	Products      repository.ProductRepository
	Clients       repository.ClientRepository
}

// Router enregistre les routes de l'API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Documents commerciaux (devis, commandes, BL, factures, avoirs)
	docs := api.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC)
	docs.Post("/", documentHandler.Create)
	docs.Get("/", documentHandler.List)
	docs.Get("/:id", documentHandler.GetByID)
	docs.Put("/:id", documentHandler.Update)
	docs.Delete("/:id", documentHandler.Delete)
	docs.Post("/:id/status", documentHandler.ChangeStatus)

	// Conversions
	conversionHandler := NewConversionHandler(deps.ConversionUC)
	docs.Post("/:id/convert", conversionHandler.Convert)

	// Facturation groupée du client de passage
	invoices := api.Group("/invoices")
	bulkHandler := NewBulkInvoiceHandler(deps.BulkInvoiceUC)
	invoices.Post("/bulk/simulate", bulkHandler.Simulate)
	invoices.Post("/bulk", bulkHandler.Commit)

	// Suivi de livraison des commandes
	orders := api.Group("/orders")
	trackingHandler := NewTrackingHandler(deps.TrackingUC)
	orders.Get("/:id/tracking", trackingHandler.Get)
	orders.Put("/:id/tracking", trackingHandler.Update)

	// Catalogue et contreparties
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Products)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	clients := api.Group("/clients")
	clientHandler := NewClientHandler(deps.Clients)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
}
