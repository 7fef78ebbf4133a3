package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/bulkinvoice"
	"github.com/haythemba/gescom-api/internal/application/dto"
)

// BulkInvoiceHandler requêtes HTTP de facturation groupée du client de passage.
type BulkInvoiceHandler struct {
	uc *bulkinvoice.UseCase
}

// NewBulkInvoiceHandler construit le handler.
func NewBulkInvoiceHandler(uc *bulkinvoice.UseCase) *BulkInvoiceHandler {
	return &BulkInvoiceHandler{uc: uc}
}

// Simulate godoc
// @Summary      Simuler le regroupement de commandes en facture (aucune persistance)
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkInvoiceRequest  true  "Commandes à regrouper"
// @Success      200   {object}  dto.BulkSimulationResponse
// @Failure      409   {object}  dto.ErrorResponse  "PARTIAL_BATCH_CONFLICT"
// @Router       /api/invoices/bulk/simulate [post]
func (h *BulkInvoiceHandler) Simulate(c *fiber.Ctx) error {
	var in dto.BulkInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	out, err := h.uc.Simulate(c.Context(), in.SourceIDs, in.Reprice)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Commit godoc
// @Summary      Regrouper des commandes en une facture (tout ou rien)
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkInvoiceRequest  true  "Commandes à regrouper"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse  "PARTIAL_BATCH_CONFLICT avec les sources en conflit"
// @Router       /api/invoices/bulk [post]
func (h *BulkInvoiceHandler) Commit(c *fiber.Ctx) error {
	var in dto.BulkInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	doc, err := h.uc.Commit(c.Context(), in.SourceIDs, in.Reprice)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}
