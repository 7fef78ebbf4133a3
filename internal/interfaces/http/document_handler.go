package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/documents"
	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// DocumentHandler requêtes HTTP des documents commerciaux.
type DocumentHandler struct {
	uc *documents.UseCase
}

// NewDocumentHandler construit le handler.
func NewDocumentHandler(uc *documents.UseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Create godoc
// @Summary      Créer un document commercial
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Document à créer"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	doc, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}

// GetByID godoc
// @Summary      Obtenir un document par ID
// @Tags         documents
// @Produce      json
// @Param        id   path  string  true  "ID du document"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// List godoc
// @Summary      Lister les documents
// @Tags         documents
// @Produce      json
// @Param        type            query  string  false  "Type (DEVIS, COMMANDE, BON_LIVRAISON, FACTURE, AVOIR)"
// @Param        side            query  string  false  "Côté (CLIENT, FOURNISSEUR)"
// @Param        status          query  string  false  "Statut"
// @Param        counterparty_id query  string  false  "Contrepartie"
// @Param        limit           query  int     false  "Limite"  default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.DocumentResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "pagination invalide"})
	}
	page.DefaultPage()

	filter := repository.DocumentFilter{
		Type:           entity.DocumentType(c.Query("type")),
		Side:           entity.DocumentSide(c.Query("side")),
		Status:         c.Query("status"),
		CounterpartyID: c.Query("counterparty_id"),
		Limit:          page.Limit,
		Offset:         page.Offset,
	}
	list, err := h.uc.List(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.DocumentResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromDocument(&list[i]))
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Mettre à jour un document (remplacement intégral des lignes)
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID du document"
// @Param        body  body  dto.UpdateDocumentRequest  true  "Nouvelles lignes et champs"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	doc, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// Delete godoc
// @Summary      Supprimer un document (statut initial, sans lien aval)
// @Tags         documents
// @Param        id  path  string  true  "ID du document"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangeStatus godoc
// @Summary      Changer le statut d'un document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID du document"
// @Param        body  body  dto.StatusRequest  true  "Statut cible"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/status [post]
func (h *DocumentHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.StatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	if in.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status est requis"})
	}
	doc, err := h.uc.ChangeStatus(c.Context(), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}
