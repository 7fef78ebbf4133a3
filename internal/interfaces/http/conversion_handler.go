package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/conversion"
	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// ConversionHandler requêtes HTTP de conversion de documents.
type ConversionHandler struct {
	uc *conversion.UseCase
}

// NewConversionHandler construit le handler.
func NewConversionHandler(uc *conversion.UseCase) *ConversionHandler {
	return &ConversionHandler{uc: uc}
}

// Convert godoc
// @Summary      Convertir un document (devis→commande, commande→BL/facture, BL→facture)
// @Tags         conversions
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID du document source"
// @Param        body  body  dto.ConvertRequest  true  "Type cible et décisions de substitution"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse  "ALREADY_LINKED, NO_ELIGIBLE_SUBSTITUTE"
// @Failure      422   {object}  dto.ErrorResponse  "SUBSTITUTION_REQUIRED avec candidats classés"
// @Router       /api/documents/{id}/convert [post]
func (h *ConversionHandler) Convert(c *fiber.Ctx) error {
	var in dto.ConvertRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	if in.TargetType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "target_type est requis"})
	}

	doc, err := h.uc.Convert(c.Context(), c.Params("id"), entity.DocumentType(in.TargetType), conversion.Options{
		Substitutions: in.Substitutions,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}
