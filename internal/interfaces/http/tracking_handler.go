package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/application/tracking"
)

// TrackingHandler requêtes HTTP du suivi de livraison des commandes.
type TrackingHandler struct {
	uc *tracking.UseCase
}

// NewTrackingHandler construit le handler.
func NewTrackingHandler(uc *tracking.UseCase) *TrackingHandler {
	return &TrackingHandler{uc: uc}
}

// Get godoc
// @Summary      Obtenir le suivi de livraison d'une commande
// @Tags         tracking
// @Produce      json
// @Param        id   path  string  true  "ID de la commande"
// @Success      200  {object}  dto.TrackingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/tracking [get]
func (h *TrackingHandler) Get(c *fiber.Ctx) error {
	t, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTracking(t))
}

// Update godoc
// @Summary      Avancer le suivi de livraison ou le cycle retour
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la commande"
// @Param        body  body  dto.TrackingUpdateRequest  true  "Sous-état ou état retour cible"
// @Success      200   {object}  dto.TrackingResponse
// @Failure      409   {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/orders/{id}/tracking [put]
func (h *TrackingHandler) Update(c *fiber.Ctx) error {
	var in dto.TrackingUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	t, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromTracking(t))
}
