package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/domain"
)

// writeError traduit une erreur domaine en réponse HTTP. Les erreurs typées
// portent leur contexte dans Details pour que l'UI affiche l'action de
// récupération (choisir un remplaçant, filtrer le lot, recharger le statut).
func writeError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: validationErr.Error(),
			Details: fiber.Map{"field": validationErr.Field},
		})
	}

	var linkedErr *domain.AlreadyLinkedError
	if errors.As(err, &linkedErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "ALREADY_LINKED", Message: linkedErr.Error(),
			Details: fiber.Map{
				"target_type":   string(linkedErr.TargetType),
				"target_number": linkedErr.TargetNumber,
			},
		})
	}

	var subErr *domain.SubstitutionRequiredError
	if errors.As(err, &subErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "SUBSTITUTION_REQUIRED", Message: subErr.Error(),
			Details: fiber.Map{"blocking_lines": dto.FromBlockingLines(subErr.Blocking)},
		})
	}

	var noSubErr *domain.NoEligibleSubstituteError
	if errors.As(err, &noSubErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "NO_ELIGIBLE_SUBSTITUTE", Message: noSubErr.Error(),
			Details: fiber.Map{"blocking_lines": dto.FromBlockingLines(noSubErr.Blocking)},
		})
	}

	var transitionErr *domain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INVALID_TRANSITION", Message: transitionErr.Error(),
			Details: fiber.Map{
				"current":   transitionErr.Current,
				"attempted": transitionErr.Attempted,
			},
		})
	}

	var batchErr *domain.PartialBatchConflictError
	if errors.As(err, &batchErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "PARTIAL_BATCH_CONFLICT", Message: batchErr.Error(),
			Details: fiber.Map{"conflict_ids": batchErr.ConflictIDs},
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
