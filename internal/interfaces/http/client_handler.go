package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// ClientHandler requêtes HTTP des contreparties.
type ClientHandler struct {
	clients repository.ClientRepository
}

// NewClientHandler construit le handler.
func NewClientHandler(clients repository.ClientRepository) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Create godoc
// @Summary      Créer une contrepartie
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClientRequest  true  "Contrepartie"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
	}
	if in.Code == "" || in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "code et name sont requis"})
	}
	now := time.Now()
	client := &entity.Client{
		ID:        uuid.New().String(),
		Code:      in.Code,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		IsWalkIn:  in.IsWalkIn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.clients.Create(c.Context(), client); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromClient(client))
}

// List godoc
// @Summary      Lister les contreparties
// @Tags         clients
// @Produce      json
// @Success      200  {array}  dto.ClientResponse
// @Router       /api/clients [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
	list, err := h.clients.List(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ClientResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromClient(&list[i]))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtenir une contrepartie par ID
// @Tags         clients
// @Produce      json
// @Param        id   path  string  true  "ID de la contrepartie"
// @Success      200  {object}  dto.ClientResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	client, err := h.clients.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if client == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "contrepartie introuvable"})
	}
	return c.JSON(dto.FromClient(client))
}
