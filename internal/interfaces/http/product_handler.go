package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// ProductHandler lecture du catalogue produits. Les compteurs de stock ne se
// modifient jamais par cette surface: ils évoluent via la facturation et les
// retours.
type ProductHandler struct {
	products repository.ProductRepository
}

// NewProductHandler construit le handler.
func NewProductHandler(products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
// @Summary      Lister le catalogue
// @Tags         products
// @Produce      json
// @Param        invoiceable  query  bool  false  "Seulement les produits avec quantité facturable > 0"
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var list []entity.Product
	var err error
	if c.QueryBool("invoiceable") {
		list, err = h.products.ListInvoiceable(c.Context())
	} else {
		list, err = h.products.List(c.Context())
	}
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromProduct(&list[i]))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtenir un produit par ID
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "ID du produit"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	p, err := h.products.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "produit introuvable"})
	}
	return c.JSON(dto.FromProduct(p))
}
