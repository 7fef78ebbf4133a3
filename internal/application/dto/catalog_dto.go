package dto

import (
	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// ProductResponse produit du catalogue avec ses deux compteurs de stock.
type ProductResponse struct {
	ID             string          `json:"id"`
	Reference      string          `json:"reference"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Cost           decimal.Decimal `json:"cost"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	PhysicalStock  decimal.Decimal `json:"physical_stock"`
	InvoiceableQty decimal.Decimal `json:"invoiceable_qty"`
}

// FromProduct projette un produit en réponse API.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Reference:      p.Reference,
		Name:           p.Name,
		Price:          p.Price,
		Cost:           p.Cost,
		VATRate:        p.VATRate,
		PhysicalStock:  p.PhysicalStock,
		InvoiceableQty: p.InvoiceableQty,
	}
}

// CreateClientRequest body pour POST /api/clients.
type CreateClientRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	IsWalkIn bool   `json:"is_walk_in"`
}

// ClientResponse contrepartie.
type ClientResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	IsWalkIn bool   `json:"is_walk_in"`
}

// FromClient projette une contrepartie en réponse API.
func FromClient(c *entity.Client) ClientResponse {
	return ClientResponse{
		ID:       c.ID,
		Code:     c.Code,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		IsWalkIn: c.IsWalkIn,
	}
}
