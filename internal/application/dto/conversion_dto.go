package dto

import "github.com/shopspring/decimal"

// SubstitutionDecision décision humaine pour une ligne bloquée:
// {produit réel, produit facturé, quantité}.
type SubstitutionDecision struct {
	RealProductID     string          `json:"real_product_id"`
	InvoicedProductID string          `json:"invoiced_product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
}

// ConvertRequest body pour POST /api/documents/:id/convert.
type ConvertRequest struct {
	TargetType    string                 `json:"target_type"`
	Substitutions []SubstitutionDecision `json:"substitutions,omitempty"`
}

// CandidateResponse remplaçant proposé, dans l'ordre de classement.
type CandidateResponse struct {
	ProductID      string          `json:"product_id"`
	Reference      string          `json:"reference"`
	Name           string          `json:"name"`
	InvoiceableQty decimal.Decimal `json:"invoiceable_qty"`
	SameReference  bool            `json:"same_reference"`
}

// BlockingLineResponse ligne bloquante avec ses candidats classés.
type BlockingLineResponse struct {
	ProductID   string              `json:"product_id"`
	Designation string              `json:"designation"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Candidates  []CandidateResponse `json:"candidates"`
}
