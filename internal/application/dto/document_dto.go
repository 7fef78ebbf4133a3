package dto

import (
	"github.com/shopspring/decimal"
)

// LineRequest ligne en saisie. ProductID vide = ligne libre.
// Si UnitPriceTTC est renseigné, le prix HT est dérivé (saisie en mode TTC);
// sinon UnitPriceHT est utilisé tel quel (0 avec produit = prix catalogue).
type LineRequest struct {
	ProductID    string          `json:"product_id,omitempty"`
	Designation  string          `json:"designation"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPriceHT  decimal.Decimal `json:"unit_price_ht"`
	UnitPriceTTC decimal.Decimal `json:"unit_price_ttc,omitempty"`
	VATRate      decimal.Decimal `json:"vat_rate"`
}

// CreateDocumentRequest body pour POST /api/documents.
type CreateDocumentRequest struct {
	Type           string        `json:"type"`
	Side           string        `json:"side"` // CLIENT par défaut
	CounterpartyID string        `json:"counterparty_id"`
	IssueDate      string        `json:"issue_date,omitempty"` // AAAA-MM-JJ, défaut aujourd'hui
	DueDate        string        `json:"due_date,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	Lines          []LineRequest `json:"lines"`
}

// UpdateDocumentRequest body pour PUT /api/documents/:id.
// Les lignes remplacent intégralement les lignes existantes; les totaux sont
// toujours recalculés, jamais repris du payload.
type UpdateDocumentRequest struct {
	DueDate string        `json:"due_date,omitempty"`
	Notes   string        `json:"notes,omitempty"`
	Lines   []LineRequest `json:"lines"`
}

// StatusRequest body pour POST /api/documents/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// LineResponse ligne en réponse, montants dérivés inclus.
type LineResponse struct {
	ID          string          `json:"id"`
	LineNumber  int             `json:"line_number"`
	ProductID   string          `json:"product_id,omitempty"`
	Designation string          `json:"designation"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPriceHT decimal.Decimal `json:"unit_price_ht"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	TotalHT     decimal.Decimal `json:"total_ht"`
	TotalTVA    decimal.Decimal `json:"total_tva"`
	TotalTTC    decimal.Decimal `json:"total_ttc"`
}

// LinkResponse lien aval en réponse (id + numéro cible pour affichage).
type LinkResponse struct {
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	TargetNumber string `json:"target_number"`
}

// DocumentResponse document complet avec totaux calculés.
type DocumentResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Side           string          `json:"side"`
	Number         string          `json:"number"`
	CounterpartyID string          `json:"counterparty_id"`
	IssueDate      string          `json:"issue_date"`
	DueDate        string          `json:"due_date,omitempty"`
	Status         string          `json:"status"`
	Notes          string          `json:"notes,omitempty"`
	SourceID       string          `json:"source_id,omitempty"`
	SourceNumber   string          `json:"source_number,omitempty"`
	Links          []LinkResponse  `json:"links"`
	Lines          []LineResponse  `json:"lines"`
	TotalHT        decimal.Decimal `json:"total_ht"`
	TotalTVA       decimal.Decimal `json:"total_tva"`
	TimbreFiscal   decimal.Decimal `json:"timbre_fiscal"`
	TotalTTC       decimal.Decimal `json:"total_ttc"`
}
