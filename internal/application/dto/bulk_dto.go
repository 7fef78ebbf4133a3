package dto

import "github.com/shopspring/decimal"

// BulkInvoiceRequest body pour POST /api/invoices/bulk et /bulk/simulate.
// Reprice: recalcul du prix de chaque ligne depuis coût × (1 + marge) au lieu
// du prix de vente enregistré sur la commande.
type BulkInvoiceRequest struct {
	SourceIDs []string `json:"source_ids"`
	Reprice   bool     `json:"reprice"`
}

// BulkSimulationResponse aperçu sans persistance du regroupement.
type BulkSimulationResponse struct {
	Lines        []LineResponse  `json:"lines"`
	TotalHT      decimal.Decimal `json:"total_ht"`
	TotalTVA     decimal.Decimal `json:"total_tva"`
	TimbreFiscal decimal.Decimal `json:"timbre_fiscal"`
	TotalTTC     decimal.Decimal `json:"total_ttc"`
}
