package entity

import "github.com/shopspring/decimal"

// Substitution triple enregistré avec la facture quand une ligne est facturée
// sur un produit de remplacement. Exigé par le système comptable aval pour
// rapprocher identité physique et identité facturée; ne doit jamais être perdu
// même si la ligne de facture affiche la désignation d'origine.
type Substitution struct {
	InvoiceID         string
	LineID            string
	RealProductID     string
	InvoicedProductID string
	Quantity          decimal.Decimal
}
