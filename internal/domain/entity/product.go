package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product produit du catalogue.
// InvoiceableQty est un compteur comptable distinct du stock physique:
// quantité dont l'achat fournisseur est rapproché, donc légalement facturable.
type Product struct {
	ID             string
	Reference      string // code référence, partagé entre variantes d'un même article
	Name           string
	Price          decimal.Decimal // prix de vente HT
	Cost           decimal.Decimal // coût d'achat
	VATRate        decimal.Decimal // pourcentage, 0..100
	PhysicalStock  decimal.Decimal
	InvoiceableQty decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
