package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// TxRunner exécute une fonction dans une transaction de BD, en passant des
// repositories attachés à cette tx. Garantit l'atomicité charger → calculer →
// persister → lier des conversions et de la facturation groupée.
type TxRunner interface {
	Run(ctx context.Context, fn func(s repository.Stores) error) error
}

// StockMovement mouvement de quantité sur un produit.
type StockMovement struct {
	ProductID string
	Quantity  decimal.Decimal
}

// Inventory collaborateur inventaire, invoqué après un commit réussi.
// Le moteur ne modifie jamais les compteurs de stock lui-même: il lit la
// quantité facturable et déclenche ces appels aux points définis
// (facturation, retour stocké).
type Inventory interface {
	// ConsumeInvoiceable décrémente la quantité facturable des produits facturés.
	ConsumeInvoiceable(ctx context.Context, movements []StockMovement) error
	// RestorePhysical réintègre le stock physique (retour transporteur stocké).
	RestorePhysical(ctx context.Context, movements []StockMovement) error
}
