package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// ProductRepository port de persistance des produits. Sert aussi de
// collaborateur inventaire: lecture de la quantité facturable et ajustements
// après commit (le moteur ne modifie jamais ces compteurs hors transaction).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context) ([]entity.Product, error)
	// ListInvoiceable retourne les produits avec quantité facturable > 0
	// (ensemble des candidats de substitution).
	ListInvoiceable(ctx context.Context) ([]entity.Product, error)
	// AdjustInvoiceable ajoute delta (négatif pour décrémenter) à la quantité
	// facturable. Échoue si le résultat serait négatif.
	AdjustInvoiceable(ctx context.Context, productID string, delta decimal.Decimal) error
	// AdjustPhysical ajoute delta au stock physique (remise en stock retour).
	AdjustPhysical(ctx context.Context, productID string, delta decimal.Decimal) error
}
