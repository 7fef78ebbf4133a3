package repository

import (
	"context"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// SubstitutionRepository port de persistance des triples de substitution.
// Les triples accompagnent la facture et ne sont jamais supprimés.
type SubstitutionRepository interface {
	Create(ctx context.Context, sub *entity.Substitution) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]entity.Substitution, error)
}
