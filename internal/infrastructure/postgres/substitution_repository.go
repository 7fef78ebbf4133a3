package postgres

import (
	"context"

	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ repository.SubstitutionRepository = (*SubstitutionRepo)(nil)

// SubstitutionRepo implémentation de SubstitutionRepository (pool ou tx).
// Les triples sont en append seul: aucun update, aucun delete.
type SubstitutionRepo struct {
	q Querier
}

// NewSubstitutionRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewSubstitutionRepository(q Querier) *SubstitutionRepo {
	return &SubstitutionRepo{q: q}
}

// Create persiste le triple de substitution.
func (r *SubstitutionRepo) Create(ctx context.Context, sub *entity.Substitution) error {
	query := `
		INSERT INTO substitutions (invoice_id, line_id, real_product_id, invoiced_product_id, quantity)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query,
		sub.InvoiceID, sub.LineID, sub.RealProductID, sub.InvoicedProductID, sub.Quantity)
	if err != nil {
		return storeErr("insert substitution", err)
	}
	return nil
}

// ListByInvoice liste les triples d'une facture.
func (r *SubstitutionRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]entity.Substitution, error) {
	query := `
		SELECT invoice_id, line_id, real_product_id, invoiced_product_id, quantity
		FROM substitutions WHERE invoice_id = $1 ORDER BY line_id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, storeErr("list substitutions", err)
	}
	defer rows.Close()

	var list []entity.Substitution
	for rows.Next() {
		var s entity.Substitution
		if err := rows.Scan(&s.InvoiceID, &s.LineID, &s.RealProductID, &s.InvoicedProductID, &s.Quantity); err != nil {
			return nil, storeErr("scan substitution", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
