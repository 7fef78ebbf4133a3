package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implémentation de ProductRepository (pool ou tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, reference, name, price, cost, vat_rate, physical_stock, invoiceable_qty, created_at, updated_at`

// GetByID obtient un produit par ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.Reference, &p.Name, &p.Price, &p.Cost, &p.VATRate,
		&p.PhysicalStock, &p.InvoiceableQty, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get product", err)
	}
	return &p, nil
}

// List liste tout le catalogue.
func (r *ProductRepo) List(ctx context.Context) ([]entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY reference, name`)
}

// ListInvoiceable liste les produits avec quantité facturable strictement
// positive (candidats de substitution).
func (r *ProductRepo) ListInvoiceable(ctx context.Context) ([]entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE invoiceable_qty > 0 ORDER BY reference, name`)
}

func (r *ProductRepo) list(ctx context.Context, query string) ([]entity.Product, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list products", err)
	}
	defer rows.Close()

	var list []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Reference, &p.Name, &p.Price, &p.Cost, &p.VATRate,
			&p.PhysicalStock, &p.InvoiceableQty, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storeErr("scan product", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// AdjustInvoiceable ajoute delta à la quantité facturable. La clause
// invoiceable_qty + delta >= 0 empêche le compteur de devenir négatif, y
// compris sous concurrence.
func (r *ProductRepo) AdjustInvoiceable(ctx context.Context, productID string, delta decimal.Decimal) error {
	query := `
		UPDATE products
		SET invoiceable_qty = invoiceable_qty + $2, updated_at = now()
		WHERE id = $1 AND invoiceable_qty + $2 >= 0`
	tag, err := r.q.Exec(ctx, query, productID, delta)
	if err != nil {
		return storeErr("adjust invoiceable", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quantité facturable insuffisante pour le produit %s: %w", productID, domain.ErrConflict)
	}
	return nil
}

// AdjustPhysical ajoute delta au stock physique (remise en stock retour).
func (r *ProductRepo) AdjustPhysical(ctx context.Context, productID string, delta decimal.Decimal) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET physical_stock = physical_stock + $2, updated_at = now() WHERE id = $1`,
		productID, delta)
	if err != nil {
		return storeErr("adjust physical", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("produit %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}
