package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haythemba/gescom-api/internal/application/ports"
)

var _ ports.Inventory = (*Inventory)(nil)

// Inventory collaborateur inventaire invoqué après commit: consommation des
// quantités facturables à la facturation, remise en stock physique au retour.
// Chaque lot de mouvements passe dans sa propre transaction.
type Inventory struct {
	pool *pgxpool.Pool
}

// NewInventory construit le collaborateur avec le pool.
func NewInventory(pool *pgxpool.Pool) *Inventory {
	return &Inventory{pool: pool}
}

// ConsumeInvoiceable décrémente la quantité facturable de chaque mouvement.
func (inv *Inventory) ConsumeInvoiceable(ctx context.Context, movements []ports.StockMovement) error {
	return inv.apply(ctx, movements, func(ctx context.Context, repo *ProductRepo, m ports.StockMovement) error {
		return repo.AdjustInvoiceable(ctx, m.ProductID, m.Quantity.Neg())
	})
}

// RestorePhysical réincrémente le stock physique de chaque mouvement.
func (inv *Inventory) RestorePhysical(ctx context.Context, movements []ports.StockMovement) error {
	return inv.apply(ctx, movements, func(ctx context.Context, repo *ProductRepo, m ports.StockMovement) error {
		return repo.AdjustPhysical(ctx, m.ProductID, m.Quantity)
	})
}

func (inv *Inventory) apply(
	ctx context.Context,
	movements []ports.StockMovement,
	adjust func(ctx context.Context, repo *ProductRepo, m ports.StockMovement) error,
) error {
	tx, err := inv.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repo := NewProductRepository(tx)
	for _, m := range movements {
		if err := adjust(ctx, repo, m); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
