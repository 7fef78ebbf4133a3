package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haythemba/gescom-api/internal/application/ports"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner exécute un callback dans une transaction PostgreSQL, avec des
// repositories attachés à la tx.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construit le runner avec le pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run démarre une transaction, exécute fn avec les stores liés à la tx et
// fait Commit ou Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(s repository.Stores) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stores := repository.Stores{
		Documents:     NewDocumentRepository(tx),
		Products:      NewProductRepository(tx),
		Clients:       NewClientRepository(tx),
		Substitutions: NewSubstitutionRepository(tx),
		Sequences:     NewSequenceRepository(tx),
		Tracking:      NewTrackingRepository(tx),
	}

	if err := fn(stores); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
