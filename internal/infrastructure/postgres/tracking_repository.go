package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ repository.TrackingRepository = (*TrackingRepo)(nil)

// TrackingRepo implémentation de TrackingRepository (pool ou tx).
// Une ligne au plus par commande.
type TrackingRepo struct {
	q Querier
}

// NewTrackingRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewTrackingRepository(q Querier) *TrackingRepo {
	return &TrackingRepo{q: q}
}

// Get obtient le suivi d'une commande. nil si la commande n'a jamais été suivie.
func (r *TrackingRepo) Get(ctx context.Context, orderID string) (*entity.DeliveryTracking, error) {
	var t entity.DeliveryTracking
	err := r.q.QueryRow(ctx,
		`SELECT order_id, carrier, state, return_state, updated_at
		 FROM delivery_trackings WHERE order_id = $1`, orderID).Scan(
		&t.OrderID, &t.Carrier, &t.State, &t.ReturnState, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get tracking", err)
	}
	return &t, nil
}

// Upsert crée ou remplace le suivi de la commande.
func (r *TrackingRepo) Upsert(ctx context.Context, tracking *entity.DeliveryTracking) error {
	query := `
		INSERT INTO delivery_trackings (order_id, carrier, state, return_state, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET carrier = EXCLUDED.carrier,
		    state = EXCLUDED.state,
		    return_state = EXCLUDED.return_state,
		    updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		tracking.OrderID, tracking.Carrier, tracking.State, tracking.ReturnState, tracking.UpdatedAt)
	if err != nil {
		return storeErr("upsert tracking", err)
	}
	return nil
}
