package repository

import (
	"context"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// TrackingRepository port de persistance du suivi de livraison par commande.
type TrackingRepository interface {
	Get(ctx context.Context, orderID string) (*entity.DeliveryTracking, error)
	Upsert(ctx context.Context, tracking *entity.DeliveryTracking) error
}
