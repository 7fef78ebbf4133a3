package repository

import (
	"context"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// ClientRepository port de persistance des contreparties.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	List(ctx context.Context) ([]entity.Client, error)
}
