package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implémentation de ClientRepository (pool ou tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// Create persiste la contrepartie.
func (r *ClientRepo) Create(ctx context.Context, client *entity.Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	query := `
		INSERT INTO clients (id, code, name, email, phone, address, is_walk_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		client.ID, client.Code, client.Name, client.Email, client.Phone, client.Address,
		client.IsWalkIn, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storeErr("code client déjà utilisé", err)
		}
		return storeErr("insert client", err)
	}
	return nil
}

// GetByID obtient une contrepartie par ID.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	var c entity.Client
	err := r.q.QueryRow(ctx,
		`SELECT id, code, name, email, phone, address, is_walk_in, created_at, updated_at
		 FROM clients WHERE id = $1`, id).Scan(
		&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.IsWalkIn, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get client", err)
	}
	return &c, nil
}

// List liste toutes les contreparties.
func (r *ClientRepo) List(ctx context.Context) ([]entity.Client, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, code, name, email, phone, address, is_walk_in, created_at, updated_at
		 FROM clients ORDER BY name`)
	if err != nil {
		return nil, storeErr("list clients", err)
	}
	defer rows.Close()

	var list []entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address,
			&c.IsWalkIn, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storeErr("scan client", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
