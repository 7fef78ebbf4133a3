package repository

import (
	"context"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// DocumentFilter critères de listage.
type DocumentFilter struct {
	Type           entity.DocumentType // vide = tous
	Side           entity.DocumentSide // vide = tous
	Status         string              // vide = tous
	CounterpartyID string              // vide = tous
	Limit          int
	Offset         int
}

// DocumentRepository port de persistance des documents, lignes et liens aval.
// Le store est la seule autorité de l'invariant "au plus un lien par type":
// LinkDownstream échoue avec AlreadyLinkedError si le lien existe déjà, y
// compris sous concurrence (contrainte d'unicité, jamais d'écrasement).
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	// GetByID charge l'en-tête, les lignes et les liens.
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetByIDForUpdate charge le document en verrouillant la ligne d'en-tête
	// (SELECT FOR UPDATE); à utiliser dans une transaction de conversion.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// Update remplace l'en-tête et la totalité des lignes (pas de patch partiel).
	// Number et liens ne sont jamais modifiés par Update.
	Update(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter DocumentFilter) ([]entity.Document, error)
	// SetStatus persiste un statut déjà validé par le cycle de vie.
	SetStatus(ctx context.Context, id, status string) error
	// LinkDownstream pose le lien aval et retourne AlreadyLinkedError si le
	// type cible est déjà lié.
	LinkDownstream(ctx context.Context, id string, link entity.DocumentLink) error
}
