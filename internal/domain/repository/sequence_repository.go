package repository

import (
	"context"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// SequenceRepository génération des numéros lisibles de documents.
// Monotone par type, jamais réutilisé même si le document est supprimé ensuite.
type SequenceRepository interface {
	// Next réserve et retourne le prochain numéro formaté (ex: FAC-2026-00042).
	Next(ctx context.Context, docType entity.DocumentType) (string, error)
}
