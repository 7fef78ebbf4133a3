package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// prefixes préfixe du numéro lisible par type de document.
var prefixes = map[entity.DocumentType]string{
	entity.TypeDevis:        "DEV",
	entity.TypeCommande:     "CMD",
	entity.TypeBonLivraison: "BL",
	entity.TypeFacture:      "FAC",
	entity.TypeAvoir:        "AVR",
}

// SequenceRepo numérotation des documents sur une table de compteurs par type
// et par année. L'UPSERT avec RETURNING réserve le numéro atomiquement: deux
// créations concurrentes ne peuvent pas obtenir la même valeur, et un compteur
// ne revient jamais en arrière même si le document est supprimé ensuite.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next réserve et retourne le prochain numéro formaté (ex: FAC-2026-00042).
func (r *SequenceRepo) Next(ctx context.Context, docType entity.DocumentType) (string, error) {
	prefix, ok := prefixes[docType]
	if !ok {
		return "", fmt.Errorf("type de document sans séquence: %s", docType)
	}
	year := time.Now().Year()

	query := `
		INSERT INTO document_sequences (doc_type, year, counter)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year) DO UPDATE SET counter = document_sequences.counter + 1
		RETURNING counter`
	var counter int64
	if err := r.q.QueryRow(ctx, query, docType, year).Scan(&counter); err != nil {
		return "", storeErr("next sequence "+string(docType), err)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, counter), nil
}
