package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// Erreurs sentinelles génériques.
var (
	ErrNotFound         = errors.New("ressource introuvable")
	ErrInvalidInput     = errors.New("entrée invalide")
	ErrConflict         = errors.New("conflit avec l'état actuel")
	ErrStoreUnavailable = errors.New("persistance indisponible") // à retenter par l'appelant
)

// ValidationError entrée monétaire ou TVA malformée. Rejetée localement,
// jamais persistée.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s: %s", e.Field, e.Reason)
}

// Unwrap permet errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// AlreadyLinkedError tentative de reconversion d'un document déjà converti
// vers ce type cible. Récupérable: l'appelant doit le traiter comme "déjà fait".
type AlreadyLinkedError struct {
	DocumentID   string
	TargetType   entity.DocumentType
	TargetNumber string // numéro du document cible existant, pour affichage
}

func (e *AlreadyLinkedError) Error() string {
	return fmt.Sprintf("document %s déjà converti en %s (%s)", e.DocumentID, e.TargetType, e.TargetNumber)
}

func (e *AlreadyLinkedError) Unwrap() error { return ErrConflict }

// SubstituteCandidate candidat de remplacement proposé pour une ligne bloquée,
// avec son rang: les produits partageant la référence d'origine d'abord.
type SubstituteCandidate struct {
	ProductID      string
	Reference      string
	Name           string
	InvoiceableQty decimal.Decimal
	SameReference  bool
}

// BlockingLine ligne de commande non facturable en l'état: le produit d'origine
// n'a aucune quantité facturable et un remplaçant doit être choisi.
type BlockingLine struct {
	LineID      string
	ProductID   string
	Designation string
	Quantity    decimal.Decimal
	Candidates  []SubstituteCandidate
}

// SubstitutionRequiredError la conversion en facture exige une décision humaine:
// chaque ligne bloquée doit recevoir un remplaçant explicite avant finalisation.
type SubstitutionRequiredError struct {
	SourceID string
	Blocking []BlockingLine
}

func (e *SubstitutionRequiredError) Error() string {
	ids := make([]string, 0, len(e.Blocking))
	for _, b := range e.Blocking {
		ids = append(ids, b.ProductID)
	}
	return fmt.Sprintf("substitution requise pour %d ligne(s) de %s (produits: %s)",
		len(e.Blocking), e.SourceID, strings.Join(ids, ", "))
}

func (e *SubstitutionRequiredError) Unwrap() error { return ErrConflict }

// NoEligibleSubstituteError aucun produit facturable ne peut remplacer la ligne.
// Bloquant pour cette ligne tant que le stock facturable n'évolue pas;
// précondition à retenter, pas une erreur fatale.
type NoEligibleSubstituteError struct {
	SourceID string
	Blocking []BlockingLine
}

func (e *NoEligibleSubstituteError) Error() string {
	parts := make([]string, 0, len(e.Blocking))
	for _, b := range e.Blocking {
		parts = append(parts, fmt.Sprintf("%s (qté %s)", b.ProductID, b.Quantity))
	}
	return fmt.Sprintf("aucun remplaçant éligible pour: %s", strings.Join(parts, ", "))
}

func (e *NoEligibleSubstituteError) Unwrap() error { return ErrConflict }

// InvalidTransitionError changement de statut illégal. Les statuts ne reculent
// jamais; toute transition absente de la table du type est rejetée.
type InvalidTransitionError struct {
	DocumentType entity.DocumentType
	Current      string
	Attempted    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s interdite: %s -> %s", e.DocumentType, e.Current, e.Attempted)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrConflict }

// PartialBatchConflictError facturation groupée où certaines sources sont déjà
// facturées: le lot entier est rejeté, rien n'est persisté. L'appelant filtre
// les sources en conflit et relance avec le lot réduit.
type PartialBatchConflictError struct {
	ConflictIDs []string
}

func (e *PartialBatchConflictError) Error() string {
	return fmt.Sprintf("lot rejeté: sources déjà facturées: %s", strings.Join(e.ConflictIDs, ", "))
}

func (e *PartialBatchConflictError) Unwrap() error { return ErrConflict }
