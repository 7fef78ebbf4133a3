package conversion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/application/ports"
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/lifecycle"
	"github.com/haythemba/gescom-api/internal/domain/money"
	"github.com/haythemba/gescom-api/internal/domain/repository"
	"github.com/haythemba/gescom-api/internal/domain/substitution"
)

// allowedTargets conversions supportées (côté client uniquement).
var allowedTargets = map[entity.DocumentType][]entity.DocumentType{
	entity.TypeDevis:        {entity.TypeCommande},
	entity.TypeCommande:     {entity.TypeBonLivraison, entity.TypeFacture},
	entity.TypeBonLivraison: {entity.TypeFacture},
}

// Options options de conversion. Substitutions: décisions humaines pour les
// lignes dont le produit n'a aucune quantité facturable (cible FACTURE).
type Options struct {
	Substitutions []dto.SubstitutionDecision
}

// UseCase moteur de conversion. Chaque conversion est une transaction:
// charger → copier → recalculer → persister → lier, atomique vis-à-vis de
// l'invariant "au plus un lien par type": deux conversions concurrentes de la
// même source ne peuvent pas réussir toutes les deux.
type UseCase struct {
	txRunner  ports.TxRunner
	inventory ports.Inventory
	timbre    decimal.Decimal
}

// NewUseCase construit le moteur. inventory: collaborateur invoqué après un
// commit de facture pour décrémenter les quantités facturables.
func NewUseCase(txRunner ports.TxRunner, inventory ports.Inventory, timbre decimal.Decimal) *UseCase {
	return &UseCase{txRunner: txRunner, inventory: inventory, timbre: timbre}
}

// Convert convertit le document source vers le type cible et retourne le
// document créé. Une reconversion vers un type déjà lié retourne
// AlreadyLinkedError sans créer de doublon (idempotence par source).
func (uc *UseCase) Convert(ctx context.Context, sourceID string, target entity.DocumentType, opts Options) (*entity.Document, error) {
	if lifecycle.InitialStatus(target) == "" {
		return nil, &domain.ValidationError{Field: "target_type", Reason: "type de document inconnu"}
	}

	var created *entity.Document
	var consumed []ports.StockMovement

	err := uc.txRunner.Run(ctx, func(s repository.Stores) error {
		src, err := s.Documents.GetByIDForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if src == nil {
			return domain.ErrNotFound
		}
		if src.Side != entity.SideClient {
			return &domain.ValidationError{Field: "source", Reason: "seuls les documents client se convertissent"}
		}
		if link, ok := src.Links[target]; ok {
			return &domain.AlreadyLinkedError{DocumentID: src.ID, TargetType: target, TargetNumber: link.TargetNumber}
		}
		if !targetAllowed(src.Type, target) {
			return &domain.ValidationError{
				Field:  "target_type",
				Reason: fmt.Sprintf("conversion %s -> %s non supportée", src.Type, target),
			}
		}

		docID := uuid.New().String()
		lines := copyLines(src.Lines, docID)

		var subs []entity.Substitution
		if target == entity.TypeFacture {
			subs, consumed, err = resolveSubstitutions(ctx, s, src, lines, opts.Substitutions)
			if err != nil {
				return err
			}
		}

		// Les montants sont toujours recalculés, jamais repris de la source:
		// le timbre fiscal diffère selon le type cible (BL sans timbre,
		// facture avec).
		for i := range lines {
			amounts, err := money.ComputeLine(lines[i].Quantity, lines[i].UnitPriceHT, lines[i].VATRate)
			if err != nil {
				return err
			}
			lines[i].TotalHT = amounts.HT
			lines[i].TotalTVA = amounts.TVA
			lines[i].TotalTTC = amounts.TTC
		}
		timbre := decimal.Zero
		if money.StampApplies(src.Side, target) {
			timbre = uc.timbre
		}
		totals := money.ComputeTotals(lines, timbre)

		number, err := s.Sequences.Next(ctx, target)
		if err != nil {
			return err
		}

		now := time.Now()
		doc := &entity.Document{
			ID:             docID,
			Type:           target,
			Side:           src.Side,
			Number:         number,
			CounterpartyID: src.CounterpartyID,
			IssueDate:      now,
			DueDate:        src.DueDate,
			Status:         lifecycle.InitialStatus(target),
			Notes:          src.Notes,
			SourceID:       src.ID,
			SourceNumber:   src.Number,
			Lines:          lines,
			TotalHT:        totals.HT,
			TotalTVA:       totals.TVA,
			TimbreFiscal:   totals.Timbre,
			TotalTTC:       totals.TTC,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.Documents.Create(ctx, doc); err != nil {
			return err
		}

		for i := range subs {
			subs[i].InvoiceID = doc.ID
			if err := s.Substitutions.Create(ctx, &subs[i]); err != nil {
				return err
			}
		}

		if err := s.Documents.LinkDownstream(ctx, src.ID, entity.DocumentLink{
			TargetType:   target,
			TargetID:     doc.ID,
			TargetNumber: doc.Number,
		}); err != nil {
			return err
		}

		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collaborateur inventaire après commit: la facture existe déjà; en cas
	// d'échec l'appelant relance la consommation, pas la conversion.
	if target == entity.TypeFacture && len(consumed) > 0 {
		if err := uc.inventory.ConsumeInvoiceable(ctx, consumed); err != nil {
			return created, fmt.Errorf("facture %s créée, consommation inventaire: %w", created.Number, err)
		}
	}
	return created, nil
}

// resolveSubstitutions applique l'algorithme de résolution: toute ligne dont le
// produit n'a aucune quantité facturable exige une décision explicite. Aucun
// choix automatique silencieux: sans décision complète, la conversion est
// bloquée avec la liste des candidats classés.
func resolveSubstitutions(
	ctx context.Context,
	s repository.Stores,
	src *entity.Document,
	lines []entity.Line,
	decisions []dto.SubstitutionDecision,
) ([]entity.Substitution, []ports.StockMovement, error) {
	decisionByProduct := make(map[string]dto.SubstitutionDecision, len(decisions))
	for _, d := range decisions {
		decisionByProduct[d.RealProductID] = d
	}

	var pool []entity.Product
	var subs []entity.Substitution
	var movements []ports.StockMovement
	var blocking, noCandidate []domain.BlockingLine

	for _, line := range lines {
		if line.ProductID == "" {
			continue
		}
		p, err := s.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if p == nil {
			return nil, nil, fmt.Errorf("produit %s: %w", line.ProductID, domain.ErrNotFound)
		}
		if p.InvoiceableQty.IsPositive() {
			movements = append(movements, ports.StockMovement{ProductID: p.ID, Quantity: line.Quantity})
			continue
		}

		if pool == nil {
			if pool, err = s.Products.ListInvoiceable(ctx); err != nil {
				return nil, nil, err
			}
		}
		candidates := substitution.Candidates(p, pool)
		block := domain.BlockingLine{
			LineID:      line.ID,
			ProductID:   line.ProductID,
			Designation: line.Designation,
			Quantity:    line.Quantity,
			Candidates:  candidates,
		}
		if len(candidates) == 0 {
			noCandidate = append(noCandidate, block)
			continue
		}

		decision, ok := decisionByProduct[line.ProductID]
		if !ok {
			blocking = append(blocking, block)
			continue
		}
		if !substitution.Eligible(decision.InvoicedProductID, candidates) {
			return nil, nil, &domain.ValidationError{
				Field:  "substitutions",
				Reason: fmt.Sprintf("produit %s non éligible pour remplacer %s", decision.InvoicedProductID, line.ProductID),
			}
		}
		if !decision.Quantity.Equal(line.Quantity) {
			return nil, nil, &domain.ValidationError{
				Field:  "substitutions",
				Reason: fmt.Sprintf("quantité %s attendue pour la ligne du produit %s", line.Quantity, line.ProductID),
			}
		}
		// La ligne de facture garde la désignation et le produit d'origine;
		// le triple porte l'identité réellement facturée pour la comptabilité.
		subs = append(subs, entity.Substitution{
			LineID:            line.ID,
			RealProductID:     line.ProductID,
			InvoicedProductID: decision.InvoicedProductID,
			Quantity:          line.Quantity,
		})
		movements = append(movements, ports.StockMovement{ProductID: decision.InvoicedProductID, Quantity: line.Quantity})
	}

	if len(noCandidate) > 0 {
		return nil, nil, &domain.NoEligibleSubstituteError{SourceID: src.ID, Blocking: noCandidate}
	}
	if len(blocking) > 0 {
		return nil, nil, &domain.SubstitutionRequiredError{SourceID: src.ID, Blocking: blocking}
	}
	return subs, movements, nil
}

func copyLines(src []entity.Line, docID string) []entity.Line {
	lines := make([]entity.Line, len(src))
	for i, l := range src {
		lines[i] = entity.Line{
			ID:          uuid.New().String(),
			DocumentID:  docID,
			LineNumber:  l.LineNumber,
			ProductID:   l.ProductID,
			Designation: l.Designation,
			Quantity:    l.Quantity,
			UnitPriceHT: l.UnitPriceHT,
			VATRate:     l.VATRate,
		}
	}
	return lines
}

func targetAllowed(source, target entity.DocumentType) bool {
	for _, t := range allowedTargets[source] {
		if t == target {
			return true
		}
	}
	return false
}
