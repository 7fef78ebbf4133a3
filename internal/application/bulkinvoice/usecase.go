package bulkinvoice

import (
	"context"
	"fmt"
	"strings"
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
)

// UseCase facturation groupée: fusionne les commandes non facturées d'un
// client de passage en une seule facture. Le commit lie chaque source à la
// facture dans la même transaction, un lot partiellement traité ne peut pas
// être refacturé.
type UseCase struct {
	txRunner  ports.TxRunner
	docs      repository.DocumentRepository
	clients   repository.ClientRepository
	products  repository.ProductRepository
	inventory ports.Inventory
	timbre    decimal.Decimal
	margin    decimal.Decimal
}

// NewUseCase construit le cas d'usage. margin: marge du recalcul
// coût × (1 + marge) quand le prix de vente enregistré n'est pas facturable
// (prix d'affichage comptoir).
func NewUseCase(
	txRunner ports.TxRunner,
	docs repository.DocumentRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	inventory ports.Inventory,
	timbre, margin decimal.Decimal,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		docs:      docs,
		clients:   clients,
		products:  products,
		inventory: inventory,
		timbre:    timbre,
		margin:    margin,
	}
}

// Simulate aperçu du regroupement sans aucune persistance: lignes fusionnées
// (éventuellement recalculées) et totaux. Les sources déjà facturées sont
// rejetées comme au commit, pour que l'aperçu corresponde au lot commitable.
func (uc *UseCase) Simulate(ctx context.Context, sourceIDs []string, reprice bool) (*dto.BulkSimulationResponse, error) {
	sources, err := uc.loadSources(ctx, sourceIDs, func(id string) (*entity.Document, error) {
		return uc.docs.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	lines, err := uc.mergeLines(ctx, sources, "", reprice)
	if err != nil {
		return nil, err
	}
	totals := money.ComputeTotals(lines, uc.timbre)

	resp := &dto.BulkSimulationResponse{
		Lines:        make([]dto.LineResponse, 0, len(lines)),
		TotalHT:      totals.HT,
		TotalTVA:     totals.TVA,
		TimbreFiscal: totals.Timbre,
		TotalTTC:     totals.TTC,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.FromLine(l))
	}
	return resp, nil
}

// Commit fusionne et persiste la facture, puis lie chaque source. Si une
// source du lot est déjà facturée, le lot entier est rejeté sans rien créer:
// l'appelant filtre les conflits et relance avec le lot réduit.
func (uc *UseCase) Commit(ctx context.Context, sourceIDs []string, reprice bool) (*entity.Document, error) {
	var created *entity.Document
	var consumed []ports.StockMovement

	err := uc.txRunner.Run(ctx, func(s repository.Stores) error {
		sources, err := uc.loadSources(ctx, sourceIDs, func(id string) (*entity.Document, error) {
			return s.Documents.GetByIDForUpdate(ctx, id)
		})
		if err != nil {
			return err
		}

		docID := uuid.New().String()
		lines, err := uc.mergeLines(ctx, sources, docID, reprice)
		if err != nil {
			return err
		}
		totals := money.ComputeTotals(lines, uc.timbre)

		number, err := s.Sequences.Next(ctx, entity.TypeFacture)
		if err != nil {
			return err
		}

		numbers := make([]string, 0, len(sources))
		for _, src := range sources {
			numbers = append(numbers, src.Number)
		}

		now := time.Now()
		doc := &entity.Document{
			ID:             docID,
			Type:           entity.TypeFacture,
			Side:           entity.SideClient,
			Number:         number,
			CounterpartyID: sources[0].CounterpartyID,
			IssueDate:      now,
			Status:         lifecycle.InitialStatus(entity.TypeFacture),
			Notes:          "Regroupement des commandes: " + strings.Join(numbers, ", "),
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

		for _, src := range sources {
			if err := s.Documents.LinkDownstream(ctx, src.ID, entity.DocumentLink{
				TargetType:   entity.TypeFacture,
				TargetID:     doc.ID,
				TargetNumber: doc.Number,
			}); err != nil {
				return err
			}
		}

		for _, l := range lines {
			if l.ProductID != "" {
				consumed = append(consumed, ports.StockMovement{ProductID: l.ProductID, Quantity: l.Quantity})
			}
		}
		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(consumed) > 0 {
		if err := uc.inventory.ConsumeInvoiceable(ctx, consumed); err != nil {
			return created, fmt.Errorf("facture %s créée, consommation inventaire: %w", created.Number, err)
		}
	}
	return created, nil
}

// loadSources charge et valide le lot: commandes client d'une même
// contrepartie de passage, aucune déjà liée à une facture.
func (uc *UseCase) loadSources(ctx context.Context, sourceIDs []string, load func(id string) (*entity.Document, error)) ([]*entity.Document, error) {
	if len(sourceIDs) == 0 {
		return nil, &domain.ValidationError{Field: "source_ids", Reason: "au moins une commande requise"}
	}

	sources := make([]*entity.Document, 0, len(sourceIDs))
	var conflicts []string
	for _, id := range sourceIDs {
		src, err := load(id)
		if err != nil {
			return nil, err
		}
		if src == nil {
			return nil, fmt.Errorf("commande %s: %w", id, domain.ErrNotFound)
		}
		if src.Type != entity.TypeCommande || src.Side != entity.SideClient {
			return nil, &domain.ValidationError{Field: "source_ids", Reason: fmt.Sprintf("%s n'est pas une commande client", src.Number)}
		}
		if len(sources) > 0 && src.CounterpartyID != sources[0].CounterpartyID {
			return nil, &domain.ValidationError{Field: "source_ids", Reason: "les commandes doivent partager la même contrepartie"}
		}
		if src.HasLink(entity.TypeFacture) {
			conflicts = append(conflicts, src.ID)
		}
		sources = append(sources, src)
	}
	if len(conflicts) > 0 {
		return nil, &domain.PartialBatchConflictError{ConflictIDs: conflicts}
	}

	client, err := uc.clients.GetByID(ctx, sources[0].CounterpartyID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if !client.IsWalkIn {
		return nil, &domain.ValidationError{Field: "source_ids", Reason: "la facturation groupée est réservée au client de passage"}
	}
	return sources, nil
}

// mergeLines concatène les lignes des sources, renumérotées, avec recalcul
// optionnel du prix depuis coût × (1 + marge) et des montants dans tous les cas.
func (uc *UseCase) mergeLines(ctx context.Context, sources []*entity.Document, docID string, reprice bool) ([]entity.Line, error) {
	var lines []entity.Line
	for _, src := range sources {
		for _, l := range src.Lines {
			line := entity.Line{
				ID:          uuid.New().String(),
				DocumentID:  docID,
				LineNumber:  len(lines) + 1,
				ProductID:   l.ProductID,
				Designation: l.Designation,
				Quantity:    l.Quantity,
				UnitPriceHT: l.UnitPriceHT,
				VATRate:     l.VATRate,
			}
			if reprice && line.ProductID != "" {
				p, err := uc.products.GetByID(ctx, line.ProductID)
				if err != nil {
					return nil, err
				}
				if p == nil {
					return nil, fmt.Errorf("produit %s: %w", line.ProductID, domain.ErrNotFound)
				}
				one := decimal.NewFromInt(1)
				line.UnitPriceHT = p.Cost.Mul(one.Add(uc.margin)).Round(money.Precision)
			}
			amounts, err := money.ComputeLine(line.Quantity, line.UnitPriceHT, line.VATRate)
			if err != nil {
				return nil, err
			}
			line.TotalHT = amounts.HT
			line.TotalTVA = amounts.TVA
			line.TotalTTC = amounts.TTC
			lines = append(lines, line)
		}
	}
	return lines, nil
}
