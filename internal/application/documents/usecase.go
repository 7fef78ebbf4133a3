package documents

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

const dateLayout = "2006-01-02"

// UseCase CRUD des documents commerciaux. Les montants de lignes et d'en-tête
// sont toujours recalculés ici, jamais repris du payload.
type UseCase struct {
	txRunner ports.TxRunner
	docs     repository.DocumentRepository
	clients  repository.ClientRepository
	products repository.ProductRepository
	timbre   decimal.Decimal
}

// NewUseCase construit le cas d'usage. timbre: montant du timbre fiscal
// appliqué aux documents de vente client.
func NewUseCase(
	txRunner ports.TxRunner,
	docs repository.DocumentRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	timbre decimal.Decimal,
) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		docs:     docs,
		clients:  clients,
		products: products,
		timbre:   timbre,
	}
}

// Create crée un document: validation des lignes, calcul des montants,
// numéro réservé sur la séquence du type dans la même transaction que l'insert.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateDocumentRequest) (*entity.Document, error) {
	docType := entity.DocumentType(in.Type)
	if lifecycle.InitialStatus(docType) == "" {
		return nil, &domain.ValidationError{Field: "type", Reason: "type de document inconnu"}
	}
	side := entity.DocumentSide(in.Side)
	if side == "" {
		side = entity.SideClient
	}
	if side != entity.SideClient && side != entity.SideFournisseur {
		return nil, &domain.ValidationError{Field: "side", Reason: "doit être CLIENT ou FOURNISSEUR"}
	}
	if in.CounterpartyID == "" {
		return nil, &domain.ValidationError{Field: "counterparty_id", Reason: "requis"}
	}
	client, err := uc.clients.GetByID(ctx, in.CounterpartyID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}

	issueDate := time.Now()
	if in.IssueDate != "" {
		if issueDate, err = time.Parse(dateLayout, in.IssueDate); err != nil {
			return nil, &domain.ValidationError{Field: "issue_date", Reason: "format attendu AAAA-MM-JJ"}
		}
	}
	var dueDate *time.Time
	if in.DueDate != "" {
		d, err := time.Parse(dateLayout, in.DueDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "due_date", Reason: "format attendu AAAA-MM-JJ"}
		}
		dueDate = &d
	}

	docID := uuid.New().String()
	lines, err := uc.buildLines(ctx, docID, in.Lines)
	if err != nil {
		return nil, err
	}

	timbre := decimal.Zero
	if money.StampApplies(side, docType) {
		timbre = uc.timbre
	}
	totals := money.ComputeTotals(lines, timbre)

	now := time.Now()
	doc := &entity.Document{
		ID:             docID,
		Type:           docType,
		Side:           side,
		CounterpartyID: in.CounterpartyID,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		Status:         lifecycle.InitialStatus(docType),
		Notes:          in.Notes,
		Lines:          lines,
		TotalHT:        totals.HT,
		TotalTVA:       totals.TVA,
		TimbreFiscal:   totals.Timbre,
		TotalTTC:       totals.TTC,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Numéro + insert dans la même tx: la séquence avance même si un document
	// est supprimé plus tard, les numéros ne sont jamais réutilisés.
	err = uc.txRunner.Run(ctx, func(s repository.Stores) error {
		number, err := s.Sequences.Next(ctx, docType)
		if err != nil {
			return err
		}
		doc.Number = number
		return s.Documents.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Get charge un document complet (lignes + liens).
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// List liste les documents selon le filtre.
func (uc *UseCase) List(ctx context.Context, filter repository.DocumentFilter) ([]entity.Document, error) {
	return uc.docs.List(ctx, filter)
}

// Update remplace intégralement les lignes et recalcule tous les montants.
// Numéro, statut, liens et références amont sont conservés tels quels.
func (uc *UseCase) Update(ctx context.Context, id string, in dto.UpdateDocumentRequest) (*entity.Document, error) {
	doc, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.DueDate != "" {
		d, err := time.Parse(dateLayout, in.DueDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "due_date", Reason: "format attendu AAAA-MM-JJ"}
		}
		doc.DueDate = &d
	}
	doc.Notes = in.Notes

	lines, err := uc.buildLines(ctx, doc.ID, in.Lines)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines

	timbre := decimal.Zero
	if money.StampApplies(doc.Side, doc.Type) {
		timbre = uc.timbre
	}
	totals := money.ComputeTotals(lines, timbre)
	doc.TotalHT = totals.HT
	doc.TotalTVA = totals.TVA
	doc.TimbreFiscal = totals.Timbre
	doc.TotalTTC = totals.TTC
	doc.UpdatedAt = time.Now()

	if err := uc.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete supprime un document encore dans son statut initial et sans lien aval.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if !lifecycle.IsInitial(doc.Type, doc.Status) {
		return fmt.Errorf("suppression du document %s en statut %s: %w", doc.Number, doc.Status, domain.ErrConflict)
	}
	if len(doc.Links) > 0 {
		return fmt.Errorf("suppression du document %s déjà converti: %w", doc.Number, domain.ErrConflict)
	}
	return uc.docs.Delete(ctx, id)
}

// ChangeStatus applique une transition du cycle de vie. La validation se fait
// sur la ligne verrouillée dans la transaction: deux transitions concurrentes
// depuis le même instantané ne peuvent pas aboutir toutes les deux. La sortie
// de brouillon d'une facture revérifie que chaque ligne sans quantité
// facturable porte une substitution enregistrée.
func (uc *UseCase) ChangeStatus(ctx context.Context, id, next string) (*entity.Document, error) {
	var doc *entity.Document
	err := uc.txRunner.Run(ctx, func(s repository.Stores) error {
		var err error
		doc, err = s.Documents.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if err := lifecycle.Transition(doc.Type, doc.Status, next); err != nil {
			return err
		}

		if doc.Type == entity.TypeFacture && doc.Status == lifecycle.StatusBrouillon && next == lifecycle.StatusEnvoyee {
			if err := checkSubstitutionCoverage(ctx, s, doc); err != nil {
				return err
			}
		}

		if err := s.Documents.SetStatus(ctx, id, next); err != nil {
			return err
		}
		doc.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// checkSubstitutionCoverage vérifie l'invariant de sortie de brouillon: toute
// ligne de facture dont le produit n'a aucune quantité facturable doit porter
// un triple de substitution. Lit les stores de la transaction courante pour
// que la vérification porte sur le même instantané que la transition.
func checkSubstitutionCoverage(ctx context.Context, s repository.Stores, doc *entity.Document) error {
	subs, err := s.Substitutions.ListByInvoice(ctx, doc.ID)
	if err != nil {
		return err
	}
	covered := make(map[string]bool, len(subs))
	for _, sub := range subs {
		covered[sub.LineID] = true
	}

	var pool []entity.Product
	var blocking []domain.BlockingLine
	for _, line := range doc.Lines {
		if line.ProductID == "" || covered[line.ID] {
			continue
		}
		p, err := s.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if p == nil || p.InvoiceableQty.IsPositive() {
			continue
		}
		if pool == nil {
			if pool, err = s.Products.ListInvoiceable(ctx); err != nil {
				return err
			}
		}
		blocking = append(blocking, domain.BlockingLine{
			LineID:      line.ID,
			ProductID:   line.ProductID,
			Designation: line.Designation,
			Quantity:    line.Quantity,
			Candidates:  substitution.Candidates(p, pool),
		})
	}
	if len(blocking) > 0 {
		return &domain.SubstitutionRequiredError{SourceID: doc.ID, Blocking: blocking}
	}
	return nil
}

// buildLines construit les lignes entité depuis la saisie: résolution produit,
// dérivation HT depuis TTC si la ligne est saisie taxe comprise, puis calcul
// des montants (arrondis à chaque étape).
func (uc *UseCase) buildLines(ctx context.Context, docID string, inputs []dto.LineRequest) ([]entity.Line, error) {
	if len(inputs) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "au moins une ligne requise"}
	}

	lines := make([]entity.Line, 0, len(inputs))
	for i, in := range inputs {
		line := entity.Line{
			ID:          uuid.New().String(),
			DocumentID:  docID,
			LineNumber:  i + 1,
			ProductID:   in.ProductID,
			Designation: in.Designation,
			Quantity:    in.Quantity,
			UnitPriceHT: in.UnitPriceHT,
			VATRate:     in.VATRate,
		}

		if in.ProductID != "" {
			p, err := uc.products.GetByID(ctx, in.ProductID)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, fmt.Errorf("ligne %d: produit %s: %w", i+1, in.ProductID, domain.ErrNotFound)
			}
			if line.Designation == "" {
				line.Designation = p.Name
			}
			if line.VATRate.IsZero() {
				line.VATRate = p.VATRate
			}
			if line.UnitPriceHT.IsZero() && in.UnitPriceTTC.IsZero() {
				line.UnitPriceHT = p.Price
			}
		}
		if line.Designation == "" {
			return nil, &domain.ValidationError{Field: "designation", Reason: fmt.Sprintf("ligne %d: requis", i+1)}
		}

		if in.UnitPriceTTC.IsPositive() {
			ht, err := money.PriceHTFromTTC(in.UnitPriceTTC, line.VATRate)
			if err != nil {
				return nil, err
			}
			line.UnitPriceHT = ht
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
	return lines, nil
}
