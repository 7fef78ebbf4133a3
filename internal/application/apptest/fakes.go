// Package apptest fournit des implémentations en mémoire des ports de
// persistance pour les tests des cas d'usage.
package apptest

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/application/ports"
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// Stores jeux de stores en mémoire partageant le même état. Runner() retourne
// un TxRunner qui exécute le callback directement sur cet état.
type Stores struct {
	Documents     *DocumentStore
	Products      *ProductStore
	Clients       *ClientStore
	Substitutions *SubstitutionStore
	Sequences     *SequenceStore
	Tracking      *TrackingStore
}

// NewStores construit un état vide.
func NewStores() *Stores {
	return &Stores{
		Documents:     &DocumentStore{docs: make(map[string]*entity.Document)},
		Products:      &ProductStore{products: make(map[string]*entity.Product)},
		Clients:       &ClientStore{clients: make(map[string]*entity.Client)},
		Substitutions: &SubstitutionStore{},
		Sequences:     &SequenceStore{counters: make(map[entity.DocumentType]int)},
		Tracking:      &TrackingStore{trackings: make(map[string]*entity.DeliveryTracking)},
	}
}

func (s *Stores) bundle() repository.Stores {
	return repository.Stores{
		Documents:     s.Documents,
		Products:      s.Products,
		Clients:       s.Clients,
		Substitutions: s.Substitutions,
		Sequences:     s.Sequences,
		Tracking:      s.Tracking,
	}
}

// Runner TxRunner de test: pas de vraie transaction, le callback travaille
// directement sur l'état partagé.
func (s *Stores) Runner() ports.TxRunner {
	return runner{stores: s}
}

type runner struct {
	stores *Stores
}

func (r runner) Run(_ context.Context, fn func(s repository.Stores) error) error {
	return fn(r.stores.bundle())
}

// ──────────────────────────────────────────────────────────────────────────────
// Documents
// ──────────────────────────────────────────────────────────────────────────────

// DocumentStore implémentation mémoire de DocumentRepository.
type DocumentStore struct {
	docs map[string]*entity.Document
}

var _ repository.DocumentRepository = (*DocumentStore)(nil)

// Seed insère un document sans passer par Create (état initial de test).
func (s *DocumentStore) Seed(doc *entity.Document) {
	if doc.Links == nil {
		doc.Links = make(map[entity.DocumentType]entity.DocumentLink)
	}
	s.docs[doc.ID] = doc
}

// Count nombre de documents stockés.
func (s *DocumentStore) Count() int { return len(s.docs) }

// ByType retourne les documents d'un type (pour les assertions).
func (s *DocumentStore) ByType(docType entity.DocumentType) []*entity.Document {
	var out []*entity.Document
	for _, d := range s.docs {
		if d.Type == docType {
			out = append(out, d)
		}
	}
	return out
}

func (s *DocumentStore) Create(_ context.Context, doc *entity.Document) error {
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("document %s existe déjà", doc.ID)
	}
	if doc.Links == nil {
		doc.Links = make(map[entity.DocumentType]entity.DocumentLink)
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *DocumentStore) GetByID(_ context.Context, id string) (*entity.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (s *DocumentStore) GetByIDForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return s.GetByID(ctx, id)
}

func (s *DocumentStore) Update(_ context.Context, doc *entity.Document) error {
	if _, ok := s.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *DocumentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *DocumentStore) List(_ context.Context, filter repository.DocumentFilter) ([]entity.Document, error) {
	var out []entity.Document
	for _, d := range s.docs {
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if filter.Side != "" && d.Side != filter.Side {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.CounterpartyID != "" && d.CounterpartyID != filter.CounterpartyID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *DocumentStore) SetStatus(_ context.Context, id, status string) error {
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (s *DocumentStore) LinkDownstream(_ context.Context, id string, link entity.DocumentLink) error {
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if existing, ok := doc.Links[link.TargetType]; ok {
		return &domain.AlreadyLinkedError{DocumentID: id, TargetType: link.TargetType, TargetNumber: existing.TargetNumber}
	}
	doc.Links[link.TargetType] = link
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Produits
// ──────────────────────────────────────────────────────────────────────────────

// ProductStore implémentation mémoire de ProductRepository.
type ProductStore struct {
	products map[string]*entity.Product
}

var _ repository.ProductRepository = (*ProductStore)(nil)

// Seed insère un produit.
func (s *ProductStore) Seed(p *entity.Product) { s.products[p.ID] = p }

// Get accès direct pour les assertions.
func (s *ProductStore) Get(id string) *entity.Product { return s.products[id] }

func (s *ProductStore) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *ProductStore) List(_ context.Context) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *ProductStore) ListInvoiceable(_ context.Context) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range s.products {
		if p.InvoiceableQty.IsPositive() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *ProductStore) AdjustInvoiceable(_ context.Context, productID string, delta decimal.Decimal) error {
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	next := p.InvoiceableQty.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("quantité facturable insuffisante pour le produit %s: %w", productID, domain.ErrConflict)
	}
	p.InvoiceableQty = next
	return nil
}

func (s *ProductStore) AdjustPhysical(_ context.Context, productID string, delta decimal.Decimal) error {
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.PhysicalStock = p.PhysicalStock.Add(delta)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Contreparties
// ──────────────────────────────────────────────────────────────────────────────

// ClientStore implémentation mémoire de ClientRepository.
type ClientStore struct {
	clients map[string]*entity.Client
}

var _ repository.ClientRepository = (*ClientStore)(nil)

// Seed insère une contrepartie.
func (s *ClientStore) Seed(c *entity.Client) { s.clients[c.ID] = c }

func (s *ClientStore) Create(_ context.Context, client *entity.Client) error {
	s.clients[client.ID] = client
	return nil
}

func (s *ClientStore) GetByID(_ context.Context, id string) (*entity.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (s *ClientStore) List(_ context.Context) ([]entity.Client, error) {
	var out []entity.Client
	for _, c := range s.clients {
		out = append(out, *c)
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Substitutions, séquences, suivi
// ──────────────────────────────────────────────────────────────────────────────

// SubstitutionStore implémentation mémoire de SubstitutionRepository.
type SubstitutionStore struct {
	Rows []entity.Substitution
}

var _ repository.SubstitutionRepository = (*SubstitutionStore)(nil)

func (s *SubstitutionStore) Create(_ context.Context, sub *entity.Substitution) error {
	s.Rows = append(s.Rows, *sub)
	return nil
}

func (s *SubstitutionStore) ListByInvoice(_ context.Context, invoiceID string) ([]entity.Substitution, error) {
	var out []entity.Substitution
	for _, row := range s.Rows {
		if row.InvoiceID == invoiceID {
			out = append(out, row)
		}
	}
	return out, nil
}

// SequenceStore implémentation mémoire de SequenceRepository.
type SequenceStore struct {
	counters map[entity.DocumentType]int
}

var _ repository.SequenceRepository = (*SequenceStore)(nil)

func (s *SequenceStore) Next(_ context.Context, docType entity.DocumentType) (string, error) {
	s.counters[docType]++
	return fmt.Sprintf("%s-2026-%05d", docType, s.counters[docType]), nil
}

// TrackingStore implémentation mémoire de TrackingRepository.
type TrackingStore struct {
	trackings map[string]*entity.DeliveryTracking
}

var _ repository.TrackingRepository = (*TrackingStore)(nil)

func (s *TrackingStore) Get(_ context.Context, orderID string) (*entity.DeliveryTracking, error) {
	t, ok := s.trackings[orderID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *TrackingStore) Upsert(_ context.Context, tracking *entity.DeliveryTracking) error {
	cp := *tracking
	s.trackings[tracking.OrderID] = &cp
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventaire
// ──────────────────────────────────────────────────────────────────────────────

// Inventory collaborateur inventaire de test: enregistre les mouvements et les
// applique sur le ProductStore.
type Inventory struct {
	Products *ProductStore
	Consumed [][]ports.StockMovement
	Restored [][]ports.StockMovement
	Err      error // si non nil, chaque appel échoue
}

var _ ports.Inventory = (*Inventory)(nil)

func (inv *Inventory) ConsumeInvoiceable(ctx context.Context, movements []ports.StockMovement) error {
	if inv.Err != nil {
		return inv.Err
	}
	inv.Consumed = append(inv.Consumed, movements)
	for _, m := range movements {
		if err := inv.Products.AdjustInvoiceable(ctx, m.ProductID, m.Quantity.Neg()); err != nil {
			return err
		}
	}
	return nil
}

func (inv *Inventory) RestorePhysical(ctx context.Context, movements []ports.StockMovement) error {
	if inv.Err != nil {
		return inv.Err
	}
	inv.Restored = append(inv.Restored, movements)
	for _, m := range movements {
		if err := inv.Products.AdjustPhysical(ctx, m.ProductID, m.Quantity); err != nil {
			return err
		}
	}
	return nil
}
