package bulkinvoice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haythemba/gescom-api/internal/application/apptest"
	"github.com/haythemba/gescom-api/internal/application/bulkinvoice"
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/lifecycle"
	"github.com/haythemba/gescom-api/internal/domain/money"
)

var (
	timbre = decimal.RequireFromString("1.000")
	margin = decimal.RequireFromString("0.07")
)

type fixture struct {
	stores    *apptest.Stores
	inventory *apptest.Inventory
	uc        *bulkinvoice.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := apptest.NewStores()
	stores.Clients.Seed(&entity.Client{ID: "passage", Code: "PASS", Name: "Client de passage", IsWalkIn: true})
	stores.Clients.Seed(&entity.Client{ID: "regulier", Code: "REG", Name: "Client régulier"})
	stores.Products.Seed(&entity.Product{
		ID:             "p1",
		Reference:      "REF-A",
		Name:           "Produit A",
		Price:          decimal.RequireFromString("10.000"),
		Cost:           decimal.RequireFromString("7.000"),
		VATRate:        decimal.NewFromInt(19),
		InvoiceableQty: decimal.NewFromInt(100),
	})
	inventory := &apptest.Inventory{Products: stores.Products}
	return &fixture{
		stores:    stores,
		inventory: inventory,
		uc: bulkinvoice.NewUseCase(stores.Runner(), stores.Documents, stores.Clients,
			stores.Products, inventory, timbre, margin),
	}
}

// seedOrder crée une commande client avec une ligne (qté 2, 10.000 HT, 19%).
func (f *fixture) seedOrder(t *testing.T, id, counterpartyID string) *entity.Document {
	t.Helper()
	amounts, err := money.ComputeLine(decimal.NewFromInt(2), decimal.RequireFromString("10.000"), decimal.NewFromInt(19))
	require.NoError(t, err)
	doc := &entity.Document{
		ID:             id,
		Type:           entity.TypeCommande,
		Side:           entity.SideClient,
		Number:         "CMD-" + id,
		CounterpartyID: counterpartyID,
		Status:         lifecycle.StatusEnAttente,
		Lines: []entity.Line{{
			ID: id + "-l1", DocumentID: id, LineNumber: 1, ProductID: "p1",
			Designation: "Produit A", Quantity: decimal.NewFromInt(2),
			UnitPriceHT: decimal.RequireFromString("10.000"), VATRate: decimal.NewFromInt(19),
			TotalHT: amounts.HT, TotalTVA: amounts.TVA, TotalTTC: amounts.TTC,
		}},
	}
	f.stores.Documents.Seed(doc)
	return doc
}

// ──────────────────────────────────────────────────────────────────────────────
// Simulation
// ──────────────────────────────────────────────────────────────────────────────

// La simulation fusionne les lignes et calcule les totaux sans rien persister.
func TestSimulate_SansPersistance(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, "c1", "passage")
	f.seedOrder(t, "c2", "passage")
	countBefore := f.stores.Documents.Count()

	out, err := f.uc.Simulate(context.Background(), []string{"c1", "c2"}, false)
	require.NoError(t, err)

	require.Len(t, out.Lines, 2)
	// 2 commandes × (20.000 HT / 3.800 TVA) + timbre 1.000
	assert.True(t, out.TotalHT.Equal(decimal.RequireFromString("40.000")))
	assert.True(t, out.TotalTVA.Equal(decimal.RequireFromString("7.600")))
	assert.True(t, out.TotalTTC.Equal(decimal.RequireFromString("48.600")))

	assert.Equal(t, countBefore, f.stores.Documents.Count(), "aucun document créé")
	assert.Empty(t, f.inventory.Consumed)
}

// Recalcul depuis le coût: prix = round3(coût × (1 + marge)).
func TestSimulate_Recalcul(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, "c1", "passage")

	out, err := f.uc.Simulate(context.Background(), []string{"c1"}, true)
	require.NoError(t, err)

	// 7.000 × 1.07 = 7.490
	require.Len(t, out.Lines, 1)
	assert.True(t, out.Lines[0].UnitPriceHT.Equal(decimal.RequireFromString("7.490")),
		"prix recalculé = %s", out.Lines[0].UnitPriceHT)
	// HT 2 × 7.490 = 14.980; TVA 2.846 (2.8462 arrondi)
	assert.True(t, out.TotalHT.Equal(decimal.RequireFromString("14.980")))
	assert.True(t, out.TotalTVA.Equal(decimal.RequireFromString("2.846")))
}

// La simulation rejette les lots invalides comme le commit, pour que l'aperçu
// corresponde au lot commitable.
func TestSimulate_Rejets(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "c1", "passage")
	f.seedOrder(t, "c2", "regulier")

	_, err := f.uc.Simulate(context.Background(), nil, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "lot vide")

	_, err = f.uc.Simulate(context.Background(), []string{"c2"}, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "client non de passage")

	require.NoError(t, f.stores.Documents.LinkDownstream(context.Background(), order.ID,
		entity.DocumentLink{TargetType: entity.TypeFacture, TargetID: "f1", TargetNumber: "FAC-X"}))
	_, err = f.uc.Simulate(context.Background(), []string{"c1"}, false)
	var batchErr *domain.PartialBatchConflictError
	assert.True(t, errors.As(err, &batchErr), "source déjà facturée")
}

// ──────────────────────────────────────────────────────────────────────────────
// Commit
// ──────────────────────────────────────────────────────────────────────────────

// Le commit crée une seule facture, lie chaque source et consomme l'inventaire.
func TestCommit_UneFacturePourLeLot(t *testing.T) {
	f := newFixture(t)
	o1 := f.seedOrder(t, "c1", "passage")
	o2 := f.seedOrder(t, "c2", "passage")

	invoice, err := f.uc.Commit(context.Background(), []string{"c1", "c2"}, false)
	require.NoError(t, err)

	assert.Equal(t, entity.TypeFacture, invoice.Type)
	assert.Equal(t, lifecycle.StatusBrouillon, invoice.Status)
	assert.Equal(t, "passage", invoice.CounterpartyID)
	require.Len(t, invoice.Lines, 2)
	assert.Contains(t, invoice.Notes, o1.Number)
	assert.Contains(t, invoice.Notes, o2.Number)

	// Chaque source porte le lien vers la même facture
	for _, src := range []*entity.Document{o1, o2} {
		link, ok := src.Links[entity.TypeFacture]
		require.True(t, ok, "source %s liée", src.ID)
		assert.Equal(t, invoice.ID, link.TargetID)
	}

	// Consommation inventaire: 2 + 2 sur p1
	require.Len(t, f.inventory.Consumed, 1)
	assert.True(t, f.stores.Products.Get("p1").InvoiceableQty.Equal(decimal.NewFromInt(96)))
}

// Tout ou rien: une source déjà facturée fait échouer le lot entier, aucune
// facture créée, aucun lien posé, et l'erreur nomme les sources en conflit.
func TestCommit_ToutOuRien(t *testing.T) {
	f := newFixture(t)
	o1 := f.seedOrder(t, "c1", "passage")
	o2 := f.seedOrder(t, "c2", "passage")
	require.NoError(t, f.stores.Documents.LinkDownstream(context.Background(), o2.ID,
		entity.DocumentLink{TargetType: entity.TypeFacture, TargetID: "f0", TargetNumber: "FAC-0"}))
	countBefore := f.stores.Documents.Count()

	_, err := f.uc.Commit(context.Background(), []string{"c1", "c2"}, false)
	require.Error(t, err)

	var batchErr *domain.PartialBatchConflictError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, []string{"c2"}, batchErr.ConflictIDs)

	assert.Equal(t, countBefore, f.stores.Documents.Count(), "aucune facture créée")
	assert.Empty(t, o1.Links, "la source saine n'est pas liée")
	assert.Empty(t, f.inventory.Consumed)

	// Le lot réduit passe ensuite
	_, err = f.uc.Commit(context.Background(), []string{"c1"}, false)
	assert.NoError(t, err)
}

// Les commandes de contreparties différentes ne se regroupent pas.
func TestCommit_ContrepartiesMelangees(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, "c1", "passage")
	f.seedOrder(t, "c2", "regulier")

	_, err := f.uc.Commit(context.Background(), []string{"c1", "c2"}, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// Seules les commandes client se regroupent.
func TestCommit_TypeEtCoteExiges(t *testing.T) {
	f := newFixture(t)
	devis := f.seedOrder(t, "c1", "passage")
	devis.Type = entity.TypeDevis

	_, err := f.uc.Commit(context.Background(), []string{"c1"}, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
