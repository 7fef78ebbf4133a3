package conversion_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haythemba/gescom-api/internal/application/apptest"
	"github.com/haythemba/gescom-api/internal/application/conversion"
	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/lifecycle"
	"github.com/haythemba/gescom-api/internal/domain/money"
)

var timbre = decimal.RequireFromString("1.000")

type fixture struct {
	stores    *apptest.Stores
	inventory *apptest.Inventory
	uc        *conversion.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := apptest.NewStores()
	inventory := &apptest.Inventory{Products: stores.Products}
	return &fixture{
		stores:    stores,
		inventory: inventory,
		uc:        conversion.NewUseCase(stores.Runner(), inventory, timbre),
	}
}

func (f *fixture) seedProduct(t *testing.T, id, ref, name string, invoiceable int64) {
	t.Helper()
	f.stores.Products.Seed(&entity.Product{
		ID:             id,
		Reference:      ref,
		Name:           name,
		Price:          decimal.RequireFromString("10.000"),
		VATRate:        decimal.NewFromInt(19),
		InvoiceableQty: decimal.NewFromInt(invoiceable),
	})
}

// seedSource crée un document source avec une ligne par produit (qté 2 à
// 10.000 HT, TVA 19%), montants calculés comme en production.
func (f *fixture) seedSource(t *testing.T, id string, docType entity.DocumentType, productIDs ...string) *entity.Document {
	t.Helper()
	var lines []entity.Line
	for i, pid := range productIDs {
		amounts, err := money.ComputeLine(decimal.NewFromInt(2), decimal.RequireFromString("10.000"), decimal.NewFromInt(19))
		require.NoError(t, err)
		lines = append(lines, entity.Line{
			ID:          id + "-l" + string(rune('1'+i)),
			DocumentID:  id,
			LineNumber:  i + 1,
			ProductID:   pid,
			Designation: "Produit " + pid,
			Quantity:    decimal.NewFromInt(2),
			UnitPriceHT: decimal.RequireFromString("10.000"),
			VATRate:     decimal.NewFromInt(19),
			TotalHT:     amounts.HT,
			TotalTVA:    amounts.TVA,
			TotalTTC:    amounts.TTC,
		})
	}
	doc := &entity.Document{
		ID:             id,
		Type:           docType,
		Side:           entity.SideClient,
		Number:         string(docType) + "-SRC",
		CounterpartyID: "client-1",
		Status:         lifecycle.InitialStatus(docType),
		Lines:          lines,
	}
	f.stores.Documents.Seed(doc)
	return doc
}

// ──────────────────────────────────────────────────────────────────────────────
// Conversions simples
// ──────────────────────────────────────────────────────────────────────────────

// Devis -> commande: document créé, lien posé, référence amont renseignée,
// montants recalculés avec timbre (document de vente client).
func TestConvert_DevisVersCommande(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)
	src := f.seedSource(t, "devis-1", entity.TypeDevis, "p1")

	created, err := f.uc.Convert(context.Background(), src.ID, entity.TypeCommande, conversion.Options{})
	require.NoError(t, err)

	assert.Equal(t, entity.TypeCommande, created.Type)
	assert.Equal(t, lifecycle.StatusEnAttente, created.Status)
	assert.Equal(t, src.ID, created.SourceID)
	assert.Equal(t, src.Number, created.SourceNumber)
	assert.NotEqual(t, src.Number, created.Number, "le document cible a son propre numéro")

	// 2 × 10.000 à 19% + timbre 1.000
	assert.True(t, created.TotalHT.Equal(decimal.RequireFromString("20.000")))
	assert.True(t, created.TotalTVA.Equal(decimal.RequireFromString("3.800")))
	assert.True(t, created.TimbreFiscal.Equal(timbre))
	assert.True(t, created.TotalTTC.Equal(decimal.RequireFromString("24.800")))

	// Lien posé sur la source
	link, ok := src.Links[entity.TypeCommande]
	require.True(t, ok)
	assert.Equal(t, created.ID, link.TargetID)
	assert.Equal(t, created.Number, link.TargetNumber)

	// Les lignes sont copiées avec de nouveaux identifiants
	require.Len(t, created.Lines, 1)
	assert.NotEqual(t, src.Lines[0].ID, created.Lines[0].ID)
	assert.Equal(t, src.Lines[0].ProductID, created.Lines[0].ProductID)

	// Pas de consommation inventaire hors facture
	assert.Empty(t, f.inventory.Consumed)
}

// Commande -> BL: pas de timbre fiscal sur un bon de livraison.
func TestConvert_CommandeVersBonLivraison_SansTimbre(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")

	created, err := f.uc.Convert(context.Background(), src.ID, entity.TypeBonLivraison, conversion.Options{})
	require.NoError(t, err)

	assert.True(t, created.TimbreFiscal.IsZero())
	assert.True(t, created.TotalTTC.Equal(decimal.RequireFromString("23.800")))
}

// Idempotence: reconvertir vers un type déjà lié échoue avec le numéro du
// document existant, sans créer de doublon.
func TestConvert_Idempotence(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)
	src := f.seedSource(t, "devis-1", entity.TypeDevis, "p1")

	first, err := f.uc.Convert(context.Background(), src.ID, entity.TypeCommande, conversion.Options{})
	require.NoError(t, err)
	countAfterFirst := f.stores.Documents.Count()

	_, err = f.uc.Convert(context.Background(), src.ID, entity.TypeCommande, conversion.Options{})
	require.Error(t, err)

	var linkedErr *domain.AlreadyLinkedError
	require.True(t, errors.As(err, &linkedErr))
	assert.Equal(t, first.Number, linkedErr.TargetNumber, "l'erreur porte le numéro existant")
	assert.Equal(t, countAfterFirst, f.stores.Documents.Count(), "aucun doublon créé")
}

// Une commande peut être convertie en BL ET en facture: l'invariant porte sur
// le type cible, pas sur la source.
func TestConvert_UnLienParType(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")

	_, err := f.uc.Convert(context.Background(), src.ID, entity.TypeBonLivraison, conversion.Options{})
	require.NoError(t, err)
	_, err = f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{})
	require.NoError(t, err)

	assert.Len(t, src.Links, 2)
}

// Conversions non supportées et documents fournisseur: rejetés en validation.
func TestConvert_Rejets(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)

	src := f.seedSource(t, "devis-1", entity.TypeDevis, "p1")
	_, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "devis -> facture non supporté")

	fournisseur := f.seedSource(t, "cmd-f", entity.TypeCommande, "p1")
	fournisseur.Side = entity.SideFournisseur
	_, err = f.uc.Convert(context.Background(), fournisseur.ID, entity.TypeFacture, conversion.Options{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "les documents fournisseur ne se convertissent pas")

	_, err = f.uc.Convert(context.Background(), "inexistant", entity.TypeCommande, conversion.Options{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.uc.Convert(context.Background(), src.ID, entity.DocumentType("INCONNU"), conversion.Options{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Facturation et substitutions
// ──────────────────────────────────────────────────────────────────────────────

// Facture sans blocage: les quantités facturables des produits facturés sont
// consommées après commit.
func TestConvert_FactureConsommeInventaire(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")

	_, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{})
	require.NoError(t, err)

	require.Len(t, f.inventory.Consumed, 1)
	assert.True(t, f.stores.Products.Get("p1").InvoiceableQty.Equal(decimal.NewFromInt(8)), "10 - 2")
	assert.Empty(t, f.stores.Substitutions.Rows, "pas de triple sans substitution")
}

// Produit sans quantité facturable et sans décision: la conversion est bloquée
// avec les candidats classés, rien n'est persisté.
func TestConvert_SubstitutionRequise(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 0)
	f.seedProduct(t, "p2", "REF-A", "Produit A bis", 5)
	f.seedProduct(t, "p3", "REF-B", "Produit B", 5)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")
	countBefore := f.stores.Documents.Count()

	_, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{})
	require.Error(t, err)

	var subErr *domain.SubstitutionRequiredError
	require.True(t, errors.As(err, &subErr))
	require.Len(t, subErr.Blocking, 1)
	require.Len(t, subErr.Blocking[0].Candidates, 2)
	assert.Equal(t, "p2", subErr.Blocking[0].Candidates[0].ProductID, "référence partagée d'abord")
	assert.True(t, subErr.Blocking[0].Candidates[0].SameReference)

	assert.Equal(t, countBefore, f.stores.Documents.Count(), "rien n'est persisté")
	assert.Empty(t, src.Links)
	assert.Empty(t, f.inventory.Consumed)
}

// Avec décision: le triple est enregistré avec l'identité facturée, la ligne
// garde la désignation et le produit d'origine, et c'est le remplaçant qui est
// consommé.
func TestConvert_SubstitutionAvecDecision(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 0)
	f.seedProduct(t, "p2", "REF-A", "Produit A bis", 5)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")

	created, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{
		Substitutions: []dto.SubstitutionDecision{
			{RealProductID: "p1", InvoicedProductID: "p2", Quantity: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)

	// La ligne de facture affiche toujours l'identité d'origine
	require.Len(t, created.Lines, 1)
	assert.Equal(t, "p1", created.Lines[0].ProductID)
	assert.Equal(t, "Produit p1", created.Lines[0].Designation)

	// Le triple porte l'identité réellement facturée
	require.Len(t, f.stores.Substitutions.Rows, 1)
	row := f.stores.Substitutions.Rows[0]
	assert.Equal(t, created.ID, row.InvoiceID)
	assert.Equal(t, created.Lines[0].ID, row.LineID)
	assert.Equal(t, "p1", row.RealProductID)
	assert.Equal(t, "p2", row.InvoicedProductID)
	assert.True(t, row.Quantity.Equal(decimal.NewFromInt(2)))

	// C'est le remplaçant qui est consommé
	assert.True(t, f.stores.Products.Get("p2").InvoiceableQty.Equal(decimal.NewFromInt(3)), "5 - 2")
	assert.True(t, f.stores.Products.Get("p1").InvoiceableQty.IsZero())
}

// Aucun candidat: erreur spécifique, à distinguer du cas "décision manquante".
func TestConvert_AucunRemplacantEligible(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 0)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")

	_, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{})
	require.Error(t, err)

	var noSubErr *domain.NoEligibleSubstituteError
	assert.True(t, errors.As(err, &noSubErr))
	assert.Empty(t, src.Links)
}

// Décision invalide: remplaçant hors candidats ou quantité différente de la ligne.
func TestConvert_DecisionInvalide(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 0)
	f.seedProduct(t, "p2", "REF-A", "Produit A bis", 5)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")

	_, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{
		Substitutions: []dto.SubstitutionDecision{
			{RealProductID: "p1", InvoicedProductID: "p9", Quantity: decimal.NewFromInt(2)},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "remplaçant hors candidats")

	_, err = f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{
		Substitutions: []dto.SubstitutionDecision{
			{RealProductID: "p1", InvoicedProductID: "p2", Quantity: decimal.NewFromInt(1)},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "quantité différente de la ligne")
}

// Échec du collaborateur inventaire après commit: la facture est créée et
// retournée avec l'erreur; l'appelant relance la consommation, pas la conversion.
func TestConvert_EchecInventaireApresCommit(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", "REF-A", "Produit A", 10)
	src := f.seedSource(t, "cmd-1", entity.TypeCommande, "p1")
	f.inventory.Err = errors.New("inventaire indisponible")

	created, err := f.uc.Convert(context.Background(), src.ID, entity.TypeFacture, conversion.Options{})
	require.Error(t, err)
	require.NotNil(t, created, "la facture committée est retournée malgré l'erreur")

	stored, getErr := f.stores.Documents.GetByID(context.Background(), created.ID)
	require.NoError(t, getErr)
	assert.NotNil(t, stored, "la facture reste persistée")
	assert.NotEmpty(t, src.Links, "le lien reste posé")
}
