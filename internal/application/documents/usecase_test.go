package documents_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haythemba/gescom-api/internal/application/apptest"
	"github.com/haythemba/gescom-api/internal/application/documents"
	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/application/ports"
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/lifecycle"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var timbre = decimal.RequireFromString("1.000")

type fixture struct {
	stores *apptest.Stores
	uc     *documents.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := apptest.NewStores()
	stores.Clients.Seed(&entity.Client{ID: "client-1", Code: "CL001", Name: "Client Un"})
	stores.Products.Seed(&entity.Product{
		ID:             "p1",
		Reference:      "REF-A",
		Name:           "Produit A",
		Price:          decimal.RequireFromString("10.000"),
		VATRate:        decimal.NewFromInt(19),
		InvoiceableQty: decimal.NewFromInt(10),
	})
	return &fixture{
		stores: stores,
		uc: documents.NewUseCase(stores.Runner(), stores.Documents, stores.Clients,
			stores.Products, timbre),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Création
// ──────────────────────────────────────────────────────────────────────────────

// La ligne avec produit hérite de la désignation, du taux de TVA et du prix
// catalogue quand ils ne sont pas saisis; les totaux incluent le timbre.
func TestCreate_DefautsProduitEtTotaux(t *testing.T) {
	f := newFixture(t)

	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeFacture),
		CounterpartyID: "client-1",
		Lines: []dto.LineRequest{
			{ProductID: "p1", Quantity: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusBrouillon, doc.Status)
	assert.NotEmpty(t, doc.Number, "numéro réservé à la création")
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "Produit A", doc.Lines[0].Designation)
	assert.True(t, doc.Lines[0].VATRate.Equal(decimal.NewFromInt(19)))
	assert.True(t, doc.Lines[0].UnitPriceHT.Equal(decimal.RequireFromString("10.000")))

	assert.True(t, doc.TotalHT.Equal(decimal.RequireFromString("20.000")))
	assert.True(t, doc.TotalTVA.Equal(decimal.RequireFromString("3.800")))
	assert.True(t, doc.TimbreFiscal.Equal(timbre))
	assert.True(t, doc.TotalTTC.Equal(decimal.RequireFromString("24.800")))
}

// Saisie en mode TTC: le prix HT est dérivé du prix taxe comprise.
func TestCreate_SaisieTTC(t *testing.T) {
	f := newFixture(t)

	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeDevis),
		CounterpartyID: "client-1",
		Lines: []dto.LineRequest{
			{
				Designation:  "Article au comptoir",
				Quantity:     decimal.NewFromInt(1),
				UnitPriceTTC: decimal.RequireFromString("23.800"),
				VATRate:      decimal.NewFromInt(19),
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, doc.Lines[0].UnitPriceHT.Equal(decimal.RequireFromString("20.000")),
		"23.800 / 1.19 = 20.000, obtenu %s", doc.Lines[0].UnitPriceHT)
}

// Pas de timbre sur un bon de livraison ni côté fournisseur.
func TestCreate_TimbreSelonTypeEtCote(t *testing.T) {
	f := newFixture(t)

	bl, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeBonLivraison),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.True(t, bl.TimbreFiscal.IsZero())

	achat, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeFacture),
		Side:           string(entity.SideFournisseur),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.True(t, achat.TimbreFiscal.IsZero())
}

// Chaque document réserve un numéro distinct sur la séquence de son type.
func TestCreate_NumerosDistincts(t *testing.T) {
	f := newFixture(t)

	req := dto.CreateDocumentRequest{
		Type:           string(entity.TypeDevis),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	}
	first, err := f.uc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := f.uc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Number, second.Number)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	base := dto.CreateDocumentRequest{
		Type:           string(entity.TypeDevis),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	}

	bad := base
	bad.Type = "INCONNU"
	_, err := f.uc.Create(context.Background(), bad)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	bad = base
	bad.Lines = nil
	_, err = f.uc.Create(context.Background(), bad)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	bad = base
	bad.CounterpartyID = "inexistant"
	_, err = f.uc.Create(context.Background(), bad)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	bad = base
	bad.Lines = []dto.LineRequest{{Quantity: decimal.NewFromInt(1)}} // ligne libre sans désignation
	_, err = f.uc.Create(context.Background(), bad)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Mise à jour et suppression
// ──────────────────────────────────────────────────────────────────────────────

// La mise à jour remplace intégralement les lignes et recalcule les totaux;
// le numéro et le statut ne bougent pas.
func TestUpdate_RemplaceEtRecalcule(t *testing.T) {
	f := newFixture(t)
	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeFacture),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)

	updated, err := f.uc.Update(context.Background(), doc.ID, dto.UpdateDocumentRequest{
		Lines: []dto.LineRequest{
			{ProductID: "p1", Quantity: decimal.NewFromInt(3)},
			{Designation: "Frais de port", Quantity: decimal.NewFromInt(1), UnitPriceHT: decimal.RequireFromString("5.000"), VATRate: decimal.NewFromInt(19)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, doc.Number, updated.Number)
	assert.Equal(t, doc.Status, updated.Status)
	require.Len(t, updated.Lines, 2)
	// 3×10 + 1×5 = 35.000 HT; TVA 19% par ligne: 5.700 + 0.950
	assert.True(t, updated.TotalHT.Equal(decimal.RequireFromString("35.000")))
	assert.True(t, updated.TotalTVA.Equal(decimal.RequireFromString("6.650")))
	assert.True(t, updated.TotalTTC.Equal(decimal.RequireFromString("42.650")))
}

// Suppression refusée hors statut initial ou après conversion.
func TestDelete_Gardes(t *testing.T) {
	f := newFixture(t)
	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeCommande),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	// Après changement de statut: refus
	_, err = f.uc.ChangeStatus(context.Background(), doc.ID, lifecycle.StatusEnPreparation)
	require.NoError(t, err)
	err = f.uc.Delete(context.Background(), doc.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Document initial mais déjà lié: refus
	linked, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeCommande),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	require.NoError(t, f.stores.Documents.LinkDownstream(context.Background(), linked.ID,
		entity.DocumentLink{TargetType: entity.TypeFacture, TargetID: "f1", TargetNumber: "FAC-X"}))
	err = f.uc.Delete(context.Background(), linked.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Document initial sans lien: accepté
	free, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeCommande),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.NoError(t, f.uc.Delete(context.Background(), free.ID))
	_, err = f.uc.Get(context.Background(), free.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cycle de vie
// ──────────────────────────────────────────────────────────────────────────────

func TestChangeStatus_TransitionInvalide(t *testing.T) {
	f := newFixture(t)
	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeCommande),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	_, err = f.uc.ChangeStatus(context.Background(), doc.ID, lifecycle.StatusLivree)
	require.Error(t, err)
	var transErr *domain.InvalidTransitionError
	assert.True(t, errors.As(err, &transErr))
}

// La sortie de brouillon d'une facture revérifie la couverture: une ligne dont
// le produit n'a aucune quantité facturable doit porter un triple enregistré.
func TestChangeStatus_SortieBrouillonExigeCouverture(t *testing.T) {
	f := newFixture(t)
	f.stores.Products.Seed(&entity.Product{
		ID: "p-epuise", Reference: "REF-E", Name: "Épuisé",
		VATRate: decimal.NewFromInt(19), InvoiceableQty: decimal.Zero,
	})
	f.stores.Products.Seed(&entity.Product{
		ID: "p-dispo", Reference: "REF-E", Name: "Disponible",
		VATRate: decimal.NewFromInt(19), InvoiceableQty: decimal.NewFromInt(5),
	})

	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeFacture),
		CounterpartyID: "client-1",
		Lines: []dto.LineRequest{
			{ProductID: "p-epuise", Quantity: decimal.NewFromInt(1), UnitPriceHT: decimal.RequireFromString("10.000")},
		},
	})
	require.NoError(t, err)

	// Sans triple: blocage avec candidats
	_, err = f.uc.ChangeStatus(context.Background(), doc.ID, lifecycle.StatusEnvoyee)
	require.Error(t, err)
	var subErr *domain.SubstitutionRequiredError
	require.True(t, errors.As(err, &subErr))
	require.Len(t, subErr.Blocking, 1)
	assert.NotEmpty(t, subErr.Blocking[0].Candidates)

	// Avec triple enregistré: la transition passe
	require.NoError(t, f.stores.Substitutions.Create(context.Background(), &entity.Substitution{
		InvoiceID: doc.ID, LineID: doc.Lines[0].ID,
		RealProductID: "p-epuise", InvoicedProductID: "p-dispo",
		Quantity: decimal.NewFromInt(1),
	}))
	updated, err := f.uc.ChangeStatus(context.Background(), doc.ID, lifecycle.StatusEnvoyee)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusEnvoyee, updated.Status)
}

// interceptRunner exécute un hook avant de déléguer au runner réel: simule un
// écrivain concurrent dont le commit aboutit avant la prise de verrou.
type interceptRunner struct {
	inner  ports.TxRunner
	before func()
}

func (r *interceptRunner) Run(ctx context.Context, fn func(s repository.Stores) error) error {
	r.before()
	return r.inner.Run(ctx, fn)
}

// Deux transitions validées depuis le même instantané: la validation porte sur
// la ligne verrouillée dans la transaction, donc la branche arrivée en second
// est rejetée et le statut déjà écrit n'est pas écrasé.
func TestChangeStatus_ValidationSousVerrou(t *testing.T) {
	f := newFixture(t)
	doc, err := f.uc.Create(context.Background(), dto.CreateDocumentRequest{
		Type:           string(entity.TypeDevis),
		CounterpartyID: "client-1",
		Lines:          []dto.LineRequest{{ProductID: "p1", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	// REFUSE aboutit entre la lecture de cet appelant et son entrée en
	// transaction; ACCEPTE et REFUSE étaient pourtant tous deux légaux depuis
	// EN_ATTENTE.
	racer := &interceptRunner{inner: f.stores.Runner(), before: func() {
		require.NoError(t, f.stores.Documents.SetStatus(context.Background(), doc.ID, lifecycle.StatusRefuse))
	}}
	uc := documents.NewUseCase(racer, f.stores.Documents, f.stores.Clients, f.stores.Products, timbre)

	_, err = uc.ChangeStatus(context.Background(), doc.ID, lifecycle.StatusAccepte)
	require.Error(t, err)
	var transErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &transErr))
	assert.Equal(t, lifecycle.StatusRefuse, transErr.Current)

	current, err := f.uc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRefuse, current.Status, "REFUSE n'est pas écrasé")
}
