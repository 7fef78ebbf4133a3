package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType types de documents commerciaux.
type DocumentType string

const (
	TypeDevis        DocumentType = "DEVIS"
	TypeCommande     DocumentType = "COMMANDE"
	TypeBonLivraison DocumentType = "BON_LIVRAISON"
	TypeFacture      DocumentType = "FACTURE"
	TypeAvoir        DocumentType = "AVOIR"
)

// DocumentSide côté du document: vente (client) ou achat (fournisseur).
// Les deux jeux de documents partagent la même forme; le timbre fiscal et les
// conversions ne concernent que le côté client.
type DocumentSide string

const (
	SideClient      DocumentSide = "CLIENT"
	SideFournisseur DocumentSide = "FOURNISSEUR"
)

// DocumentLink lien aval: référence vers le document généré par conversion.
// Au plus un lien par type cible; l'unicité est garantie par le store.
type DocumentLink struct {
	TargetType   DocumentType
	TargetID     string
	TargetNumber string
}

// Document en-tête d'un document commercial (devis, commande, BL, facture, avoir).
// Les totaux sont dérivés des lignes, jamais saisis directement.
type Document struct {
	ID             string
	Type           DocumentType
	Side           DocumentSide
	Number         string // unique, généré à la création, immuable
	CounterpartyID string // client ou fournisseur selon Side
	IssueDate      time.Time
	DueDate        *time.Time // échéance ou validité, optionnelle
	Status         string
	Notes          string

	// SourceID/SourceNumber: référence amont quand le document est issu d'une conversion.
	SourceID     string
	SourceNumber string

	Links map[DocumentType]DocumentLink

	Lines []Line

	TotalHT      decimal.Decimal
	TotalTVA     decimal.Decimal
	TimbreFiscal decimal.Decimal
	TotalTTC     decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLink indique si le document a déjà été converti vers le type cible.
func (d *Document) HasLink(target DocumentType) bool {
	if d.Links == nil {
		return false
	}
	_, ok := d.Links[target]
	return ok
}

// Line ligne d'un document. ProductID vide = ligne libre (texte sans produit).
// TotalHT/TotalTVA/TotalTTC sont dérivés, arrondis à 3 décimales au moment du calcul.
type Line struct {
	ID          string
	DocumentID  string
	LineNumber  int
	ProductID   string
	Designation string
	Quantity    decimal.Decimal
	UnitPriceHT decimal.Decimal
	VATRate     decimal.Decimal // pourcentage, 0..100
	TotalHT     decimal.Decimal
	TotalTVA    decimal.Decimal
	TotalTTC    decimal.Decimal
}
