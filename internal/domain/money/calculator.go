package money

import (
	"github.com/shopspring/decimal"

	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// Precision précision monétaire: 3 décimales (le millime est la plus petite
// unité de la devise). Chaque montant dérivé est arrondi au moment du calcul,
// pas en fin de chaîne, pour que la somme des lignes affichées corresponde
// toujours au total affiché.
const Precision = 3

var (
	hundred = decimal.NewFromInt(100)
	vatMax  = decimal.NewFromInt(100)
)

// LineAmounts montants dérivés d'une ligne.
type LineAmounts struct {
	HT  decimal.Decimal
	TVA decimal.Decimal
	TTC decimal.Decimal
}

// Totals montants d'en-tête dérivés des lignes.
type Totals struct {
	HT     decimal.Decimal
	TVA    decimal.Decimal
	Timbre decimal.Decimal
	TTC    decimal.Decimal
}

// ComputeLine calcule HT/TVA/TTC d'une ligne.
// HT = round3(qté × puHT); TVA = round3(HT × taux/100); TTC = HT + TVA.
// Une quantité de 0 est une ligne provisoire valide, pas une erreur.
func ComputeLine(quantity, unitPriceHT, vatRate decimal.Decimal) (LineAmounts, error) {
	if quantity.IsNegative() {
		return LineAmounts{}, &domain.ValidationError{Field: "quantity", Reason: "doit être >= 0"}
	}
	if unitPriceHT.IsNegative() {
		return LineAmounts{}, &domain.ValidationError{Field: "unit_price_ht", Reason: "doit être >= 0"}
	}
	if vatRate.IsNegative() || vatRate.GreaterThan(vatMax) {
		return LineAmounts{}, &domain.ValidationError{Field: "vat_rate", Reason: "doit être entre 0 et 100"}
	}

	ht := quantity.Mul(unitPriceHT).Round(Precision)
	tva := ht.Mul(vatRate).Div(hundred).Round(Precision)
	return LineAmounts{HT: ht, TVA: tva, TTC: ht.Add(tva)}, nil
}

// ComputeTotals somme les montants des lignes et ajoute le timbre fiscal.
// TTC = HT + TVA + timbre. Les lignes sont supposées déjà calculées (arrondies).
func ComputeTotals(lines []entity.Line, timbre decimal.Decimal) Totals {
	var ht, tva decimal.Decimal
	for _, l := range lines {
		ht = ht.Add(l.TotalHT)
		tva = tva.Add(l.TotalTVA)
	}
	return Totals{
		HT:     ht,
		TVA:    tva,
		Timbre: timbre,
		TTC:    ht.Add(tva).Add(timbre),
	}
}

// PriceHTFromTTC inverse la taxe pour retrouver le prix unitaire HT quand le
// document est saisi en mode TTC (prix de vente affiché taxe comprise).
// prixHT = round3(prixTTC / (1 + taux/100)).
func PriceHTFromTTC(priceTTC, vatRate decimal.Decimal) (decimal.Decimal, error) {
	if priceTTC.IsNegative() {
		return decimal.Decimal{}, &domain.ValidationError{Field: "price_ttc", Reason: "doit être >= 0"}
	}
	if vatRate.IsNegative() || vatRate.GreaterThan(vatMax) {
		return decimal.Decimal{}, &domain.ValidationError{Field: "vat_rate", Reason: "doit être entre 0 et 100"}
	}
	divisor := decimal.NewFromInt(1).Add(vatRate.Div(hundred))
	return priceTTC.Div(divisor).Round(Precision), nil
}

// StampApplies indique si le timbre fiscal s'applique: documents de vente côté
// client uniquement, hors bon de livraison.
func StampApplies(side entity.DocumentSide, docType entity.DocumentType) bool {
	if side != entity.SideClient {
		return false
	}
	return docType != entity.TypeBonLivraison
}
