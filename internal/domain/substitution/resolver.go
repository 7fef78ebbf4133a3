package substitution

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// collator tri des noms de produits en collation française (accents, cédilles).
var collator = collate.New(language.French, collate.IgnoreCase)

// Candidates construit l'ensemble ordonné des remplaçants possibles pour un
// produit sans quantité facturable: d'abord les produits partageant sa
// référence, puis les autres, chaque partition triée par nom.
// pool = produits avec quantité facturable > 0; le produit d'origine n'y
// figure jamais (sa quantité est nulle par définition).
func Candidates(original *entity.Product, pool []entity.Product) []domain.SubstituteCandidate {
	var sameRef, others []domain.SubstituteCandidate
	for _, p := range pool {
		if p.ID == original.ID || !p.InvoiceableQty.IsPositive() {
			continue
		}
		c := domain.SubstituteCandidate{
			ProductID:      p.ID,
			Reference:      p.Reference,
			Name:           p.Name,
			InvoiceableQty: p.InvoiceableQty,
			SameReference:  p.Reference != "" && p.Reference == original.Reference,
		}
		if c.SameReference {
			sameRef = append(sameRef, c)
		} else {
			others = append(others, c)
		}
	}
	byName := func(list []domain.SubstituteCandidate) {
		sort.SliceStable(list, func(i, j int) bool {
			return collator.CompareString(list[i].Name, list[j].Name) < 0
		})
	}
	byName(sameRef)
	byName(others)
	return append(sameRef, others...)
}

// Eligible vérifie qu'un remplaçant choisi fait partie des candidats proposés.
func Eligible(invoicedProductID string, candidates []domain.SubstituteCandidate) bool {
	for _, c := range candidates {
		if c.ProductID == invoicedProductID {
			return true
		}
	}
	return false
}
