package dto

import (
	"sort"

	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// FromDocument projette une entité document en réponse API.
func FromDocument(doc *entity.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:             doc.ID,
		Type:           string(doc.Type),
		Side:           string(doc.Side),
		Number:         doc.Number,
		CounterpartyID: doc.CounterpartyID,
		IssueDate:      doc.IssueDate.Format(dateLayout),
		Status:         doc.Status,
		Notes:          doc.Notes,
		SourceID:       doc.SourceID,
		SourceNumber:   doc.SourceNumber,
		Links:          make([]LinkResponse, 0, len(doc.Links)),
		Lines:          make([]LineResponse, 0, len(doc.Lines)),
		TotalHT:        doc.TotalHT,
		TotalTVA:       doc.TotalTVA,
		TimbreFiscal:   doc.TimbreFiscal,
		TotalTTC:       doc.TotalTTC,
	}
	if doc.DueDate != nil {
		resp.DueDate = doc.DueDate.Format(dateLayout)
	}
	for _, link := range doc.Links {
		resp.Links = append(resp.Links, LinkResponse{
			TargetType:   string(link.TargetType),
			TargetID:     link.TargetID,
			TargetNumber: link.TargetNumber,
		})
	}
	sort.Slice(resp.Links, func(i, j int) bool { return resp.Links[i].TargetType < resp.Links[j].TargetType })
	for _, l := range doc.Lines {
		resp.Lines = append(resp.Lines, FromLine(l))
	}
	return resp
}

// FromLine projette une ligne en réponse API.
func FromLine(l entity.Line) LineResponse {
	return LineResponse{
		ID:          l.ID,
		LineNumber:  l.LineNumber,
		ProductID:   l.ProductID,
		Designation: l.Designation,
		Quantity:    l.Quantity,
		UnitPriceHT: l.UnitPriceHT,
		VATRate:     l.VATRate,
		TotalHT:     l.TotalHT,
		TotalTVA:    l.TotalTVA,
		TotalTTC:    l.TotalTTC,
	}
}

// FromBlockingLines projette les lignes bloquantes d'une erreur de
// substitution (payload SUBSTITUTION_REQUIRED).
func FromBlockingLines(blocking []domain.BlockingLine) []BlockingLineResponse {
	out := make([]BlockingLineResponse, 0, len(blocking))
	for _, b := range blocking {
		candidates := make([]CandidateResponse, 0, len(b.Candidates))
		for _, c := range b.Candidates {
			candidates = append(candidates, CandidateResponse{
				ProductID:      c.ProductID,
				Reference:      c.Reference,
				Name:           c.Name,
				InvoiceableQty: c.InvoiceableQty,
				SameReference:  c.SameReference,
			})
		}
		out = append(out, BlockingLineResponse{
			ProductID:   b.ProductID,
			Designation: b.Designation,
			Quantity:    b.Quantity,
			Candidates:  candidates,
		})
	}
	return out
}

// FromTracking projette le suivi de livraison en réponse API.
func FromTracking(t *entity.DeliveryTracking) TrackingResponse {
	return TrackingResponse{
		OrderID:     t.OrderID,
		Carrier:     t.Carrier,
		State:       t.State,
		ReturnState: t.ReturnState,
		UpdatedAt:   t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
