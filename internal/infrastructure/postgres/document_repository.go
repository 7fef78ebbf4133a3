package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implémentation de DocumentRepository (pool ou tx).
// La contrainte UNIQUE (document_id, target_type) de document_links porte
// l'invariant "au plus un lien par type": sous concurrence, la deuxième
// insertion échoue en 23505 et remonte en AlreadyLinkedError.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, doc_type, side, number, counterparty_id, issue_date, due_date,
	       status, notes, source_id, source_number,
	       total_ht, total_tva, timbre_fiscal, total_ttc, created_at, updated_at`

// Create persiste l'en-tête et les lignes.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (id, doc_type, side, number, counterparty_id, issue_date, due_date,
		                       status, notes, source_id, source_number,
		                       total_ht, total_tva, timbre_fiscal, total_ttc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Type, doc.Side, doc.Number, doc.CounterpartyID, doc.IssueDate, doc.DueDate,
		doc.Status, doc.Notes, nullIfEmpty(doc.SourceID), nullIfEmpty(doc.SourceNumber),
		doc.TotalHT, doc.TotalTVA, doc.TimbreFiscal, doc.TotalTTC, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storeErr("numéro de document déjà utilisé", err)
		}
		return storeErr("insert document", err)
	}
	return r.insertLines(ctx, doc.ID, doc.Lines)
}

// GetByID charge l'en-tête, les lignes et les liens aval.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate charge le document en verrouillant la ligne d'en-tête.
func (r *DocumentRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, id, true)
}

func (r *DocumentRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	doc, err := r.scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get document", err)
	}
	if doc.Lines, err = r.linesByDocument(ctx, id); err != nil {
		return nil, err
	}
	if doc.Links, err = r.linksByDocument(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update remplace l'en-tête et la totalité des lignes. Numéro et liens ne sont
// jamais touchés.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	query := `
		UPDATE documents
		SET due_date      = $2,
		    notes         = $3,
		    total_ht      = $4,
		    total_tva     = $5,
		    timbre_fiscal = $6,
		    total_ttc     = $7,
		    updated_at    = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, doc.DueDate, doc.Notes,
		doc.TotalHT, doc.TotalTVA, doc.TimbreFiscal, doc.TotalTTC, doc.UpdatedAt,
	)
	if err != nil {
		return storeErr("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, doc.ID); err != nil {
		return storeErr("delete lines", err)
	}
	return r.insertLines(ctx, doc.ID, doc.Lines)
}

// Delete supprime le document et ses lignes (les gardes métier sont en amont).
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, id); err != nil {
		return storeErr("delete lines", err)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List liste les en-têtes selon le filtre, avec leurs liens (sans les lignes).
func (r *DocumentRepo) List(ctx context.Context, filter repository.DocumentFilter) ([]entity.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + documentColumns + ` FROM documents`)

	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		add("doc_type =", filter.Type)
	}
	if filter.Side != "" {
		add("side =", filter.Side)
	}
	if filter.Status != "" {
		add("status =", filter.Status)
	}
	if filter.CounterpartyID != "" {
		add("counterparty_id =", filter.CounterpartyID)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, number DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeErr("list documents", err)
	}
	defer rows.Close()

	var list []entity.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, storeErr("scan document", err)
		}
		list = append(list, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Links, err = r.linksByDocument(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// SetStatus persiste un statut déjà validé par le cycle de vie.
func (r *DocumentRepo) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return storeErr("set status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LinkDownstream pose le lien aval. La violation de la contrainte d'unicité
// (document_id, target_type) remonte en AlreadyLinkedError avec le numéro du
// document déjà lié.
func (r *DocumentRepo) LinkDownstream(ctx context.Context, id string, link entity.DocumentLink) error {
	query := `
		INSERT INTO document_links (document_id, target_type, target_id, target_number, created_at)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(ctx, query, id, link.TargetType, link.TargetID, link.TargetNumber)
	if err != nil {
		if isUniqueViolation(err) {
			existing := link.TargetNumber
			var number string
			lookupErr := r.q.QueryRow(ctx,
				`SELECT target_number FROM document_links WHERE document_id = $1 AND target_type = $2`,
				id, link.TargetType).Scan(&number)
			if lookupErr == nil {
				existing = number
			}
			return &domain.AlreadyLinkedError{DocumentID: id, TargetType: link.TargetType, TargetNumber: existing}
		}
		return storeErr("insert link", err)
	}
	return nil
}

func (r *DocumentRepo) insertLines(ctx context.Context, docID string, lines []entity.Line) error {
	query := `
		INSERT INTO document_lines (id, document_id, line_number, product_id, designation,
		                            quantity, unit_price_ht, vat_rate, total_ht, total_tva, total_ttc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, l := range lines {
		_, err := r.q.Exec(ctx, query,
			l.ID, docID, l.LineNumber, nullIfEmpty(l.ProductID), l.Designation,
			l.Quantity, l.UnitPriceHT, l.VATRate, l.TotalHT, l.TotalTVA, l.TotalTTC,
		)
		if err != nil {
			return storeErr(fmt.Sprintf("insert line %d", l.LineNumber), err)
		}
	}
	return nil
}

func (r *DocumentRepo) linesByDocument(ctx context.Context, docID string) ([]entity.Line, error) {
	query := `
		SELECT id, document_id, line_number, product_id, designation,
		       quantity, unit_price_ht, vat_rate, total_ht, total_tva, total_ttc
		FROM document_lines WHERE document_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(ctx, query, docID)
	if err != nil {
		return nil, storeErr("list lines", err)
	}
	defer rows.Close()

	var lines []entity.Line
	for rows.Next() {
		var l entity.Line
		var productID *string
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.LineNumber, &productID, &l.Designation,
			&l.Quantity, &l.UnitPriceHT, &l.VATRate, &l.TotalHT, &l.TotalTVA, &l.TotalTTC); err != nil {
			return nil, storeErr("scan line", err)
		}
		l.ProductID = derefStr(productID)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *DocumentRepo) linksByDocument(ctx context.Context, docID string) (map[entity.DocumentType]entity.DocumentLink, error) {
	rows, err := r.q.Query(ctx,
		`SELECT target_type, target_id, target_number FROM document_links WHERE document_id = $1`, docID)
	if err != nil {
		return nil, storeErr("list links", err)
	}
	defer rows.Close()

	links := make(map[entity.DocumentType]entity.DocumentLink)
	for rows.Next() {
		var link entity.DocumentLink
		if err := rows.Scan(&link.TargetType, &link.TargetID, &link.TargetNumber); err != nil {
			return nil, storeErr("scan link", err)
		}
		links[link.TargetType] = link
	}
	return links, rows.Err()
}

func (r *DocumentRepo) scanDocument(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var sourceID, sourceNumber *string
	err := row.Scan(
		&doc.ID, &doc.Type, &doc.Side, &doc.Number, &doc.CounterpartyID, &doc.IssueDate, &doc.DueDate,
		&doc.Status, &doc.Notes, &sourceID, &sourceNumber,
		&doc.TotalHT, &doc.TotalTVA, &doc.TimbreFiscal, &doc.TotalTTC, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.SourceID = derefStr(sourceID)
	doc.SourceNumber = derefStr(sourceNumber)
	return &doc, nil
}
