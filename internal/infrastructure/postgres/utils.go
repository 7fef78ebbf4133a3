package postgres

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"

	"github.com/haythemba/gescom-api/internal/domain"
)

// isUniqueViolation vérifie si l'erreur est une violation de contrainte
// d'unicité (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isUnavailable vérifie si l'erreur relève d'une panne de connexion (pool
// fermé, dial refusé, coupure réseau) plutôt que d'une requête fautive.
func isUnavailable(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, puddle.ErrClosedPool) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// storeErr enveloppe une erreur du store: les pannes de connexion remontent en
// ErrStoreUnavailable pour que l'appelant retente, le reste passe tel quel.
func storeErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}
