// Commande migrate: applique les fichiers migrations/NNN_description.sql dans
// l'ordre, avec verrou advisory (un seul migrateur à la fois) et table
// schema_migrations à checksum (une migration appliquée ne doit plus changer).
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haythemba/gescom-api/internal/infrastructure/postgres"
	"github.com/haythemba/gescom-api/pkg/config"
	"github.com/haythemba/gescom-api/pkg/logger"
)

const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("charger la configuration: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion à PostgreSQL")
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("acquérir une connexion pour le verrou")
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(7462839)").Scan(&locked); err != nil {
		log.Fatal().Err(err).Msg("verrou advisory")
	}
	if !locked {
		log.Fatal().Msg("un autre migrateur est en cours d'exécution")
	}

	setup := `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := pool.Exec(ctx, setup); err != nil {
		log.Fatal().Err(err).Msg("créer schema_migrations")
	}

	filenames, err := discoverMigrations()
	if err != nil {
		log.Fatal().Err(err).Msg("lire le répertoire migrations")
	}
	for _, filename := range filenames {
		if err := applyMigration(ctx, pool, filename); err != nil {
			log.Fatal().Err(err).Str("file", filename).Msg("appliquer la migration")
		}
	}
	log.Info().Int("count", len(filenames)).Msg("migrations traitées")
}

func discoverMigrations() ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := extractVersion(entry.Name())
		if err != nil {
			return nil, err
		}
		if seen[version] {
			return nil, errors.New("version dupliquée: " + version)
		}
		seen[version] = true
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)
	return filenames, nil
}

func extractVersion(filename string) (string, error) {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		return "", errors.New("nom de migration invalide (attendu NNN_description.sql): " + filename)
	}
	return parts[0], nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, filename string) error {
	version, err := extractVersion(filename)
	if err != nil {
		return err
	}
	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, filename))
	if err != nil {
		return err
	}
	hash := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(hash[:])

	var existing string
	err = pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&existing)
	switch {
	case err == nil:
		if existing != checksum {
			return errors.New("checksum différent pour une migration déjà appliquée: " + filename)
		}
		return nil // déjà appliquée
	case errors.Is(err, pgx.ErrNoRows):
		// à appliquer
	default:
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		version, filename, checksum); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
