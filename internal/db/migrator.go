package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type migration struct {
	name string
	sql  string
}

// migrations run in order; each one is applied at most once.
var migrations = []migration{
	{"001_document_collections", `CREATE TABLE IF NOT EXISTS document_collections (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"002_document_collections_updated_at", `CREATE INDEX IF NOT EXISTS idx_document_collections_updated_at
		ON document_collections (updated_at)`},
}

// Migrator applies the schema migrations and records them in
// schema_migrations.
type Migrator struct {
	q   Querier
	log *zap.Logger
}

func NewMigrator(q Querier, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{q: q, log: log.Named("migrator")}
}

// RunMigrations applies every migration not yet recorded. It returns how many
// ran.
func (m *Migrator) RunMigrations(ctx context.Context) (int, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	ran := 0
	for _, mig := range migrations {
		applied, err := m.isApplied(ctx, mig.name)
		if err != nil {
			return ran, fmt.Errorf("failed to check migration %s: %w", mig.name, err)
		}
		if applied {
			continue
		}

		m.log.Info("running migration", zap.String("migration", mig.name))
		if _, err := m.q.Exec(ctx, mig.sql); err != nil {
			return ran, fmt.Errorf("failed to run migration %s: %w", mig.name, err)
		}
		if err := m.recordMigration(ctx, mig.name); err != nil {
			return ran, fmt.Errorf("failed to record migration %s: %w", mig.name, err)
		}
		ran++
	}

	if ran > 0 {
		m.log.Info("migrations applied", zap.Int("count", ran))
	}
	return ran, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.q.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *Migrator) isApplied(ctx context.Context, name string) (bool, error) {
	var applied bool
	err := m.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`, name,
	).Scan(&applied)
	return applied, err
}

func (m *Migrator) recordMigration(ctx context.Context, name string) error {
	_, err := m.q.Exec(ctx, `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING`, name)
	return err
}
