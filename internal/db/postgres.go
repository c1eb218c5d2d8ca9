// Package db stores document collections in PostgreSQL, one JSONB row per
// collection.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the part of *pgxpool.Pool the driver uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresDriver implements store.Driver.
type PostgresDriver struct {
	q     Querier
	close func()
}

// Connect opens a pool for dsn and makes sure the table exists.
func Connect(ctx context.Context, dsn string) (*PostgresDriver, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	d := &PostgresDriver{q: pool, close: pool.Close}
	if err := d.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

// NewPostgresDriver wraps an existing querier. The caller owns its lifetime.
func NewPostgresDriver(q Querier) *PostgresDriver {
	return &PostgresDriver{q: q}
}

// EnsureSchema applies pending migrations.
func (d *PostgresDriver) EnsureSchema(ctx context.Context) error {
	_, err := NewMigrator(d.q, nil).RunMigrations(ctx)
	return err
}

func (d *PostgresDriver) Read(ctx context.Context, collection string) ([]byte, error) {
	var body []byte
	err := d.q.QueryRow(ctx,
		`SELECT body FROM document_collections WHERE name = $1`, collection,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (d *PostgresDriver) Write(ctx context.Context, collection string, data []byte) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO document_collections (name, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		collection, string(data),
	)
	return err
}

func (d *PostgresDriver) Ping(ctx context.Context) error {
	return d.q.Ping(ctx)
}

func (d *PostgresDriver) Close() error {
	if d.close != nil {
		d.close()
	}
	return nil
}
