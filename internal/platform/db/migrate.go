package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded goose migrations.
type Migrator struct {
	provider *goose.Provider
	db       *sql.DB
}

// NewMigrator opens a database/sql handle over pgx for goose.
func NewMigrator(dsn string) (*Migrator, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, conn, migrationFS())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("platform/db: goose provider: %w", err)
	}
	return &Migrator{provider: provider, db: conn}, nil
}

// Up applies every pending migration and returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("platform/db: migrate up: %w", err)
	}
	return len(results), nil
}

// Status writes one line per known migration to w.
func (m *Migrator) Status(ctx context.Context, w io.Writer) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: migrate status: %w", err)
	}
	for _, st := range statuses {
		applied := "pending"
		if st.State == goose.StateApplied {
			applied = "applied " + st.AppliedAt.Format("2006-01-02 15:04:05")
		}
		if _, err := fmt.Fprintf(w, "%05d %-40s %s\n", st.Source.Version, st.Source.Path, applied); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection.
func (m *Migrator) Close() error {
	return m.db.Close()
}
