package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsDir = "migrations"

// goose keeps its dialect, filesystem and logger in package globals.
var gooseMu sync.Mutex

// Migrator applies the embedded schema migrations with goose.
type Migrator struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewMigrator wraps pool as a database/sql handle for goose.
func NewMigrator(pool *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     stdlib.OpenDBFromPool(pool),
		logger: logger.With().Str("component", "migrator").Logger(),
	}
}

// Close releases the database/sql handle. The underlying pool stays open.
func (m *Migrator) Close() error {
	return m.db.Close()
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.run(func() error {
		return goose.UpContext(ctx, m.db, migrationsDir)
	})
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info().Msg("no migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	m.logger.Info().Msg("migrations applied")
	return nil
}

// Down rolls back migrations. Steps <= 0 defaults to 1; all rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if steps <= 0 {
		steps = 1
	}

	err := m.run(func() error {
		if all {
			return goose.DownToContext(ctx, m.db, migrationsDir, 0)
		}
		for i := 0; i < steps; i++ {
			if err := goose.DownContext(ctx, m.db, migrationsDir); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info().Msg("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	if all {
		m.logger.Info().Str("mode", "all").Msg("migrations rolled back")
	} else {
		m.logger.Info().Int("steps", steps).Msg("migrations rolled back")
	}
	return nil
}

// Status logs the applied state of each migration.
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func() error {
		return goose.StatusContext(ctx, m.db, migrationsDir)
	})
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(func() error {
		var err error
		version, err = goose.GetDBVersionContext(ctx, m.db)
		return err
	})
	return version, err
}

func (m *Migrator) run(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{m.logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn()
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
