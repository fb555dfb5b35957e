package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type ActivityRepo struct {
	db *sqlx.DB
}

// NewSQLiteRepo opens the activity database at dbPath and applies pending migrations.
func NewSQLiteRepo(dbPath string) (*ActivityRepo, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	// sqlite has a single writer anyway
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &ActivityRepo{
		db: db,
	}, nil
}

func runMigrations(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	// m.Close() is not called on purpose: it would close the shared *sql.DB
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	err = m.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no migrations to run")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Msg("migrations applied successfully")
	return nil
}

func (ar *ActivityRepo) InsertActivity(ctx context.Context, record *ActivityRecord) error {
	query := `
		INSERT INTO activity (id, recipient, status_code, outcome, error, created_at)
		VALUES (:id, :recipient, :status_code, :outcome, :error, :created_at);
	`

	_, err := ar.db.NamedExecContext(ctx, query, record)
	if err != nil {
		log.Error().Err(err).Str("outcome", record.Outcome).Msg("failed to insert activity record")
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// SelectRecentActivity returns up to limit records, newest first.
func (ar *ActivityRepo) SelectRecentActivity(ctx context.Context, limit int) ([]ActivityRecord, error) {
	query := `
		SELECT id, recipient, status_code, outcome, error, created_at
		FROM activity
		ORDER BY created_at DESC, id DESC
		LIMIT ?;
	`

	records := []ActivityRecord{}
	err := ar.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to select recent activity")
		return nil, fmt.Errorf("selecting recent activity: %w", err)
	}
	return records, nil
}

// DeleteActivityOlderThan removes records created before cutoffMs and returns how many were removed.
func (ar *ActivityRepo) DeleteActivityOlderThan(ctx context.Context, cutoffMs int64) (int64, error) {
	query := `DELETE FROM activity WHERE created_at < ?;`

	res, err := ar.db.ExecContext(ctx, query, cutoffMs)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete old activity")
		return 0, fmt.Errorf("deleting old activity: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted activity: %w", err)
	}
	return deleted, nil
}

func (ar *ActivityRepo) Optimize(ctx context.Context) error {
	_, err := ar.db.ExecContext(ctx, "PRAGMA optimize;")
	if err != nil {
		log.Error().Err(err).Msg("failed to optimize database")
		return fmt.Errorf("optimizing database: %w", err)
	}
	return nil
}

func (ar *ActivityRepo) Ping(ctx context.Context) error {
	return ar.db.PingContext(ctx)
}

func (ar *ActivityRepo) Close() error {
	return ar.db.Close()
}
