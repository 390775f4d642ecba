package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloudstatus/cloudstatus/internal/status"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL history repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the history table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS cycle_history (
			id           BIGSERIAL PRIMARY KEY,
			cycle        BIGINT NOT NULL,
			refreshed_at TIMESTAMPTZ NOT NULL,
			cutoff       DATE NOT NULL,
			providers    JSONB NOT NULL
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating cycle_history: %w", err)
	}
	return nil
}

// Append records a published cycle.
func (r *PostgresRepository) Append(ctx context.Context, entry Entry) error {
	providersJSON, err := json.Marshal(entry.Providers)
	if err != nil {
		return fmt.Errorf("encoding providers: %w", err)
	}

	query := `
		INSERT INTO cycle_history (cycle, refreshed_at, cutoff, providers)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.pool.Exec(ctx, query,
		int64(entry.Cycle), //nolint:gosec // cycle numbers stay far below MaxInt64
		entry.RefreshedAt,
		entry.Cutoff.Time(),
		providersJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting cycle %d: %w", entry.Cycle, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	query := `
		SELECT cycle, refreshed_at, cutoff, providers
		FROM cycle_history
		ORDER BY refreshed_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry         Entry
			cycle         int64
			cutoff        time.Time
			providersJSON []byte
		)
		if err := rows.Scan(&cycle, &entry.RefreshedAt, &cutoff, &providersJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(providersJSON, &entry.Providers); err != nil {
			return nil, fmt.Errorf("decoding providers of cycle %d: %w", cycle, err)
		}
		entry.Cycle = uint64(cycle) //nolint:gosec // written from a uint64
		entry.Cutoff = status.DateOf(cutoff.UTC())
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
