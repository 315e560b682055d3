// Package postgres stores ledger records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    seq        BIGSERIAL PRIMARY KEY,
    kind       TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (kind, id)
);
CREATE INDEX IF NOT EXISTS idx_records_kind_seq ON records (kind, seq);
CREATE TABLE IF NOT EXISTS id_high_water (
    kind    TEXT PRIMARY KEY,
    last_id BIGINT NOT NULL
);
INSERT INTO id_high_water (kind, last_id)
SELECT kind, MAX(id::bigint) FROM records WHERE kind IN ('expense', 'goal') GROUP BY kind
ON CONFLICT (kind) DO NOTHING;`

type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Repository)(nil)

// Open connects to url and makes sure the records table exists.
func Open(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, store.Unavailable("ping postgres", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, store.Unavailable("ensure schema", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Put(ctx context.Context, kind core.Kind, rec store.Record) error {
	if !store.ValidKind(kind) {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if rec.ID() == "" {
		return errors.New("record without id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", kind, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return store.Unavailable("put "+string(kind), err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO records (kind, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (kind, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		string(kind), rec.ID(), string(data))
	if err != nil {
		return store.Unavailable("put "+string(kind), err)
	}
	if n, ok := store.NumericID(rec.ID()); ok {
		_, err = tx.Exec(ctx, `
			INSERT INTO id_high_water (kind, last_id) VALUES ($1, $2)
			ON CONFLICT (kind) DO UPDATE SET last_id = GREATEST(id_high_water.last_id, EXCLUDED.last_id)`,
			string(kind), n)
		if err != nil {
			return store.Unavailable("put "+string(kind), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return store.Unavailable("put "+string(kind), err)
	}

	slog.DebugContext(ctx, "Record saved to Postgres", "kind", kind, "id", rec.ID())
	return nil
}

func (r *Repository) GetAll(ctx context.Context, kind core.Kind) ([]store.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM records WHERE kind = $1 ORDER BY seq`, string(kind))
	if err != nil {
		return nil, store.Unavailable("get all "+string(kind), err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, store.Unavailable("scan "+string(kind), err)
		}
		var rec store.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal %s record: %w", kind, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("iterate "+string(kind), err)
	}
	return out, nil
}

func (r *Repository) LastID(ctx context.Context, kind core.Kind) (int64, error) {
	var last int64
	err := r.pool.QueryRow(ctx,
		`SELECT last_id FROM id_high_water WHERE kind = $1`, string(kind)).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Unavailable("last id "+string(kind), err)
	}
	return last, nil
}

func (r *Repository) Delete(ctx context.Context, kind core.Kind, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM records WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return store.Unavailable("delete "+string(kind), err)
	}
	if tag.RowsAffected() == 0 {
		return store.NotFound(kind, id)
	}
	slog.DebugContext(ctx, "Record deleted from Postgres", "kind", kind, "id", id)
	return nil
}
