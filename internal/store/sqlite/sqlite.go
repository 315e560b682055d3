// Package sqlite stores ledger records in a SQLite database file.
//
// Every kind shares one table; a record is kept as a JSON object of its
// fields. Insertion order is the autoincrement sequence, which an upsert
// leaves untouched.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db            *sql.DB
	schemaVersion uint
}

var _ store.Store = (*Repository)(nil)

func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, store.Unavailable("ping database", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *Repository) SchemaVersion() uint { return r.schemaVersion }

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("put "+string(kind), err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (kind, id, data) VALUES (?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		string(kind), rec.ID(), string(data))
	if err != nil {
		return store.Unavailable("put "+string(kind), err)
	}
	if n, ok := store.NumericID(rec.ID()); ok {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO id_high_water (kind, last_id) VALUES (?, ?)
			ON CONFLICT (kind) DO UPDATE SET last_id = MAX(last_id, excluded.last_id)`,
			string(kind), n)
		if err != nil {
			return store.Unavailable("put "+string(kind), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return store.Unavailable("put "+string(kind), err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite", "kind", kind, "id", rec.ID())
	return nil
}

func (r *Repository) GetAll(ctx context.Context, kind core.Kind) ([]store.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM records WHERE kind = ? ORDER BY seq`, string(kind))
	if err != nil {
		return nil, store.Unavailable("get all "+string(kind), err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, store.Unavailable("scan "+string(kind), err)
		}
		var rec store.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
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
	err := r.db.QueryRowContext(ctx,
		`SELECT last_id FROM id_high_water WHERE kind = ?`, string(kind)).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Unavailable("last id "+string(kind), err)
	}
	return last, nil
}

func (r *Repository) Delete(ctx context.Context, kind core.Kind, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return store.Unavailable("delete "+string(kind), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable("delete "+string(kind), err)
	}
	if n == 0 {
		return store.NotFound(kind, id)
	}

	slog.DebugContext(ctx, "Record deleted from SQLite", "kind", kind, "id", id)
	return nil
}
