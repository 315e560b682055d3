package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

func TestOptionsFrom(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    Kind
		wantErr bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "memory", cfg: &config.Config{StoreBackend: "memory"}, want: Memory},
		{name: "mixed case", cfg: &config.Config{StoreBackend: " SQLite "}, want: SQLite},
		{name: "postgres", cfg: &config.Config{StoreBackend: "postgres"}, want: Postgres},
		{name: "unknown", cfg: &config.Config{StoreBackend: "sheets"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionsFrom(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OptionsFrom() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Kind != tt.want {
				t.Errorf("OptionsFrom() Kind = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "memory", opts: Options{Kind: Memory}},
		{name: "unknown kind", opts: Options{Kind: "redis"}, wantErr: true},
		{name: "sqlite without path", opts: Options{Kind: SQLite}, wantErr: true},
		{name: "postgres without url", opts: Options{Kind: Postgres}, wantErr: true},
		{name: "broker without queue", opts: Options{Kind: Memory, Broker: Broker{URL: "amqp://x", Exchange: "e"}}, wantErr: true},
		{name: "broker complete", opts: Options{Kind: Memory, Broker: Broker{URL: "amqp://x", Exchange: "e", Queue: "q"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := Open(ctx, Options{Kind: Memory}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer b.Close()
		if b.Publisher != nil {
			t.Error("Publisher should be nil without a broker")
		}
		exerciseStore(t, b.Store)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db", "fintrack.db")
		b, err := Open(ctx, Options{Kind: SQLite, SQLitePath: path}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		exerciseStore(t, b.Store)
		if err := b.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if err := b.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := Open(ctx, Options{Kind: "sheets"}, nil); err == nil {
			t.Error("Open() expected error for unknown kind")
		}
	})
}

func exerciseStore(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	rec := store.Record{"id": "1", "amount": "9.50", "category": "food", "date": "2024-03-01"}
	if err := st.Put(ctx, core.KindExpense, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	all, err := st.GetAll(ctx, core.KindExpense)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 1 || all[0].ID() != "1" {
		t.Fatalf("GetAll() = %v, want one record with id 1", all)
	}
	if err := st.Delete(ctx, core.KindExpense, "2"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() unknown id error = %v, want ErrNotFound", err)
	}
}
