package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func openTemp(t *testing.T) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "fintrack.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return repo, path
}

func TestPutGetAllDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTemp(t)
	defer repo.Close()

	for _, id := range []string{"10", "2", "7"} {
		if err := repo.Put(ctx, core.KindExpense, store.Record{store.FieldID: id, store.FieldAmount: id}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	if err := repo.Put(ctx, core.KindExpense, store.Record{store.FieldID: "10", store.FieldAmount: "99"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	recs, err := repo.GetAll(ctx, core.KindExpense)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || recs[0].ID() != "10" || recs[0][store.FieldAmount] != "99" || recs[2].ID() != "7" {
		t.Fatalf("unexpected records %v", recs)
	}

	if err := repo.Delete(ctx, core.KindExpense, "2"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, core.KindExpense, "2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if goals, _ := repo.GetAll(ctx, core.KindGoal); len(goals) != 0 {
		t.Fatalf("kinds must be isolated, got %v", goals)
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	repo, path := openTemp(t)
	e := core.Expense{ID: 1, Amount: core.MoneyFromCents(1999), Category: "food", Date: core.NewDate(2024, 1, 5), Note: "pizza"}
	if err := repo.Put(ctx, core.KindExpense, store.EncodeExpense(e)); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	recs, err := reopened.GetAll(ctx, core.KindExpense)
	if err != nil || len(recs) != 1 {
		t.Fatalf("unexpected %v err=%v", recs, err)
	}
	got, err := store.DecodeExpense(recs[0])
	if err != nil || !got.Amount.Equal(e.Amount) || got.Note != "pizza" {
		t.Fatalf("round trip mismatch %+v err=%v", got, err)
	}
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	repo, _ := openTemp(t)
	repo.Close()
	err := repo.Put(context.Background(), core.KindGoal, store.Record{store.FieldID: "1"})
	if !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	repo, path := openTemp(t)
	if got := repo.SchemaVersion(); got != 2 {
		t.Errorf("SchemaVersion() = %d, want 2", got)
	}
	repo.Close()

	// Reopening applies nothing and keeps the version.
	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if got := again.SchemaVersion(); got != 2 {
		t.Errorf("SchemaVersion() after reopen = %d, want 2", got)
	}
}

func TestLastIDSurvivesDeleteAndReopen(t *testing.T) {
	ctx := context.Background()
	repo, path := openTemp(t)
	for _, id := range []string{"1", "2"} {
		if err := repo.Put(ctx, core.KindExpense, store.Record{store.FieldID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Put(ctx, core.KindBudget, store.Record{store.FieldID: "2024-03/food"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, core.KindExpense, "2"); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if last, err := reopened.LastID(ctx, core.KindExpense); err != nil || last != 2 {
		t.Errorf("LastID(expense) = %d, %v, want 2", last, err)
	}
	if last, err := reopened.LastID(ctx, core.KindBudget); err != nil || last != 0 {
		t.Errorf("LastID(budget) = %d, %v, want 0", last, err)
	}
}
