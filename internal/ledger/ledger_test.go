package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []core.Change
	err     error
}

func (p *recordingPublisher) PublishChange(_ context.Context, c core.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

func newLedger(t *testing.T, st store.Store, opts ...Option) *Ledger {
	t.Helper()
	opts = append([]Option{WithLogger(log.Discard()), WithClock(func() time.Time { return fixedNow })}, opts...)
	l, err := Open(context.Background(), st, opts...)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return l
}

func money(s string) core.Money {
	m, err := core.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func TestAddExpenseValidation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	day := core.NewDate(2024, 3, 1)

	tests := []struct {
		name     string
		amount   core.Money
		category string
		date     core.Date
		wantErr  error
	}{
		{"negative amount", money("-1"), "food", day, core.ErrInvalidAmount},
		{"zero date", money("5"), "food", core.Date{}, core.ErrInvalidDate},
		{"empty category", money("5"), "  ", day, core.ErrEmptyCategory},
		{"empty category is a date-class error", money("5"), "", day, core.ErrInvalidDate},
		{"zero amount", money("0"), "food", day, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.AddExpense(ctx, tt.amount, tt.category, tt.date, "")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if n := len(l.Snapshot().Expenses); n != 1 {
		t.Fatalf("only the valid expense should be kept, got %d", n)
	}
}

func TestTotalsFollowAddsAndDeletes(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	day := core.NewDate(2024, 3, 1)

	a, _ := l.AddExpense(ctx, money("10.50"), "food", day, "")
	b, _ := l.AddExpense(ctx, money("4.25"), "transport", day, "")
	if _, err := l.AddExpense(ctx, money("20"), "food", day, ""); err != nil {
		t.Fatal(err)
	}
	if a != 1 || b != 2 {
		t.Fatalf("ids should be sequential, got %d, %d", a, b)
	}
	if err := l.DeleteExpense(ctx, a); err != nil {
		t.Fatal(err)
	}

	var total core.Money
	for _, e := range l.Snapshot().Expenses {
		total = total.Add(e.Amount)
	}
	if !total.Equal(money("24.25")) {
		t.Fatalf("total = %s, want 24.25", total)
	}
}

func TestDeleteUnknownFailsLoudly(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	before := l.Version()

	if err := l.DeleteExpense(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := l.DeleteGoal(ctx, 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := l.DeleteBudget(ctx, core.Month{Year: 2024, Month: 1}, "food"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.ContributeToGoal(ctx, 1, money("1")); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if l.Version() != before {
		t.Fatal("failed writes must not bump the version")
	}
}

func TestSetBudgetUpserts(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	l := newLedger(t, memory.New(), WithPublisher(pub))
	march := core.Month{Year: 2024, Month: 3}

	if _, err := l.SetBudget(ctx, march, "food", money("100")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.SetBudget(ctx, march, " food ", money("150")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.SetBudget(ctx, march, "rent", money("-1")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	budgets := l.Snapshot().Budgets
	if len(budgets) != 1 || !budgets[0].Limit.Equal(money("150")) {
		t.Fatalf("unexpected budgets %+v", budgets)
	}
	if len(pub.changes) != 2 || pub.changes[0].Op != core.OpCreate || pub.changes[1].Op != core.OpUpdate {
		t.Fatalf("unexpected changes %+v", pub.changes)
	}

	if err := l.DeleteBudget(ctx, march, "food"); err != nil {
		t.Fatal(err)
	}
	if len(l.Snapshot().Budgets) != 0 {
		t.Fatal("budget should be gone")
	}
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	deadline := core.NewDate(2020, 1, 1)

	if _, err := l.CreateGoal(ctx, "car", money("0"), deadline); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := l.CreateGoal(ctx, " ", money("10"), deadline); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := l.CreateGoal(ctx, "car", money("10"), core.Date{}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	id, err := l.CreateGoal(ctx, "car", money("10000"), deadline)
	if err != nil {
		t.Fatalf("past deadlines are allowed: %v", err)
	}

	g, err := l.ContributeToGoal(ctx, id, money("12000"))
	if err != nil || !g.Current.Equal(money("12000")) {
		t.Fatalf("contribution above target should be kept: %+v %v", g, err)
	}
	g, err = l.ContributeToGoal(ctx, id, money("-20000"))
	if err != nil || !g.Current.IsZero() {
		t.Fatalf("current should clamp at zero: %+v %v", g, err)
	}

	if err := l.DeleteGoal(ctx, id); err != nil {
		t.Fatal(err)
	}
	if len(l.Snapshot().Goals) != 0 {
		t.Fatal("goal should be gone")
	}
}

func TestStoreFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	pub := &recordingPublisher{}
	l := newLedger(t, st, WithPublisher(pub))
	id, _ := l.AddExpense(ctx, money("5"), "food", core.NewDate(2024, 3, 1), "")
	gid, _ := l.CreateGoal(ctx, "trip", money("100"), core.NewDate(2025, 1, 1))
	before := l.Snapshot()

	st.Fail()
	if _, err := l.AddExpense(ctx, money("5"), "food", core.NewDate(2024, 3, 2), ""); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := l.DeleteExpense(ctx, id); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := l.ContributeToGoal(ctx, gid, money("50")); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	st.Recover()

	after := l.Snapshot()
	if after.Version != before.Version || len(after.Expenses) != 1 || !after.Goals[0].Current.IsZero() {
		t.Fatalf("failed writes changed state: %+v", after)
	}
	if len(pub.changes) != 2 {
		t.Fatalf("failed writes must not publish, got %d changes", len(pub.changes))
	}

	next, err := l.AddExpense(ctx, money("1"), "food", core.NewDate(2024, 3, 3), "")
	if err != nil || next != id+1 {
		t.Fatalf("id must not be consumed by a failed write: got %d, %v", next, err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	l := newLedger(t, memory.New(), WithPublisher(pub))

	if _, err := l.AddExpense(context.Background(), money("3"), "food", core.NewDate(2024, 3, 1), "tea"); err != nil {
		t.Fatalf("write should succeed: %v", err)
	}
	if len(pub.changes) != 1 {
		t.Fatal("change should have been offered to the publisher")
	}
	c := pub.changes[0]
	if c.Kind != core.KindExpense || c.RecordID != "1" || c.Version != 1 || c.Record[store.FieldNote] != "tea" || !c.At.Equal(fixedNow) {
		t.Fatalf("unexpected change %+v", c)
	}
}

func TestReloadFromStore(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	l := newLedger(t, st)
	l.AddExpense(ctx, money("7.77"), "food", core.NewDate(2024, 2, 29), "leap")
	l.AddExpense(ctx, money("1"), "misc", core.NewDate(2024, 3, 1), "")
	l.SetBudget(ctx, core.Month{Year: 2024, Month: 2}, "food", money("50"))
	gid, _ := l.CreateGoal(ctx, "bike", money("300"), core.NewDate(2024, 12, 31))
	l.ContributeToGoal(ctx, gid, money("42"))

	reloaded := newLedger(t, st)
	got, want := reloaded.Snapshot(), l.Snapshot()
	if len(got.Expenses) != 2 || len(got.Budgets) != 1 || len(got.Goals) != 1 {
		t.Fatalf("unexpected reload %+v", got)
	}
	for i := range want.Expenses {
		g, w := got.Expenses[i], want.Expenses[i]
		if g.ID != w.ID || !g.Amount.Equal(w.Amount) || g.Category != w.Category || !g.Date.Equal(w.Date) || g.Note != w.Note {
			t.Errorf("expense %d: got %+v, want %+v", i, got.Expenses[i], want.Expenses[i])
		}
	}
	if !got.Goals[0].Current.Equal(money("42")) {
		t.Errorf("goal current = %s", got.Goals[0].Current)
	}

	id, err := reloaded.AddExpense(ctx, money("1"), "misc", core.NewDate(2024, 3, 2), "")
	if err != nil || id != 3 {
		t.Fatalf("next id after reload = %d, %v", id, err)
	}
}

func TestIDsNotReusedAfterDeleteAndReload(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	l := newLedger(t, st)
	l.AddExpense(ctx, money("1"), "food", core.NewDate(2024, 3, 1), "")
	eid, _ := l.AddExpense(ctx, money("2"), "food", core.NewDate(2024, 3, 2), "")
	gid, _ := l.CreateGoal(ctx, "car", money("100"), core.NewDate(2025, 1, 1))
	if err := l.DeleteExpense(ctx, eid); err != nil {
		t.Fatal(err)
	}
	if err := l.DeleteGoal(ctx, gid); err != nil {
		t.Fatal(err)
	}

	reloaded := newLedger(t, st)
	id, err := reloaded.AddExpense(ctx, money("3"), "food", core.NewDate(2024, 3, 3), "")
	if err != nil || id <= eid {
		t.Fatalf("expense id after reload = %d, %v, want > %d", id, err, eid)
	}
	g, err := reloaded.CreateGoal(ctx, "bike", money("50"), core.NewDate(2025, 1, 1))
	if err != nil || g <= gid {
		t.Fatalf("goal id after reload = %d, %v, want > %d", g, err, gid)
	}
	if err := reloaded.DeleteExpense(ctx, eid); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("repeated delete of %d = %v, want ErrNotFound", eid, err)
	}
}

func TestSnapshotIsIsolatedAndOrdered(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	for i := 0; i < 5; i++ {
		l.AddExpense(ctx, money("1"), "food", core.NewDate(2024, 3, 5-i), "")
	}
	l.SetBudget(ctx, core.Month{Year: 2024, Month: 3}, "rent", money("1"))
	l.SetBudget(ctx, core.Month{Year: 2024, Month: 2}, "rent", money("1"))
	l.SetBudget(ctx, core.Month{Year: 2024, Month: 3}, "food", money("1"))

	first := l.Snapshot()
	second := l.Snapshot()
	if first.Version != second.Version || len(first.Expenses) != len(second.Expenses) {
		t.Fatal("snapshots without writes in between must be equal")
	}
	for i, e := range first.Expenses {
		if e.ID != int64(i+1) {
			t.Fatalf("expenses not ordered by id: %+v", first.Expenses)
		}
	}
	keys := []string{first.Budgets[0].Key(), first.Budgets[1].Key(), first.Budgets[2].Key()}
	if keys[0] != "2024-02/rent" || keys[1] != "2024-03/food" || keys[2] != "2024-03/rent" {
		t.Fatalf("budgets not ordered: %v", keys)
	}

	first.Expenses[0].Amount = money("1000")
	l.DeleteExpense(ctx, 2)
	if len(first.Expenses) != 5 || !l.Snapshot().Expenses[0].Amount.Equal(money("1")) {
		t.Fatal("snapshot must not share state with the ledger")
	}
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New())
	const writers, perWriter = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := l.AddExpense(ctx, money("2"), "food", core.NewDate(2024, 3, 1), ""); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := l.Snapshot()
			if uint64(len(snap.Expenses)) != snap.Version {
				t.Errorf("snapshot mixes states: %d expenses at version %d", len(snap.Expenses), snap.Version)
				return
			}
		}
	}()
	wg.Wait()
	close(stop)
	<-readerDone

	snap := l.Snapshot()
	if len(snap.Expenses) != writers*perWriter {
		t.Fatalf("got %d expenses", len(snap.Expenses))
	}
	seen := make(map[int64]bool)
	for _, e := range snap.Expenses {
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestOpenFailsWhenStoreUnavailable(t *testing.T) {
	st := memory.New()
	st.Fail()
	if _, err := Open(context.Background(), st, WithLogger(log.Discard())); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
