// Package ledger owns the canonical expense, budget and goal collections.
//
// Writes are validated, persisted through a store.Store and only then applied
// to memory, all under the exclusive lock, so a failed write leaves no trace.
// Readers take consistent copies with Snapshot. Committed writes are announced
// to an optional Publisher after the lock is released.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// Publisher receives every committed change.
type Publisher interface {
	PublishChange(ctx context.Context, change core.Change) error
}

type Option func(*Ledger)

func WithPublisher(p Publisher) Option { return func(l *Ledger) { l.publisher = p } }

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger.WithComponent(log.ComponentLedger) }
}

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

type Ledger struct {
	mu       sync.RWMutex
	store    store.Store
	expenses map[int64]core.Expense
	budgets  map[string]core.Budget
	goals    map[int64]core.SavingsGoal

	nextExpenseID int64
	nextGoalID    int64
	version       uint64

	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

// Open loads every record from st and returns a ledger backed by it.
func Open(ctx context.Context, st store.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:         st,
		expenses:      make(map[int64]core.Expense),
		budgets:       make(map[string]core.Budget),
		goals:         make(map[int64]core.SavingsGoal),
		nextExpenseID: 1,
		nextGoalID:    1,
		logger:        log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"expenses", len(l.expenses),
		"budgets", len(l.budgets),
		"goals", len(l.goals))
	return l, nil
}

func (l *Ledger) load(ctx context.Context) error {
	recs, err := l.store.GetAll(ctx, core.KindExpense)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	for _, r := range recs {
		e, err := store.DecodeExpense(r)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		l.expenses[e.ID] = e
		if e.ID >= l.nextExpenseID {
			l.nextExpenseID = e.ID + 1
		}
	}

	recs, err = l.store.GetAll(ctx, core.KindBudget)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	for _, r := range recs {
		b, err := store.DecodeBudget(r)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		l.budgets[b.Key()] = b
	}

	recs, err = l.store.GetAll(ctx, core.KindGoal)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	for _, r := range recs {
		g, err := store.DecodeGoal(r)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		l.goals[g.ID] = g
		if g.ID >= l.nextGoalID {
			l.nextGoalID = g.ID + 1
		}
	}

	// Ids of deleted records are never handed out again.
	for kind, next := range map[core.Kind]*int64{core.KindExpense: &l.nextExpenseID, core.KindGoal: &l.nextGoalID} {
		last, err := l.store.LastID(ctx, kind)
		if err != nil {
			return fmt.Errorf("load %s ids: %w", kind, err)
		}
		if last >= *next {
			*next = last + 1
		}
	}
	return nil
}

// AddExpense records a new expense and returns its id.
func (l *Ledger) AddExpense(ctx context.Context, amount core.Money, category string, date core.Date, note string) (int64, error) {
	e := core.Expense{
		Amount:   amount,
		Category: core.NormalizeCategory(category),
		Date:     date,
		Note:     strings.TrimSpace(note),
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	e.ID = l.nextExpenseID
	rec := store.EncodeExpense(e)
	if err := l.store.Put(ctx, core.KindExpense, rec); err != nil {
		l.mu.Unlock()
		return 0, fmt.Errorf("save expense: %w", err)
	}
	l.expenses[e.ID] = e
	l.nextExpenseID++
	change := l.commit(core.KindExpense, core.OpCreate, rec.ID(), rec)
	l.mu.Unlock()

	l.publish(ctx, change)
	return e.ID, nil
}

// DeleteExpense removes an expense. Unknown ids fail with core.ErrNotFound.
func (l *Ledger) DeleteExpense(ctx context.Context, id int64) error {
	l.mu.Lock()
	if _, ok := l.expenses[id]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err := l.store.Delete(ctx, core.KindExpense, store.FormatID(id)); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("delete expense: %w", err)
	}
	delete(l.expenses, id)
	change := l.commit(core.KindExpense, core.OpDelete, store.FormatID(id), nil)
	l.mu.Unlock()

	l.publish(ctx, change)
	return nil
}

// SetBudget creates or replaces the budget of category in month.
func (l *Ledger) SetBudget(ctx context.Context, month core.Month, category string, limit core.Money) (core.Budget, error) {
	b := core.Budget{Month: month, Category: core.NormalizeCategory(category), Limit: limit}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	l.mu.Lock()
	op := core.OpCreate
	if _, ok := l.budgets[b.Key()]; ok {
		op = core.OpUpdate
	}
	rec := store.EncodeBudget(b)
	if err := l.store.Put(ctx, core.KindBudget, rec); err != nil {
		l.mu.Unlock()
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	l.budgets[b.Key()] = b
	change := l.commit(core.KindBudget, op, rec.ID(), rec)
	l.mu.Unlock()

	l.publish(ctx, change)
	return b, nil
}

// DeleteBudget removes the budget of category in month.
func (l *Ledger) DeleteBudget(ctx context.Context, month core.Month, category string) error {
	key := core.BudgetKey(month, category)

	l.mu.Lock()
	if _, ok := l.budgets[key]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("budget %s: %w", key, core.ErrNotFound)
	}
	if err := l.store.Delete(ctx, core.KindBudget, key); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("delete budget: %w", err)
	}
	delete(l.budgets, key)
	change := l.commit(core.KindBudget, core.OpDelete, key, nil)
	l.mu.Unlock()

	l.publish(ctx, change)
	return nil
}

// CreateGoal records a new savings goal with nothing saved yet.
func (l *Ledger) CreateGoal(ctx context.Context, name string, target core.Money, deadline core.Date) (int64, error) {
	g := core.SavingsGoal{Name: strings.TrimSpace(name), Target: target, Deadline: deadline}
	if err := g.Validate(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	g.ID = l.nextGoalID
	rec := store.EncodeGoal(g)
	if err := l.store.Put(ctx, core.KindGoal, rec); err != nil {
		l.mu.Unlock()
		return 0, fmt.Errorf("save goal: %w", err)
	}
	l.goals[g.ID] = g
	l.nextGoalID++
	change := l.commit(core.KindGoal, core.OpCreate, rec.ID(), rec)
	l.mu.Unlock()

	l.publish(ctx, change)
	return g.ID, nil
}

// ContributeToGoal adds delta (which may be negative) to the goal's current
// amount. The amount never goes below zero and may exceed the target.
func (l *Ledger) ContributeToGoal(ctx context.Context, id int64, delta core.Money) (core.SavingsGoal, error) {
	l.mu.Lock()
	g, ok := l.goals[id]
	if !ok {
		l.mu.Unlock()
		return core.SavingsGoal{}, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	g = g.Contribute(delta)
	rec := store.EncodeGoal(g)
	if err := l.store.Put(ctx, core.KindGoal, rec); err != nil {
		l.mu.Unlock()
		return core.SavingsGoal{}, fmt.Errorf("save goal: %w", err)
	}
	l.goals[id] = g
	change := l.commit(core.KindGoal, core.OpUpdate, rec.ID(), rec)
	l.mu.Unlock()

	l.publish(ctx, change)
	return g, nil
}

func (l *Ledger) DeleteGoal(ctx context.Context, id int64) error {
	l.mu.Lock()
	if _, ok := l.goals[id]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	if err := l.store.Delete(ctx, core.KindGoal, store.FormatID(id)); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("delete goal: %w", err)
	}
	delete(l.goals, id)
	change := l.commit(core.KindGoal, core.OpDelete, store.FormatID(id), nil)
	l.mu.Unlock()

	l.publish(ctx, change)
	return nil
}

// Snapshot returns a copy of every record. Later writes never affect it.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.RLock()
	snap := core.Snapshot{
		Expenses: make([]core.Expense, 0, len(l.expenses)),
		Budgets:  make([]core.Budget, 0, len(l.budgets)),
		Goals:    make([]core.SavingsGoal, 0, len(l.goals)),
		Version:  l.version,
	}
	for _, e := range l.expenses {
		snap.Expenses = append(snap.Expenses, e)
	}
	for _, b := range l.budgets {
		snap.Budgets = append(snap.Budgets, b)
	}
	for _, g := range l.goals {
		snap.Goals = append(snap.Goals, g)
	}
	l.mu.RUnlock()

	snap.TakenAt = l.now()
	sort.Slice(snap.Expenses, func(i, j int) bool { return snap.Expenses[i].ID < snap.Expenses[j].ID })
	sort.Slice(snap.Goals, func(i, j int) bool { return snap.Goals[i].ID < snap.Goals[j].ID })
	sort.Slice(snap.Budgets, func(i, j int) bool {
		a, b := snap.Budgets[i], snap.Budgets[j]
		if a.Month != b.Month {
			return a.Month.Before(b.Month)
		}
		return a.Category < b.Category
	})
	return snap
}

// Version counts committed writes since Open.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// commit bumps the version. Callers hold the write lock.
func (l *Ledger) commit(kind core.Kind, op core.ChangeOp, id string, rec store.Record) core.Change {
	l.version++
	return core.Change{
		Kind:     kind,
		Op:       op,
		RecordID: id,
		Record:   rec.Clone(),
		Version:  l.version,
		At:       l.now(),
	}
}

func (l *Ledger) publish(ctx context.Context, change core.Change) {
	fields := log.NewFields().
		Operation(string(change.Op)).
		Record(string(change.Kind), change.RecordID).
		Version(change.Version)

	if l.publisher == nil {
		l.logger.DebugContext(ctx, "Change committed", fields.Args()...)
		return
	}
	// The write is committed; publish even if ctx was cancelled.
	if err := l.publisher.PublishChange(context.WithoutCancel(ctx), change); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish change", fields.Err(err).Args()...)
		return
	}
	l.logger.DebugContext(ctx, "Change published", fields.Args()...)
}
