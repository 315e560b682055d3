// Package report is the read side callers use: each view takes one ledger
// snapshot, runs the aggregation over it and returns plain values tagged
// with the snapshot version.
package report

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Source provides consistent snapshots. *ledger.Ledger implements it.
type Source interface {
	Snapshot() core.Snapshot
	Version() uint64
}

// Clock returns the current time.
type Clock func() time.Time

type Option func(*Service)

// WithCache memoizes views per ledger version.
func WithCache(c cache.Cache[any]) Option { return func(s *Service) { s.cache = c } }

func WithClock(now Clock) Option { return func(s *Service) { s.now = now } }

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger.WithComponent(log.ComponentReport) }
}

// DefaultRecent is the number of expenses shown on the dashboard.
const DefaultRecent = 5

type Service struct {
	source Source
	cache  cache.Cache[any]
	now    Clock
	logger *log.Logger
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		now:    time.Now,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current date according to the service clock.
func (s *Service) Today() core.Date { return core.DateFromTime(s.now()) }

type MonthlyTotals struct {
	Version uint64 `json:"version"`
	aggregate.MonthTotals
}

type BudgetProgress struct {
	Version uint64                 `json:"version"`
	Month   core.Month             `json:"month"`
	Lines   []aggregate.BudgetLine `json:"lines"`
}

type GoalProgress struct {
	Version uint64               `json:"version"`
	Today   core.Date            `json:"today"`
	Lines   []aggregate.GoalLine `json:"lines"`
}

type ExpenseList struct {
	Version  uint64         `json:"version"`
	Range    *core.Range    `json:"range,omitempty"`
	Expenses []core.Expense `json:"expenses"`
}

type Trend struct {
	Version uint64 `json:"version"`
	aggregate.TrendResult
}

type CategoryBreakdown struct {
	Version    uint64                    `json:"version"`
	Range      core.Range                `json:"range"`
	Categories []aggregate.CategoryShare `json:"categories"`
}

type SpendingSeries struct {
	Version     uint64                  `json:"version"`
	Range       core.Range              `json:"range"`
	Granularity string                  `json:"granularity"`
	Points      []aggregate.SeriesPoint `json:"points"`
}

// Dashboard combines the month overview views, all computed from one
// snapshot.
type Dashboard struct {
	Version    uint64                    `json:"version"`
	Month      core.Month                `json:"month"`
	Totals     aggregate.MonthTotals     `json:"totals"`
	Budgets    []aggregate.BudgetLine    `json:"budgets"`
	Goals      []aggregate.GoalLine      `json:"goals"`
	Categories []aggregate.CategoryShare `json:"categories"`
	Recent     []core.Expense            `json:"recent"`
	// VsPreviousMonth compares month with the month before it.
	VsPreviousMonth aggregate.TrendResult `json:"vs_previous_month"`
}

// view is a report result that can hand out copies sharing no memory with
// the original.
type view[T any] interface {
	clone() T
}

func (v MonthlyTotals) clone() MonthlyTotals { return v }
func (v Trend) clone() Trend                 { return v }

func (v BudgetProgress) clone() BudgetProgress {
	v.Lines = slices.Clone(v.Lines)
	return v
}

func (v GoalProgress) clone() GoalProgress {
	v.Lines = slices.Clone(v.Lines)
	return v
}

func (v ExpenseList) clone() ExpenseList {
	if v.Range != nil {
		r := *v.Range
		v.Range = &r
	}
	v.Expenses = slices.Clone(v.Expenses)
	return v
}

func (v CategoryBreakdown) clone() CategoryBreakdown {
	v.Categories = slices.Clone(v.Categories)
	return v
}

func (v SpendingSeries) clone() SpendingSeries {
	v.Points = slices.Clone(v.Points)
	return v
}

func (v Dashboard) clone() Dashboard {
	v.Budgets = slices.Clone(v.Budgets)
	v.Goals = slices.Clone(v.Goals)
	v.Categories = slices.Clone(v.Categories)
	v.Recent = slices.Clone(v.Recent)
	return v
}

// cached returns the value stored under key for the current ledger version,
// or computes it from a fresh snapshot. Results are stored under the version
// of the snapshot they were computed from. The cache keeps its own copy and
// every hit returns a fresh one.
func cached[T view[T]](ctx context.Context, s *Service, key string, compute func(core.Snapshot) T) T {
	if s.cache != nil {
		if v, ok := s.cache.Get(key, s.source.Version()); ok {
			if out, ok := v.(T); ok {
				s.logger.DebugContext(ctx, "Report served from cache", log.FieldView, key)
				return out.clone()
			}
		}
	}
	snap := s.source.Snapshot()
	out := compute(snap)
	if s.cache != nil {
		s.cache.Set(key, snap.Version, out.clone())
	}
	return out
}

func (s *Service) MonthlyTotals(ctx context.Context, month core.Month) MonthlyTotals {
	return cached(ctx, s, "totals:"+month.String(), func(snap core.Snapshot) MonthlyTotals {
		return MonthlyTotals{Version: snap.Version, MonthTotals: aggregate.TotalsByMonth(snap, month)}
	})
}

func (s *Service) BudgetProgress(ctx context.Context, month core.Month) BudgetProgress {
	return cached(ctx, s, "budgets:"+month.String(), func(snap core.Snapshot) BudgetProgress {
		return BudgetProgress{Version: snap.Version, Month: month, Lines: aggregate.BudgetProgress(snap, month)}
	})
}

// GoalProgress depends on today's date, so the key carries it.
func (s *Service) GoalProgress(ctx context.Context) GoalProgress {
	today := s.Today()
	return cached(ctx, s, "goals:"+today.String(), func(snap core.Snapshot) GoalProgress {
		return GoalProgress{Version: snap.Version, Today: today, Lines: aggregate.GoalProgress(snap, today)}
	})
}

func (s *Service) TopExpenses(ctx context.Context, r core.Range, n int) ExpenseList {
	key := fmt.Sprintf("top:%s:%d", r, n)
	return cached(ctx, s, key, func(snap core.Snapshot) ExpenseList {
		return ExpenseList{Version: snap.Version, Range: &r, Expenses: aggregate.TopExpenses(snap, r, n)}
	})
}

func (s *Service) Trend(ctx context.Context, a, b core.Range) Trend {
	key := fmt.Sprintf("trend:%s:%s", a, b)
	return cached(ctx, s, key, func(snap core.Snapshot) Trend {
		return Trend{Version: snap.Version, TrendResult: aggregate.Trend(snap, a, b)}
	})
}

func (s *Service) CategoryBreakdown(ctx context.Context, r core.Range) CategoryBreakdown {
	return cached(ctx, s, "categories:"+r.String(), func(snap core.Snapshot) CategoryBreakdown {
		return CategoryBreakdown{Version: snap.Version, Range: r, Categories: aggregate.CategoryBreakdown(snap, r)}
	})
}

func (s *Service) SpendingSeries(ctx context.Context, r core.Range, g core.Granularity) SpendingSeries {
	key := fmt.Sprintf("series:%s:%s", r, g)
	return cached(ctx, s, key, func(snap core.Snapshot) SpendingSeries {
		return SpendingSeries{Version: snap.Version, Range: r, Granularity: g.String(), Points: aggregate.SpendingSeries(snap, r, g)}
	})
}

func (s *Service) RecentExpenses(ctx context.Context, n int) ExpenseList {
	return cached(ctx, s, fmt.Sprintf("recent:%d", n), func(snap core.Snapshot) ExpenseList {
		return ExpenseList{Version: snap.Version, Expenses: aggregate.RecentExpenses(snap, n)}
	})
}

// Dashboard computes the month overview. The views run concurrently over
// the same snapshot; the error is only ever ctx's.
func (s *Service) Dashboard(ctx context.Context, month core.Month) (Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}
	snap := s.source.Snapshot()
	today := s.Today()
	key := "dashboard:" + month.String() + ":" + today.String()
	if s.cache != nil {
		if v, ok := s.cache.Get(key, snap.Version); ok {
			if d, ok := v.(Dashboard); ok {
				return d.clone(), nil
			}
		}
	}

	d := Dashboard{Version: snap.Version, Month: month}
	g, gctx := errgroup.WithContext(ctx)
	run := func(f func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f()
			return nil
		})
	}
	run(func() { d.Totals = aggregate.TotalsByMonth(snap, month) })
	run(func() { d.Budgets = aggregate.BudgetProgress(snap, month) })
	run(func() { d.Goals = aggregate.GoalProgress(snap, today) })
	run(func() { d.Categories = aggregate.CategoryBreakdown(snap, month.Range()) })
	run(func() { d.Recent = aggregate.RecentExpenses(snap, DefaultRecent) })
	run(func() { d.VsPreviousMonth = aggregate.Trend(snap, month.Prev().Range(), month.Range()) })
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, snap.Version, d.clone())
	}
	s.logger.DebugContext(ctx, "Dashboard computed", log.FieldMonth, month.String(), log.FieldVersion, snap.Version)
	return d, nil
}
