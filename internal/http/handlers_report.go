package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/aggregate"
	"fintrack/internal/report"
)

const defaultTopN = 10

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthQuery(r.URL.Query(), "month", s.reports.Today().MonthOf())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reports.MonthlyTotals(r.Context(), month))
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthQuery(r.URL.Query(), "month", s.reports.Today().MonthOf())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reports.BudgetProgress(r.Context(), month))
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.GoalProgress(r.Context()))
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.reports.Today()
	rng, err := ParseRangeQuery(q, "from", "to", today, today.MonthOf().Range())
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := ParseIntQuery(q, "n", defaultTopN, 1, maxTopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reports.TopExpenses(r.Context(), rng, n))
}

// handleTrend compares period a with period b. Without parameters it
// compares the previous month with the current one.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.reports.Today()
	month := today.MonthOf()
	a, err := ParseRangeQuery(q, "a_from", "a_to", today, month.Prev().Range())
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := ParseRangeQuery(q, "b_from", "b_to", today, month.Range())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reports.Trend(r.Context(), a, b))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	today := s.reports.Today()
	rng, err := ParseRangeQuery(r.URL.Query(), "from", "to", today, today.MonthOf().Range())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reports.CategoryBreakdown(r.Context(), rng))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.reports.Today()
	rng, err := ParseRangeQuery(q, "from", "to", today, today.MonthOf().Range())
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := ParseGranularityQuery(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if n := rng.Points(g); n > aggregate.MaxSeriesPoints {
		writeError(w, r, fmt.Errorf("%w: %s series over %s has %d points, at most %d allowed",
			errBadInput, g, rng, n, aggregate.MaxSeriesPoints))
		return
	}
	writeJSON(w, http.StatusOK, s.reports.SpendingSeries(r.Context(), rng, g))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n, err := ParseIntQuery(r.URL.Query(), "n", report.DefaultRecent, 1, maxTopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reports.RecentExpenses(r.Context(), n))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthQuery(r.URL.Query(), "month", s.reports.Today().MonthOf())
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.reports.Dashboard(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
