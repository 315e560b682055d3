package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type expenseRequest struct {
	Amount   *core.Money `json:"amount"`
	Category string      `json:"category"`
	Date     core.Date   `json:"date"`
	Note     string      `json:"note"`
}

type budgetRequest struct {
	Limit *core.Money `json:"limit"`
}

type goalRequest struct {
	Name     string      `json:"name"`
	Target   *core.Money `json:"target"`
	Deadline core.Date   `json:"deadline"`
}

type contributionRequest struct {
	Delta *core.Money `json:"delta"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// amount dereferences a required money field.
func amount(m *core.Money) (core.Money, error) {
	if m == nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	return *m, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amt, err := amount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.ledger.AddExpense(r.Context(), amt, sanitizeInput(req.Category), req.Date, sanitizeInput(req.Note))
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.FieldRecordID, id,
		log.FieldCategory, req.Category,
		log.FieldAmount, amt.String())
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := amount(req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.ledger.SetBudget(r.Context(), month, sanitizeInput(r.PathValue("category")), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteBudget(r.Context(), month, sanitizeInput(r.PathValue("category"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := amount(req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.ledger.CreateGoal(r.Context(), sanitizeInput(req.Name), target, req.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	delta, err := amount(req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.ledger.ContributeToGoal(r.Context(), id, delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteGoal(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
