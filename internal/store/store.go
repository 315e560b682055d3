// Package store defines the narrow persistence contract the ledger is built
// on, and the codec between domain records and their stored field maps.
package store

import (
	"context"
	"fmt"
	"strconv"

	"fintrack/internal/core"
)

// FieldID is the record field every stored record is keyed by.
const FieldID = "id"

// Record is a stored record: a mapping of field name to value.
type Record map[string]string

// ID returns the record identifier.
func (r Record) ID() string { return r[FieldID] }

// Clone returns a copy that shares nothing with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store persists records of the three ledger kinds.
//
// Each call is atomic on its own; composing several calls safely is the
// caller's job. Failures of the backing medium satisfy
// errors.Is(err, core.ErrStorageUnavailable).
type Store interface {
	// Put inserts the record or replaces the one with the same id.
	Put(ctx context.Context, kind core.Kind, rec Record) error
	// GetAll returns every record of kind in first-insertion order.
	GetAll(ctx context.Context, kind core.Kind) ([]Record, error)
	// Delete removes the record; core.ErrNotFound if the id is unknown.
	Delete(ctx context.Context, kind core.Kind, id string) error
	// LastID returns the highest numeric id ever Put for kind, deleted
	// records included, or 0.
	LastID(ctx context.Context, kind core.Kind) (int64, error)
	Close() error
}

// Kinds lists the record kinds in load order.
func Kinds() []core.Kind {
	return []core.Kind{core.KindExpense, core.KindBudget, core.KindGoal}
}

// ValidKind reports whether k is one of the ledger kinds.
func ValidKind(k core.Kind) bool {
	switch k {
	case core.KindExpense, core.KindBudget, core.KindGoal:
		return true
	default:
		return false
	}
}

// NumericID returns the id as a number when it is one. Budget keys are not.
func NumericID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Unavailable wraps a backing medium failure.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStorageUnavailable, op, err)
}

// NotFound builds the error returned on delete of an unknown id.
func NotFound(kind core.Kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
}
