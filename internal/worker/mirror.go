// Package worker mirrors ledger changes received over AMQP into a
// spreadsheet.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// Consumer delivers change messages. *amqp.Client implements it.
type Consumer interface {
	ConsumeChanges(ctx context.Context, handler amqp.Handler) error
}

// MirrorWorker applies expense changes to an ExpenseMirror. Budget and goal
// changes are acknowledged and skipped.
type MirrorWorker struct {
	mirror sheets.ExpenseMirror
	logger *log.Logger
}

func NewMirrorWorker(mirror sheets.ExpenseMirror, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run consumes until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.ConsumeChanges(ctx, w.HandleChange)
}

// HandleChange applies one change message. Errors cause a redelivery,
// which the mirror's idempotence makes safe.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg amqp.ChangeMessage) error {
	fields := log.NewFields().
		Operation(string(msg.Op)).
		Record(string(msg.Kind), msg.RecordID).
		Version(msg.Version)

	if msg.Kind != core.KindExpense {
		w.logger.DebugContext(ctx, "Skipping non-expense change", fields.Args()...)
		return nil
	}

	switch msg.Op {
	case core.OpCreate, core.OpUpdate:
		e, err := store.DecodeExpense(msg.Record)
		if err != nil {
			// A record that cannot be decoded will never succeed.
			w.logger.ErrorContext(ctx, "Dropping undecodable expense change", fields.Err(err).Args()...)
			return nil
		}
		ref, err := w.mirror.AppendExpense(ctx, e)
		if err != nil {
			return fmt.Errorf("mirror expense %d: %w", e.ID, err)
		}
		w.logger.InfoContext(ctx, "Expense mirrored", append(fields.Args(), "ref", ref)...)
	case core.OpDelete:
		id, err := store.ParseID(msg.RecordID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Dropping delete with bad id", fields.Err(err).Args()...)
			return nil
		}
		if err := w.mirror.DeleteExpense(ctx, id); err != nil {
			return fmt.Errorf("delete mirrored expense %d: %w", id, err)
		}
		w.logger.InfoContext(ctx, "Mirrored expense deleted", fields.Args()...)
	}
	return nil
}

// Backfill mirrors every expense currently in st. It covers changes
// published while no worker was running.
func (w *MirrorWorker) Backfill(ctx context.Context, st store.Store) (int, error) {
	recs, err := st.GetAll(ctx, core.KindExpense)
	if err != nil {
		return 0, fmt.Errorf("load expenses: %w", err)
	}
	n := 0
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		e, err := store.DecodeExpense(r)
		if err != nil {
			w.logger.WarnContext(ctx, "Skipping undecodable stored expense", log.FieldRecordID, r.ID(), log.FieldError, err)
			continue
		}
		if _, err := w.mirror.AppendExpense(ctx, e); err != nil {
			return n, fmt.Errorf("mirror expense %d: %w", e.ID, err)
		}
		n++
	}
	w.logger.InfoContext(ctx, "Backfill complete", "expenses", n)
	return n, nil
}
