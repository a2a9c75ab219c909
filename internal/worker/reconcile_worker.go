// Package worker runs the background side of the ledger: reconciling
// denormalized totals after every change event and mirroring mutations
// to the external audit ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"harvestbook/internal/amqp"
	"harvestbook/internal/core"
	"harvestbook/internal/services"
	"harvestbook/internal/sheets"
	"harvestbook/internal/storage"
)

type ReconcileWorker struct {
	storage    *storage.SQLiteRepository
	reconciler *services.Reconciler
	mirror     sheets.LedgerMirror // optional
}

func NewReconcileWorker(storage *storage.SQLiteRepository, reconciler *services.Reconciler, mirror sheets.LedgerMirror) *ReconcileWorker {
	return &ReconcileWorker{
		storage:    storage,
		reconciler: reconciler,
		mirror:     mirror,
	}
}

// HandleLedgerChange processes one change notification: reconcile the
// running totals the change can have moved, then mirror the mutation.
// A reconcile failure is returned so the message is requeued; a mirror
// failure is only logged, the audit copy is best-effort.
func (w *ReconcileWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"entity_kind", msg.EntityKind,
		"entity_id", msg.EntityID,
		"op", msg.Op)

	report, err := w.reconciler.Run(ctx, services.ScopeFor(msg.EntityKind))
	if err != nil {
		return fmt.Errorf("reconcile after %s %d: %w", msg.EntityKind, msg.EntityID, err)
	}
	if len(report.Drifts) > 0 {
		slog.WarnContext(ctx, "Change event exposed drift",
			"entity_kind", msg.EntityKind,
			"entity_id", msg.EntityID,
			"drifted", len(report.Drifts),
			"repaired", report.Repaired)
	}

	w.mirrorChange(ctx, msg)
	return nil
}

// RunSweeper reconciles everything on a fixed interval until ctx is
// cancelled. It is the backstop for lost change events.
func (w *ReconcileWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Reconcile sweeper started", "interval", interval)

	// One pass up front so drift accumulated during downtime is fixed
	// before the first tick.
	if err := w.sweep(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reconcile sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *ReconcileWorker) sweep(ctx context.Context) error {
	start := time.Now()
	report, err := w.reconciler.Run(ctx, services.ScopeAll)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// Keep sweeping; a transient storage error should not kill
		// the worker.
		slog.ErrorContext(ctx, "Sweep failed", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Sweep completed",
		"checked", report.Checked,
		"drifted", len(report.Drifts),
		"repaired", report.Repaired,
		"duration", time.Since(start))
	return nil
}

// mirrorChange appends the mutation to the audit ledger. The amount is
// loaded from the affected row; a row that no longer exists (deletes)
// is mirrored with a zero amount.
func (w *ReconcileWorker) mirrorChange(ctx context.Context, msg *amqp.LedgerChangedMessage) {
	if w.mirror == nil {
		return
	}

	entry := sheets.AuditEntry{
		Timestamp:  msg.Timestamp,
		EntityKind: string(msg.EntityKind),
		EntityID:   msg.EntityID,
		Op:         string(msg.Op),
	}

	if msg.Op != amqp.OpDeleted {
		amount, details, err := w.loadEntryAmount(ctx, msg)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load entity for mirror",
				"entity_kind", msg.EntityKind,
				"entity_id", msg.EntityID,
				"error", err)
		} else {
			entry.Amount = amount
			entry.Details = details
		}
	}

	if _, err := w.mirror.Append(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror ledger change",
			"entity_kind", msg.EntityKind,
			"entity_id", msg.EntityID,
			"error", err)
	}
}

func (w *ReconcileWorker) loadEntryAmount(ctx context.Context, msg *amqp.LedgerChangedMessage) (core.Money, string, error) {
	switch msg.EntityKind {
	case amqp.KindJob:
		j, err := w.storage.GetJob(ctx, msg.EntityID)
		if err != nil {
			return core.Money{}, "", err
		}
		return j.Revenue(), fmt.Sprintf("farmer %d, machine %d, %s", j.FarmerID, j.MachineID, j.Hours.Decimal()+"h"), nil
	case amqp.KindRental:
		r, err := w.storage.GetRental(ctx, msg.EntityID)
		if err != nil {
			return core.Money{}, "", err
		}
		return r.TotalCharged, fmt.Sprintf("dealer %d, machine %d", r.DealerID, r.MachineID), nil
	case amqp.KindPayment:
		p, err := w.storage.GetPayment(ctx, msg.EntityID)
		if err != nil {
			return core.Money{}, "", err
		}
		return p.Amount, fmt.Sprintf("%s (%s), receipt %s", p.Type, p.Source, p.Receipt), nil
	case amqp.KindRentalPayment:
		p, err := w.storage.GetRentalPayment(ctx, msg.EntityID)
		if err != nil {
			return core.Money{}, "", err
		}
		return p.Amount, fmt.Sprintf("dealer %d, rental %d", p.DealerID, p.RentalID), nil
	case amqp.KindAdvance:
		a, err := w.storage.GetAdvance(ctx, msg.EntityID)
		if err != nil {
			return core.Money{}, "", err
		}
		return a.Amount, fmt.Sprintf("machine %d, paid by %s", a.MachineID, a.PaidBy), nil
	case amqp.KindExpense:
		e, err := w.storage.GetExpense(ctx, msg.EntityID)
		if err != nil {
			return core.Money{}, "", err
		}
		return e.Amount, fmt.Sprintf("machine %d: %s", e.MachineID, e.Description), nil
	}
	return core.Money{}, "", fmt.Errorf("unknown entity kind %q", msg.EntityKind)
}
