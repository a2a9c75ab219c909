package services

import (
	"context"
	"fmt"
	"log/slog"

	"harvestbook/internal/amqp"
	"harvestbook/internal/core"
	"harvestbook/internal/storage"
)

// Reconciler checks the denormalized running totals against a
// recomputation from the raw rows and optionally repairs drift. It
// replaces the ad hoc repair scripts the books used to need.
type Reconciler struct {
	storage   *storage.SQLiteRepository
	repair    bool
	batchSize int
}

func NewReconciler(storage *storage.SQLiteRepository, repair bool, batchSize int) *Reconciler {
	if batchSize < 1 {
		batchSize = 50
	}
	return &Reconciler{storage: storage, repair: repair, batchSize: batchSize}
}

// Scope limits a reconcile pass to the entity kinds a change can have
// touched.
type Scope struct {
	Farmers bool
	Owners  bool
	Dealers bool
}

var ScopeAll = Scope{Farmers: true, Owners: true, Dealers: true}

// ScopeFor maps a change notification to the running totals it can
// have moved.
func ScopeFor(kind amqp.EntityKind) Scope {
	switch kind {
	case amqp.KindJob, amqp.KindPayment:
		return Scope{Farmers: true, Owners: true}
	case amqp.KindRental:
		return Scope{Owners: true, Dealers: true}
	case amqp.KindRentalPayment:
		return Scope{Dealers: true}
	case amqp.KindAdvance, amqp.KindExpense:
		return Scope{Owners: true}
	default:
		return ScopeAll
	}
}

// Drift is one stored-vs-recomputed mismatch.
type Drift struct {
	EntityKind string
	EntityID   int64
	Field      string
	Stored     core.Money
	Computed   core.Money
	Repaired   bool
}

// Report summarizes one reconcile pass.
type Report struct {
	Checked  int
	Drifts   []Drift
	Repaired int
}

// Run recomputes running totals for every entity in scope and repairs
// drift when enabled. At most batchSize entities are repaired per pass;
// the rest are picked up by the next sweep.
func (r *Reconciler) Run(ctx context.Context, scope Scope) (Report, error) {
	var report Report

	jobs, err := r.storage.ListJobs(ctx)
	if err != nil {
		return report, fmt.Errorf("load jobs: %w", err)
	}
	payments, err := r.storage.ListPayments(ctx)
	if err != nil {
		return report, fmt.Errorf("load payments: %w", err)
	}
	machines, err := r.storage.ListMachines(ctx)
	if err != nil {
		return report, fmt.Errorf("load machines: %w", err)
	}
	rentals, err := r.storage.ListRentals(ctx)
	if err != nil {
		return report, fmt.Errorf("load rentals: %w", err)
	}

	if scope.Farmers {
		farmers, err := r.storage.ListFarmers(ctx)
		if err != nil {
			return report, fmt.Errorf("load farmers: %w", err)
		}
		for _, f := range farmers {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			want := core.ComputeFarmerTotals(f.ID, jobs, payments)
			if want.Pending == f.TotalPending && want.Paid == f.TotalPaid {
				continue
			}
			drift := r.recordDrift(&report, "farmer", f.ID, f.TotalPending, f.TotalPaid, want.Pending, want.Paid)
			if drift {
				if err := r.storage.ReplaceFarmerTotals(ctx, f.ID, want.Pending, want.Paid); err != nil {
					return report, fmt.Errorf("repair farmer %d: %w", f.ID, err)
				}
				report.Repaired++
			}
		}
	}

	if scope.Owners {
		owners, err := r.storage.ListOwners(ctx)
		if err != nil {
			return report, fmt.Errorf("load owners: %w", err)
		}
		expenses, err := r.storage.ListExpenses(ctx)
		if err != nil {
			return report, fmt.Errorf("load expenses: %w", err)
		}
		advances, err := r.storage.ListAdvances(ctx)
		if err != nil {
			return report, fmt.Errorf("load advances: %w", err)
		}
		for _, o := range owners {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			want := core.ComputeOwnerTotals(o.ID, machines, jobs, rentals, expenses, advances, payments)
			if want.Pending == o.TotalPending && want.Paid == o.TotalPaid {
				continue
			}
			drift := r.recordDrift(&report, "owner", o.ID, o.TotalPending, o.TotalPaid, want.Pending, want.Paid)
			if drift {
				if err := r.storage.ReplaceOwnerTotals(ctx, o.ID, want.Pending, want.Paid); err != nil {
					return report, fmt.Errorf("repair owner %d: %w", o.ID, err)
				}
				report.Repaired++
			}
		}
	}

	if scope.Dealers {
		dealers, err := r.storage.ListDealers(ctx)
		if err != nil {
			return report, fmt.Errorf("load dealers: %w", err)
		}
		rentalPayments, err := r.storage.ListRentalPayments(ctx)
		if err != nil {
			return report, fmt.Errorf("load rental payments: %w", err)
		}
		for _, d := range dealers {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			want := core.ComputeDealerTotals(d.ID, rentals, rentalPayments)
			if want.Charged == d.TotalCharged && want.Paid == d.TotalPaid {
				continue
			}
			drift := r.recordDrift(&report, "dealer", d.ID, d.TotalCharged, d.TotalPaid, want.Charged, want.Paid)
			if drift {
				if err := r.storage.ReplaceDealerTotals(ctx, d.ID, want.Charged, want.Paid); err != nil {
					return report, fmt.Errorf("repair dealer %d: %w", d.ID, err)
				}
				report.Repaired++
			}
		}
	}

	if len(report.Drifts) > 0 {
		slog.WarnContext(ctx, "Reconcile found drift",
			"checked", report.Checked,
			"drifted", len(report.Drifts),
			"repaired", report.Repaired)
	}

	return report, nil
}

// recordDrift appends drift entries for the two total columns and
// reports whether a repair should run now.
func (r *Reconciler) recordDrift(report *Report, kind string, id int64, storedPending, storedPaid, wantPending, wantPaid core.Money) bool {
	repairing := r.repair && report.Repaired < r.batchSize
	if storedPending != wantPending {
		report.Drifts = append(report.Drifts, Drift{
			EntityKind: kind, EntityID: id, Field: "pending",
			Stored: storedPending, Computed: wantPending,
			Repaired: repairing,
		})
	}
	if storedPaid != wantPaid {
		report.Drifts = append(report.Drifts, Drift{
			EntityKind: kind, EntityID: id, Field: "paid",
			Stored: storedPaid, Computed: wantPaid,
			Repaired: repairing,
		})
	}
	return repairing
}
