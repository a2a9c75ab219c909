package services

import (
	"context"
	"testing"

	"harvestbook/internal/amqp"
	"harvestbook/internal/core"
)

func TestReconcileCleanLedgerReportsNoDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.job(t)
	job.AdvanceFromFarmer = core.Money{Cents: 50000}
	job.DiscountFromOwner = core.Money{Cents: 20000}
	if _, _, err := f.svc.CreateJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if _, _, err := f.svc.CreatePayment(ctx, core.Payment{
		Type: core.PaymentFromFarmer, FarmerID: f.farmerID,
		Amount: core.Money{Cents: 100000}, Date: day("2026-01-20"),
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if _, err := f.svc.CreateRental(ctx, core.MachineRental{
		DealerID: f.dealerID, MachineID: f.machineID,
		StartDate: day("2026-03-01"), Hours: core.Hours{Minutes: 240},
		DealerRate: core.Money{Cents: 200000}, AdvancePaid: core.Money{Cents: 50000},
		Status: core.RentalActive,
	}); err != nil {
		t.Fatalf("create rental: %v", err)
	}
	if _, err := f.svc.CreateExpense(ctx, core.MachineExpense{
		MachineID: f.machineID, Amount: core.Money{Cents: 15000},
		Date: day("2026-01-18"), Description: "diesel",
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	// Every forward delta was applied through the service, so a
	// from-scratch recomputation must agree with the stored totals.
	report, err := NewReconciler(f.repo, true, 50).Run(ctx, ScopeAll)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.Drifts) != 0 {
		t.Fatalf("drift on a clean ledger: %+v", report.Drifts)
	}
	if report.Checked != 3 {
		t.Errorf("checked %d entities; want 3", report.Checked)
	}
}

func TestReconcileRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.CreateJob(ctx, f.job(t)); err != nil {
		t.Fatalf("create job: %v", err)
	}

	// Corrupt the stored totals the way a lost delta would.
	if err := f.repo.ReplaceFarmerTotals(ctx, f.farmerID, core.Money{Cents: 111}, core.Money{Cents: 222}); err != nil {
		t.Fatalf("corrupt farmer totals: %v", err)
	}
	if err := f.repo.ReplaceOwnerTotals(ctx, f.ownerID, core.Money{Cents: 333}, core.Money{}); err != nil {
		t.Fatalf("corrupt owner totals: %v", err)
	}

	report, err := NewReconciler(f.repo, true, 50).Run(ctx, ScopeAll)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Repaired != 2 {
		t.Errorf("repaired %d entities; want 2", report.Repaired)
	}

	farmer := f.farmer(t)
	if farmer.TotalPending.Cents != 480000 || farmer.TotalPaid.Cents != 0 {
		t.Errorf("farmer totals after repair = %d/%d", farmer.TotalPending.Cents, farmer.TotalPaid.Cents)
	}
	owner := f.owner(t)
	if owner.TotalPending.Cents != 400000 {
		t.Errorf("owner pending after repair = %d", owner.TotalPending.Cents)
	}

	// A second pass finds nothing left to do.
	report, err = NewReconciler(f.repo, true, 50).Run(ctx, ScopeAll)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(report.Drifts) != 0 {
		t.Errorf("drift after repair: %+v", report.Drifts)
	}
}

func TestReconcileDetectOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.CreateJob(ctx, f.job(t)); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := f.repo.ReplaceFarmerTotals(ctx, f.farmerID, core.Money{Cents: 111}, core.Money{}); err != nil {
		t.Fatalf("corrupt farmer totals: %v", err)
	}

	report, err := NewReconciler(f.repo, false, 50).Run(ctx, ScopeAll)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.Drifts) == 0 {
		t.Fatal("drift not detected")
	}
	if report.Repaired != 0 {
		t.Errorf("repaired %d with repair disabled", report.Repaired)
	}
	if f.farmer(t).TotalPending.Cents != 111 {
		t.Error("totals changed with repair disabled")
	}
}

func TestReconcileBatchLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.CreateJob(ctx, f.job(t)); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := f.repo.ReplaceFarmerTotals(ctx, f.farmerID, core.Money{Cents: 1}, core.Money{}); err != nil {
		t.Fatalf("corrupt farmer totals: %v", err)
	}
	if err := f.repo.ReplaceOwnerTotals(ctx, f.ownerID, core.Money{Cents: 2}, core.Money{}); err != nil {
		t.Fatalf("corrupt owner totals: %v", err)
	}

	report, err := NewReconciler(f.repo, true, 1).Run(ctx, ScopeAll)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Repaired != 1 {
		t.Errorf("repaired %d entities with batch size 1", report.Repaired)
	}

	// Next sweep finishes the job.
	report, err = NewReconciler(f.repo, true, 1).Run(ctx, ScopeAll)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if report.Repaired != 1 {
		t.Errorf("second pass repaired %d; want 1", report.Repaired)
	}
}

func TestScopeFor(t *testing.T) {
	cases := []struct {
		kind amqp.EntityKind
		want Scope
	}{
		{amqp.KindJob, Scope{Farmers: true, Owners: true}},
		{amqp.KindPayment, Scope{Farmers: true, Owners: true}},
		{amqp.KindRental, Scope{Owners: true, Dealers: true}},
		{amqp.KindRentalPayment, Scope{Dealers: true}},
		{amqp.KindAdvance, Scope{Owners: true}},
		{amqp.KindExpense, Scope{Owners: true}},
		{amqp.EntityKind("unknown"), ScopeAll},
	}
	for _, tc := range cases {
		if got := ScopeFor(tc.kind); got != tc.want {
			t.Errorf("ScopeFor(%q) = %+v; want %+v", tc.kind, got, tc.want)
		}
	}
}
