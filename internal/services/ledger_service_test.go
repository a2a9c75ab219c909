package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"harvestbook/internal/core"
	"harvestbook/internal/storage"
)

// Tests run against a real temp SQLite database; the AMQP client is
// nil, which the service treats as "events disabled".

type fixture struct {
	svc       *LedgerService
	repo      *storage.SQLiteRepository
	farmerID  int64
	ownerID   int64
	machineID int64
	dealerID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	f := &fixture{svc: NewLedgerService(repo, nil), repo: repo}

	f.farmerID, err = repo.CreateFarmer(ctx, core.Farmer{Name: "Ravi", Village: "Kothur"})
	if err != nil {
		t.Fatalf("create farmer: %v", err)
	}
	f.ownerID, err = repo.CreateOwner(ctx, core.MachineOwner{Name: "Suresh", DefaultRate: core.Money{Cents: 200000}})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	f.machineID, err = repo.CreateMachine(ctx, core.Machine{
		OwnerID: f.ownerID, Name: "Harvester 1", Type: "Combine Harvester",
		OwnerRate: core.Money{Cents: 200000},
	})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	f.dealerID, err = repo.CreateDealer(ctx, core.Dealer{Name: "AgriWorks", Village: "Siddipet"})
	if err != nil {
		t.Fatalf("create dealer: %v", err)
	}
	return f
}

func day(s string) core.Date {
	t, _ := time.Parse("2006-01-02", s)
	return core.Date{Time: t}
}

func (f *fixture) farmer(t *testing.T) core.Farmer {
	t.Helper()
	farmer, err := f.repo.GetFarmer(context.Background(), f.farmerID)
	if err != nil {
		t.Fatalf("get farmer: %v", err)
	}
	return farmer
}

func (f *fixture) owner(t *testing.T) core.MachineOwner {
	t.Helper()
	owner, err := f.repo.GetOwner(context.Background(), f.ownerID)
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	return owner
}

func (f *fixture) job(t *testing.T) core.HarvestingJob {
	t.Helper()
	return core.HarvestingJob{
		FarmerID:  f.farmerID,
		MachineID: f.machineID,
		Date:      day("2026-01-15"),
		Hours:     core.Hours{Minutes: 120}, // 2h
		Rate:      core.Money{Cents: 240000},
		Status:    core.JobCompleted,
	}
}

func TestCreateJobMovesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.job(t)
	job.AdvanceFromFarmer = core.Money{Cents: 50000}

	_, amounts, err := f.svc.CreateJob(ctx, job)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	// 2h × 2400 farmer rate, 2h × 2000 owner rate
	if amounts.GrossFarmer.Cents != 480000 || amounts.GrossOwner.Cents != 400000 {
		t.Fatalf("amounts = %+v", amounts)
	}

	farmer := f.farmer(t)
	if farmer.TotalPending.Cents != 430000 {
		t.Errorf("farmer pending = %d; want 430000 (gross − advance)", farmer.TotalPending.Cents)
	}
	if farmer.TotalPaid.Cents != 50000 {
		t.Errorf("farmer paid = %d; want 50000", farmer.TotalPaid.Cents)
	}
	owner := f.owner(t)
	if owner.TotalPending.Cents != 400000 {
		t.Errorf("owner pending = %d; want 400000", owner.TotalPending.Cents)
	}
}

func TestJobRateChangeNeverMovesOwnerTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _, err := f.svc.CreateJob(ctx, f.job(t))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	before := f.owner(t).TotalPending

	job, err := f.repo.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	job.Rate = core.Money{Cents: 999900}
	job.Total = core.Money{} // force re-derive from the new rate
	if _, err := f.svc.UpdateJob(ctx, job); err != nil {
		t.Fatalf("update job: %v", err)
	}

	if got := f.owner(t).TotalPending; got != before {
		t.Errorf("owner pending moved %d → %d on a farmer-rate edit", before.Cents, got.Cents)
	}
	if got := f.farmer(t).TotalPending; got.Cents == 0 {
		t.Error("farmer pending should reflect the new rate")
	}
}

func TestDeleteJobReversesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.job(t)
	job.AdvanceFromFarmer = core.Money{Cents: 30000}
	id, _, err := f.svc.CreateJob(ctx, job)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := f.svc.DeleteJob(ctx, id); err != nil {
		t.Fatalf("delete job: %v", err)
	}

	farmer := f.farmer(t)
	owner := f.owner(t)
	if farmer.TotalPending.Cents != 0 || farmer.TotalPaid.Cents != 0 || owner.TotalPending.Cents != 0 {
		t.Errorf("totals not restored: farmer=%d/%d owner=%d",
			farmer.TotalPending.Cents, farmer.TotalPaid.Cents, owner.TotalPending.Cents)
	}
}

func TestDiscountEditRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _, err := f.svc.CreateJob(ctx, f.job(t))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	farmerBefore := f.farmer(t).TotalPending
	ownerBefore := f.owner(t).TotalPending

	if _, err := f.svc.AdjustJobDiscounts(ctx, id, core.Money{Cents: 20000}, core.Money{Cents: 10000}); err != nil {
		t.Fatalf("first discount edit: %v", err)
	}
	if got := f.owner(t).TotalPending; got.Cents != ownerBefore.Cents-20000 {
		t.Errorf("owner pending = %d; want %d", got.Cents, ownerBefore.Cents-20000)
	}
	if got := f.farmer(t).TotalPending; got.Cents != farmerBefore.Cents-10000 {
		t.Errorf("farmer pending = %d; want %d", got.Cents, farmerBefore.Cents-10000)
	}

	// Back to zero discounts: totals must land exactly where they started.
	if _, err := f.svc.AdjustJobDiscounts(ctx, id, core.Money{}, core.Money{}); err != nil {
		t.Fatalf("second discount edit: %v", err)
	}
	if got := f.owner(t).TotalPending; got != ownerBefore {
		t.Errorf("owner pending after round trip = %d; want %d", got.Cents, ownerBefore.Cents)
	}
	if got := f.farmer(t).TotalPending; got != farmerBefore {
		t.Errorf("farmer pending after round trip = %d; want %d", got.Cents, farmerBefore.Cents)
	}
}

func TestDiscountExceedingGrossIsFlaggedNotRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _, err := f.svc.CreateJob(ctx, f.job(t))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	// Owner gross is 400000; a larger discount is allowed but flagged.
	amounts, err := f.svc.AdjustJobDiscounts(ctx, id, core.Money{Cents: 500000}, core.Money{})
	if err != nil {
		t.Fatalf("discount edit: %v", err)
	}
	if !amounts.OwnerDiscountExceedsGross {
		t.Error("OwnerDiscountExceedsGross not set")
	}
	if amounts.NetOwner.Cents != -100000 {
		t.Errorf("NetOwner = %d; want -100000", amounts.NetOwner.Cents)
	}
	if got := f.owner(t).TotalPending; got.Cents != -100000 {
		t.Errorf("owner pending = %d; negative balances must not be clamped", got.Cents)
	}
}

func TestJobReassignmentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _, err := f.svc.CreateJob(ctx, f.job(t))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	otherFarmer, err := f.repo.CreateFarmer(ctx, core.Farmer{Name: "Mohan", Village: "Kothur"})
	if err != nil {
		t.Fatalf("create farmer: %v", err)
	}

	job, _ := f.repo.GetJob(ctx, id)
	job.FarmerID = otherFarmer
	if _, err := f.svc.UpdateJob(ctx, job); !errors.Is(err, ErrReassignment) {
		t.Errorf("UpdateJob with new farmer = %v; want ErrReassignment", err)
	}
}

// Repricing a machine would strand the owner totals accumulated under
// the old rate, so owner and rate edits are locked while jobs exist.
func TestMachineRateLockedWhileJobsExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jobID, _, err := f.svc.CreateJob(ctx, f.job(t))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	ownerBefore := f.owner(t).TotalPending

	m, _ := f.repo.GetMachine(ctx, f.machineID)
	m.OwnerRate = core.Money{Cents: 300000}
	if err := f.svc.UpdateMachine(ctx, m); !errors.Is(err, ErrRateLocked) {
		t.Errorf("UpdateMachine with new rate = %v; want ErrRateLocked", err)
	}
	if got := f.owner(t).TotalPending; got != ownerBefore {
		t.Errorf("owner pending moved on rejected edit: %d -> %d", ownerBefore.Cents, got.Cents)
	}

	// Metadata edits stay allowed.
	m, _ = f.repo.GetMachine(ctx, f.machineID)
	m.DriverName = "Anil"
	if err := f.svc.UpdateMachine(ctx, m); err != nil {
		t.Fatalf("metadata edit: %v", err)
	}

	// Once no jobs reference the machine the rate can change.
	if err := f.svc.DeleteJob(ctx, jobID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	m, _ = f.repo.GetMachine(ctx, f.machineID)
	m.OwnerRate = core.Money{Cents: 300000}
	if err := f.svc.UpdateMachine(ctx, m); err != nil {
		t.Errorf("rate edit with no jobs = %v", err)
	}
}

func TestRentalDerivesMargin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rental := core.MachineRental{
		DealerID:   f.dealerID,
		MachineID:  f.machineID,
		StartDate:  day("2026-03-01"),
		Hours:      core.Hours{Minutes: 240}, // 4h
		DealerRate: core.Money{Cents: 200000},
		// Stale client-side figures that must be ignored.
		ProfitMargin: core.Money{Cents: 1},
		Status:       core.RentalActive,
	}
	id, err := f.svc.CreateRental(ctx, rental)
	if err != nil {
		t.Fatalf("create rental: %v", err)
	}

	got, err := f.repo.GetRental(ctx, id)
	if err != nil {
		t.Fatalf("get rental: %v", err)
	}
	// Owner rate copied from the machine: 4h × 2000 = 8000.
	if got.TotalCharged.Cents != 800000 || got.TotalOwnerCost.Cents != 800000 {
		t.Errorf("charged/cost = %d/%d", got.TotalCharged.Cents, got.TotalOwnerCost.Cents)
	}
	if got.ProfitMargin != got.TotalCharged.Sub(got.TotalOwnerCost) {
		t.Errorf("margin %d not derived from %d − %d",
			got.ProfitMargin.Cents, got.TotalCharged.Cents, got.TotalOwnerCost.Cents)
	}

	// Margin must be re-derived after an edit too.
	got.Hours = core.Hours{Minutes: 300}
	got.DealerRate = core.Money{Cents: 250000}
	got.OwnerRate = core.Money{Cents: 150000}
	if err := f.svc.UpdateRental(ctx, got); err != nil {
		t.Fatalf("update rental: %v", err)
	}
	got, _ = f.repo.GetRental(ctx, id)
	if got.ProfitMargin != got.TotalCharged.Sub(got.TotalOwnerCost) {
		t.Errorf("margin %d stale after edit", got.ProfitMargin.Cents)
	}
	if got.TotalCharged.Cents != 1250000 || got.TotalOwnerCost.Cents != 750000 {
		t.Errorf("charged/cost = %d/%d after edit", got.TotalCharged.Cents, got.TotalOwnerCost.Cents)
	}
}

func TestPaymentsMovePendingToPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.CreateJob(ctx, f.job(t)); err != nil {
		t.Fatalf("create job: %v", err)
	}

	_, receipt, err := f.svc.CreatePayment(ctx, core.Payment{
		Type:     core.PaymentFromFarmer,
		FarmerID: f.farmerID,
		Amount:   core.Money{Cents: 180000},
		Source:   core.SourceHarvesting,
		Date:     day("2026-01-20"),
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if receipt == "" {
		t.Error("payment receipt not assigned")
	}

	farmer := f.farmer(t)
	if farmer.TotalPending.Cents != 480000-180000 {
		t.Errorf("farmer pending = %d", farmer.TotalPending.Cents)
	}
	if farmer.TotalPaid.Cents != 180000 {
		t.Errorf("farmer paid = %d", farmer.TotalPaid.Cents)
	}

	pid, _, err := f.svc.CreatePayment(ctx, core.Payment{
		Type:      core.PaymentToOwner,
		MachineID: f.machineID,
		Amount:    core.Money{Cents: 100000},
		Source:    core.SourceHarvesting,
		Date:      day("2026-01-21"),
	})
	if err != nil {
		t.Fatalf("create owner payment: %v", err)
	}
	owner := f.owner(t)
	if owner.TotalPending.Cents != 400000-100000 || owner.TotalPaid.Cents != 100000 {
		t.Errorf("owner totals = %d/%d", owner.TotalPending.Cents, owner.TotalPaid.Cents)
	}

	if err := f.svc.DeletePayment(ctx, pid); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	owner = f.owner(t)
	if owner.TotalPending.Cents != 400000 || owner.TotalPaid.Cents != 0 {
		t.Errorf("owner totals after payment delete = %d/%d", owner.TotalPending.Cents, owner.TotalPaid.Cents)
	}
}

func TestAdvanceAndExpenseAbsorption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.CreateJob(ctx, f.job(t)); err != nil {
		t.Fatalf("create job: %v", err)
	}

	// Paid by the owner: reduces the owner's pending total.
	aid, err := f.svc.CreateAdvance(ctx, core.DailyAdvance{
		MachineID: f.machineID, Amount: core.Money{Cents: 25000},
		Date: day("2026-01-16"), PaidBy: core.PaidByOwner,
	})
	if err != nil {
		t.Fatalf("create advance: %v", err)
	}
	if got := f.owner(t).TotalPending; got.Cents != 375000 {
		t.Errorf("owner pending = %d; want 375000", got.Cents)
	}

	// Paid by the farmer: settled via the job, totals untouched.
	if _, err := f.svc.CreateAdvance(ctx, core.DailyAdvance{
		MachineID: f.machineID, Amount: core.Money{Cents: 10000},
		Date: day("2026-01-17"), PaidBy: core.PaidByFarmer,
	}); err != nil {
		t.Fatalf("create farmer advance: %v", err)
	}
	if got := f.owner(t).TotalPending; got.Cents != 375000 {
		t.Errorf("owner pending moved on a farmer-paid advance: %d", got.Cents)
	}

	if _, err := f.svc.CreateExpense(ctx, core.MachineExpense{
		MachineID: f.machineID, Amount: core.Money{Cents: 15000},
		Date: day("2026-01-18"), Description: "diesel",
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := f.owner(t).TotalPending; got.Cents != 360000 {
		t.Errorf("owner pending = %d; want 360000", got.Cents)
	}

	if err := f.svc.DeleteAdvance(ctx, aid); err != nil {
		t.Fatalf("delete advance: %v", err)
	}
	if got := f.owner(t).TotalPending; got.Cents != 385000 {
		t.Errorf("owner pending = %d after advance delete; want 385000", got.Cents)
	}
}

func TestBalanceEndpointsRecomputeFromRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.job(t)
	job.AdvanceFromFarmer = core.Money{Cents: 50000}
	job.DiscountToFarmer = core.Money{Cents: 20000}
	if _, _, err := f.svc.CreateJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	fb, err := f.svc.FarmerBalance(ctx, f.farmerID)
	if err != nil {
		t.Fatalf("farmer balance: %v", err)
	}
	// Report follows the books: discounts shown, not netted.
	if fb.Total.Cents != 480000 || fb.Paid.Cents != 50000 || fb.Balance.Cents != 430000 {
		t.Errorf("farmer balance = %+v", fb)
	}
	if fb.DiscountsReceived.Cents != 20000 {
		t.Errorf("DiscountsReceived = %d", fb.DiscountsReceived.Cents)
	}

	hb, _, err := f.svc.MachineBalance(ctx, f.machineID)
	if err != nil {
		t.Fatalf("machine balance: %v", err)
	}
	if hb.Earned.Cents != 400000 {
		t.Errorf("machine earned = %d; want hours × owner rate", hb.Earned.Cents)
	}
}

func TestBalanceForMissingEntity(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.FarmerBalance(context.Background(), 404); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FarmerBalance(404) = %v; want ErrNotFound", err)
	}
}
