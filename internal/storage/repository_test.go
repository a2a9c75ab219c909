package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"harvestbook/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedFarmerMachine(t *testing.T, repo *SQLiteRepository) (farmerID, ownerID, machineID int64) {
	t.Helper()
	ctx := context.Background()

	farmerID, err := repo.CreateFarmer(ctx, core.Farmer{Name: "Ravi", Village: "Kothur"})
	if err != nil {
		t.Fatalf("create farmer: %v", err)
	}
	ownerID, err = repo.CreateOwner(ctx, core.MachineOwner{Name: "Suresh", DefaultRate: core.Money{Cents: 200000}})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	machineID, err = repo.CreateMachine(ctx, core.Machine{
		OwnerID:   ownerID,
		Name:      "Harvester 1",
		Type:      "Combine Harvester",
		OwnerRate: core.Money{Cents: 200000},
	})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	return farmerID, ownerID, machineID
}

func date(s string) core.Date {
	t, _ := time.Parse("2006-01-02", s)
	return core.Date{Time: t}
}

func TestFarmerCRUD(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.CreateFarmer(ctx, core.Farmer{Name: "Ravi", Phone: "9000000001", Village: "Kothur"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f, err := repo.GetFarmer(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Name != "Ravi" || f.Village != "Kothur" {
		t.Errorf("got %+v", f)
	}
	if f.TotalPending.Cents != 0 || f.TotalPaid.Cents != 0 {
		t.Errorf("new farmer should have zero totals, got %+v", f)
	}

	f.Phone = "9000000002"
	if err := repo.UpdateFarmer(ctx, f); err != nil {
		t.Fatalf("update: %v", err)
	}
	f, _ = repo.GetFarmer(ctx, id)
	if f.Phone != "9000000002" {
		t.Errorf("Phone = %q after update", f.Phone)
	}

	if err := repo.DeleteFarmer(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetFarmer(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v; want ErrNotFound", err)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.GetJob(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJob = %v", err)
	}
	if err := repo.UpdateFarmer(ctx, core.Farmer{ID: 99, Name: "x", Village: "y"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateFarmer = %v", err)
	}
}

func TestCreateJobAppliesDelta(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, ownerID, machineID := seedFarmerMachine(t, repo)

	job := core.HarvestingJob{
		FarmerID:  farmerID,
		MachineID: machineID,
		Date:      date("2026-01-15"),
		Hours:     core.Hours{Minutes: 150},
		Rate:      core.Money{Cents: 240000},
		Total:     core.Money{Cents: 600000},
		Status:    core.JobCompleted,
	}
	delta := TotalsDelta{
		FarmerID:      farmerID,
		FarmerPending: core.Money{Cents: 600000},
		OwnerID:       ownerID,
		OwnerPending:  core.Money{Cents: 500000},
	}
	jobID, err := repo.CreateJob(ctx, job, delta)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	got, err := repo.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Hours.Minutes != 150 || got.Rate.Cents != 240000 {
		t.Errorf("job round-trip mismatch: %+v", got)
	}
	if !got.Date.Equal(job.Date.Time) {
		t.Errorf("Date = %v; want %v", got.Date, job.Date)
	}

	f, _ := repo.GetFarmer(ctx, farmerID)
	if f.TotalPending.Cents != 600000 {
		t.Errorf("farmer pending = %d; want 600000", f.TotalPending.Cents)
	}
	o, _ := repo.GetOwner(ctx, ownerID)
	if o.TotalPending.Cents != 500000 {
		t.Errorf("owner pending = %d; want 500000", o.TotalPending.Cents)
	}
}

func TestDeltasAreRelative(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, ownerID, machineID := seedFarmerMachine(t, repo)

	job := core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date: date("2026-01-15"), Hours: core.Hours{Minutes: 60},
		Rate: core.Money{Cents: 200000}, Total: core.Money{Cents: 200000},
		Status: core.JobCompleted,
	}
	delta := TotalsDelta{
		FarmerID: farmerID, FarmerPending: core.Money{Cents: 200000},
		OwnerID: ownerID, OwnerPending: core.Money{Cents: 200000},
	}
	for i := 0; i < 3; i++ {
		if _, err := repo.CreateJob(ctx, job, delta); err != nil {
			t.Fatalf("create job %d: %v", i, err)
		}
	}

	f, _ := repo.GetFarmer(ctx, farmerID)
	if f.TotalPending.Cents != 600000 {
		t.Errorf("farmer pending = %d after 3 jobs; want 600000", f.TotalPending.Cents)
	}
}

func TestDeleteJobInverseDelta(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, ownerID, machineID := seedFarmerMachine(t, repo)

	job := core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date: date("2026-02-01"), Hours: core.Hours{Minutes: 120},
		Rate: core.Money{Cents: 200000}, Total: core.Money{Cents: 400000},
		Status: core.JobCompleted,
	}
	forward := TotalsDelta{
		FarmerID: farmerID, FarmerPending: core.Money{Cents: 400000},
		OwnerID: ownerID, OwnerPending: core.Money{Cents: 400000},
	}
	jobID, err := repo.CreateJob(ctx, job, forward)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	inverse := TotalsDelta{
		FarmerID: farmerID, FarmerPending: core.Money{Cents: -400000},
		OwnerID: ownerID, OwnerPending: core.Money{Cents: -400000},
	}
	if err := repo.DeleteJob(ctx, jobID, inverse); err != nil {
		t.Fatalf("delete job: %v", err)
	}

	f, _ := repo.GetFarmer(ctx, farmerID)
	o, _ := repo.GetOwner(ctx, ownerID)
	if f.TotalPending.Cents != 0 || o.TotalPending.Cents != 0 {
		t.Errorf("totals not restored: farmer=%d owner=%d", f.TotalPending.Cents, o.TotalPending.Cents)
	}
}

func TestDeltaRollsBackWithRow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, _, machineID := seedFarmerMachine(t, repo)

	// Delta names a missing owner, so the whole insert must roll back.
	job := core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date: date("2026-02-01"), Hours: core.Hours{Minutes: 60},
		Rate: core.Money{Cents: 100000}, Total: core.Money{Cents: 100000},
		Status: core.JobCompleted,
	}
	delta := TotalsDelta{
		FarmerID: farmerID, FarmerPending: core.Money{Cents: 100000},
		OwnerID: 999,
	}
	if _, err := repo.CreateJob(ctx, job, delta); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing owner, got %v", err)
	}

	jobs, err := repo.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("job row survived a failed delta: %d rows", len(jobs))
	}
	f, _ := repo.GetFarmer(ctx, farmerID)
	if f.TotalPending.Cents != 0 {
		t.Errorf("farmer pending = %d after rollback; want 0", f.TotalPending.Cents)
	}
}

func TestRentalAndDealerTotals(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	_, ownerID, machineID := seedFarmerMachine(t, repo)

	dealerID, err := repo.CreateDealer(ctx, core.Dealer{Name: "AgriWorks", Village: "Siddipet"})
	if err != nil {
		t.Fatalf("create dealer: %v", err)
	}

	rental := core.MachineRental{
		DealerID: dealerID, MachineID: machineID,
		StartDate: date("2026-03-01"), Hours: core.Hours{Minutes: 240},
		DealerRate: core.Money{Cents: 200000}, OwnerRate: core.Money{Cents: 125000},
		TotalCharged: core.Money{Cents: 800000}, TotalOwnerCost: core.Money{Cents: 500000},
		ProfitMargin: core.Money{Cents: 300000}, Status: core.RentalActive,
	}
	rentalID, err := repo.CreateRental(ctx, rental, TotalsDelta{
		DealerID: dealerID, DealerCharged: core.Money{Cents: 800000},
		OwnerID: ownerID, OwnerPending: core.Money{Cents: 500000},
	})
	if err != nil {
		t.Fatalf("create rental: %v", err)
	}

	_, err = repo.CreateRentalPayment(ctx, core.RentalPayment{
		RentalID: rentalID, DealerID: dealerID,
		Amount: core.Money{Cents: 300000}, Date: date("2026-03-05"), Method: "cash",
	}, TotalsDelta{DealerID: dealerID, DealerPaid: core.Money{Cents: 300000}})
	if err != nil {
		t.Fatalf("create rental payment: %v", err)
	}

	d, _ := repo.GetDealer(ctx, dealerID)
	if d.TotalCharged.Cents != 800000 || d.TotalPaid.Cents != 300000 {
		t.Errorf("dealer totals = %d/%d; want 800000/300000", d.TotalCharged.Cents, d.TotalPaid.Cents)
	}
	if d.Balance().Cents != 500000 {
		t.Errorf("dealer balance = %d; want 500000", d.Balance().Cents)
	}

	if err := repo.DeleteRental(ctx, rentalID, TotalsDelta{}); !errors.Is(err, ErrInUse) {
		t.Errorf("deleting rental with payments = %v; want ErrInUse", err)
	}
}

func TestReplaceTotals(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, ownerID, _ := seedFarmerMachine(t, repo)

	if err := repo.ReplaceFarmerTotals(ctx, farmerID, core.Money{Cents: 123400}, core.Money{Cents: 5600}); err != nil {
		t.Fatalf("replace farmer totals: %v", err)
	}
	f, _ := repo.GetFarmer(ctx, farmerID)
	if f.TotalPending.Cents != 123400 || f.TotalPaid.Cents != 5600 {
		t.Errorf("farmer totals = %d/%d", f.TotalPending.Cents, f.TotalPaid.Cents)
	}

	if err := repo.ReplaceOwnerTotals(ctx, ownerID, core.Money{Cents: 700}, core.Money{Cents: 0}); err != nil {
		t.Fatalf("replace owner totals: %v", err)
	}
	o, _ := repo.GetOwner(ctx, ownerID)
	if o.TotalPending.Cents != 700 {
		t.Errorf("owner pending = %d; want 700", o.TotalPending.Cents)
	}
}

func TestRefdataInUseChecks(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.AddVillage(ctx, "Kothur"); err != nil {
		t.Fatalf("add village: %v", err)
	}
	if _, err := repo.CreateFarmer(ctx, core.Farmer{Name: "Ravi", Village: "Kothur"}); err != nil {
		t.Fatalf("create farmer: %v", err)
	}
	if err := repo.DeleteVillage(ctx, "Kothur"); !errors.Is(err, ErrInUse) {
		t.Errorf("delete referenced village = %v; want ErrInUse", err)
	}

	if err := repo.AddVillage(ctx, "Empty"); err != nil {
		t.Fatalf("add village: %v", err)
	}
	if err := repo.DeleteVillage(ctx, "Empty"); err != nil {
		t.Errorf("delete unused village = %v", err)
	}

	if err := repo.AddMachineType(ctx, "Combine Harvester"); err != nil {
		t.Fatalf("add machine type: %v", err)
	}
	seedFarmerMachine(t, repo)
	if err := repo.DeleteMachineType(ctx, "Combine Harvester"); !errors.Is(err, ErrInUse) {
		t.Errorf("delete referenced machine type = %v; want ErrInUse", err)
	}
}

func TestEntityDeleteGuards(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, ownerID, machineID := seedFarmerMachine(t, repo)

	if err := repo.DeleteOwner(ctx, ownerID); !errors.Is(err, ErrInUse) {
		t.Errorf("delete owner with machines = %v; want ErrInUse", err)
	}

	job := core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date: date("2026-01-01"), Hours: core.Hours{Minutes: 60},
		Rate: core.Money{Cents: 100000}, Total: core.Money{Cents: 100000},
		Status: core.JobScheduled,
	}
	if _, err := repo.CreateJob(ctx, job, TotalsDelta{}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := repo.DeleteFarmer(ctx, farmerID); !errors.Is(err, ErrInUse) {
		t.Errorf("delete farmer with jobs = %v; want ErrInUse", err)
	}
	if err := repo.DeleteMachine(ctx, machineID); !errors.Is(err, ErrInUse) {
		t.Errorf("delete machine with jobs = %v; want ErrInUse", err)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, _, machineID := seedFarmerMachine(t, repo)

	p := core.Payment{
		Receipt:   "rcpt-0001",
		Type:      core.PaymentFromFarmer,
		FarmerID:  farmerID,
		MachineID: machineID,
		Amount:    core.Money{Cents: 250000},
		Source:    core.SourceHarvesting,
		Method:    "upi",
		Date:      date("2026-04-10"),
		Status:    core.PaymentCompleted,
	}
	id, err := repo.CreatePayment(ctx, p, TotalsDelta{
		FarmerID: farmerID, FarmerPaid: core.Money{Cents: 250000}, FarmerPending: core.Money{Cents: -250000},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	got, err := repo.GetPayment(ctx, id)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if got.Receipt != "rcpt-0001" || got.Type != core.PaymentFromFarmer || got.Source != core.SourceHarvesting {
		t.Errorf("payment round-trip mismatch: %+v", got)
	}

	f, _ := repo.GetFarmer(ctx, farmerID)
	if f.TotalPaid.Cents != 250000 || f.TotalPending.Cents != -250000 {
		t.Errorf("farmer totals = %d/%d", f.TotalPending.Cents, f.TotalPaid.Cents)
	}

	// Duplicate receipt must be rejected.
	if _, err := repo.CreatePayment(ctx, p, TotalsDelta{}); err == nil {
		t.Error("duplicate receipt accepted")
	}
}

// Rows are written with bare dates but the driver reports DATE columns
// back in RFC 3339 form. Both layouts must parse to the same day, and
// garbage must surface as an error instead of a zero date.
func TestDateFromDBLayouts(t *testing.T) {
	want := date("2026-01-15")
	for _, s := range []string{"2026-01-15", "2026-01-15T00:00:00Z"} {
		d, err := dateFromDB(s)
		if err != nil {
			t.Fatalf("dateFromDB(%q): %v", s, err)
		}
		if !d.Equal(want.Time) {
			t.Errorf("dateFromDB(%q) = %v; want %v", s, d, want)
		}
	}
	if _, err := dateFromDB("not-a-date"); err == nil {
		t.Error("garbage date accepted")
	}
}

func TestJobDateSurvivesReload(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	farmerID, _, machineID := seedFarmerMachine(t, repo)

	job := core.HarvestingJob{
		FarmerID:  farmerID,
		MachineID: machineID,
		Date:      date("2026-01-15"),
		Hours:     core.Hours{Minutes: 60},
		Rate:      core.Money{Cents: 100000},
		Total:     core.Money{Cents: 100000},
		Status:    core.JobCompleted,
	}
	id, err := repo.CreateJob(ctx, job, TotalsDelta{})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	got, err := repo.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Date.IsZero() || !got.Date.Equal(job.Date.Time) {
		t.Errorf("Date after reload = %v; want %v", got.Date, job.Date)
	}

	jobs, err := repo.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 || !jobs[0].Date.Equal(job.Date.Time) {
		t.Errorf("listed jobs = %+v; want one dated %v", jobs, job.Date)
	}
}
