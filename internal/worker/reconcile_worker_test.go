package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"harvestbook/internal/amqp"
	"harvestbook/internal/core"
	"harvestbook/internal/services"
	"harvestbook/internal/sheets/memory"
	"harvestbook/internal/storage"
)

func setup(t *testing.T) (*ReconcileWorker, *services.LedgerService, *storage.SQLiteRepository, *memory.Mirror) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	mirror := memory.New()
	w := NewReconcileWorker(repo, services.NewReconciler(repo, true, 50), mirror)
	return w, services.NewLedgerService(repo, nil), repo, mirror
}

func seed(t *testing.T, repo *storage.SQLiteRepository) (farmerID, ownerID, machineID int64) {
	t.Helper()
	ctx := context.Background()
	farmerID, err := repo.CreateFarmer(ctx, core.Farmer{Name: "Ravi", Village: "Kothur"})
	if err != nil {
		t.Fatalf("create farmer: %v", err)
	}
	ownerID, err = repo.CreateOwner(ctx, core.MachineOwner{Name: "Suresh"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	machineID, err = repo.CreateMachine(ctx, core.Machine{
		OwnerID: ownerID, Name: "Harvester 1", OwnerRate: core.Money{Cents: 200000},
	})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	return farmerID, ownerID, machineID
}

func TestHandleLedgerChangeRepairsDrift(t *testing.T) {
	w, svc, repo, _ := setup(t)
	ctx := context.Background()
	farmerID, _, machineID := seed(t, repo)

	jobID, _, err := svc.CreateJob(ctx, core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date:  core.NewDate(2026, 1, 15),
		Hours: core.Hours{Minutes: 120}, Rate: core.Money{Cents: 240000},
		Status: core.JobCompleted,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	// Simulate a lost delta.
	if err := repo.ReplaceFarmerTotals(ctx, farmerID, core.Money{}, core.Money{}); err != nil {
		t.Fatalf("corrupt totals: %v", err)
	}

	msg := amqp.NewLedgerChangedMessage(amqp.KindJob, jobID, amqp.OpCreated)
	if err := w.HandleLedgerChange(ctx, msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	f, err := repo.GetFarmer(ctx, farmerID)
	if err != nil {
		t.Fatalf("get farmer: %v", err)
	}
	if f.TotalPending.Cents != 480000 {
		t.Errorf("farmer pending = %d after reconcile; want 480000", f.TotalPending.Cents)
	}
}

func TestHandleLedgerChangeMirrorsMutation(t *testing.T) {
	w, svc, repo, mirror := setup(t)
	ctx := context.Background()
	farmerID, _, machineID := seed(t, repo)

	jobID, _, err := svc.CreateJob(ctx, core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date:  core.NewDate(2026, 1, 15),
		Hours: core.Hours{Minutes: 150}, Rate: core.Money{Cents: 240000},
		Status: core.JobCompleted,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	msg := amqp.NewLedgerChangedMessage(amqp.KindJob, jobID, amqp.OpCreated)
	if err := w.HandleLedgerChange(ctx, msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	entries := mirror.Entries()
	if len(entries) != 1 {
		t.Fatalf("mirrored %d entries; want 1", len(entries))
	}
	if entries[0].EntityKind != "harvesting_job" || entries[0].Op != "created" {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].Amount.Cents != 600000 {
		t.Errorf("mirrored amount = %d; want job revenue 600000", entries[0].Amount.Cents)
	}
}

func TestHandleDeleteMirrorsWithoutAmount(t *testing.T) {
	w, svc, repo, mirror := setup(t)
	ctx := context.Background()
	farmerID, _, machineID := seed(t, repo)

	jobID, _, err := svc.CreateJob(ctx, core.HarvestingJob{
		FarmerID: farmerID, MachineID: machineID,
		Date:  core.NewDate(2026, 1, 15),
		Hours: core.Hours{Minutes: 60}, Rate: core.Money{Cents: 100000},
		Status: core.JobScheduled,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := svc.DeleteJob(ctx, jobID); err != nil {
		t.Fatalf("delete job: %v", err)
	}

	msg := amqp.NewLedgerChangedMessage(amqp.KindJob, jobID, amqp.OpDeleted)
	if err := w.HandleLedgerChange(ctx, msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	entries := mirror.Entries()
	if len(entries) != 1 {
		t.Fatalf("mirrored %d entries; want 1", len(entries))
	}
	if entries[0].Op != "deleted" || entries[0].Amount.Cents != 0 {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestSweeperStopsOnCancel(t *testing.T) {
	w, _, _, _ := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.RunSweeper(ctx, time.Hour)
	}()

	// The startup pass runs before the first tick; give it a moment.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("RunSweeper = %v; want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
