package core

import "testing"

// Farmer F has two jobs: A (5h × 600, no advance) and B (3h × 600,
// advance 500, discount to farmer 200). Balance nets against advances
// and payments only; the discount is reported separately.
func TestComputeFarmerBalance(t *testing.T) {
	jobs := []HarvestingJob{
		{ID: 1, FarmerID: 7, MachineID: 1, Hours: Hours{Minutes: 300}, Rate: Money{Cents: 60000}},
		{ID: 2, FarmerID: 7, MachineID: 1, Hours: Hours{Minutes: 180}, Rate: Money{Cents: 60000},
			AdvanceFromFarmer: Money{Cents: 50000}, DiscountToFarmer: Money{Cents: 20000}},
		{ID: 3, FarmerID: 9, MachineID: 1, Hours: Hours{Minutes: 60}, Rate: Money{Cents: 60000}},
	}
	b := ComputeFarmerBalance(7, jobs, nil)
	if b.Total.Cents != 480000 {
		t.Fatalf("total = %d; want 480000", b.Total.Cents)
	}
	if b.Paid.Cents != 50000 {
		t.Fatalf("paid = %d; want 50000", b.Paid.Cents)
	}
	if b.Balance.Cents != 430000 {
		t.Fatalf("balance = %d; want 430000", b.Balance.Cents)
	}
	if b.DiscountsReceived.Cents != 20000 {
		t.Fatalf("discounts = %d; want 20000", b.DiscountsReceived.Cents)
	}
	if b.Jobs != 2 {
		t.Fatalf("jobs = %d; want 2", b.Jobs)
	}
}

func TestComputeFarmerBalanceStoredTotalWins(t *testing.T) {
	jobs := []HarvestingJob{
		{ID: 1, FarmerID: 1, Hours: Hours{Minutes: 300}, Rate: Money{Cents: 60000}, Total: Money{Cents: 123400}},
	}
	b := ComputeFarmerBalance(1, jobs, nil)
	if b.Total.Cents != 123400 {
		t.Fatalf("total = %d; want stored 123400", b.Total.Cents)
	}
}

func TestComputeFarmerBalancePayments(t *testing.T) {
	jobs := []HarvestingJob{
		{ID: 1, FarmerID: 1, Hours: Hours{Minutes: 60}, Rate: Money{Cents: 100000}},
	}
	payments := []Payment{
		{Type: PaymentFromFarmer, FarmerID: 1, Amount: Money{Cents: 40000}},
		// Other-farmer and owner-side payments must not count.
		{Type: PaymentFromFarmer, FarmerID: 2, Amount: Money{Cents: 99999}},
		{Type: PaymentToOwner, MachineID: 1, Amount: Money{Cents: 88888}, Source: SourceHarvesting},
	}
	b := ComputeFarmerBalance(1, jobs, payments)
	if b.Paid.Cents != 40000 {
		t.Fatalf("paid = %d; want 40000", b.Paid.Cents)
	}
	if b.Balance.Cents != 60000 {
		t.Fatalf("balance = %d; want 60000", b.Balance.Cents)
	}
}

// Machine with owner rate 400: one 4h job (farmer rate 700 is irrelevant
// to owner math), one expense of 300, one harvesting payment of 1000.
func TestComputeMachineHarvestingBalance(t *testing.T) {
	m := Machine{ID: 3, OwnerID: 1, OwnerRate: Money{Cents: 40000}}
	jobs := []HarvestingJob{
		{ID: 1, FarmerID: 1, MachineID: 3, Hours: Hours{Minutes: 240}, Rate: Money{Cents: 70000}},
	}
	expenses := []MachineExpense{{MachineID: 3, Amount: Money{Cents: 30000}}}
	payments := []Payment{
		{Type: PaymentToOwner, MachineID: 3, Source: SourceHarvesting, Amount: Money{Cents: 100000}},
		{Type: PaymentToOwner, MachineID: 3, Source: SourceRental, Amount: Money{Cents: 55555}}, // rental side, excluded
	}
	b := ComputeMachineHarvestingBalance(m, jobs, expenses, payments)
	if b.Earned.Cents != 160000 {
		t.Fatalf("earned = %d; want 160000", b.Earned.Cents)
	}
	if b.Balance.Cents != 30000 {
		t.Fatalf("balance = %d; want 30000", b.Balance.Cents)
	}
}

// Changing the job's farmer-facing rate must never move any owner-side
// balance while the machine's owner rate is held fixed.
func TestOwnerCostIgnoresJobRate(t *testing.T) {
	m := Machine{ID: 1, OwnerID: 1, OwnerRate: Money{Cents: 40000}}
	job := HarvestingJob{ID: 1, FarmerID: 1, MachineID: 1, Hours: Hours{Minutes: 240}, Rate: Money{Cents: 70000}}

	before := ComputeMachineHarvestingBalance(m, []HarvestingJob{job}, nil, nil)
	job.Rate = Money{Cents: 500000}
	after := ComputeMachineHarvestingBalance(m, []HarvestingJob{job}, nil, nil)

	if before.Earned != after.Earned || before.Balance != after.Balance {
		t.Fatalf("owner balance moved with job rate: before %+v after %+v", before, after)
	}
}

func TestComputeMachineRentalBalance(t *testing.T) {
	rentals := []MachineRental{
		{MachineID: 2, DealerID: 1, TotalOwnerCost: Money{Cents: 500000}},
		{MachineID: 5, DealerID: 1, TotalOwnerCost: Money{Cents: 77777}}, // other machine
	}
	payments := []Payment{
		{Type: PaymentToOwner, MachineID: 2, Source: SourceRental, Amount: Money{Cents: 200000}},
	}
	b := ComputeMachineRentalBalance(2, rentals, payments)
	if b.Owed.Cents != 500000 || b.Paid.Cents != 200000 || b.Balance.Cents != 300000 {
		t.Fatalf("unexpected rental balance: %+v", b)
	}
}

func TestComputeOwnerBalance(t *testing.T) {
	machines := []Machine{
		{ID: 1, OwnerID: 10, OwnerRate: Money{Cents: 40000}},
		{ID: 2, OwnerID: 10, OwnerRate: Money{Cents: 50000}},
		{ID: 3, OwnerID: 11, OwnerRate: Money{Cents: 60000}}, // other owner
	}
	jobs := []HarvestingJob{
		{FarmerID: 1, MachineID: 1, Hours: Hours{Minutes: 60}, Rate: Money{Cents: 70000}},
	}
	rentals := []MachineRental{
		{MachineID: 2, DealerID: 1, TotalOwnerCost: Money{Cents: 100000}},
	}
	b := ComputeOwnerBalance(10, machines, jobs, rentals, nil, nil)
	if b.Machines != 2 {
		t.Fatalf("machines = %d; want 2", b.Machines)
	}
	if b.Harvesting.Cents != 40000 {
		t.Fatalf("harvesting = %d; want 40000", b.Harvesting.Cents)
	}
	if b.Rental.Cents != 100000 {
		t.Fatalf("rental = %d; want 100000", b.Rental.Cents)
	}
	if b.Balance.Cents != 140000 {
		t.Fatalf("balance = %d; want 140000", b.Balance.Cents)
	}
}

func TestComputeDealerBalance(t *testing.T) {
	rentals := []MachineRental{
		{DealerID: 4, MachineID: 1, TotalCharged: Money{Cents: 800000}, AdvancePaid: Money{Cents: 100000}},
	}
	payments := []RentalPayment{
		{DealerID: 4, Amount: Money{Cents: 300000}},
		{DealerID: 5, Amount: Money{Cents: 11111}},
	}
	b := ComputeDealerBalance(4, rentals, payments)
	if b.Charged.Cents != 800000 || b.Paid.Cents != 400000 || b.Balance.Cents != 400000 {
		t.Fatalf("unexpected dealer balance: %+v", b)
	}
}

// The balance report and the running-totals recompute must agree on a
// rental advance: both count it as paid.
func TestDealerBalanceMatchesTotals(t *testing.T) {
	rentals := []MachineRental{
		{DealerID: 4, MachineID: 1, TotalCharged: Money{Cents: 800000}, AdvancePaid: Money{Cents: 100000}},
	}
	b := ComputeDealerBalance(4, rentals, nil)
	totals := ComputeDealerTotals(4, rentals, nil)
	if b.Paid != totals.Paid {
		t.Fatalf("report paid %d != totals paid %d", b.Paid.Cents, totals.Paid.Cents)
	}
	if b.Balance != totals.Charged.Sub(totals.Paid) {
		t.Fatalf("report balance %d != totals pending %d", b.Balance.Cents, totals.Charged.Sub(totals.Paid).Cents)
	}
}

// An entity with no related rows yields all-zero outputs, not errors.
func TestZeroSafety(t *testing.T) {
	if b := ComputeFarmerBalance(1, nil, nil); b.Total.Cents != 0 || b.Balance.Cents != 0 {
		t.Fatalf("farmer not zero: %+v", b)
	}
	if b := ComputeMachineHarvestingBalance(Machine{ID: 1}, nil, nil, nil); b.Balance.Cents != 0 {
		t.Fatalf("machine not zero: %+v", b)
	}
	if b := ComputeOwnerBalance(1, nil, nil, nil, nil, nil); b.Balance.Cents != 0 {
		t.Fatalf("owner not zero: %+v", b)
	}
	if b := ComputeDealerBalance(1, nil, nil); b.Balance.Cents != 0 {
		t.Fatalf("dealer not zero: %+v", b)
	}
}

// Overpayment yields a negative balance, not a clamped zero.
func TestNegativeBalancePreserved(t *testing.T) {
	jobs := []HarvestingJob{
		{FarmerID: 1, Hours: Hours{Minutes: 60}, Rate: Money{Cents: 50000}},
	}
	payments := []Payment{
		{Type: PaymentFromFarmer, FarmerID: 1, Amount: Money{Cents: 80000}},
	}
	b := ComputeFarmerBalance(1, jobs, payments)
	if b.Balance.Cents != -30000 {
		t.Fatalf("balance = %d; want -30000", b.Balance.Cents)
	}
}
