package core

import (
	"errors"
	"testing"
)

func TestJobValidate(t *testing.T) {
	good := HarvestingJob{
		FarmerID: 1, MachineID: 2, Date: NewDate(2025, 6, 1),
		Hours: Hours{Minutes: 120}, Rate: Money{Cents: 60000}, Status: JobScheduled,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*HarvestingJob)
		want   error
	}{
		{func(j *HarvestingJob) { j.FarmerID = 0 }, ErrMissingFarmer},
		{func(j *HarvestingJob) { j.MachineID = 0 }, ErrMissingMachine},
		{func(j *HarvestingJob) { j.Hours.Minutes = 0 }, ErrInvalidHours},
		{func(j *HarvestingJob) { j.Rate.Cents = 0 }, ErrInvalidAmount},
		{func(j *HarvestingJob) { j.DiscountToFarmer.Cents = -1 }, ErrInvalidAmount},
		{func(j *HarvestingJob) { j.Status = "Done" }, ErrBadStatus},
	}
	for i, tc := range cases {
		j := good
		tc.mutate(&j)
		if err := j.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v; want %v", i, err, tc.want)
		}
	}
}

func TestRentalValidate(t *testing.T) {
	good := MachineRental{
		DealerID: 1, MachineID: 2, StartDate: NewDate(2025, 6, 1),
		Hours: Hours{Minutes: 600}, DealerRate: Money{Cents: 80000},
		OwnerRate: Money{Cents: 50000}, Status: RentalActive,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.DealerID = 0
	if err := bad.Validate(); !errors.Is(err, ErrMissingDealer) {
		t.Fatalf("got %v; want ErrMissingDealer", err)
	}
	bad = good
	bad.Status = "Open"
	if err := bad.Validate(); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("got %v; want ErrBadStatus", err)
	}
}

func TestPaymentValidate(t *testing.T) {
	owner := Payment{
		Type: PaymentToOwner, MachineID: 1, Amount: Money{Cents: 100000},
		Source: SourceHarvesting, Date: NewDate(2025, 6, 1), Status: PaymentCompleted,
	}
	if err := owner.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	farmer := Payment{
		Type: PaymentFromFarmer, FarmerID: 2, Amount: Money{Cents: 50000},
		Date: NewDate(2025, 6, 1), Status: PaymentCompleted,
	}
	if err := farmer.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := owner
	bad.Source = "trading"
	if err := bad.Validate(); !errors.Is(err, ErrBadSource) {
		t.Fatalf("got %v; want ErrBadSource", err)
	}
	bad = owner
	bad.MachineID = 0
	if err := bad.Validate(); !errors.Is(err, ErrMissingMachine) {
		t.Fatalf("got %v; want ErrMissingMachine", err)
	}
	bad = farmer
	bad.FarmerID = 0
	if err := bad.Validate(); !errors.Is(err, ErrMissingFarmer) {
		t.Fatalf("got %v; want ErrMissingFarmer", err)
	}
	bad = farmer
	bad.Type = "Cash"
	if err := bad.Validate(); !errors.Is(err, ErrBadPaymentType) {
		t.Fatalf("got %v; want ErrBadPaymentType", err)
	}
}

func TestAdvanceValidate(t *testing.T) {
	good := DailyAdvance{MachineID: 1, Amount: Money{Cents: 5000}, Date: NewDate(2025, 6, 1), PaidBy: PaidByOwner}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.PaidBy = "Driver"
	if err := bad.Validate(); !errors.Is(err, ErrBadPayer) {
		t.Fatalf("got %v; want ErrBadPayer", err)
	}
}

func TestJobRevenueFallback(t *testing.T) {
	j := HarvestingJob{Hours: Hours{Minutes: 150}, Rate: Money{Cents: 60000}}
	if got := j.Revenue(); got.Cents != 150000 {
		t.Fatalf("derived revenue = %d; want 150000", got.Cents)
	}
	j.Total = Money{Cents: 99999}
	if got := j.Revenue(); got.Cents != 99999 {
		t.Fatalf("stored revenue = %d; want 99999", got.Cents)
	}
}

func TestDealerBalanceField(t *testing.T) {
	d := Dealer{TotalCharged: Money{Cents: 500}, TotalPaid: Money{Cents: 800}}
	if got := d.Balance(); got.Cents != -300 {
		t.Fatalf("balance = %d; want -300", got.Cents)
	}
}
