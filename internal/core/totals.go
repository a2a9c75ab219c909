package core

// Running totals are the denormalized pending/paid columns kept on
// farmers, machine owners and dealers so list views never aggregate.
// Unlike the balance reports, running totals absorb discounts: the net
// amounts from the discount adjuster are what accumulate here. The
// functions below recompute each total from the raw rows; they are the
// reconciler's definition of truth when checking stored columns for
// drift.

// NetFarmerAmount is what the farmer owes for one job after their
// discount: stored revenue minus discountToFarmer.
func NetFarmerAmount(j HarvestingJob) Money {
	return j.Revenue().Sub(j.DiscountToFarmer)
}

// NetOwnerAmount is what the owner is owed for one job after their
// discount. ownerRate is the machine's rate, never the job's.
func NetOwnerAmount(j HarvestingJob, ownerRate Money) Money {
	return j.Hours.Times(ownerRate).Sub(j.DiscountFromOwner)
}

type FarmerTotals struct {
	Pending Money // Σ net job amounts − advances − payments received
	Paid    Money // Σ advances + payments received
}

func ComputeFarmerTotals(farmerID int64, jobs []HarvestingJob, payments []Payment) FarmerTotals {
	var t FarmerTotals
	for _, j := range jobs {
		if j.FarmerID != farmerID {
			continue
		}
		t.Pending = t.Pending.Add(NetFarmerAmount(j)).Sub(j.AdvanceFromFarmer)
		t.Paid = t.Paid.Add(j.AdvanceFromFarmer)
	}
	for _, p := range payments {
		if p.Type == PaymentFromFarmer && p.FarmerID == farmerID {
			t.Pending = t.Pending.Sub(p.Amount)
			t.Paid = t.Paid.Add(p.Amount)
		}
	}
	return t
}

type OwnerTotals struct {
	Pending Money // net job amounts + rental costs − expenses − owner-paid advances − payments
	Paid    Money // Σ payments made to the owner
}

func ComputeOwnerTotals(ownerID int64, machines []Machine, jobs []HarvestingJob, rentals []MachineRental, expenses []MachineExpense, advances []DailyAdvance, payments []Payment) OwnerTotals {
	var t OwnerTotals
	owned := make(map[int64]Machine)
	for _, m := range machines {
		if m.OwnerID == ownerID {
			owned[m.ID] = m
		}
	}
	for _, j := range jobs {
		if m, ok := owned[j.MachineID]; ok {
			t.Pending = t.Pending.Add(NetOwnerAmount(j, m.OwnerRate))
		}
	}
	for _, r := range rentals {
		if _, ok := owned[r.MachineID]; ok {
			t.Pending = t.Pending.Add(r.TotalOwnerCost)
		}
	}
	for _, e := range expenses {
		if _, ok := owned[e.MachineID]; ok {
			t.Pending = t.Pending.Sub(e.Amount)
		}
	}
	for _, a := range advances {
		if _, ok := owned[a.MachineID]; ok && a.PaidBy == PaidByOwner {
			t.Pending = t.Pending.Sub(a.Amount)
		}
	}
	for _, p := range payments {
		if _, ok := owned[p.MachineID]; ok && p.Type == PaymentToOwner {
			t.Pending = t.Pending.Sub(p.Amount)
			t.Paid = t.Paid.Add(p.Amount)
		}
	}
	return t
}

type DealerTotals struct {
	Charged Money // Σ rental charges
	Paid    Money // Σ rental advances + rental payments
}

func ComputeDealerTotals(dealerID int64, rentals []MachineRental, payments []RentalPayment) DealerTotals {
	var t DealerTotals
	for _, r := range rentals {
		if r.DealerID == dealerID {
			t.Charged = t.Charged.Add(r.TotalCharged)
			t.Paid = t.Paid.Add(r.AdvancePaid)
		}
	}
	for _, p := range payments {
		if p.DealerID == dealerID {
			t.Paid = t.Paid.Add(p.Amount)
		}
	}
	return t
}
