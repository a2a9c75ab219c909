package core

// Balance calculation recomputes an entity's financial position from
// the raw transactional rows. Rows are matched by exact foreign-key
// equality; rows referencing something else are skipped, and a row with
// an unresolvable reference simply never matches. Missing numeric
// fields are zero by construction, so sums never produce NaN.

// FarmerBalance is what one farmer owes us for harvesting work.
type FarmerBalance struct {
	FarmerID          int64
	Total             Money // Σ job revenue (stored total, or hours×rate when unset)
	Paid              Money // Σ job advances + Σ "From Farmer" payments
	Balance           Money // Total − Paid; negative means the farmer overpaid
	DiscountsReceived Money // Σ discountToFarmer, reported, not netted into Balance
	Jobs              int
}

// ComputeFarmerBalance aggregates the farmer's position. Balance nets
// against advances and payments only; discounts to the farmer are shown
// separately, matching the books as they are kept today.
func ComputeFarmerBalance(farmerID int64, jobs []HarvestingJob, payments []Payment) FarmerBalance {
	b := FarmerBalance{FarmerID: farmerID}
	for _, j := range jobs {
		if j.FarmerID != farmerID {
			continue
		}
		b.Jobs++
		b.Total = b.Total.Add(j.Revenue())
		b.Paid = b.Paid.Add(j.AdvanceFromFarmer)
		b.DiscountsReceived = b.DiscountsReceived.Add(j.DiscountToFarmer)
	}
	for _, p := range payments {
		if p.Type == PaymentFromFarmer && p.FarmerID == farmerID {
			b.Paid = b.Paid.Add(p.Amount)
		}
	}
	b.Balance = b.Total.Sub(b.Paid)
	return b
}

// MachineHarvestingBalance is the harvesting-side position of one
// machine against its owner.
type MachineHarvestingBalance struct {
	MachineID      int64
	Earned         Money // Σ hours × machine owner rate — the cost basis, never the job rate
	Expenses       Money
	Paid           Money // Σ harvesting-sourced "To Machine Owner" payments
	Balance        Money // Earned − Expenses − Paid
	DiscountsGiven Money // Σ discountFromOwner
}

// ComputeMachineHarvestingBalance aggregates what the machine earned
// for its owner on harvesting jobs. The owner side is priced with
// m.OwnerRate; changing a job's farmer-facing rate never moves this.
func ComputeMachineHarvestingBalance(m Machine, jobs []HarvestingJob, expenses []MachineExpense, payments []Payment) MachineHarvestingBalance {
	b := MachineHarvestingBalance{MachineID: m.ID}
	for _, j := range jobs {
		if j.MachineID != m.ID {
			continue
		}
		b.Earned = b.Earned.Add(j.Hours.Times(m.OwnerRate))
		b.DiscountsGiven = b.DiscountsGiven.Add(j.DiscountFromOwner)
	}
	for _, e := range expenses {
		if e.MachineID == m.ID {
			b.Expenses = b.Expenses.Add(e.Amount)
		}
	}
	for _, p := range payments {
		if p.Type == PaymentToOwner && p.Source == SourceHarvesting && p.MachineID == m.ID {
			b.Paid = b.Paid.Add(p.Amount)
		}
	}
	b.Balance = b.Earned.Sub(b.Expenses).Sub(b.Paid)
	return b
}

// MachineRentalBalance is the rental-side position of one machine.
type MachineRentalBalance struct {
	MachineID int64
	Owed      Money // Σ rental totalCostToOwner
	Paid      Money // Σ rental-sourced "To Machine Owner" payments
	Balance   Money
}

// ComputeMachineRentalBalance aggregates what we owe the owner for the
// machine's dealer rentals.
func ComputeMachineRentalBalance(machineID int64, rentals []MachineRental, payments []Payment) MachineRentalBalance {
	b := MachineRentalBalance{MachineID: machineID}
	for _, r := range rentals {
		if r.MachineID == machineID {
			b.Owed = b.Owed.Add(r.TotalOwnerCost)
		}
	}
	for _, p := range payments {
		if p.Type == PaymentToOwner && p.Source == SourceRental && p.MachineID == machineID {
			b.Paid = b.Paid.Add(p.Amount)
		}
	}
	b.Balance = b.Owed.Sub(b.Paid)
	return b
}

// OwnerBalance rolls both business sides up across every machine the
// owner has. A machine has exactly one owner, so expenses are counted
// once inside its harvesting balance.
type OwnerBalance struct {
	OwnerID    int64
	Harvesting Money // Σ harvesting balances of owned machines
	Rental     Money // Σ rental balances of owned machines
	Balance    Money
	Machines   int
}

// ComputeOwnerBalance sums the per-machine balances for all machines
// owned by ownerID.
func ComputeOwnerBalance(ownerID int64, machines []Machine, jobs []HarvestingJob, rentals []MachineRental, expenses []MachineExpense, payments []Payment) OwnerBalance {
	b := OwnerBalance{OwnerID: ownerID}
	for _, m := range machines {
		if m.OwnerID != ownerID {
			continue
		}
		b.Machines++
		hb := ComputeMachineHarvestingBalance(m, jobs, expenses, payments)
		rb := ComputeMachineRentalBalance(m.ID, rentals, payments)
		b.Harvesting = b.Harvesting.Add(hb.Balance)
		b.Rental = b.Rental.Add(rb.Balance)
	}
	b.Balance = b.Harvesting.Add(b.Rental)
	return b
}

// DealerBalance is what one dealer owes for machine rentals.
type DealerBalance struct {
	DealerID int64
	Charged  Money // Σ rental totalAmountCharged
	Paid     Money // Σ rental advances + rental payments received
	Balance  Money
	Rentals  int
}

// ComputeDealerBalance aggregates the dealer's position from rentals
// and rental payments. A rental's advance counts as paid, matching the
// running totals (see ComputeDealerTotals) and the farmer side, where
// job advances count as paid.
func ComputeDealerBalance(dealerID int64, rentals []MachineRental, payments []RentalPayment) DealerBalance {
	b := DealerBalance{DealerID: dealerID}
	for _, r := range rentals {
		if r.DealerID == dealerID {
			b.Rentals++
			b.Charged = b.Charged.Add(r.TotalCharged)
			b.Paid = b.Paid.Add(r.AdvancePaid)
		}
	}
	for _, p := range payments {
		if p.DealerID == dealerID {
			b.Paid = b.Paid.Add(p.Amount)
		}
	}
	b.Balance = b.Charged.Sub(b.Paid)
	return b
}
