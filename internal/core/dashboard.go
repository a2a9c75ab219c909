package core

// SummaryFilter narrows the dashboard to one machine and/or one
// village. Filtering is a pure pre-filter on the row sets; the formulas
// downstream never change. A filter that matches nothing yields all-zero
// aggregates, not an error.
type SummaryFilter struct {
	MachineID int64  // 0 means all machines
	Village   string // empty means all villages
}

// HarvestingSummary is the harvesting business unit rollup.
type HarvestingSummary struct {
	TotalRevenue        Money // Σ job revenue
	TotalToPayToOwners  Money // Σ hours × machine owner rate
	Profit              Money // TotalRevenue − TotalToPayToOwners
	DiscountsFromOwners Money // informational, already inside the owner/revenue gap
	DiscountsToFarmers  Money // informational
	Jobs                int
}

// RentalSummary is the dealer-rental business unit rollup.
type RentalSummary struct {
	TotalRevenue   Money // Σ rental totalAmountCharged
	TotalOwnerCost Money // Σ rental totalCostToOwner
	TotalProfit    Money
	Rentals        int
}

// CombinedSummary adds the two units together.
type CombinedSummary struct {
	TotalRevenue Money
	TotalProfit  Money
}

// Summary is the full dashboard picture.
type Summary struct {
	Harvesting    HarvestingSummary
	DealerRentals RentalSummary
	Combined      CombinedSummary
}

// BuildSummary aggregates the dashboard from raw rows. Jobs whose
// machine is missing from the provided set are excluded (their owner
// cost is unknowable); village filtering resolves through the farmer
// for jobs and through the dealer for rentals.
func BuildSummary(filter SummaryFilter, jobs []HarvestingJob, machines []Machine, farmers []Farmer, rentals []MachineRental, dealers []Dealer) Summary {
	machineByID := make(map[int64]Machine, len(machines))
	for _, m := range machines {
		machineByID[m.ID] = m
	}
	farmerVillage := make(map[int64]string, len(farmers))
	for _, f := range farmers {
		farmerVillage[f.ID] = f.Village
	}
	dealerVillage := make(map[int64]string, len(dealers))
	for _, d := range dealers {
		dealerVillage[d.ID] = d.Village
	}

	var s Summary
	for _, j := range jobs {
		if filter.MachineID != 0 && j.MachineID != filter.MachineID {
			continue
		}
		if filter.Village != "" && farmerVillage[j.FarmerID] != filter.Village {
			continue
		}
		m, ok := machineByID[j.MachineID]
		if !ok {
			continue
		}
		s.Harvesting.Jobs++
		s.Harvesting.TotalRevenue = s.Harvesting.TotalRevenue.Add(j.Revenue())
		s.Harvesting.TotalToPayToOwners = s.Harvesting.TotalToPayToOwners.Add(j.Hours.Times(m.OwnerRate))
		s.Harvesting.DiscountsFromOwners = s.Harvesting.DiscountsFromOwners.Add(j.DiscountFromOwner)
		s.Harvesting.DiscountsToFarmers = s.Harvesting.DiscountsToFarmers.Add(j.DiscountToFarmer)
	}
	s.Harvesting.Profit = s.Harvesting.TotalRevenue.Sub(s.Harvesting.TotalToPayToOwners)

	for _, r := range rentals {
		if filter.MachineID != 0 && r.MachineID != filter.MachineID {
			continue
		}
		if filter.Village != "" && dealerVillage[r.DealerID] != filter.Village {
			continue
		}
		s.DealerRentals.Rentals++
		s.DealerRentals.TotalRevenue = s.DealerRentals.TotalRevenue.Add(r.TotalCharged)
		s.DealerRentals.TotalOwnerCost = s.DealerRentals.TotalOwnerCost.Add(r.TotalOwnerCost)
	}
	s.DealerRentals.TotalProfit = s.DealerRentals.TotalRevenue.Sub(s.DealerRentals.TotalOwnerCost)

	s.Combined.TotalRevenue = s.Harvesting.TotalRevenue.Add(s.DealerRentals.TotalRevenue)
	s.Combined.TotalProfit = s.Harvesting.Profit.Add(s.DealerRentals.TotalProfit)
	return s
}
