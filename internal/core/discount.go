package core

// JobAmounts is the discount-adjusted money picture of one job. The net
// values are what flows into denormalized running totals and into the
// balance calculator; the gross values never do.
type JobAmounts struct {
	GrossOwner  Money // hours × machine owner rate
	GrossFarmer Money // hours × farmer-facing job rate
	NetOwner    Money // gross owner − discountFromOwner
	NetFarmer   Money // gross farmer − discountToFarmer

	// A discount larger than its gross is permitted (net goes negative,
	// e.g. a free job) but callers must surface it for confirmation.
	OwnerDiscountExceedsGross  bool
	FarmerDiscountExceedsGross bool
}

// AdjustJob applies the job's discounts against the two independent
// sides. ownerRate is the machine's owner rate; the job's own Rate is
// farmer revenue and must never price the owner side.
func AdjustJob(j HarvestingJob, ownerRate Money) JobAmounts {
	grossOwner := j.Hours.Times(ownerRate)
	grossFarmer := j.Hours.Times(j.Rate)
	return JobAmounts{
		GrossOwner:                 grossOwner,
		GrossFarmer:                grossFarmer,
		NetOwner:                   grossOwner.Sub(j.DiscountFromOwner),
		NetFarmer:                  grossFarmer.Sub(j.DiscountToFarmer),
		OwnerDiscountExceedsGross:  j.DiscountFromOwner.Cents > grossOwner.Cents,
		FarmerDiscountExceedsGross: j.DiscountToFarmer.Cents > grossFarmer.Cents,
	}
}

// DiscountDelta is the adjustment to apply to a denormalized pending
// total when a net amount changes from oldNet to newNet. Applying the
// delta, rather than recomputing the total, preserves payments already
// recorded against the old net amount. Round trip d1→d2→d1 sums to zero.
func DiscountDelta(oldNet, newNet Money) Money {
	return newNet.Sub(oldNet)
}

// RentalAmounts are the derived money fields of a rental.
type RentalAmounts struct {
	TotalCharged   Money
	TotalOwnerCost Money
	ProfitMargin   Money
}

// DeriveRental recomputes a rental's charged, cost and margin figures
// from hours and the two hourly rates. ProfitMargin always equals
// TotalCharged − TotalOwnerCost; it is re-derived after every edit.
func DeriveRental(hours Hours, dealerRate, ownerRate Money) RentalAmounts {
	charged := hours.Times(dealerRate)
	cost := hours.Times(ownerRate)
	return RentalAmounts{
		TotalCharged:   charged,
		TotalOwnerCost: cost,
		ProfitMargin:   charged.Sub(cost),
	}
}
