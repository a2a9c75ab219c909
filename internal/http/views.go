package http

import (
	"harvestbook/internal/core"
)

// Response views. Money renders as plain decimal strings and hours as
// decimal hours, matching what the ingestion boundary accepts.

type farmerView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Village      string `json:"village"`
	TotalPending string `json:"total_pending"`
	TotalPaid    string `json:"total_paid"`
}

func viewFarmer(f core.Farmer) farmerView {
	return farmerView{
		ID:           f.ID,
		Name:         f.Name,
		Phone:        f.Phone,
		Village:      f.Village,
		TotalPending: f.TotalPending.String(),
		TotalPaid:    f.TotalPaid.String(),
	}
}

type ownerView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Village      string `json:"village,omitempty"`
	DefaultRate  string `json:"default_rate"`
	TotalPending string `json:"total_pending"`
	TotalPaid    string `json:"total_paid"`
}

func viewOwner(o core.MachineOwner) ownerView {
	return ownerView{
		ID:           o.ID,
		Name:         o.Name,
		Phone:        o.Phone,
		Village:      o.Village,
		DefaultRate:  o.DefaultRate.String(),
		TotalPending: o.TotalPending.String(),
		TotalPaid:    o.TotalPaid.String(),
	}
}

type machineView struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	OwnerRate   string `json:"owner_rate"`
	DriverName  string `json:"driver_name,omitempty"`
	DriverPhone string `json:"driver_phone,omitempty"`
}

func viewMachine(m core.Machine) machineView {
	return machineView{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Type:        m.Type,
		OwnerRate:   m.OwnerRate.String(),
		DriverName:  m.DriverName,
		DriverPhone: m.DriverPhone,
	}
}

type dealerView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Village      string `json:"village"`
	TotalCharged string `json:"total_charged"`
	TotalPaid    string `json:"total_paid"`
	Balance      string `json:"balance"`
}

func viewDealer(d core.Dealer) dealerView {
	return dealerView{
		ID:           d.ID,
		Name:         d.Name,
		Phone:        d.Phone,
		Village:      d.Village,
		TotalCharged: d.TotalCharged.String(),
		TotalPaid:    d.TotalPaid.String(),
		Balance:      d.Balance().String(),
	}
}

type jobView struct {
	ID                int64  `json:"id"`
	FarmerID          int64  `json:"farmer_id"`
	MachineID         int64  `json:"machine_id"`
	Date              string `json:"date"`
	Hours             string `json:"hours"`
	Rate              string `json:"rate"`
	Total             string `json:"total"`
	AdvanceFromFarmer string `json:"advance_from_farmer"`
	DiscountFromOwner string `json:"discount_from_owner"`
	DiscountToFarmer  string `json:"discount_to_farmer"`
	Status            string `json:"status"`
	Notes             string `json:"notes,omitempty"`
}

func viewJob(j core.HarvestingJob) jobView {
	return jobView{
		ID:                j.ID,
		FarmerID:          j.FarmerID,
		MachineID:         j.MachineID,
		Date:              j.Date.Format(dateLayout),
		Hours:             j.Hours.Decimal(),
		Rate:              j.Rate.String(),
		Total:             j.Revenue().String(),
		AdvanceFromFarmer: j.AdvanceFromFarmer.String(),
		DiscountFromOwner: j.DiscountFromOwner.String(),
		DiscountToFarmer:  j.DiscountToFarmer.String(),
		Status:            string(j.Status),
		Notes:             j.Notes,
	}
}

type jobAmountsView struct {
	GrossOwner                 string `json:"gross_owner"`
	GrossFarmer                string `json:"gross_farmer"`
	NetOwner                   string `json:"net_owner"`
	NetFarmer                  string `json:"net_farmer"`
	OwnerDiscountExceedsGross  bool   `json:"owner_discount_exceeds_gross"`
	FarmerDiscountExceedsGross bool   `json:"farmer_discount_exceeds_gross"`
}

func viewJobAmounts(a core.JobAmounts) jobAmountsView {
	return jobAmountsView{
		GrossOwner:                 a.GrossOwner.String(),
		GrossFarmer:                a.GrossFarmer.String(),
		NetOwner:                   a.NetOwner.String(),
		NetFarmer:                  a.NetFarmer.String(),
		OwnerDiscountExceedsGross:  a.OwnerDiscountExceedsGross,
		FarmerDiscountExceedsGross: a.FarmerDiscountExceedsGross,
	}
}

type rentalView struct {
	ID             int64  `json:"id"`
	DealerID       int64  `json:"dealer_id"`
	MachineID      int64  `json:"machine_id"`
	StartDate      string `json:"start_date"`
	Hours          string `json:"hours"`
	DealerRate     string `json:"dealer_rate"`
	OwnerRate      string `json:"owner_rate"`
	TotalCharged   string `json:"total_charged"`
	TotalOwnerCost string `json:"total_owner_cost"`
	ProfitMargin   string `json:"profit_margin"`
	AdvancePaid    string `json:"advance_paid"`
	Status         string `json:"status"`
}

func viewRental(r core.MachineRental) rentalView {
	return rentalView{
		ID:             r.ID,
		DealerID:       r.DealerID,
		MachineID:      r.MachineID,
		StartDate:      r.StartDate.Format(dateLayout),
		Hours:          r.Hours.Decimal(),
		DealerRate:     r.DealerRate.String(),
		OwnerRate:      r.OwnerRate.String(),
		TotalCharged:   r.TotalCharged.String(),
		TotalOwnerCost: r.TotalOwnerCost.String(),
		ProfitMargin:   r.ProfitMargin.String(),
		AdvancePaid:    r.AdvancePaid.String(),
		Status:         string(r.Status),
	}
}

type paymentView struct {
	ID        int64  `json:"id"`
	Receipt   string `json:"receipt"`
	Type      string `json:"type"`
	FarmerID  int64  `json:"farmer_id,omitempty"`
	MachineID int64  `json:"machine_id,omitempty"`
	JobID     int64  `json:"job_id,omitempty"`
	RentalID  int64  `json:"rental_id,omitempty"`
	Amount    string `json:"amount"`
	Source    string `json:"source,omitempty"`
	Method    string `json:"method,omitempty"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

func viewPayment(p core.Payment) paymentView {
	return paymentView{
		ID:        p.ID,
		Receipt:   p.Receipt,
		Type:      string(p.Type),
		FarmerID:  p.FarmerID,
		MachineID: p.MachineID,
		JobID:     p.JobID,
		RentalID:  p.RentalID,
		Amount:    p.Amount.String(),
		Source:    string(p.Source),
		Method:    p.Method,
		Date:      p.Date.Format(dateLayout),
		Status:    string(p.Status),
	}
}

type rentalPaymentView struct {
	ID       int64  `json:"id"`
	RentalID int64  `json:"rental_id"`
	DealerID int64  `json:"dealer_id"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Method   string `json:"method,omitempty"`
}

func viewRentalPayment(p core.RentalPayment) rentalPaymentView {
	return rentalPaymentView{
		ID:       p.ID,
		RentalID: p.RentalID,
		DealerID: p.DealerID,
		Amount:   p.Amount.String(),
		Date:     p.Date.Format(dateLayout),
		Method:   p.Method,
	}
}

type advanceView struct {
	ID        int64  `json:"id"`
	MachineID int64  `json:"machine_id"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	PaidBy    string `json:"paid_by"`
	Note      string `json:"note,omitempty"`
}

func viewAdvance(a core.DailyAdvance) advanceView {
	return advanceView{
		ID:        a.ID,
		MachineID: a.MachineID,
		Amount:    a.Amount.String(),
		Date:      a.Date.Format(dateLayout),
		PaidBy:    string(a.PaidBy),
		Note:      a.Note,
	}
}

type expenseView struct {
	ID          int64  `json:"id"`
	MachineID   int64  `json:"machine_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func viewExpense(e core.MachineExpense) expenseView {
	return expenseView{
		ID:          e.ID,
		MachineID:   e.MachineID,
		Amount:      e.Amount.String(),
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
	}
}

type farmerBalanceView struct {
	FarmerID          int64  `json:"farmer_id"`
	Total             string `json:"total"`
	Paid              string `json:"paid"`
	Balance           string `json:"balance"`
	DiscountsReceived string `json:"discounts_received"`
	Jobs              int    `json:"jobs"`
}

func viewFarmerBalance(b core.FarmerBalance) farmerBalanceView {
	return farmerBalanceView{
		FarmerID:          b.FarmerID,
		Total:             b.Total.String(),
		Paid:              b.Paid.String(),
		Balance:           b.Balance.String(),
		DiscountsReceived: b.DiscountsReceived.String(),
		Jobs:              b.Jobs,
	}
}

type machineBalanceView struct {
	MachineID  int64 `json:"machine_id"`
	Harvesting struct {
		Earned         string `json:"earned"`
		Expenses       string `json:"expenses"`
		Paid           string `json:"paid"`
		Balance        string `json:"balance"`
		DiscountsGiven string `json:"discounts_given"`
	} `json:"harvesting"`
	Rental struct {
		Owed    string `json:"owed"`
		Paid    string `json:"paid"`
		Balance string `json:"balance"`
	} `json:"rental"`
}

func viewMachineBalance(h core.MachineHarvestingBalance, r core.MachineRentalBalance) machineBalanceView {
	var v machineBalanceView
	v.MachineID = h.MachineID
	v.Harvesting.Earned = h.Earned.String()
	v.Harvesting.Expenses = h.Expenses.String()
	v.Harvesting.Paid = h.Paid.String()
	v.Harvesting.Balance = h.Balance.String()
	v.Harvesting.DiscountsGiven = h.DiscountsGiven.String()
	v.Rental.Owed = r.Owed.String()
	v.Rental.Paid = r.Paid.String()
	v.Rental.Balance = r.Balance.String()
	return v
}

type ownerBalanceView struct {
	OwnerID    int64  `json:"owner_id"`
	Harvesting string `json:"harvesting"`
	Rental     string `json:"rental"`
	Balance    string `json:"balance"`
	Machines   int    `json:"machines"`
}

func viewOwnerBalance(b core.OwnerBalance) ownerBalanceView {
	return ownerBalanceView{
		OwnerID:    b.OwnerID,
		Harvesting: b.Harvesting.String(),
		Rental:     b.Rental.String(),
		Balance:    b.Balance.String(),
		Machines:   b.Machines,
	}
}

type dealerBalanceView struct {
	DealerID int64  `json:"dealer_id"`
	Charged  string `json:"charged"`
	Paid     string `json:"paid"`
	Balance  string `json:"balance"`
	Rentals  int    `json:"rentals"`
}

func viewDealerBalance(b core.DealerBalance) dealerBalanceView {
	return dealerBalanceView{
		DealerID: b.DealerID,
		Charged:  b.Charged.String(),
		Paid:     b.Paid.String(),
		Balance:  b.Balance.String(),
		Rentals:  b.Rentals,
	}
}

type summaryView struct {
	Harvesting struct {
		TotalRevenue        string `json:"total_revenue"`
		TotalToPayToOwners  string `json:"total_to_pay_to_owners"`
		Profit              string `json:"profit"`
		DiscountsFromOwners string `json:"discounts_from_owners"`
		DiscountsToFarmers  string `json:"discounts_to_farmers"`
		Jobs                int    `json:"jobs"`
	} `json:"harvesting"`
	DealerRentals struct {
		TotalRevenue   string `json:"total_revenue"`
		TotalOwnerCost string `json:"total_owner_cost"`
		TotalProfit    string `json:"total_profit"`
		Rentals        int    `json:"rentals"`
	} `json:"dealer_rentals"`
	Combined struct {
		TotalRevenue string `json:"total_revenue"`
		TotalProfit  string `json:"total_profit"`
	} `json:"combined"`
}

func viewSummary(s core.Summary) summaryView {
	var v summaryView
	v.Harvesting.TotalRevenue = s.Harvesting.TotalRevenue.String()
	v.Harvesting.TotalToPayToOwners = s.Harvesting.TotalToPayToOwners.String()
	v.Harvesting.Profit = s.Harvesting.Profit.String()
	v.Harvesting.DiscountsFromOwners = s.Harvesting.DiscountsFromOwners.String()
	v.Harvesting.DiscountsToFarmers = s.Harvesting.DiscountsToFarmers.String()
	v.Harvesting.Jobs = s.Harvesting.Jobs
	v.DealerRentals.TotalRevenue = s.DealerRentals.TotalRevenue.String()
	v.DealerRentals.TotalOwnerCost = s.DealerRentals.TotalOwnerCost.String()
	v.DealerRentals.TotalProfit = s.DealerRentals.TotalProfit.String()
	v.DealerRentals.Rentals = s.DealerRentals.Rentals
	v.Combined.TotalRevenue = s.Combined.TotalRevenue.String()
	v.Combined.TotalProfit = s.Combined.TotalProfit.String()
	return v
}
