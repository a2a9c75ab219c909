package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"harvestbook/internal/core"
)

const dateLayout = "2006-01-02"

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body", err)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id '"+raw+"'", nil)
	}
	return id, nil
}

// Money, hours and dates arrive as strings so clients never send
// floats. parseMoney rejects non-positive amounts, parseOptionalMoney
// treats empty as zero.

func parseMoney(field, s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, badRequest("invalid "+field+" '"+s+"'", err)
	}
	return core.Money{Cents: cents}, nil
}

func parseOptionalMoney(field, s string) (core.Money, error) {
	cents, err := core.ParseOptionalCents(s)
	if err != nil {
		return core.Money{}, badRequest("invalid "+field+" '"+s+"'", err)
	}
	return core.Money{Cents: cents}, nil
}

func parseHours(field, s string) (core.Hours, error) {
	minutes, err := core.ParseHoursToMinutes(s)
	if err != nil {
		return core.Hours{}, badRequest("invalid "+field+" '"+s+"'", err)
	}
	return core.Hours{Minutes: minutes}, nil
}

func parseDate(field, s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, badRequest("invalid "+field+" '"+s+"' (want YYYY-MM-DD)", err)
	}
	return core.Date{Time: t}, nil
}

type farmerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Village string `json:"village"`
}

func (req farmerRequest) toCore() core.Farmer {
	return core.Farmer{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Village: strings.TrimSpace(req.Village),
	}
}

type ownerRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Village     string `json:"village"`
	DefaultRate string `json:"default_rate"`
}

func (req ownerRequest) toCore() (core.MachineOwner, error) {
	rate, err := parseOptionalMoney("default_rate", req.DefaultRate)
	if err != nil {
		return core.MachineOwner{}, err
	}
	return core.MachineOwner{
		Name:        strings.TrimSpace(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		Village:     strings.TrimSpace(req.Village),
		DefaultRate: rate,
	}, nil
}

type machineRequest struct {
	OwnerID     int64  `json:"owner_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	OwnerRate   string `json:"owner_rate"`
	DriverName  string `json:"driver_name"`
	DriverPhone string `json:"driver_phone"`
}

func (req machineRequest) toCore() (core.Machine, error) {
	rate, err := parseOptionalMoney("owner_rate", req.OwnerRate)
	if err != nil {
		return core.Machine{}, err
	}
	return core.Machine{
		OwnerID:     req.OwnerID,
		Name:        strings.TrimSpace(req.Name),
		Type:        strings.TrimSpace(req.Type),
		OwnerRate:   rate,
		DriverName:  strings.TrimSpace(req.DriverName),
		DriverPhone: strings.TrimSpace(req.DriverPhone),
	}, nil
}

type dealerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Village string `json:"village"`
}

func (req dealerRequest) toCore() core.Dealer {
	return core.Dealer{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Village: strings.TrimSpace(req.Village),
	}
}

type jobRequest struct {
	FarmerID          int64  `json:"farmer_id"`
	MachineID         int64  `json:"machine_id"`
	Date              string `json:"date"`
	Hours             string `json:"hours"`
	Rate              string `json:"rate"`
	AdvanceFromFarmer string `json:"advance_from_farmer"`
	DiscountFromOwner string `json:"discount_from_owner"`
	DiscountToFarmer  string `json:"discount_to_farmer"`
	Status            string `json:"status"`
	Notes             string `json:"notes"`
}

func (req jobRequest) toCore() (core.HarvestingJob, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return core.HarvestingJob{}, err
	}
	hours, err := parseHours("hours", req.Hours)
	if err != nil {
		return core.HarvestingJob{}, err
	}
	rate, err := parseMoney("rate", req.Rate)
	if err != nil {
		return core.HarvestingJob{}, err
	}
	advance, err := parseOptionalMoney("advance_from_farmer", req.AdvanceFromFarmer)
	if err != nil {
		return core.HarvestingJob{}, err
	}
	fromOwner, err := parseOptionalMoney("discount_from_owner", req.DiscountFromOwner)
	if err != nil {
		return core.HarvestingJob{}, err
	}
	toFarmer, err := parseOptionalMoney("discount_to_farmer", req.DiscountToFarmer)
	if err != nil {
		return core.HarvestingJob{}, err
	}
	status := core.JobStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = core.JobScheduled
	}
	return core.HarvestingJob{
		FarmerID:          req.FarmerID,
		MachineID:         req.MachineID,
		Date:              date,
		Hours:             hours,
		Rate:              rate,
		AdvanceFromFarmer: advance,
		DiscountFromOwner: fromOwner,
		DiscountToFarmer:  toFarmer,
		Status:            status,
		Notes:             strings.TrimSpace(req.Notes),
	}, nil
}

type rentalRequest struct {
	DealerID    int64  `json:"dealer_id"`
	MachineID   int64  `json:"machine_id"`
	StartDate   string `json:"start_date"`
	Hours       string `json:"hours"`
	DealerRate  string `json:"dealer_rate"`
	OwnerRate   string `json:"owner_rate"`
	AdvancePaid string `json:"advance_paid"`
	Status      string `json:"status"`
}

func (req rentalRequest) toCore() (core.MachineRental, error) {
	date, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return core.MachineRental{}, err
	}
	hours, err := parseHours("hours", req.Hours)
	if err != nil {
		return core.MachineRental{}, err
	}
	dealerRate, err := parseMoney("dealer_rate", req.DealerRate)
	if err != nil {
		return core.MachineRental{}, err
	}
	// Empty owner_rate means copy the machine's rate at creation.
	ownerRate, err := parseOptionalMoney("owner_rate", req.OwnerRate)
	if err != nil {
		return core.MachineRental{}, err
	}
	advance, err := parseOptionalMoney("advance_paid", req.AdvancePaid)
	if err != nil {
		return core.MachineRental{}, err
	}
	status := core.RentalStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = core.RentalActive
	}
	return core.MachineRental{
		DealerID:    req.DealerID,
		MachineID:   req.MachineID,
		StartDate:   date,
		Hours:       hours,
		DealerRate:  dealerRate,
		OwnerRate:   ownerRate,
		AdvancePaid: advance,
		Status:      status,
	}, nil
}

type paymentRequest struct {
	Type      string `json:"type"`
	FarmerID  int64  `json:"farmer_id"`
	MachineID int64  `json:"machine_id"`
	JobID     int64  `json:"job_id"`
	RentalID  int64  `json:"rental_id"`
	Amount    string `json:"amount"`
	Source    string `json:"source"`
	Method    string `json:"method"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

func (req paymentRequest) toCore() (core.Payment, error) {
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return core.Payment{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return core.Payment{}, err
	}
	return core.Payment{
		Type:      core.PaymentType(strings.TrimSpace(req.Type)),
		FarmerID:  req.FarmerID,
		MachineID: req.MachineID,
		JobID:     req.JobID,
		RentalID:  req.RentalID,
		Amount:    amount,
		Source:    core.BusinessSource(strings.TrimSpace(req.Source)),
		Method:    strings.TrimSpace(req.Method),
		Date:      date,
		Status:    core.PaymentStatus(strings.TrimSpace(req.Status)),
	}, nil
}

type rentalPaymentRequest struct {
	RentalID int64  `json:"rental_id"`
	DealerID int64  `json:"dealer_id"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Method   string `json:"method"`
}

func (req rentalPaymentRequest) toCore() (core.RentalPayment, error) {
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return core.RentalPayment{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return core.RentalPayment{}, err
	}
	return core.RentalPayment{
		RentalID: req.RentalID,
		DealerID: req.DealerID,
		Amount:   amount,
		Date:     date,
		Method:   strings.TrimSpace(req.Method),
	}, nil
}

type advanceRequest struct {
	MachineID int64  `json:"machine_id"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	PaidBy    string `json:"paid_by"`
	Note      string `json:"note"`
}

func (req advanceRequest) toCore() (core.DailyAdvance, error) {
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return core.DailyAdvance{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return core.DailyAdvance{}, err
	}
	return core.DailyAdvance{
		MachineID: req.MachineID,
		Amount:    amount,
		Date:      date,
		PaidBy:    core.AdvancePayer(strings.TrimSpace(req.PaidBy)),
		Note:      strings.TrimSpace(req.Note),
	}, nil
}

type expenseRequest struct {
	MachineID   int64  `json:"machine_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (req expenseRequest) toCore() (core.MachineExpense, error) {
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return core.MachineExpense{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return core.MachineExpense{}, err
	}
	return core.MachineExpense{
		MachineID:   req.MachineID,
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

type discountRequest struct {
	DiscountFromOwner string `json:"discount_from_owner"`
	DiscountToFarmer  string `json:"discount_to_farmer"`
}

type nameRequest struct {
	Name string `json:"name"`
}
