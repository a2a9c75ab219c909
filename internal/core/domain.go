package core

import (
	"errors"
	"strings"
	"time"
)

type (
	JobStatus      string
	RentalStatus   string
	PaymentStatus  string
	PaymentType    string
	BusinessSource string
	AdvancePayer   string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Hours is a duration of machine work stored as whole minutes.
	// Fractional hours entered by operators (e.g. "2.5") become minutes/60.
	Hours struct {
		Minutes int64
	}
)

const (
	JobScheduled      JobStatus = "Scheduled"
	JobInProgress     JobStatus = "In Progress"
	JobCompleted      JobStatus = "Completed"
	JobCancelled      JobStatus = "Cancelled"
	JobPendingPayment JobStatus = "Pending Payment"

	RentalActive    RentalStatus = "Active"
	RentalCompleted RentalStatus = "Completed"
	RentalCancelled RentalStatus = "Cancelled"

	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"

	PaymentToOwner    PaymentType = "To Machine Owner"
	PaymentFromFarmer PaymentType = "From Farmer"

	SourceHarvesting BusinessSource = "harvesting"
	SourceRental     BusinessSource = "rental"

	PaidByOwner  AdvancePayer = "Owner"
	PaidByFarmer AdvancePayer = "Farmer"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidHours   = errors.New("invalid hours")
	ErrEmptyName      = errors.New("empty name")
	ErrEmptyVillage   = errors.New("empty village")
	ErrMissingFarmer  = errors.New("missing farmer reference")
	ErrMissingMachine = errors.New("missing machine reference")
	ErrMissingDealer  = errors.New("missing dealer reference")
	ErrMissingRental  = errors.New("missing rental reference")
	ErrBadStatus      = errors.New("invalid status")
	ErrBadPaymentType = errors.New("invalid payment type")
	ErrBadSource      = errors.New("invalid business source")
	ErrBadPayer       = errors.New("invalid payer")
)

// Farmer is a harvesting customer. TotalPending and TotalPaid are
// denormalized running totals maintained by the ledger service; the
// reconciler treats the from-scratch computation as authoritative.
type Farmer struct {
	ID           int64
	Name         string
	Phone        string
	Village      string
	TotalPending Money
	TotalPaid    Money
}

// MachineOwner owns one or more machines. DefaultRate seeds the owner
// rate on newly registered machines.
type MachineOwner struct {
	ID           int64
	Name         string
	Phone        string
	Village      string
	DefaultRate  Money
	TotalPending Money
	TotalPaid    Money
}

// Machine belongs to exactly one owner. OwnerRate is the cost basis we
// pay the owner per hour; it is distinct from any farmer-facing rate.
type Machine struct {
	ID          int64
	OwnerID     int64
	Name        string
	Type        string
	OwnerRate   Money
	DriverName  string
	DriverPhone string
}

// HarvestingJob is work done by a machine for a farmer. Rate is the
// farmer-facing revenue rate; the owner side is always priced with the
// machine's OwnerRate.
type HarvestingJob struct {
	ID                int64
	FarmerID          int64
	MachineID         int64
	Date              Date
	Hours             Hours
	Rate              Money
	Total             Money // stored revenue; zero means derive from Hours×Rate
	AdvanceFromFarmer Money
	DiscountFromOwner Money
	DiscountToFarmer  Money
	Status            JobStatus
	Notes             string
}

// Revenue returns the stored total when present, otherwise Hours×Rate
// recomputed on the fly.
func (j HarvestingJob) Revenue() Money {
	if j.Total.Cents != 0 {
		return j.Total
	}
	return j.Hours.Times(j.Rate)
}

// MachineRental is a machine hired out to a dealer. TotalCharged,
// TotalOwnerCost and ProfitMargin are derived from hours and the two
// rates; ProfitMargin is never an independent fact.
type MachineRental struct {
	ID             int64
	DealerID       int64
	MachineID      int64
	StartDate      Date
	Hours          Hours
	DealerRate     Money // revenue per hour charged to the dealer
	OwnerRate      Money // cost per hour owed to the owner, copied from the machine at creation
	TotalCharged   Money
	TotalOwnerCost Money
	ProfitMargin   Money
	AdvancePaid    Money
	Status         RentalStatus
}

// Dealer hires machines for resale of capacity. Running totals follow
// the same denormalization pattern as Farmer.
type Dealer struct {
	ID           int64
	Name         string
	Phone        string
	Village      string
	TotalCharged Money
	TotalPaid    Money
}

// Balance is what the dealer still owes.
func (d Dealer) Balance() Money {
	return d.TotalCharged.Sub(d.TotalPaid)
}

// Payment settles money with an owner or a farmer. Source only matters
// for owner payments; farmer payments are always harvesting money.
type Payment struct {
	ID        int64
	Receipt   string
	Type      PaymentType
	FarmerID  int64 // set when Type is PaymentFromFarmer
	MachineID int64 // set when Type is PaymentToOwner
	JobID     int64 // optional link
	RentalID  int64 // optional link
	Amount    Money
	Source    BusinessSource
	Method    string
	Date      Date
	Status    PaymentStatus
}

// RentalPayment is money received from a dealer against a rental.
type RentalPayment struct {
	ID       int64
	RentalID int64
	DealerID int64
	Amount   Money
	Date     Date
	Method   string
}

// DailyAdvance is cash handed to a driver during a working day. PaidBy
// names which running balance absorbs it.
type DailyAdvance struct {
	ID        int64
	MachineID int64
	Amount    Money
	Date      Date
	PaidBy    AdvancePayer
	Note      string
}

// MachineExpense is an operating cost booked against a machine (fuel,
// repairs, driver food).
type MachineExpense struct {
	ID          int64
	MachineID   int64
	Amount      Money
	Date        Date
	Description string
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (f Farmer) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(f.Village) == "" {
		return ErrEmptyVillage
	}
	return nil
}

func (o MachineOwner) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyName
	}
	if o.DefaultRate.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Machine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.OwnerID == 0 {
		return errors.New("missing owner reference")
	}
	if m.OwnerRate.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (j HarvestingJob) Validate() error {
	if j.FarmerID == 0 {
		return ErrMissingFarmer
	}
	if j.MachineID == 0 {
		return ErrMissingMachine
	}
	if err := j.Date.Validate(); err != nil {
		return err
	}
	if j.Hours.Minutes <= 0 {
		return ErrInvalidHours
	}
	if j.Rate.Cents <= 0 {
		return ErrInvalidAmount
	}
	if j.AdvanceFromFarmer.Cents < 0 || j.DiscountFromOwner.Cents < 0 || j.DiscountToFarmer.Cents < 0 {
		return ErrInvalidAmount
	}
	switch j.Status {
	case JobScheduled, JobInProgress, JobCompleted, JobCancelled, JobPendingPayment:
	default:
		return ErrBadStatus
	}
	return nil
}

func (r MachineRental) Validate() error {
	if r.DealerID == 0 {
		return ErrMissingDealer
	}
	if r.MachineID == 0 {
		return ErrMissingMachine
	}
	if err := r.StartDate.Validate(); err != nil {
		return err
	}
	if r.Hours.Minutes < 0 {
		return ErrInvalidHours
	}
	if r.DealerRate.Cents <= 0 || r.OwnerRate.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch r.Status {
	case RentalActive, RentalCompleted, RentalCancelled:
	default:
		return ErrBadStatus
	}
	return nil
}

func (d Dealer) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(d.Village) == "" {
		return ErrEmptyVillage
	}
	return nil
}

func (p Payment) Validate() error {
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	switch p.Type {
	case PaymentToOwner:
		if p.MachineID == 0 {
			return ErrMissingMachine
		}
		switch p.Source {
		case SourceHarvesting, SourceRental:
		default:
			return ErrBadSource
		}
	case PaymentFromFarmer:
		if p.FarmerID == 0 {
			return ErrMissingFarmer
		}
	default:
		return ErrBadPaymentType
	}
	switch p.Status {
	case PaymentPending, PaymentCompleted, PaymentFailed:
	default:
		return ErrBadStatus
	}
	return nil
}

func (rp RentalPayment) Validate() error {
	if rp.RentalID == 0 {
		return ErrMissingRental
	}
	if rp.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return rp.Date.Validate()
}

func (a DailyAdvance) Validate() error {
	if a.MachineID == 0 {
		return ErrMissingMachine
	}
	if a.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch a.PaidBy {
	case PaidByOwner, PaidByFarmer:
	default:
		return ErrBadPayer
	}
	return a.Date.Validate()
}

func (e MachineExpense) Validate() error {
	if e.MachineID == 0 {
		return ErrMissingMachine
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return e.Date.Validate()
}
