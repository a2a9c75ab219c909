// Package services orchestrates ledger writes: every mutation derives
// its money fields in core, applies the matching running-total delta in
// the same storage transaction, then notifies the reconcile worker.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"harvestbook/internal/amqp"
	"harvestbook/internal/core"
	"harvestbook/internal/storage"
)

// ErrReassignment is returned when an edit tries to move a job or
// rental to a different farmer, machine or dealer. Delete and recreate
// instead; moving rows between parties would need a two-sided delta.
var ErrReassignment = errors.New("cannot reassign to a different party")

// ErrRateLocked is returned when a machine edit tries to change the
// owner or the owner rate while jobs still reference the machine. The
// owner's accumulated pending is priced with the old rate; repricing in
// place would strand it.
var ErrRateLocked = errors.New("owner and rate are locked while jobs reference the machine")

// LedgerService coordinates SQLite writes with AMQP change events.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

func (s *LedgerService) Storage() *storage.SQLiteRepository {
	return s.storage
}

// ---- machines ----

// UpdateMachine edits machine metadata. Changing the owner or the
// owner rate is allowed only while no jobs reference the machine, so
// the running totals already accumulated never drift from their rows.
func (s *LedgerService) UpdateMachine(ctx context.Context, m core.Machine) error {
	if err := m.Validate(); err != nil {
		return err
	}

	old, err := s.storage.GetMachine(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("load machine: %w", err)
	}
	if old.OwnerID != m.OwnerID || old.OwnerRate != m.OwnerRate {
		jobs, err := s.storage.CountJobsByMachine(ctx, m.ID)
		if err != nil {
			return err
		}
		if jobs > 0 {
			return ErrRateLocked
		}
	}

	if err := s.storage.UpdateMachine(ctx, m); err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	return nil
}

// ---- harvesting jobs ----

// CreateJob prices the job, applies the forward delta to the farmer's
// and owner's running totals, and stores everything atomically. The
// returned amounts carry the exceeds-gross warning flags for the
// caller to surface.
func (s *LedgerService) CreateJob(ctx context.Context, j core.HarvestingJob) (int64, core.JobAmounts, error) {
	if err := j.Validate(); err != nil {
		return 0, core.JobAmounts{}, err
	}

	m, err := s.storage.GetMachine(ctx, j.MachineID)
	if err != nil {
		return 0, core.JobAmounts{}, fmt.Errorf("load machine: %w", err)
	}
	if _, err := s.storage.GetFarmer(ctx, j.FarmerID); err != nil {
		return 0, core.JobAmounts{}, fmt.Errorf("load farmer: %w", err)
	}

	amounts := core.AdjustJob(j, m.OwnerRate)
	if j.Total.Cents == 0 {
		j.Total = amounts.GrossFarmer
	}

	delta := storage.TotalsDelta{
		FarmerID:      j.FarmerID,
		FarmerPending: core.NetFarmerAmount(j).Sub(j.AdvanceFromFarmer),
		FarmerPaid:    j.AdvanceFromFarmer,
		OwnerID:       m.OwnerID,
		OwnerPending:  core.NetOwnerAmount(j, m.OwnerRate),
	}
	id, err := s.storage.CreateJob(ctx, j, delta)
	if err != nil {
		return 0, core.JobAmounts{}, fmt.Errorf("create job: %w", err)
	}

	s.publish(ctx, amqp.KindJob, id, amqp.OpCreated)
	return id, amounts, nil
}

// UpdateJob edits a job in place. The delta applied is the difference
// between the new and old net amounts, so payments already recorded
// against the job survive the edit.
func (s *LedgerService) UpdateJob(ctx context.Context, j core.HarvestingJob) (core.JobAmounts, error) {
	if err := j.Validate(); err != nil {
		return core.JobAmounts{}, err
	}

	old, err := s.storage.GetJob(ctx, j.ID)
	if err != nil {
		return core.JobAmounts{}, fmt.Errorf("load job: %w", err)
	}
	if old.FarmerID != j.FarmerID || old.MachineID != j.MachineID {
		return core.JobAmounts{}, ErrReassignment
	}

	m, err := s.storage.GetMachine(ctx, j.MachineID)
	if err != nil {
		return core.JobAmounts{}, fmt.Errorf("load machine: %w", err)
	}

	amounts := core.AdjustJob(j, m.OwnerRate)
	if j.Total.Cents == 0 {
		j.Total = amounts.GrossFarmer
	}

	delta := storage.TotalsDelta{
		FarmerID: j.FarmerID,
		FarmerPending: core.DiscountDelta(
			core.NetFarmerAmount(old).Sub(old.AdvanceFromFarmer),
			core.NetFarmerAmount(j).Sub(j.AdvanceFromFarmer)),
		FarmerPaid: j.AdvanceFromFarmer.Sub(old.AdvanceFromFarmer),
		OwnerID:    m.OwnerID,
		OwnerPending: core.DiscountDelta(
			core.NetOwnerAmount(old, m.OwnerRate),
			core.NetOwnerAmount(j, m.OwnerRate)),
	}
	if err := s.storage.UpdateJob(ctx, j, delta); err != nil {
		return core.JobAmounts{}, fmt.Errorf("update job: %w", err)
	}

	s.publish(ctx, amqp.KindJob, j.ID, amqp.OpUpdated)
	return amounts, nil
}

// AdjustJobDiscounts edits only the two discount fields, applying
// newNet − oldNet to each side's pending total.
func (s *LedgerService) AdjustJobDiscounts(ctx context.Context, jobID int64, fromOwner, toFarmer core.Money) (core.JobAmounts, error) {
	if fromOwner.Cents < 0 || toFarmer.Cents < 0 {
		return core.JobAmounts{}, core.ErrInvalidAmount
	}

	old, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return core.JobAmounts{}, fmt.Errorf("load job: %w", err)
	}
	m, err := s.storage.GetMachine(ctx, old.MachineID)
	if err != nil {
		return core.JobAmounts{}, fmt.Errorf("load machine: %w", err)
	}

	j := old
	j.DiscountFromOwner = fromOwner
	j.DiscountToFarmer = toFarmer
	amounts := core.AdjustJob(j, m.OwnerRate)

	delta := storage.TotalsDelta{
		FarmerID:      j.FarmerID,
		FarmerPending: core.DiscountDelta(core.NetFarmerAmount(old), core.NetFarmerAmount(j)),
		OwnerID:       m.OwnerID,
		OwnerPending:  core.DiscountDelta(core.NetOwnerAmount(old, m.OwnerRate), core.NetOwnerAmount(j, m.OwnerRate)),
	}
	if err := s.storage.UpdateJob(ctx, j, delta); err != nil {
		return core.JobAmounts{}, fmt.Errorf("update job discounts: %w", err)
	}

	if amounts.OwnerDiscountExceedsGross || amounts.FarmerDiscountExceedsGross {
		slog.WarnContext(ctx, "Discount exceeds gross amount",
			"job_id", jobID,
			"owner_exceeds", amounts.OwnerDiscountExceedsGross,
			"farmer_exceeds", amounts.FarmerDiscountExceedsGross)
	}

	s.publish(ctx, amqp.KindJob, jobID, amqp.OpUpdated)
	return amounts, nil
}

// DeleteJob removes the job and reverses its forward delta.
func (s *LedgerService) DeleteJob(ctx context.Context, jobID int64) error {
	j, err := s.storage.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	m, err := s.storage.GetMachine(ctx, j.MachineID)
	if err != nil {
		return fmt.Errorf("load machine: %w", err)
	}

	delta := storage.TotalsDelta{
		FarmerID:      j.FarmerID,
		FarmerPending: core.NetFarmerAmount(j).Sub(j.AdvanceFromFarmer).Neg(),
		FarmerPaid:    j.AdvanceFromFarmer.Neg(),
		OwnerID:       m.OwnerID,
		OwnerPending:  core.NetOwnerAmount(j, m.OwnerRate).Neg(),
	}
	if err := s.storage.DeleteJob(ctx, jobID, delta); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	s.publish(ctx, amqp.KindJob, jobID, amqp.OpDeleted)
	return nil
}

// ---- machine rentals ----

// CreateRental derives the charged, cost and margin figures from hours
// and the two rates; client-supplied derived fields are ignored.
func (s *LedgerService) CreateRental(ctx context.Context, r core.MachineRental) (int64, error) {
	m, err := s.storage.GetMachine(ctx, r.MachineID)
	if err != nil {
		return 0, fmt.Errorf("load machine: %w", err)
	}
	if _, err := s.storage.GetDealer(ctx, r.DealerID); err != nil {
		return 0, fmt.Errorf("load dealer: %w", err)
	}

	if r.OwnerRate.Cents == 0 {
		r.OwnerRate = m.OwnerRate
	}
	derived := core.DeriveRental(r.Hours, r.DealerRate, r.OwnerRate)
	r.TotalCharged = derived.TotalCharged
	r.TotalOwnerCost = derived.TotalOwnerCost
	r.ProfitMargin = derived.ProfitMargin

	if err := r.Validate(); err != nil {
		return 0, err
	}

	delta := storage.TotalsDelta{
		DealerID:      r.DealerID,
		DealerCharged: r.TotalCharged,
		DealerPaid:    r.AdvancePaid,
		OwnerID:       m.OwnerID,
		OwnerPending:  r.TotalOwnerCost,
	}
	id, err := s.storage.CreateRental(ctx, r, delta)
	if err != nil {
		return 0, fmt.Errorf("create rental: %w", err)
	}

	s.publish(ctx, amqp.KindRental, id, amqp.OpCreated)
	return id, nil
}

// UpdateRental re-derives the money fields and applies the difference
// against the old row.
func (s *LedgerService) UpdateRental(ctx context.Context, r core.MachineRental) error {
	old, err := s.storage.GetRental(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("load rental: %w", err)
	}
	if old.DealerID != r.DealerID || old.MachineID != r.MachineID {
		return ErrReassignment
	}

	m, err := s.storage.GetMachine(ctx, r.MachineID)
	if err != nil {
		return fmt.Errorf("load machine: %w", err)
	}

	if r.OwnerRate.Cents == 0 {
		r.OwnerRate = old.OwnerRate
	}
	derived := core.DeriveRental(r.Hours, r.DealerRate, r.OwnerRate)
	r.TotalCharged = derived.TotalCharged
	r.TotalOwnerCost = derived.TotalOwnerCost
	r.ProfitMargin = derived.ProfitMargin

	if err := r.Validate(); err != nil {
		return err
	}

	delta := storage.TotalsDelta{
		DealerID:      r.DealerID,
		DealerCharged: r.TotalCharged.Sub(old.TotalCharged),
		DealerPaid:    r.AdvancePaid.Sub(old.AdvancePaid),
		OwnerID:       m.OwnerID,
		OwnerPending:  r.TotalOwnerCost.Sub(old.TotalOwnerCost),
	}
	if err := s.storage.UpdateRental(ctx, r, delta); err != nil {
		return fmt.Errorf("update rental: %w", err)
	}

	s.publish(ctx, amqp.KindRental, r.ID, amqp.OpUpdated)
	return nil
}

func (s *LedgerService) DeleteRental(ctx context.Context, rentalID int64) error {
	r, err := s.storage.GetRental(ctx, rentalID)
	if err != nil {
		return fmt.Errorf("load rental: %w", err)
	}
	m, err := s.storage.GetMachine(ctx, r.MachineID)
	if err != nil {
		return fmt.Errorf("load machine: %w", err)
	}

	delta := storage.TotalsDelta{
		DealerID:      r.DealerID,
		DealerCharged: r.TotalCharged.Neg(),
		DealerPaid:    r.AdvancePaid.Neg(),
		OwnerID:       m.OwnerID,
		OwnerPending:  r.TotalOwnerCost.Neg(),
	}
	if err := s.storage.DeleteRental(ctx, rentalID, delta); err != nil {
		return fmt.Errorf("delete rental: %w", err)
	}

	s.publish(ctx, amqp.KindRental, rentalID, amqp.OpDeleted)
	return nil
}

// ---- payments ----

// CreatePayment records a payment and moves the counterparty's pending
// total to paid. A fresh receipt number is assigned.
func (s *LedgerService) CreatePayment(ctx context.Context, p core.Payment) (int64, string, error) {
	p.Receipt = uuid.NewString()
	if p.Status == "" {
		p.Status = core.PaymentCompleted
	}
	if p.Type == core.PaymentFromFarmer {
		// businessSource only distinguishes owner payments.
		p.Source = core.SourceHarvesting
	}
	if err := p.Validate(); err != nil {
		return 0, "", err
	}

	var delta storage.TotalsDelta
	switch p.Type {
	case core.PaymentFromFarmer:
		if _, err := s.storage.GetFarmer(ctx, p.FarmerID); err != nil {
			return 0, "", fmt.Errorf("load farmer: %w", err)
		}
		delta = storage.TotalsDelta{
			FarmerID:      p.FarmerID,
			FarmerPending: p.Amount.Neg(),
			FarmerPaid:    p.Amount,
		}
	case core.PaymentToOwner:
		m, err := s.storage.GetMachine(ctx, p.MachineID)
		if err != nil {
			return 0, "", fmt.Errorf("load machine: %w", err)
		}
		delta = storage.TotalsDelta{
			OwnerID:      m.OwnerID,
			OwnerPending: p.Amount.Neg(),
			OwnerPaid:    p.Amount,
		}
	default:
		return 0, "", core.ErrBadPaymentType
	}

	id, err := s.storage.CreatePayment(ctx, p, delta)
	if err != nil {
		return 0, "", fmt.Errorf("create payment: %w", err)
	}

	s.publish(ctx, amqp.KindPayment, id, amqp.OpCreated)
	return id, p.Receipt, nil
}

func (s *LedgerService) DeletePayment(ctx context.Context, paymentID int64) error {
	p, err := s.storage.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}

	var delta storage.TotalsDelta
	switch p.Type {
	case core.PaymentFromFarmer:
		delta = storage.TotalsDelta{
			FarmerID:      p.FarmerID,
			FarmerPending: p.Amount,
			FarmerPaid:    p.Amount.Neg(),
		}
	case core.PaymentToOwner:
		m, err := s.storage.GetMachine(ctx, p.MachineID)
		if err != nil {
			return fmt.Errorf("load machine: %w", err)
		}
		delta = storage.TotalsDelta{
			OwnerID:      m.OwnerID,
			OwnerPending: p.Amount,
			OwnerPaid:    p.Amount.Neg(),
		}
	}

	if err := s.storage.DeletePayment(ctx, paymentID, delta); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	s.publish(ctx, amqp.KindPayment, paymentID, amqp.OpDeleted)
	return nil
}

// ---- rental payments ----

func (s *LedgerService) CreateRentalPayment(ctx context.Context, p core.RentalPayment) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	r, err := s.storage.GetRental(ctx, p.RentalID)
	if err != nil {
		return 0, fmt.Errorf("load rental: %w", err)
	}
	if p.DealerID == 0 {
		p.DealerID = r.DealerID
	}
	if p.DealerID != r.DealerID {
		return 0, fmt.Errorf("payment dealer %d does not match rental dealer %d: %w", p.DealerID, r.DealerID, core.ErrMissingDealer)
	}

	delta := storage.TotalsDelta{
		DealerID:   p.DealerID,
		DealerPaid: p.Amount,
	}
	id, err := s.storage.CreateRentalPayment(ctx, p, delta)
	if err != nil {
		return 0, fmt.Errorf("create rental payment: %w", err)
	}

	s.publish(ctx, amqp.KindRentalPayment, id, amqp.OpCreated)
	return id, nil
}

func (s *LedgerService) DeleteRentalPayment(ctx context.Context, id int64) error {
	p, err := s.storage.GetRentalPayment(ctx, id)
	if err != nil {
		return fmt.Errorf("load rental payment: %w", err)
	}

	delta := storage.TotalsDelta{
		DealerID:   p.DealerID,
		DealerPaid: p.Amount.Neg(),
	}
	if err := s.storage.DeleteRentalPayment(ctx, id, delta); err != nil {
		return fmt.Errorf("delete rental payment: %w", err)
	}

	s.publish(ctx, amqp.KindRentalPayment, id, amqp.OpDeleted)
	return nil
}

// ---- advances and expenses ----

// CreateAdvance records a driver advance. Advances absorbed by the
// owner reduce the owner's pending total; advances absorbed by the
// farmer are settled through the job's advance field and leave the
// running totals alone.
func (s *LedgerService) CreateAdvance(ctx context.Context, a core.DailyAdvance) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	m, err := s.storage.GetMachine(ctx, a.MachineID)
	if err != nil {
		return 0, fmt.Errorf("load machine: %w", err)
	}

	id, err := s.storage.CreateAdvance(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("create advance: %w", err)
	}

	if a.PaidBy == core.PaidByOwner {
		delta := storage.TotalsDelta{OwnerID: m.OwnerID, OwnerPending: a.Amount.Neg()}
		if err := s.storage.ApplyTotalsDelta(ctx, delta); err != nil {
			return id, fmt.Errorf("apply advance delta: %w", err)
		}
	}

	s.publish(ctx, amqp.KindAdvance, id, amqp.OpCreated)
	return id, nil
}

func (s *LedgerService) DeleteAdvance(ctx context.Context, id int64) error {
	a, err := s.storage.GetAdvance(ctx, id)
	if err != nil {
		return fmt.Errorf("load advance: %w", err)
	}
	m, err := s.storage.GetMachine(ctx, a.MachineID)
	if err != nil {
		return fmt.Errorf("load machine: %w", err)
	}

	if err := s.storage.DeleteAdvance(ctx, id); err != nil {
		return fmt.Errorf("delete advance: %w", err)
	}
	if a.PaidBy == core.PaidByOwner {
		delta := storage.TotalsDelta{OwnerID: m.OwnerID, OwnerPending: a.Amount}
		if err := s.storage.ApplyTotalsDelta(ctx, delta); err != nil {
			return fmt.Errorf("apply advance delta: %w", err)
		}
	}

	s.publish(ctx, amqp.KindAdvance, id, amqp.OpDeleted)
	return nil
}

// CreateExpense records a machine expense, reducing what the machine's
// owner is owed.
func (s *LedgerService) CreateExpense(ctx context.Context, e core.MachineExpense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	m, err := s.storage.GetMachine(ctx, e.MachineID)
	if err != nil {
		return 0, fmt.Errorf("load machine: %w", err)
	}

	id, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	delta := storage.TotalsDelta{OwnerID: m.OwnerID, OwnerPending: e.Amount.Neg()}
	if err := s.storage.ApplyTotalsDelta(ctx, delta); err != nil {
		return id, fmt.Errorf("apply expense delta: %w", err)
	}

	s.publish(ctx, amqp.KindExpense, id, amqp.OpCreated)
	return id, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	e, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	m, err := s.storage.GetMachine(ctx, e.MachineID)
	if err != nil {
		return fmt.Errorf("load machine: %w", err)
	}

	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	delta := storage.TotalsDelta{OwnerID: m.OwnerID, OwnerPending: e.Amount}
	if err := s.storage.ApplyTotalsDelta(ctx, delta); err != nil {
		return fmt.Errorf("apply expense delta: %w", err)
	}

	s.publish(ctx, amqp.KindExpense, id, amqp.OpDeleted)
	return nil
}

// ---- balances ----

// FarmerBalance recomputes one farmer's position from raw rows.
func (s *LedgerService) FarmerBalance(ctx context.Context, farmerID int64) (core.FarmerBalance, error) {
	if _, err := s.storage.GetFarmer(ctx, farmerID); err != nil {
		return core.FarmerBalance{}, err
	}
	jobs, err := s.storage.ListJobs(ctx)
	if err != nil {
		return core.FarmerBalance{}, err
	}
	payments, err := s.storage.ListPayments(ctx)
	if err != nil {
		return core.FarmerBalance{}, err
	}
	return core.ComputeFarmerBalance(farmerID, jobs, payments), nil
}

// MachineBalance recomputes both business sides of one machine.
func (s *LedgerService) MachineBalance(ctx context.Context, machineID int64) (core.MachineHarvestingBalance, core.MachineRentalBalance, error) {
	m, err := s.storage.GetMachine(ctx, machineID)
	if err != nil {
		return core.MachineHarvestingBalance{}, core.MachineRentalBalance{}, err
	}
	jobs, err := s.storage.ListJobs(ctx)
	if err != nil {
		return core.MachineHarvestingBalance{}, core.MachineRentalBalance{}, err
	}
	expenses, err := s.storage.ListExpenses(ctx)
	if err != nil {
		return core.MachineHarvestingBalance{}, core.MachineRentalBalance{}, err
	}
	payments, err := s.storage.ListPayments(ctx)
	if err != nil {
		return core.MachineHarvestingBalance{}, core.MachineRentalBalance{}, err
	}
	rentals, err := s.storage.ListRentals(ctx)
	if err != nil {
		return core.MachineHarvestingBalance{}, core.MachineRentalBalance{}, err
	}
	hb := core.ComputeMachineHarvestingBalance(m, jobs, expenses, payments)
	rb := core.ComputeMachineRentalBalance(machineID, rentals, payments)
	return hb, rb, nil
}

// OwnerBalance rolls up every machine the owner has.
func (s *LedgerService) OwnerBalance(ctx context.Context, ownerID int64) (core.OwnerBalance, error) {
	if _, err := s.storage.GetOwner(ctx, ownerID); err != nil {
		return core.OwnerBalance{}, err
	}
	machines, err := s.storage.ListMachines(ctx)
	if err != nil {
		return core.OwnerBalance{}, err
	}
	jobs, err := s.storage.ListJobs(ctx)
	if err != nil {
		return core.OwnerBalance{}, err
	}
	rentals, err := s.storage.ListRentals(ctx)
	if err != nil {
		return core.OwnerBalance{}, err
	}
	expenses, err := s.storage.ListExpenses(ctx)
	if err != nil {
		return core.OwnerBalance{}, err
	}
	payments, err := s.storage.ListPayments(ctx)
	if err != nil {
		return core.OwnerBalance{}, err
	}
	return core.ComputeOwnerBalance(ownerID, machines, jobs, rentals, expenses, payments), nil
}

// DealerBalance recomputes one dealer's position.
func (s *LedgerService) DealerBalance(ctx context.Context, dealerID int64) (core.DealerBalance, error) {
	if _, err := s.storage.GetDealer(ctx, dealerID); err != nil {
		return core.DealerBalance{}, err
	}
	rentals, err := s.storage.ListRentals(ctx)
	if err != nil {
		return core.DealerBalance{}, err
	}
	payments, err := s.storage.ListRentalPayments(ctx)
	if err != nil {
		return core.DealerBalance{}, err
	}
	return core.ComputeDealerBalance(dealerID, rentals, payments), nil
}

// Dashboard builds the cross-entity summary, optionally filtered.
func (s *LedgerService) Dashboard(ctx context.Context, filter core.SummaryFilter) (core.Summary, error) {
	jobs, err := s.storage.ListJobs(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	machines, err := s.storage.ListMachines(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	farmers, err := s.storage.ListFarmers(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	rentals, err := s.storage.ListRentals(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	dealers, err := s.storage.ListDealers(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.BuildSummary(filter, jobs, machines, farmers, rentals, dealers), nil
}

// publish sends a change event without failing the request. The row is
// already committed; the reconcile sweep covers a lost message.
func (s *LedgerService) publish(ctx context.Context, kind amqp.EntityKind, id int64, op amqp.Op) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerChanged(ctx, kind, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"entity_kind", kind,
			"entity_id", id,
			"op", op,
			"error", err)
	}
}

// Close closes storage and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
