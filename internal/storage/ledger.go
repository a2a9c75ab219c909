package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"harvestbook/internal/core"
)

// TotalsDelta describes how one ledger write shifts the denormalized
// running totals. Zero IDs mean no row of that kind is touched. Each
// amount is applied as a relative UPDATE so concurrent writers never
// overwrite each other's totals.
type TotalsDelta struct {
	FarmerID      int64
	FarmerPending core.Money
	FarmerPaid    core.Money

	OwnerID      int64
	OwnerPending core.Money
	OwnerPaid    core.Money

	DealerID      int64
	DealerCharged core.Money
	DealerPaid    core.Money
}

// IsZero reports whether applying the delta would change nothing.
func (d TotalsDelta) IsZero() bool {
	return d.FarmerID == 0 && d.OwnerID == 0 && d.DealerID == 0
}

func applyDelta(ctx context.Context, tx *sql.Tx, d TotalsDelta) error {
	if d.FarmerID != 0 {
		res, err := tx.ExecContext(ctx,
			`UPDATE farmers
			 SET total_pending_cents = total_pending_cents + ?,
			     total_paid_cents = total_paid_cents + ?,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			d.FarmerPending.Cents, d.FarmerPaid.Cents, d.FarmerID)
		if err != nil {
			return fmt.Errorf("update farmer totals: %w", err)
		}
		if err := requireRow(res); err != nil {
			return fmt.Errorf("farmer %d: %w", d.FarmerID, err)
		}
	}
	if d.OwnerID != 0 {
		res, err := tx.ExecContext(ctx,
			`UPDATE machine_owners
			 SET total_pending_cents = total_pending_cents + ?,
			     total_paid_cents = total_paid_cents + ?,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			d.OwnerPending.Cents, d.OwnerPaid.Cents, d.OwnerID)
		if err != nil {
			return fmt.Errorf("update owner totals: %w", err)
		}
		if err := requireRow(res); err != nil {
			return fmt.Errorf("owner %d: %w", d.OwnerID, err)
		}
	}
	if d.DealerID != 0 {
		res, err := tx.ExecContext(ctx,
			`UPDATE dealers
			 SET total_charged_cents = total_charged_cents + ?,
			     total_paid_cents = total_paid_cents + ?,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			d.DealerCharged.Cents, d.DealerPaid.Cents, d.DealerID)
		if err != nil {
			return fmt.Errorf("update dealer totals: %w", err)
		}
		if err := requireRow(res); err != nil {
			return fmt.Errorf("dealer %d: %w", d.DealerID, err)
		}
	}
	return nil
}

// ApplyTotalsDelta shifts running totals outside any row write. Used
// when a discount edit changes balances without touching a ledger row.
func (r *SQLiteRepository) ApplyTotalsDelta(ctx context.Context, d TotalsDelta) error {
	if d.IsZero() {
		return nil
	}
	return r.execTx(ctx, func(tx *sql.Tx) error {
		return applyDelta(ctx, tx, d)
	})
}

// ---- harvesting jobs ----

func (r *SQLiteRepository) CreateJob(ctx context.Context, j core.HarvestingJob, d TotalsDelta) (int64, error) {
	var id int64
	err := r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO harvesting_jobs
			 (farmer_id, machine_id, job_date, minutes, rate_cents, total_cents,
			  advance_from_farmer_cents, discount_from_owner_cents, discount_to_farmer_cents, status, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			j.FarmerID, j.MachineID, dateToDB(j.Date), j.Hours.Minutes, j.Rate.Cents, j.Total.Cents,
			j.AdvanceFromFarmer.Cents, j.DiscountFromOwner.Cents, j.DiscountToFarmer.Cents, j.Status, j.Notes)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("job id: %w", err)
		}
		return applyDelta(ctx, tx, d)
	})
	return id, err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id int64) (core.HarvestingJob, error) {
	var j core.HarvestingJob
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, farmer_id, machine_id, job_date, minutes, rate_cents, total_cents,
		        advance_from_farmer_cents, discount_from_owner_cents, discount_to_farmer_cents, status, notes
		 FROM harvesting_jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.FarmerID, &j.MachineID, &date, &j.Hours.Minutes, &j.Rate.Cents, &j.Total.Cents,
			&j.AdvanceFromFarmer.Cents, &j.DiscountFromOwner.Cents, &j.DiscountToFarmer.Cents, &j.Status, &j.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HarvestingJob{}, ErrNotFound
	}
	if err != nil {
		return core.HarvestingJob{}, fmt.Errorf("get job: %w", err)
	}
	j.Date, err = dateFromDB(date)
	if err != nil {
		return core.HarvestingJob{}, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context) ([]core.HarvestingJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, farmer_id, machine_id, job_date, minutes, rate_cents, total_cents,
		        advance_from_farmer_cents, discount_from_owner_cents, discount_to_farmer_cents, status, notes
		 FROM harvesting_jobs ORDER BY job_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []core.HarvestingJob
	for rows.Next() {
		var j core.HarvestingJob
		var date string
		if err := rows.Scan(&j.ID, &j.FarmerID, &j.MachineID, &date, &j.Hours.Minutes, &j.Rate.Cents, &j.Total.Cents,
			&j.AdvanceFromFarmer.Cents, &j.DiscountFromOwner.Cents, &j.DiscountToFarmer.Cents, &j.Status, &j.Notes); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Date, err = dateFromDB(date)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListJobsByFarmer(ctx context.Context, farmerID int64) ([]core.HarvestingJob, error) {
	jobs, err := r.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.HarvestingJob
	for _, j := range jobs {
		if j.FarmerID == farmerID {
			out = append(out, j)
		}
	}
	return out, nil
}

// CountJobsByMachine reports how many jobs reference a machine. Used
// to guard edits that would reprice accumulated owner totals.
func (r *SQLiteRepository) CountJobsByMachine(ctx context.Context, machineID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM harvesting_jobs WHERE machine_id = ?`, machineID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count machine jobs: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdateJob(ctx context.Context, j core.HarvestingJob, d TotalsDelta) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE harvesting_jobs
			 SET farmer_id = ?, machine_id = ?, job_date = ?, minutes = ?, rate_cents = ?, total_cents = ?,
			     advance_from_farmer_cents = ?, discount_from_owner_cents = ?, discount_to_farmer_cents = ?,
			     status = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			j.FarmerID, j.MachineID, dateToDB(j.Date), j.Hours.Minutes, j.Rate.Cents, j.Total.Cents,
			j.AdvanceFromFarmer.Cents, j.DiscountFromOwner.Cents, j.DiscountToFarmer.Cents,
			j.Status, j.Notes, j.ID)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyDelta(ctx, tx, d)
	})
}

func (r *SQLiteRepository) DeleteJob(ctx context.Context, id int64, d TotalsDelta) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM harvesting_jobs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyDelta(ctx, tx, d)
	})
}

// ---- machine rentals ----

func (r *SQLiteRepository) CreateRental(ctx context.Context, m core.MachineRental, d TotalsDelta) (int64, error) {
	var id int64
	err := r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO machine_rentals
			 (dealer_id, machine_id, start_date, minutes, dealer_rate_cents, owner_rate_cents,
			  total_charged_cents, total_owner_cost_cents, profit_margin_cents, advance_paid_cents, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.DealerID, m.MachineID, dateToDB(m.StartDate), m.Hours.Minutes, m.DealerRate.Cents, m.OwnerRate.Cents,
			m.TotalCharged.Cents, m.TotalOwnerCost.Cents, m.ProfitMargin.Cents, m.AdvancePaid.Cents, m.Status)
		if err != nil {
			return fmt.Errorf("insert rental: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("rental id: %w", err)
		}
		return applyDelta(ctx, tx, d)
	})
	return id, err
}

func (r *SQLiteRepository) GetRental(ctx context.Context, id int64) (core.MachineRental, error) {
	var m core.MachineRental
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, dealer_id, machine_id, start_date, minutes, dealer_rate_cents, owner_rate_cents,
		        total_charged_cents, total_owner_cost_cents, profit_margin_cents, advance_paid_cents, status
		 FROM machine_rentals WHERE id = ?`, id).
		Scan(&m.ID, &m.DealerID, &m.MachineID, &date, &m.Hours.Minutes, &m.DealerRate.Cents, &m.OwnerRate.Cents,
			&m.TotalCharged.Cents, &m.TotalOwnerCost.Cents, &m.ProfitMargin.Cents, &m.AdvancePaid.Cents, &m.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MachineRental{}, ErrNotFound
	}
	if err != nil {
		return core.MachineRental{}, fmt.Errorf("get rental: %w", err)
	}
	m.StartDate, err = dateFromDB(date)
	if err != nil {
		return core.MachineRental{}, fmt.Errorf("get rental: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListRentals(ctx context.Context) ([]core.MachineRental, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dealer_id, machine_id, start_date, minutes, dealer_rate_cents, owner_rate_cents,
		        total_charged_cents, total_owner_cost_cents, profit_margin_cents, advance_paid_cents, status
		 FROM machine_rentals ORDER BY start_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	var out []core.MachineRental
	for rows.Next() {
		var m core.MachineRental
		var date string
		if err := rows.Scan(&m.ID, &m.DealerID, &m.MachineID, &date, &m.Hours.Minutes, &m.DealerRate.Cents, &m.OwnerRate.Cents,
			&m.TotalCharged.Cents, &m.TotalOwnerCost.Cents, &m.ProfitMargin.Cents, &m.AdvancePaid.Cents, &m.Status); err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		m.StartDate, err = dateFromDB(date)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateRental(ctx context.Context, m core.MachineRental, d TotalsDelta) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE machine_rentals
			 SET dealer_id = ?, machine_id = ?, start_date = ?, minutes = ?, dealer_rate_cents = ?, owner_rate_cents = ?,
			     total_charged_cents = ?, total_owner_cost_cents = ?, profit_margin_cents = ?, advance_paid_cents = ?,
			     status = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			m.DealerID, m.MachineID, dateToDB(m.StartDate), m.Hours.Minutes, m.DealerRate.Cents, m.OwnerRate.Cents,
			m.TotalCharged.Cents, m.TotalOwnerCost.Cents, m.ProfitMargin.Cents, m.AdvancePaid.Cents,
			m.Status, m.ID)
		if err != nil {
			return fmt.Errorf("update rental: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyDelta(ctx, tx, d)
	})
}

func (r *SQLiteRepository) DeleteRental(ctx context.Context, id int64, d TotalsDelta) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM rental_payments WHERE rental_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("count rental payments: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("rental has %d payments: %w", refs, ErrInUse)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM machine_rentals WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete rental: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyDelta(ctx, tx, d)
	})
}

// ---- payments ----

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment, d TotalsDelta) (int64, error) {
	var id int64
	err := r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO payments
			 (receipt, type, farmer_id, machine_id, job_id, rental_id, amount_cents, business_source, method, payment_date, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Receipt, p.Type, p.FarmerID, p.MachineID, p.JobID, p.RentalID,
			p.Amount.Cents, p.Source, p.Method, dateToDB(p.Date), p.Status)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("payment id: %w", err)
		}
		return applyDelta(ctx, tx, d)
	})
	return id, err
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	var p core.Payment
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, receipt, type, farmer_id, machine_id, job_id, rental_id, amount_cents, business_source, method, payment_date, status
		 FROM payments WHERE id = ?`, id).
		Scan(&p.ID, &p.Receipt, &p.Type, &p.FarmerID, &p.MachineID, &p.JobID, &p.RentalID,
			&p.Amount.Cents, &p.Source, &p.Method, &date, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	p.Date, err = dateFromDB(date)
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, receipt, type, farmer_id, machine_id, job_id, rental_id, amount_cents, business_source, method, payment_date, status
		 FROM payments ORDER BY payment_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		var date string
		if err := rows.Scan(&p.ID, &p.Receipt, &p.Type, &p.FarmerID, &p.MachineID, &p.JobID, &p.RentalID,
			&p.Amount.Cents, &p.Source, &p.Method, &date, &p.Status); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Date, err = dateFromDB(date)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id int64, d TotalsDelta) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyDelta(ctx, tx, d)
	})
}

// ---- rental payments ----

func (r *SQLiteRepository) CreateRentalPayment(ctx context.Context, p core.RentalPayment, d TotalsDelta) (int64, error) {
	var id int64
	err := r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rental_payments (rental_id, dealer_id, amount_cents, payment_date, method)
			 VALUES (?, ?, ?, ?, ?)`,
			p.RentalID, p.DealerID, p.Amount.Cents, dateToDB(p.Date), p.Method)
		if err != nil {
			return fmt.Errorf("insert rental payment: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("rental payment id: %w", err)
		}
		return applyDelta(ctx, tx, d)
	})
	return id, err
}

func (r *SQLiteRepository) GetRentalPayment(ctx context.Context, id int64) (core.RentalPayment, error) {
	var p core.RentalPayment
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, rental_id, dealer_id, amount_cents, payment_date, method
		 FROM rental_payments WHERE id = ?`, id).
		Scan(&p.ID, &p.RentalID, &p.DealerID, &p.Amount.Cents, &date, &p.Method)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RentalPayment{}, ErrNotFound
	}
	if err != nil {
		return core.RentalPayment{}, fmt.Errorf("get rental payment: %w", err)
	}
	p.Date, err = dateFromDB(date)
	if err != nil {
		return core.RentalPayment{}, fmt.Errorf("get rental payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListRentalPayments(ctx context.Context) ([]core.RentalPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, rental_id, dealer_id, amount_cents, payment_date, method
		 FROM rental_payments ORDER BY payment_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rental payments: %w", err)
	}
	defer rows.Close()

	var out []core.RentalPayment
	for rows.Next() {
		var p core.RentalPayment
		var date string
		if err := rows.Scan(&p.ID, &p.RentalID, &p.DealerID, &p.Amount.Cents, &date, &p.Method); err != nil {
			return nil, fmt.Errorf("scan rental payment: %w", err)
		}
		p.Date, err = dateFromDB(date)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteRentalPayment(ctx context.Context, id int64, d TotalsDelta) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM rental_payments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete rental payment: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return applyDelta(ctx, tx, d)
	})
}

// ---- daily advances ----

func (r *SQLiteRepository) CreateAdvance(ctx context.Context, a core.DailyAdvance) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_advances (machine_id, amount_cents, advance_date, paid_by, note)
		 VALUES (?, ?, ?, ?, ?)`,
		a.MachineID, a.Amount.Cents, dateToDB(a.Date), a.PaidBy, a.Note)
	if err != nil {
		return 0, fmt.Errorf("create advance: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetAdvance(ctx context.Context, id int64) (core.DailyAdvance, error) {
	var a core.DailyAdvance
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, machine_id, amount_cents, advance_date, paid_by, note
		 FROM daily_advances WHERE id = ?`, id).
		Scan(&a.ID, &a.MachineID, &a.Amount.Cents, &date, &a.PaidBy, &a.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyAdvance{}, ErrNotFound
	}
	if err != nil {
		return core.DailyAdvance{}, fmt.Errorf("get advance: %w", err)
	}
	a.Date, err = dateFromDB(date)
	if err != nil {
		return core.DailyAdvance{}, fmt.Errorf("get advance: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAdvances(ctx context.Context) ([]core.DailyAdvance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, machine_id, amount_cents, advance_date, paid_by, note
		 FROM daily_advances ORDER BY advance_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list advances: %w", err)
	}
	defer rows.Close()

	var out []core.DailyAdvance
	for rows.Next() {
		var a core.DailyAdvance
		var date string
		if err := rows.Scan(&a.ID, &a.MachineID, &a.Amount.Cents, &date, &a.PaidBy, &a.Note); err != nil {
			return nil, fmt.Errorf("scan advance: %w", err)
		}
		a.Date, err = dateFromDB(date)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteAdvance(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_advances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete advance: %w", err)
	}
	return requireRow(res)
}

// ---- machine expenses ----

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.MachineExpense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO machine_expenses (machine_id, amount_cents, expense_date, description)
		 VALUES (?, ?, ?, ?)`,
		e.MachineID, e.Amount.Cents, dateToDB(e.Date), e.Description)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.MachineExpense, error) {
	var e core.MachineExpense
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, machine_id, amount_cents, expense_date, description
		 FROM machine_expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.MachineID, &e.Amount.Cents, &date, &e.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MachineExpense{}, ErrNotFound
	}
	if err != nil {
		return core.MachineExpense{}, fmt.Errorf("get expense: %w", err)
	}
	e.Date, err = dateFromDB(date)
	if err != nil {
		return core.MachineExpense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.MachineExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, machine_id, amount_cents, expense_date, description
		 FROM machine_expenses ORDER BY expense_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.MachineExpense
	for rows.Next() {
		var e core.MachineExpense
		var date string
		if err := rows.Scan(&e.ID, &e.MachineID, &e.Amount.Cents, &date, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date, err = dateFromDB(date)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM machine_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// ---- reconciliation ----

// ReplaceFarmerTotals overwrites the running totals with values
// recomputed from the underlying rows.
func (r *SQLiteRepository) ReplaceFarmerTotals(ctx context.Context, id int64, pending, paid core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE farmers SET total_pending_cents = ?, total_paid_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, pending.Cents, paid.Cents, id)
	if err != nil {
		return fmt.Errorf("replace farmer totals: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ReplaceOwnerTotals(ctx context.Context, id int64, pending, paid core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE machine_owners SET total_pending_cents = ?, total_paid_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, pending.Cents, paid.Cents, id)
	if err != nil {
		return fmt.Errorf("replace owner totals: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ReplaceDealerTotals(ctx context.Context, id int64, charged, paid core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dealers SET total_charged_cents = ?, total_paid_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, charged.Cents, paid.Cents, id)
	if err != nil {
		return fmt.Errorf("replace dealer totals: %w", err)
	}
	return requireRow(res)
}
