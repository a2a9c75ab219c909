// Package storage persists the ledger in SQLite. Money columns hold
// integer cents and work time holds integer minutes, mirroring the
// core types exactly.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"harvestbook/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInUse is returned when reference data is still referenced.
	ErrInUse = errors.New("still in use")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// execTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) execTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

const dateLayout = "2006-01-02"

func dateToDB(d core.Date) string {
	return d.Format(dateLayout)
}

// dateFromDB parses a date column. Rows are written as bare dates but
// the driver reports DATE columns back in RFC 3339 form, so both
// layouts are accepted.
func dateFromDB(s string) (core.Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return core.Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

// ---- farmers ----

func (r *SQLiteRepository) CreateFarmer(ctx context.Context, f core.Farmer) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO farmers (name, phone, village) VALUES (?, ?, ?)`,
		f.Name, f.Phone, f.Village)
	if err != nil {
		return 0, fmt.Errorf("create farmer: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetFarmer(ctx context.Context, id int64) (core.Farmer, error) {
	var f core.Farmer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, phone, village, total_pending_cents, total_paid_cents
		 FROM farmers WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Phone, &f.Village, &f.TotalPending.Cents, &f.TotalPaid.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Farmer{}, ErrNotFound
	}
	if err != nil {
		return core.Farmer{}, fmt.Errorf("get farmer: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) ListFarmers(ctx context.Context) ([]core.Farmer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, phone, village, total_pending_cents, total_paid_cents
		 FROM farmers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list farmers: %w", err)
	}
	defer rows.Close()

	var out []core.Farmer
	for rows.Next() {
		var f core.Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Phone, &f.Village, &f.TotalPending.Cents, &f.TotalPaid.Cents); err != nil {
			return nil, fmt.Errorf("scan farmer: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateFarmer(ctx context.Context, f core.Farmer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE farmers SET name = ?, phone = ?, village = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, f.Name, f.Phone, f.Village, f.ID)
	if err != nil {
		return fmt.Errorf("update farmer: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteFarmer(ctx context.Context, id int64) error {
	var jobs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM harvesting_jobs WHERE farmer_id = ?`, id).Scan(&jobs); err != nil {
		return fmt.Errorf("count farmer jobs: %w", err)
	}
	if jobs > 0 {
		return fmt.Errorf("farmer has %d jobs: %w", jobs, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM farmers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete farmer: %w", err)
	}
	return requireRow(res)
}

// ---- machine owners ----

func (r *SQLiteRepository) CreateOwner(ctx context.Context, o core.MachineOwner) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO machine_owners (name, phone, village, default_rate_cents) VALUES (?, ?, ?, ?)`,
		o.Name, o.Phone, o.Village, o.DefaultRate.Cents)
	if err != nil {
		return 0, fmt.Errorf("create owner: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetOwner(ctx context.Context, id int64) (core.MachineOwner, error) {
	var o core.MachineOwner
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, phone, village, default_rate_cents, total_pending_cents, total_paid_cents
		 FROM machine_owners WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.Phone, &o.Village, &o.DefaultRate.Cents, &o.TotalPending.Cents, &o.TotalPaid.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MachineOwner{}, ErrNotFound
	}
	if err != nil {
		return core.MachineOwner{}, fmt.Errorf("get owner: %w", err)
	}
	return o, nil
}

func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]core.MachineOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, phone, village, default_rate_cents, total_pending_cents, total_paid_cents
		 FROM machine_owners ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []core.MachineOwner
	for rows.Next() {
		var o core.MachineOwner
		if err := rows.Scan(&o.ID, &o.Name, &o.Phone, &o.Village, &o.DefaultRate.Cents, &o.TotalPending.Cents, &o.TotalPaid.Cents); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateOwner(ctx context.Context, o core.MachineOwner) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE machine_owners SET name = ?, phone = ?, village = ?, default_rate_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, o.Name, o.Phone, o.Village, o.DefaultRate.Cents, o.ID)
	if err != nil {
		return fmt.Errorf("update owner: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteOwner(ctx context.Context, id int64) error {
	var machines int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM machines WHERE owner_id = ?`, id).Scan(&machines); err != nil {
		return fmt.Errorf("count owner machines: %w", err)
	}
	if machines > 0 {
		return fmt.Errorf("owner has %d machines: %w", machines, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM machine_owners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	return requireRow(res)
}

// ---- machines ----

func (r *SQLiteRepository) CreateMachine(ctx context.Context, m core.Machine) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO machines (owner_id, name, type, owner_rate_cents, driver_name, driver_phone)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.OwnerID, m.Name, m.Type, m.OwnerRate.Cents, m.DriverName, m.DriverPhone)
	if err != nil {
		return 0, fmt.Errorf("create machine: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetMachine(ctx context.Context, id int64) (core.Machine, error) {
	var m core.Machine
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, type, owner_rate_cents, driver_name, driver_phone
		 FROM machines WHERE id = ?`, id).
		Scan(&m.ID, &m.OwnerID, &m.Name, &m.Type, &m.OwnerRate.Cents, &m.DriverName, &m.DriverPhone)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Machine{}, ErrNotFound
	}
	if err != nil {
		return core.Machine{}, fmt.Errorf("get machine: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMachines(ctx context.Context) ([]core.Machine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, type, owner_rate_cents, driver_name, driver_phone
		 FROM machines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()

	var out []core.Machine
	for rows.Next() {
		var m core.Machine
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Type, &m.OwnerRate.Cents, &m.DriverName, &m.DriverPhone); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateMachine(ctx context.Context, m core.Machine) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE machines SET owner_id = ?, name = ?, type = ?, owner_rate_cents = ?, driver_name = ?, driver_phone = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		m.OwnerID, m.Name, m.Type, m.OwnerRate.Cents, m.DriverName, m.DriverPhone, m.ID)
	if err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteMachine(ctx context.Context, id int64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM harvesting_jobs WHERE machine_id = ?)
		      + (SELECT COUNT(*) FROM machine_rentals WHERE machine_id = ?)`, id, id).Scan(&refs); err != nil {
		return fmt.Errorf("count machine references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("machine has %d jobs/rentals: %w", refs, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM machines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	return requireRow(res)
}

// ---- dealers ----

func (r *SQLiteRepository) CreateDealer(ctx context.Context, d core.Dealer) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dealers (name, phone, village) VALUES (?, ?, ?)`,
		d.Name, d.Phone, d.Village)
	if err != nil {
		return 0, fmt.Errorf("create dealer: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetDealer(ctx context.Context, id int64) (core.Dealer, error) {
	var d core.Dealer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, phone, village, total_charged_cents, total_paid_cents
		 FROM dealers WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Phone, &d.Village, &d.TotalCharged.Cents, &d.TotalPaid.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Dealer{}, ErrNotFound
	}
	if err != nil {
		return core.Dealer{}, fmt.Errorf("get dealer: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) ListDealers(ctx context.Context) ([]core.Dealer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, phone, village, total_charged_cents, total_paid_cents
		 FROM dealers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list dealers: %w", err)
	}
	defer rows.Close()

	var out []core.Dealer
	for rows.Next() {
		var d core.Dealer
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Village, &d.TotalCharged.Cents, &d.TotalPaid.Cents); err != nil {
			return nil, fmt.Errorf("scan dealer: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateDealer(ctx context.Context, d core.Dealer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dealers SET name = ?, phone = ?, village = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, d.Name, d.Phone, d.Village, d.ID)
	if err != nil {
		return fmt.Errorf("update dealer: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteDealer(ctx context.Context, id int64) error {
	var rentals int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM machine_rentals WHERE dealer_id = ?`, id).Scan(&rentals); err != nil {
		return fmt.Errorf("count dealer rentals: %w", err)
	}
	if rentals > 0 {
		return fmt.Errorf("dealer has %d rentals: %w", rentals, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM dealers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dealer: %w", err)
	}
	return requireRow(res)
}

// ---- reference data ----

func (r *SQLiteRepository) Villages(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, `SELECT name FROM villages ORDER BY name`)
}

func (r *SQLiteRepository) AddVillage(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO villages (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("add village: %w", err)
	}
	return nil
}

// DeleteVillage refuses to remove a village still referenced by a
// farmer or dealer.
func (r *SQLiteRepository) DeleteVillage(ctx context.Context, name string) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM farmers WHERE village = ?)
		      + (SELECT COUNT(*) FROM dealers WHERE village = ?)`, name, name).Scan(&refs); err != nil {
		return fmt.Errorf("count village references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("village %q referenced by %d entities: %w", name, refs, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM villages WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete village: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) MachineTypes(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, `SELECT name FROM machine_types ORDER BY name`)
}

func (r *SQLiteRepository) AddMachineType(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO machine_types (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("add machine type: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteMachineType(ctx context.Context, name string) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM machines WHERE type = ?`, name).Scan(&refs); err != nil {
		return fmt.Errorf("count machine type references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("machine type %q referenced by %d machines: %w", name, refs, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM machine_types WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete machine type: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) listNames(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
