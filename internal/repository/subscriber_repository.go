package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rflras87/estacionamento/internal/model"
)

// ErrPlateEnrolled is returned when creating a subscriber for a plate that
// already has a plan.
var ErrPlateEnrolled = errors.New("plate already enrolled")

// SubscriberRepo provides persistence for monthly subscribers.
type SubscriberRepo struct {
	db *sql.DB
}

// NewSubscriberRepo returns a SubscriberRepo bound to the given database.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

// DB exposes the handle so handlers can own renewal transactions.
func (r *SubscriberRepo) DB() *sql.DB { return r.db }

const subscriberCols = `id, plate, vehicle_type, plan, activation, cycle_start, cycle_end, created_at`

func scanSubscriber(row interface{ Scan(...any) error }) (model.Subscriber, error) {
	var (
		s          model.Subscriber
		cycleStart sql.NullString
		cycleEnd   sql.NullString
		createdAt  time.Time
	)
	err := row.Scan(&s.ID, &s.Plate, &s.VehicleType, &s.Plan, &s.Activation,
		&cycleStart, &cycleEnd, &createdAt)
	if err != nil {
		return model.Subscriber{}, err
	}
	if cycleStart.Valid {
		v := cycleStart.String
		s.CycleStart = &v
	}
	if cycleEnd.Valid {
		v := cycleEnd.String
		s.CycleEnd = &v
	}
	s.CreatedAt = createdAt
	return s, nil
}

// Create enrolls a plate. cycleStart/cycleEnd may be nil for ON_FIRST_USE
// activation. A duplicate plate maps to ErrPlateEnrolled.
func (r *SubscriberRepo) Create(ctx context.Context, s *model.Subscriber) error {
	const q = `INSERT INTO subscribers (plate, vehicle_type, plan, activation, cycle_start, cycle_end)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Plate, s.VehicleType, s.Plan, s.Activation,
		s.CycleStart, s.CycleEnd)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrPlateEnrolled
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByPlate returns the subscriber for a normalized plate. sql.ErrNoRows
// means the plate is a walk-in.
func (r *SubscriberRepo) GetByPlate(ctx context.Context, plate string) (model.Subscriber, error) {
	q := `SELECT ` + subscriberCols + ` FROM subscribers WHERE plate = ? LIMIT 1`
	return scanSubscriber(r.db.QueryRowContext(ctx, q, plate))
}

// GetByPlateTx is GetByPlate within the caller's transaction, locking the
// row so a first-use activation cannot race with a renewal.
func (r *SubscriberRepo) GetByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (model.Subscriber, error) {
	q := `SELECT ` + subscriberCols + ` FROM subscribers WHERE plate = ? LIMIT 1 FOR UPDATE`
	return scanSubscriber(tx.QueryRowContext(ctx, q, plate))
}

// GetByID returns a subscriber by id. sql.ErrNoRows when absent.
func (r *SubscriberRepo) GetByID(ctx context.Context, id uint64) (model.Subscriber, error) {
	q := `SELECT ` + subscriberCols + ` FROM subscribers WHERE id = ? LIMIT 1`
	return scanSubscriber(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within the caller's transaction, locking the row so
// a renewal cannot race with a first-use activation.
func (r *SubscriberRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Subscriber, error) {
	q := `SELECT ` + subscriberCols + ` FROM subscribers WHERE id = ? LIMIT 1 FOR UPDATE`
	return scanSubscriber(tx.QueryRowContext(ctx, q, id))
}

// SetCycleTx writes a subscriber's cycle bounds inside the caller's
// transaction. Used for ON_FIRST_USE activation during check-in.
func (r *SubscriberRepo) SetCycleTx(ctx context.Context, tx *sql.Tx, id uint64, cycleStart, cycleEnd string) error {
	const q = `UPDATE subscribers SET cycle_start = ?, cycle_end = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, cycleStart, cycleEnd, id)
	return err
}

// ExtendCycleTx writes a new cycle end after a monthly payment, inside the
// caller's transaction so the extension and its payment entry commit
// together. When the subscriber had no cycle yet (unused ON_FIRST_USE plan
// being paid again), the start is set too so the record is self-consistent.
func (r *SubscriberRepo) ExtendCycleTx(ctx context.Context, tx *sql.Tx, id uint64, cycleStart, cycleEnd string) error {
	const q = `UPDATE subscribers SET cycle_start = COALESCE(cycle_start, ?), cycle_end = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, cycleStart, cycleEnd, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns all subscribers ordered by plate.
func (r *SubscriberRepo) List(ctx context.Context) ([]model.Subscriber, error) {
	q := `SELECT ` + subscriberCols + ` FROM subscribers ORDER BY plate ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs := make([]model.Subscriber, 0)
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}
