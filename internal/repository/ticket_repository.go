package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rflras87/estacionamento/internal/model"
)

// TicketRepo provides persistence for parking tickets. The tickets table
// is append-on-create with a single update on payment; rows are never
// deleted, so it doubles as the permanent stay ledger.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle so handlers can start transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

const ticketCols = `id, plate, vehicle_type, spot_label, client_type,
	entered_at, exited_at, amount_cents, status, cash_session_id,
	payment_method, created_at`

func scanTicket(row interface{ Scan(...any) error }) (model.Ticket, error) {
	var (
		t         model.Ticket
		exitedAt  sql.NullString
		amount    sql.NullInt64
		sessionID sql.NullInt64
		method    sql.NullString
		createdAt time.Time
	)
	err := row.Scan(&t.ID, &t.Plate, &t.VehicleType, &t.SpotLabel, &t.ClientType,
		&t.EnteredAt, &exitedAt, &amount, &t.Status, &sessionID, &method, &createdAt)
	if err != nil {
		return model.Ticket{}, err
	}
	if exitedAt.Valid {
		v := exitedAt.String
		t.ExitedAt = &v
	}
	if amount.Valid {
		v := amount.Int64
		t.AmountCents = &v
	}
	if sessionID.Valid {
		v := uint64(sessionID.Int64)
		t.CashSessionID = &v
	}
	if method.Valid {
		v := method.String
		t.PaymentMethod = &v
	}
	t.CreatedAt = createdAt
	return t, nil
}

// CreateTx inserts a new PARKED ticket within the caller's transaction and
// populates the generated id. The caller must commit or roll back.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (plate, vehicle_type, spot_label, client_type, entered_at, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.Plate, t.VehicleType, t.SpotLabel, t.ClientType,
		t.EnteredAt, model.TicketParked)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TicketParked
	return nil
}

// GetParkedByPlateTx returns the PARKED ticket for a plate, locking the row
// for the duration of the transaction. sql.ErrNoRows means the plate is not
// currently parked; check-in relies on that before inserting to keep the
// one-PARKED-per-plate invariant.
func (r *TicketRepo) GetParkedByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets WHERE plate = ? AND status = ? LIMIT 1 FOR UPDATE`
	return scanTicket(tx.QueryRowContext(ctx, q, plate, model.TicketParked))
}

// GetByID returns a ticket regardless of status. sql.ErrNoRows when absent.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets WHERE id = ? LIMIT 1`
	return scanTicket(r.db.QueryRowContext(ctx, q, id))
}

// GetParkedByID returns a ticket only while it is PARKED. A paid or unknown
// id yields sql.ErrNoRows so callers surface one uniform not-found.
func (r *TicketRepo) GetParkedByID(ctx context.Context, id uint64) (model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets WHERE id = ? AND status = ? LIMIT 1`
	return scanTicket(r.db.QueryRowContext(ctx, q, id, model.TicketParked))
}

// GetParkedByIDTx is GetParkedByID inside a transaction with a row lock, used
// by the payment path so the ticket cannot be paid twice concurrently.
func (r *TicketRepo) GetParkedByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets WHERE id = ? AND status = ? LIMIT 1 FOR UPDATE`
	return scanTicket(tx.QueryRowContext(ctx, q, id, model.TicketParked))
}

// MarkPaidTx performs the single payment update: exit timestamp, amount,
// owning cash session, payment method and the PARKED->PAID transition are
// set atomically. The status guard makes a replayed payment report
// sql.ErrNoRows instead of overwriting a settled ticket.
func (r *TicketRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64, exitedAt string, amountCents int64, sessionID uint64, method string) error {
	const q = `UPDATE tickets
	           SET exited_at = ?, amount_cents = ?, cash_session_id = ?, payment_method = ?, status = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, exitedAt, amountCents, sessionID, method,
		model.TicketPaid, id, model.TicketParked)
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

// ListParked returns all currently parked tickets, newest entry first.
func (r *TicketRepo) ListParked(ctx context.Context) ([]model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets WHERE status = ? ORDER BY entered_at DESC`
	return r.list(ctx, q, model.TicketParked)
}

// ListPaid returns PAID tickets with an exit date inside [from, to],
// newest exit first. Bounds are date text ("YYYY-MM-DD"); the comparison
// works on the text form because the persisted layout sorts
// chronologically.
func (r *TicketRepo) ListPaid(ctx context.Context, from, to string) ([]model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets
	      WHERE status = ? AND exited_at >= ? AND exited_at <= ?
	      ORDER BY exited_at DESC`
	return r.list(ctx, q, model.TicketPaid, from+" 00:00:00", to+" 23:59:59")
}

// ListPaidBySession returns the PAID tickets bound to one cash session.
func (r *TicketRepo) ListPaidBySession(ctx context.Context, sessionID uint64) ([]model.Ticket, error) {
	q := `SELECT ` + ticketCols + ` FROM tickets
	      WHERE status = ? AND cash_session_id = ? ORDER BY exited_at ASC`
	return r.list(ctx, q, model.TicketPaid, sessionID)
}

// PaidRevenueRow carries one PAID ticket's amount, method and the status of
// its owning cash session, for period summaries. SessionStatus is empty when
// the session row is missing (should not happen; tolerated for robustness).
type PaidRevenueRow struct {
	AmountCents   int64
	PaymentMethod string
	SessionStatus string
}

// ListPaidRevenue returns the revenue rows for PAID tickets exited inside
// [from, to] (date text), joined with their cash session's status.
func (r *TicketRepo) ListPaidRevenue(ctx context.Context, from, to string) ([]PaidRevenueRow, error) {
	const q = `SELECT COALESCE(t.amount_cents, 0), COALESCE(t.payment_method, ''), COALESCE(s.status, '')
	           FROM tickets t
	           LEFT JOIN cash_sessions s ON s.id = t.cash_session_id
	           WHERE t.status = ? AND t.exited_at >= ? AND t.exited_at <= ?`
	rows, err := r.db.QueryContext(ctx, q, model.TicketPaid, from+" 00:00:00", to+" 23:59:59")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PaidRevenueRow, 0)
	for rows.Next() {
		var row PaidRevenueRow
		if err := rows.Scan(&row.AmountCents, &row.PaymentMethod, &row.SessionStatus); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SumPaidBySessionTx totals the PAID amounts bound to a cash session inside
// the caller's transaction. Used when closing or rolling over a session.
func (r *TicketRepo) SumPaidBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0) FROM tickets
	           WHERE status = ? AND cash_session_id = ?`
	var total int64
	err := tx.QueryRowContext(ctx, q, model.TicketPaid, sessionID).Scan(&total)
	return total, err
}

func (r *TicketRepo) list(ctx context.Context, q string, args ...any) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
