package repository

import (
	"context"
	"database/sql"

	"github.com/rflras87/estacionamento/internal/model"
)

// CashSessionRepo provides persistence for till sessions. The open/close
// transitions always run inside a transaction started by the caller so the
// at-most-one-OPEN invariant holds under concurrent requests.
type CashSessionRepo struct {
	db *sql.DB
}

// NewCashSessionRepo returns a CashSessionRepo bound to the given database.
func NewCashSessionRepo(db *sql.DB) *CashSessionRepo { return &CashSessionRepo{db: db} }

// DB exposes the underlying handle so handlers can start transactions.
func (r *CashSessionRepo) DB() *sql.DB { return r.db }

const sessionCols = `id, operator_id, opening_float_cents, opened_at, closed_at,
	closing_balance_cents, counted_cents, status`

func scanSession(row interface{ Scan(...any) error }) (model.CashSession, error) {
	var (
		s       model.CashSession
		closed  sql.NullString
		balance sql.NullInt64
		counted sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.OperatorID, &s.OpeningFloatCents, &s.OpenedAt,
		&closed, &balance, &counted, &s.Status)
	if err != nil {
		return model.CashSession{}, err
	}
	if closed.Valid {
		v := closed.String
		s.ClosedAt = &v
	}
	if balance.Valid {
		v := balance.Int64
		s.ClosingBalanceCents = &v
	}
	if counted.Valid {
		v := counted.Int64
		s.CountedCents = &v
	}
	return s, nil
}

// GetOpenTx returns the OPEN session, locking it for the transaction.
// sql.ErrNoRows means no till is open.
func (r *CashSessionRepo) GetOpenTx(ctx context.Context, tx *sql.Tx) (model.CashSession, error) {
	q := `SELECT ` + sessionCols + ` FROM cash_sessions WHERE status = ? LIMIT 1 FOR UPDATE`
	return scanSession(tx.QueryRowContext(ctx, q, model.SessionOpen))
}

// GetOpen returns the OPEN session without locking, for read-only display.
func (r *CashSessionRepo) GetOpen(ctx context.Context) (model.CashSession, error) {
	q := `SELECT ` + sessionCols + ` FROM cash_sessions WHERE status = ? LIMIT 1`
	return scanSession(r.db.QueryRowContext(ctx, q, model.SessionOpen))
}

// CreateTx inserts a new OPEN session inside the caller's transaction and
// populates the generated id. Callers must have verified no session is OPEN
// under the same transaction.
func (r *CashSessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.CashSession) error {
	const q = `INSERT INTO cash_sessions (operator_id, opening_float_cents, opened_at, status)
	           VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.OperatorID, s.OpeningFloatCents, s.OpenedAt, model.SessionOpen)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Status = model.SessionOpen
	return nil
}

// CloseTx settles a session inside the caller's transaction: closing
// timestamp, computed balance, optional counted drawer cash and the final
// status (CLOSED or AUTO_CLOSED) are written together. The status guard
// refuses to close a session twice.
func (r *CashSessionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, closedAt string, balanceCents int64, countedCents *int64, status string) error {
	const q = `UPDATE cash_sessions
	           SET closed_at = ?, closing_balance_cents = ?, counted_cents = ?, status = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, closedAt, balanceCents, countedCents, status, id, model.SessionOpen)
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

// GetByID returns a session by id. sql.ErrNoRows when absent.
func (r *CashSessionRepo) GetByID(ctx context.Context, id uint64) (model.CashSession, error) {
	q := `SELECT ` + sessionCols + ` FROM cash_sessions WHERE id = ? LIMIT 1`
	return scanSession(r.db.QueryRowContext(ctx, q, id))
}

// List returns sessions newest first, up to limit.
func (r *CashSessionRepo) List(ctx context.Context, limit int) ([]model.CashSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT ` + sessionCols + ` FROM cash_sessions ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.CashSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
