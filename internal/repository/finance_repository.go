package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rflras87/estacionamento/internal/model"
)

// FinanceRepo provides persistence for receivable/payable entries: the
// automatic revenue entries written when a till closes, subscription
// payments, and manual bookkeeping lines.
type FinanceRepo struct {
	db *sql.DB
}

// NewFinanceRepo returns a FinanceRepo bound to the given database.
func NewFinanceRepo(db *sql.DB) *FinanceRepo { return &FinanceRepo{db: db} }

const entryCols = `id, kind, source, description, amount_cents, method,
	entry_date, cash_session_id, created_at`

func scanEntry(row interface{ Scan(...any) error }) (model.FinanceEntry, error) {
	var (
		e         model.FinanceEntry
		method    sql.NullString
		sessionID sql.NullInt64
		createdAt time.Time
	)
	err := row.Scan(&e.ID, &e.Kind, &e.Source, &e.Description, &e.AmountCents,
		&method, &e.EntryDate, &sessionID, &createdAt)
	if err != nil {
		return model.FinanceEntry{}, err
	}
	if method.Valid {
		v := method.String
		e.Method = &v
	}
	if sessionID.Valid {
		v := uint64(sessionID.Int64)
		e.CashSessionID = &v
	}
	e.CreatedAt = createdAt
	return e, nil
}

// CreateTx inserts an entry inside the caller's transaction. Used for the
// reconciling revenue entry written while a session closes.
func (r *FinanceRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.FinanceEntry) error {
	const q = `INSERT INTO finance_entries (kind, source, description, amount_cents, method, entry_date, cash_session_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.Kind, e.Source, e.Description, e.AmountCents,
		e.Method, e.EntryDate, e.CashSessionID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Create inserts an entry outside any transaction (manual entries,
// subscription payments).
func (r *FinanceRepo) Create(ctx context.Context, e *model.FinanceEntry) error {
	const q = `INSERT INTO finance_entries (kind, source, description, amount_cents, method, entry_date, cash_session_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.Kind, e.Source, e.Description, e.AmountCents,
		e.Method, e.EntryDate, e.CashSessionID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListBetween returns entries with entry_date inside [from, to] (date
// text), oldest first.
func (r *FinanceRepo) ListBetween(ctx context.Context, from, to string) ([]model.FinanceEntry, error) {
	q := `SELECT ` + entryCols + ` FROM finance_entries
	      WHERE entry_date >= ? AND entry_date <= ? ORDER BY entry_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.FinanceEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
