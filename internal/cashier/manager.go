// Package cashier models the till lifecycle. Every payment-affecting
// operation goes through the Manager, which guarantees exactly one OPEN
// session, rolls a stale session over when the business date advances, and
// writes the reconciling revenue entry when a session closes. All methods
// run inside a transaction owned by the caller so a rollover completes
// fully before the payment that triggered it proceeds.
package cashier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/repository"
)

// SessionStore is the slice of the cash session repository the manager
// needs. Implemented by *repository.CashSessionRepo; tests substitute
// stubs.
type SessionStore interface {
	GetOpenTx(ctx context.Context, tx *sql.Tx) (model.CashSession, error)
	CreateTx(ctx context.Context, tx *sql.Tx, s *model.CashSession) error
	CloseTx(ctx context.Context, tx *sql.Tx, id uint64, closedAt string, balanceCents int64, countedCents *int64, status string) error
}

// PaidTotals sums the PAID ticket amounts linked to a session. Implemented
// by *repository.TicketRepo.
type PaidTotals interface {
	SumPaidBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int64, error)
}

// RevenueRecorder writes the reconciling finance entry for a closed
// session. Implemented by *repository.FinanceRepo.
type RevenueRecorder interface {
	CreateTx(ctx context.Context, tx *sql.Tx, e *model.FinanceEntry) error
}

// Manager coordinates the till state machine.
type Manager struct {
	Sessions SessionStore
	Tickets  PaidTotals
	Finance  RevenueRecorder
	Clock    clock.Clock
	Loc      *time.Location
}

// NewManager constructs a Manager. All dependencies must be non-nil.
func NewManager(sessions SessionStore, tickets PaidTotals, finance RevenueRecorder, clk clock.Clock, loc *time.Location) *Manager {
	if sessions == nil || tickets == nil || finance == nil || clk == nil || loc == nil {
		panic("nil dependency passed to cashier.NewManager")
	}
	return &Manager{Sessions: sessions, Tickets: tickets, Finance: finance, Clock: clk, Loc: loc}
}

// Open starts a new till session with the given opening float. It fails
// with repository.ErrConflict while another session is OPEN.
func (m *Manager) Open(ctx context.Context, tx *sql.Tx, operatorID uint64, openingFloatCents int64) (model.CashSession, error) {
	_, err := m.Sessions.GetOpenTx(ctx, tx)
	switch {
	case err == nil:
		return model.CashSession{}, repository.ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return model.CashSession{}, err
	}
	s := model.CashSession{
		OperatorID:        operatorID,
		OpeningFloatCents: openingFloatCents,
		OpenedAt:          clock.FormatDateTime(m.Clock.Now()),
	}
	if err := m.Sessions.CreateTx(ctx, tx, &s); err != nil {
		return model.CashSession{}, err
	}
	return s, nil
}

// EnsureUsable validates that a till session is usable for a payment right
// now. With no OPEN session it fails with repository.ErrNoOpenSession.
// When the OPEN session was opened on an earlier business date it performs
// the day rollover: the stale session is auto-closed with its revenue
// reconciled, and a fresh session opens carrying the same float under the
// same operator. The returned bool reports whether a rollover happened so
// the caller can surface a notice; same-day calls are no-ops.
func (m *Manager) EnsureUsable(ctx context.Context, tx *sql.Tx) (model.CashSession, bool, error) {
	open, err := m.Sessions.GetOpenTx(ctx, tx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CashSession{}, false, repository.ErrNoOpenSession
		}
		return model.CashSession{}, false, err
	}

	openedAt, err := clock.ParseDateTime(open.OpenedAt, m.Loc)
	if err != nil {
		return model.CashSession{}, false, fmt.Errorf("cash session %d has malformed opened_at %q: %w", open.ID, open.OpenedAt, err)
	}
	if !clock.Midnight(openedAt).Before(m.Clock.Today()) {
		return open, false, nil
	}

	// Day rollover: settle the stale session, then reopen with the same
	// float. Both steps stay inside the caller's transaction.
	if _, err := m.settle(ctx, tx, open, model.SessionAutoClosed, nil, clock.FormatDate(openedAt)); err != nil {
		return model.CashSession{}, false, err
	}
	fresh := model.CashSession{
		OperatorID:        open.OperatorID,
		OpeningFloatCents: open.OpeningFloatCents,
		OpenedAt:          clock.FormatDateTime(m.Clock.Now()),
	}
	if err := m.Sessions.CreateTx(ctx, tx, &fresh); err != nil {
		return model.CashSession{}, false, err
	}
	return fresh, true, nil
}

// Close settles the OPEN session manually. countedCents is the drawer cash
// the operator counted; it is stored for audit next to the computed
// closing balance, never reconciled into it. Fails with
// repository.ErrNoOpenSession when no till is open.
func (m *Manager) Close(ctx context.Context, tx *sql.Tx, countedCents int64) (model.CashSession, error) {
	open, err := m.Sessions.GetOpenTx(ctx, tx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CashSession{}, repository.ErrNoOpenSession
		}
		return model.CashSession{}, err
	}
	total, err := m.settle(ctx, tx, open, model.SessionClosed, &countedCents, clock.FormatDate(m.Clock.Today()))
	if err != nil {
		return model.CashSession{}, err
	}
	closedAt := clock.FormatDateTime(m.Clock.Now())
	balance := open.OpeningFloatCents + total
	open.Status = model.SessionClosed
	open.ClosedAt = &closedAt
	open.ClosingBalanceCents = &balance
	open.CountedCents = &countedCents
	return open, nil
}

// settle computes the session's PAID total, records the reconciling
// revenue entry when there is revenue, and closes the session with the
// given status. entryDate is the business date the revenue belongs to (the
// opening date for a rollover, today for a manual close).
func (m *Manager) settle(ctx context.Context, tx *sql.Tx, open model.CashSession, status string, countedCents *int64, entryDate string) (int64, error) {
	total, err := m.Tickets.SumPaidBySessionTx(ctx, tx, open.ID)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		sessionID := open.ID
		entry := model.FinanceEntry{
			Kind:          model.EntryReceivable,
			Source:        model.SourceTickets,
			Description:   fmt.Sprintf("ticket revenue, cash session #%d", open.ID),
			AmountCents:   total,
			EntryDate:     entryDate,
			CashSessionID: &sessionID,
		}
		if err := m.Finance.CreateTx(ctx, tx, &entry); err != nil {
			return 0, err
		}
	}
	balance := open.OpeningFloatCents + total
	if err := m.Sessions.CloseTx(ctx, tx, open.ID, clock.FormatDateTime(m.Clock.Now()), balance, countedCents, status); err != nil {
		return 0, err
	}
	return total, nil
}
