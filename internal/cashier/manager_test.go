package cashier

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/repository"
)

// fixedClock pins business time for deterministic rollover tests.
type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time   { return f.now }
func (f fixedClock) Today() time.Time { return clock.Midnight(f.now) }

type closeCall struct {
	id       uint64
	closedAt string
	balance  int64
	counted  *int64
	status   string
}

// sessionStub satisfies SessionStore in memory.
type sessionStub struct {
	open    *model.CashSession
	nextID  uint64
	created []model.CashSession
	closed  []closeCall
}

func (s *sessionStub) GetOpenTx(ctx context.Context, tx *sql.Tx) (model.CashSession, error) {
	if s.open == nil {
		return model.CashSession{}, sql.ErrNoRows
	}
	return *s.open, nil
}

func (s *sessionStub) CreateTx(ctx context.Context, tx *sql.Tx, sess *model.CashSession) error {
	s.nextID++
	sess.ID = s.nextID
	sess.Status = model.SessionOpen
	s.created = append(s.created, *sess)
	return nil
}

func (s *sessionStub) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, closedAt string, balanceCents int64, countedCents *int64, status string) error {
	s.closed = append(s.closed, closeCall{id: id, closedAt: closedAt, balance: balanceCents, counted: countedCents, status: status})
	return nil
}

type paidStub struct{ total int64 }

func (p paidStub) SumPaidBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int64, error) {
	return p.total, nil
}

type financeStub struct{ entries []model.FinanceEntry }

func (f *financeStub) CreateTx(ctx context.Context, tx *sql.Tx, e *model.FinanceEntry) error {
	e.ID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}

func newTestManager(sessions *sessionStub, total int64, finance *financeStub, now time.Time) *Manager {
	return NewManager(sessions, paidStub{total: total}, finance, fixedClock{now: now}, time.UTC)
}

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func TestOpenConflictsWithExistingSession(t *testing.T) {
	sessions := &sessionStub{open: &model.CashSession{ID: 1, Status: model.SessionOpen}}
	m := newTestManager(sessions, 0, &financeStub{}, testNow)

	_, err := m.Open(context.Background(), nil, 7, 2000)
	if err != repository.ErrConflict {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if len(sessions.created) != 0 {
		t.Fatal("no session should be created on conflict")
	}
}

func TestOpenCreatesSession(t *testing.T) {
	sessions := &sessionStub{}
	m := newTestManager(sessions, 0, &financeStub{}, testNow)

	s, err := m.Open(context.Background(), nil, 7, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == 0 || s.OperatorID != 7 || s.OpeningFloatCents != 2000 {
		t.Fatalf("bad session: %+v", s)
	}
	if s.OpenedAt != "2026-03-10 10:00:00" {
		t.Fatalf("opened_at: got %q", s.OpenedAt)
	}
}

func TestEnsureUsableRequiresOpenSession(t *testing.T) {
	m := newTestManager(&sessionStub{}, 0, &financeStub{}, testNow)

	_, _, err := m.EnsureUsable(context.Background(), nil)
	if err != repository.ErrNoOpenSession {
		t.Fatalf("want ErrNoOpenSession, got %v", err)
	}
}

func TestEnsureUsableSameDayIsNoOp(t *testing.T) {
	open := model.CashSession{ID: 3, OperatorID: 7, OpeningFloatCents: 2000, OpenedAt: "2026-03-10 08:00:00", Status: model.SessionOpen}
	sessions := &sessionStub{open: &open, nextID: 3}
	m := newTestManager(sessions, 8000, &financeStub{}, testNow)

	got, rolled, err := m.EnsureUsable(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rolled {
		t.Fatal("same-day session must not roll over")
	}
	if got.ID != 3 {
		t.Fatalf("want session 3 back, got %+v", got)
	}
	if len(sessions.closed) != 0 || len(sessions.created) != 0 {
		t.Fatal("same-day call must not touch the store")
	}
}

func TestEnsureUsableRollsOverStaleSession(t *testing.T) {
	open := model.CashSession{ID: 3, OperatorID: 7, OpeningFloatCents: 2000, OpenedAt: "2026-03-09 09:00:00", Status: model.SessionOpen}
	sessions := &sessionStub{open: &open, nextID: 3}
	finance := &financeStub{}
	m := newTestManager(sessions, 8000, finance, testNow)

	fresh, rolled, err := m.EnsureUsable(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rolled {
		t.Fatal("stale session must report a rollover")
	}

	// The stale session is auto-closed at float + revenue, counted stays nil.
	if len(sessions.closed) != 1 {
		t.Fatalf("want 1 close, got %d", len(sessions.closed))
	}
	cl := sessions.closed[0]
	if cl.id != 3 || cl.status != model.SessionAutoClosed || cl.balance != 10000 || cl.counted != nil {
		t.Fatalf("bad close: %+v", cl)
	}

	// Revenue reconciles under the stale session's opening date.
	if len(finance.entries) != 1 {
		t.Fatalf("want 1 finance entry, got %d", len(finance.entries))
	}
	e := finance.entries[0]
	if e.Kind != model.EntryReceivable || e.Source != model.SourceTickets || e.AmountCents != 8000 {
		t.Fatalf("bad entry: %+v", e)
	}
	if e.EntryDate != "2026-03-09" {
		t.Fatalf("entry_date: want opening date, got %q", e.EntryDate)
	}
	if e.CashSessionID == nil || *e.CashSessionID != 3 {
		t.Fatalf("entry session link: %+v", e.CashSessionID)
	}

	// A fresh session reopens with the same float under the same operator.
	if fresh.ID == 3 || fresh.OperatorID != 7 || fresh.OpeningFloatCents != 2000 {
		t.Fatalf("bad fresh session: %+v", fresh)
	}
	if fresh.OpenedAt != "2026-03-10 10:00:00" {
		t.Fatalf("fresh opened_at: got %q", fresh.OpenedAt)
	}
}

func TestEnsureUsableRolloverWithoutRevenueSkipsEntry(t *testing.T) {
	open := model.CashSession{ID: 3, OperatorID: 7, OpeningFloatCents: 2000, OpenedAt: "2026-03-09 09:00:00", Status: model.SessionOpen}
	sessions := &sessionStub{open: &open, nextID: 3}
	finance := &financeStub{}
	m := newTestManager(sessions, 0, finance, testNow)

	_, rolled, err := m.EnsureUsable(context.Background(), nil)
	if err != nil || !rolled {
		t.Fatalf("rolled=%v err=%v", rolled, err)
	}
	if len(finance.entries) != 0 {
		t.Fatal("zero revenue must not write a finance entry")
	}
	if sessions.closed[0].balance != 2000 {
		t.Fatalf("balance: got %d", sessions.closed[0].balance)
	}
}

func TestEnsureUsableRejectsMalformedOpenedAt(t *testing.T) {
	open := model.CashSession{ID: 3, OpenedAt: "garbage", Status: model.SessionOpen}
	m := newTestManager(&sessionStub{open: &open}, 0, &financeStub{}, testNow)

	if _, _, err := m.EnsureUsable(context.Background(), nil); err == nil {
		t.Fatal("malformed opened_at must be an error")
	}
}

func TestCloseSettlesOpenSession(t *testing.T) {
	open := model.CashSession{ID: 3, OperatorID: 7, OpeningFloatCents: 2000, OpenedAt: "2026-03-10 08:00:00", Status: model.SessionOpen}
	sessions := &sessionStub{open: &open, nextID: 3}
	finance := &financeStub{}
	m := newTestManager(sessions, 7000, finance, testNow)

	got, err := m.Close(context.Background(), nil, 8900)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cl := sessions.closed[0]
	if cl.status != model.SessionClosed || cl.balance != 9000 {
		t.Fatalf("bad close: %+v", cl)
	}
	if cl.counted == nil || *cl.counted != 8900 {
		t.Fatalf("counted: %+v", cl.counted)
	}
	if len(finance.entries) != 1 || finance.entries[0].AmountCents != 7000 {
		t.Fatalf("finance entries: %+v", finance.entries)
	}
	if finance.entries[0].EntryDate != "2026-03-10" {
		t.Fatalf("entry_date: got %q", finance.entries[0].EntryDate)
	}

	if got.Status != model.SessionClosed {
		t.Fatalf("returned status: %q", got.Status)
	}
	if got.ClosingBalanceCents == nil || *got.ClosingBalanceCents != 9000 {
		t.Fatalf("returned balance: %+v", got.ClosingBalanceCents)
	}
	if got.CountedCents == nil || *got.CountedCents != 8900 {
		t.Fatalf("returned counted: %+v", got.CountedCents)
	}
}

func TestCloseRequiresOpenSession(t *testing.T) {
	m := newTestManager(&sessionStub{}, 0, &financeStub{}, testNow)

	if _, err := m.Close(context.Background(), nil, 0); err != repository.ErrNoOpenSession {
		t.Fatalf("want ErrNoOpenSession, got %v", err)
	}
}
