package handler

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rflras87/estacionamento/internal/model"
)

// cycleStoreStub satisfies cycleStore in memory.
type cycleStoreStub struct {
	sub     *model.Subscriber
	extends []cycleWrite
}

func (s *cycleStoreStub) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Subscriber, error) {
	if s.sub == nil || s.sub.ID != id {
		return model.Subscriber{}, sql.ErrNoRows
	}
	return *s.sub, nil
}

func (s *cycleStoreStub) ExtendCycleTx(ctx context.Context, tx *sql.Tx, id uint64, cycleStart, cycleEnd string) error {
	s.extends = append(s.extends, cycleWrite{id: id, start: cycleStart, end: cycleEnd})
	return nil
}

// ledgerStub satisfies paymentLedger; err simulates a failed insert.
type ledgerStub struct {
	entries []model.FinanceEntry
	err     error
}

func (l *ledgerStub) CreateTx(ctx context.Context, tx *sql.Tx, e *model.FinanceEntry) error {
	if l.err != nil {
		return l.err
	}
	e.ID = uint64(len(l.entries) + 1)
	l.entries = append(l.entries, *e)
	return nil
}

var renewTariff = model.Tariff{MonthlyCarCents: 15000, MonthlyMotoCents: 8000}

func TestRenewSubscriptionExtendsAndRecordsPayment(t *testing.T) {
	store := &cycleStoreStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleMotorcycle,
		Activation: model.ActivationImmediate,
		CycleStart: strp("2026-02-18"), CycleEnd: strp("2026-03-20"),
	}}
	ledger := &ledgerStub{}
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	s, price, err := renewSubscription(context.Background(), nil, store, ledger, renewTariff, 5, model.PayPix, today, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 8000 {
		t.Fatalf("price: want moto monthly, got %d", price)
	}

	// Early renewal stacks onto the remaining cycle.
	if len(store.extends) != 1 {
		t.Fatalf("want 1 extension, got %d", len(store.extends))
	}
	if w := store.extends[0]; w.end != "2026-04-19" {
		t.Fatalf("new cycle end: got %q", w.end)
	}
	if s.CycleEnd == nil || *s.CycleEnd != "2026-04-19" {
		t.Fatalf("returned cycle end: %+v", s.CycleEnd)
	}
	if s.CycleStart == nil || *s.CycleStart != "2026-02-18" {
		t.Fatalf("existing cycle start must be preserved: %+v", s.CycleStart)
	}

	if len(ledger.entries) != 1 {
		t.Fatalf("want 1 payment entry, got %d", len(ledger.entries))
	}
	e := ledger.entries[0]
	if e.Kind != model.EntryReceivable || e.Source != model.SourceSubscription || e.AmountCents != 8000 {
		t.Fatalf("bad entry: %+v", e)
	}
	if e.Method == nil || *e.Method != model.PayPix {
		t.Fatalf("entry method: %+v", e.Method)
	}
	if e.EntryDate != "2026-03-10" {
		t.Fatalf("entry date: got %q", e.EntryDate)
	}
}

func TestRenewSubscriptionFailedPaymentAborts(t *testing.T) {
	store := &cycleStoreStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleCar,
		Activation: model.ActivationImmediate, CycleEnd: strp("2026-03-20"),
	}}
	ledger := &ledgerStub{err: errors.New("insert failed")}
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// The error must reach the caller so the shared transaction rolls the
	// cycle extension back along with the missing payment.
	_, _, err := renewSubscription(context.Background(), nil, store, ledger, renewTariff, 5, model.PayCash, today, time.UTC)
	if err == nil {
		t.Fatal("ledger failure must fail the renewal")
	}
	if len(ledger.entries) != 0 {
		t.Fatal("no entry may be recorded on failure")
	}
}

func TestRenewSubscriptionMissingSubscriber(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	_, _, err := renewSubscription(context.Background(), nil, &cycleStoreStub{}, &ledgerStub{}, renewTariff, 99, model.PayCash, today, time.UTC)
	if err != sql.ErrNoRows {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
}
