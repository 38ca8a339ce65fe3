package finance

import (
	"testing"

	"github.com/rflras87/estacionamento/internal/model"
)

func str(s string) *string { return &s }

func TestSummarize(t *testing.T) {
	tickets := []TicketRevenue{
		{AmountCents: 1000, Method: "CASH", Reconciled: true},
		{AmountCents: 2000, Method: "CARD", Reconciled: false},
		{AmountCents: 500, Method: "", Reconciled: true},
	}
	entries := []model.FinanceEntry{
		{Kind: model.EntryReceivable, Source: model.SourceSubscription, AmountCents: 15000, Method: str("PIX")},
		{Kind: model.EntryReceivable, Source: model.SourceManual, AmountCents: 700},
		{Kind: model.EntryPayable, Source: model.SourceManual, AmountCents: 300},
		// Mirror of an auto-closed session's tickets; must not count twice.
		{Kind: model.EntryReceivable, Source: model.SourceTickets, AmountCents: 1500, CashSessionID: new(uint64)},
	}

	s := Summarize("2026-03-01", "2026-03-31", tickets, entries)

	if s.TicketRevenueCents != 3500 {
		t.Fatalf("ticket revenue: got %d", s.TicketRevenueCents)
	}
	if s.SubscriptionRevenueCents != 15000 || s.ManualRevenueCents != 700 {
		t.Fatalf("subscription=%d manual=%d", s.SubscriptionRevenueCents, s.ManualRevenueCents)
	}
	if s.GrossRevenueCents != 19200 {
		t.Fatalf("gross: got %d", s.GrossRevenueCents)
	}
	if s.ExpenseCents != 300 || s.NetCents != 18900 {
		t.Fatalf("expense=%d net=%d", s.ExpenseCents, s.NetCents)
	}

	if s.ReconciledTicketCents != 1500 || s.UnreconciledTicketCents != 2000 {
		t.Fatalf("reconciled=%d unreconciled=%d", s.ReconciledTicketCents, s.UnreconciledTicketCents)
	}

	if s.ByMethodCents["CASH"] != 1000 || s.ByMethodCents["CARD"] != 2000 || s.ByMethodCents["PIX"] != 15000 {
		t.Fatalf("by method: %+v", s.ByMethodCents)
	}
	if s.ByMethodCents["UNSPECIFIED"] != 1200 {
		t.Fatalf("unspecified: got %d", s.ByMethodCents["UNSPECIFIED"])
	}

	if s.TicketCount != 3 || s.EntryCount != 4 {
		t.Fatalf("counts: tickets=%d entries=%d", s.TicketCount, s.EntryCount)
	}
}

func TestSummarizeEmptyPeriod(t *testing.T) {
	s := Summarize("2026-03-01", "2026-03-01", nil, nil)
	if s.GrossRevenueCents != 0 || s.NetCents != 0 || len(s.ByMethodCents) != 0 {
		t.Fatalf("empty period: %+v", s)
	}
}
