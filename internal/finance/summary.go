// Package finance aggregates core-produced records into period totals for
// reconciliation. It is pure summation: inputs are typed rows the handler
// loads, the output is a report, and no invariant beyond arithmetic lives
// here.
package finance

import "github.com/rflras87/estacionamento/internal/model"

// TicketRevenue is one PAID ticket's contribution to a period.
// Reconciled means the ticket's cash session has already been closed
// (manually or by rollover), so its revenue is covered by a TICKETS
// finance entry.
type TicketRevenue struct {
	AmountCents int64
	Method      string
	Reconciled  bool
}

// Summary is the period report returned by the finance endpoint.
type Summary struct {
	From string `json:"from"`
	To   string `json:"to"`

	GrossRevenueCents int64 `json:"gross_revenue_cents"`
	ExpenseCents      int64 `json:"expense_cents"`
	NetCents          int64 `json:"net_cents"`

	TicketRevenueCents       int64 `json:"ticket_revenue_cents"`
	SubscriptionRevenueCents int64 `json:"subscription_revenue_cents"`
	ManualRevenueCents       int64 `json:"manual_revenue_cents"`

	ReconciledTicketCents   int64 `json:"reconciled_ticket_cents"`
	UnreconciledTicketCents int64 `json:"unreconciled_ticket_cents"`

	ByMethodCents map[string]int64 `json:"by_method_cents"`

	TicketCount int `json:"ticket_count"`
	EntryCount  int `json:"entry_count"`
}

// Summarize folds a period's paid tickets and finance entries into a
// Summary. TICKETS-source entries are the reconciling mirrors of ticket
// sums and are deliberately excluded from gross revenue; counting both
// would double every closed session.
func Summarize(from, to string, tickets []TicketRevenue, entries []model.FinanceEntry) Summary {
	s := Summary{
		From:          from,
		To:            to,
		ByMethodCents: make(map[string]int64),
		TicketCount:   len(tickets),
		EntryCount:    len(entries),
	}

	for _, t := range tickets {
		s.TicketRevenueCents += t.AmountCents
		if t.Reconciled {
			s.ReconciledTicketCents += t.AmountCents
		} else {
			s.UnreconciledTicketCents += t.AmountCents
		}
		method := t.Method
		if method == "" {
			method = "UNSPECIFIED"
		}
		s.ByMethodCents[method] += t.AmountCents
	}

	for _, e := range entries {
		switch {
		case e.Kind == model.EntryPayable:
			s.ExpenseCents += e.AmountCents
		case e.Source == model.SourceTickets:
			// mirror of ticket revenue, skip
		case e.Source == model.SourceSubscription:
			s.SubscriptionRevenueCents += e.AmountCents
			s.addMethod(e)
		default:
			s.ManualRevenueCents += e.AmountCents
			s.addMethod(e)
		}
	}

	s.GrossRevenueCents = s.TicketRevenueCents + s.SubscriptionRevenueCents + s.ManualRevenueCents
	s.NetCents = s.GrossRevenueCents - s.ExpenseCents
	return s
}

func (s *Summary) addMethod(e model.FinanceEntry) {
	method := "UNSPECIFIED"
	if e.Method != nil && *e.Method != "" {
		method = *e.Method
	}
	s.ByMethodCents[method] += e.AmountCents
}
