// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketPaidEvent is published when a ticket is paid at check-out. It
// carries enough information for downstream consumers to log a receipt or
// feed analytics without querying the primary database.
type TicketPaidEvent struct {
	TicketID      uint64 `json:"ticket_id"`
	TicketNumber  string `json:"ticket_number"`
	Plate         string `json:"plate"`
	VehicleType   string `json:"vehicle_type"`
	ClientType    string `json:"client_type"`
	EnteredAt     string `json:"entered_at"`
	ExitedAt      string `json:"exited_at"`
	Hours         int    `json:"hours"`
	AmountCents   int64  `json:"amount_cents"`
	PaymentMethod string `json:"payment_method"`
	CashSessionID uint64 `json:"cash_session_id"`
}

// CashSessionClosedEvent is published when a till session is settled,
// whether by the operator or by the automatic day rollover.
type CashSessionClosedEvent struct {
	SessionID           uint64 `json:"session_id"`
	OperatorID          uint64 `json:"operator_id"`
	Status              string `json:"status"`
	OpenedAt            string `json:"opened_at"`
	ClosedAt            string `json:"closed_at"`
	OpeningFloatCents   int64  `json:"opening_float_cents"`
	ClosingBalanceCents int64  `json:"closing_balance_cents"`
}
