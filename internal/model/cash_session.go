package model

// Cash session statuses. At most one session is OPEN at any time; every
// payment is bound to the session open at that moment.
const (
	SessionOpen       = "OPEN"
	SessionClosed     = "CLOSED"
	SessionAutoClosed = "AUTO_CLOSED"
)

// CashSession is one till shift. OpenedAt/ClosedAt are persisted
// business-local timestamp text. ClosingBalanceCents is the computed
// opening float plus the PAID total linked to the session; CountedCents is
// what the operator actually counted in the drawer, stored separately so
// discrepancies stay visible.
type CashSession struct {
	ID                  uint64  `json:"id"`
	OperatorID          uint64  `json:"operator_id"`
	OpeningFloatCents   int64   `json:"opening_float_cents"`
	OpenedAt            string  `json:"opened_at"`
	ClosedAt            *string `json:"closed_at"`
	ClosingBalanceCents *int64  `json:"closing_balance_cents"`
	CountedCents        *int64  `json:"counted_cents"`
	Status              string  `json:"status"`
}
