package model

import "time"

// Finance entry kinds. RECEIVABLE is money in, PAYABLE is money out.
const (
	EntryReceivable = "RECEIVABLE"
	EntryPayable    = "PAYABLE"
)

// Finance entry sources. TICKETS entries are written automatically when a
// cash session closes (manual close or rollover) and reconcile the PAID
// ticket total into the books; SUBSCRIPTION entries record monthly plan
// payments; MANUAL entries are typed in by an operator.
const (
	SourceTickets      = "TICKETS"
	SourceSubscription = "SUBSCRIPTION"
	SourceManual       = "MANUAL"
)

// FinanceEntry is one receivable or payable line. EntryDate is persisted
// date text; CashSessionID links TICKETS entries to the session they
// reconcile and is nil otherwise.
type FinanceEntry struct {
	ID            uint64    `json:"id"`
	Kind          string    `json:"kind"`
	Source        string    `json:"source"`
	Description   string    `json:"description"`
	AmountCents   int64     `json:"amount_cents"`
	Method        *string   `json:"method"`
	EntryDate     string    `json:"entry_date"`
	CashSessionID *uint64   `json:"cash_session_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidEntryKind reports whether s is a known entry kind.
func ValidEntryKind(s string) bool {
	return s == EntryReceivable || s == EntryPayable
}
