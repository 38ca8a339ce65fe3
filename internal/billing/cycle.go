package billing

import (
	"time"

	"github.com/rflras87/estacionamento/internal/clock"
)

// CycleDays is the length of one monthly billing cycle.
const CycleDays = 30

// ActivationCycle returns the cycle started on enrollment or on an
// ON_FIRST_USE subscriber's first check-in: starts today, ends 30 days out.
func ActivationCycle(today time.Time) (start, end time.Time) {
	start = clock.Midnight(today)
	return start, start.AddDate(0, 0, CycleDays)
}

// ExtendCycle returns the new cycle end after a monthly payment. The cycle
// extends 30 days from whichever is later, today or the current end, so an
// early payment stacks onto the remaining days and a late payment restarts
// from today. Renewals never overlap and never leave gaps shorter than the
// paid period.
func ExtendCycle(today time.Time, currentEnd *time.Time) time.Time {
	base := clock.Midnight(today)
	if currentEnd != nil && currentEnd.After(base) {
		base = clock.Midnight(*currentEnd)
	}
	return base.AddDate(0, 0, CycleDays)
}
