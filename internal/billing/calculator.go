// Package billing holds the pure fee and subscription-cycle math. Nothing
// in this package touches the database or the wall clock; callers supply
// timestamps, the tariff and the subscriber state.
package billing

import (
	"time"

	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/model"
)

// Quote is the result of assessing a stay: the chargeable hours and the
// amount due in cents. A stay inside the grace window quotes (0, 0).
type Quote struct {
	Hours       int   `json:"hours"`
	AmountCents int64 `json:"amount_cents"`
}

// Free is the zero quote used for active subscribers and grace-window
// stays.
var Free = Quote{}

// Assess computes the fee for a stay from entry to exit under the given
// tariff. The subscriber short-circuit is not applied here; compose it
// with SubscriberActive so the pure time math stays independently testable.
//
// Rules, in order:
//  1. Negative elapsed time (clock skew, bad input) clamps to zero.
//  2. Elapsed time within the grace window is free.
//  3. Chargeable hours are the elapsed seconds rounded up to whole hours,
//     with a minimum of one hour once past the grace window.
//  4. Up to 24 hours the amount is hours*rate capped at the daily cap.
//  5. Beyond 24 hours the amount is one cap unit per started 24h block,
//     regardless of the raw hourly amount.
func Assess(entry, exit time.Time, vehicleType string, t model.Tariff) Quote {
	elapsed := int64(exit.Sub(entry) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed <= int64(t.GraceMinutes)*60 {
		return Free
	}

	hours := int((elapsed + 3599) / 3600)
	if hours < 1 {
		hours = 1
	}

	rate := t.HourlyRate(vehicleType)
	amount := int64(hours) * rate
	if hours <= 24 {
		if amount > t.DailyCapCents {
			amount = t.DailyCapCents
		}
	} else {
		days := int64((hours + 23) / 24)
		amount = days * t.DailyCapCents
	}
	return Quote{Hours: hours, AmountCents: amount}
}

// SubscriberActive reports whether a subscription exempts the plate from
// per-stay fees on the given business date. A subscriber is active when its
// cycle end is today or later, or when it was enrolled with IMMEDIATE
// activation and no cycle has been recorded yet (pre-payment covers the
// stay either way). A nil subscriber is never active.
func SubscriberActive(sub *model.Subscriber, today time.Time, loc *time.Location) (bool, error) {
	if sub == nil {
		return false, nil
	}
	if sub.CycleEnd == nil {
		return sub.Activation == model.ActivationImmediate, nil
	}
	end, err := clock.ParseDate(*sub.CycleEnd, loc)
	if err != nil {
		return false, err
	}
	return !end.Before(clock.Midnight(today)), nil
}
