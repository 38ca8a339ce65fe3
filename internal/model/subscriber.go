package model

import "time"

// Activation rules for monthly plans. IMMEDIATE starts the billing cycle on
// enrollment; ON_FIRST_USE waits for the plate's first check-in.
const (
	ActivationImmediate  = "IMMEDIATE"
	ActivationOnFirstUse = "ON_FIRST_USE"
)

// PlanMonthly is the only plan currently sold. Kept as a column so more
// plans can be added without a schema change.
const PlanMonthly = "MONTHLY"

// Subscriber is a plate enrolled in a monthly plan. While the cycle is
// active the plate parks for free; an expired cycle bills as a walk-in and
// is never renewed implicitly.
//
// CycleStart/CycleEnd are persisted date text ("YYYY-MM-DD") and are nil
// for an ON_FIRST_USE subscriber that has not checked in yet.
type Subscriber struct {
	ID          uint64    `json:"id"`
	Plate       string    `json:"plate"`
	VehicleType string    `json:"vehicle_type"`
	Plan        string    `json:"plan"`
	Activation  string    `json:"activation"`
	CycleStart  *string   `json:"cycle_start"`
	CycleEnd    *string   `json:"cycle_end"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidActivation reports whether s is a known activation rule.
func ValidActivation(s string) bool {
	return s == ActivationImmediate || s == ActivationOnFirstUse
}
