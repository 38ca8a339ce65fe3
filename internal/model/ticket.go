package model

import "time"

// Vehicle types accepted at the gate. Rates differ per type.
const (
	VehicleCar        = "CAR"
	VehicleMotorcycle = "MOTORCYCLE"
)

// Ticket statuses. A ticket is created PARKED and moves to PAID exactly
// once; rows are never deleted, the table is the permanent stay ledger.
const (
	TicketParked = "PARKED"
	TicketPaid   = "PAID"
)

// Client classification recorded at check-in.
const (
	ClientWalkIn     = "WALK_IN"
	ClientSubscriber = "SUBSCRIBER"
)

// Payment methods accepted at the till.
const (
	PayCash = "CASH"
	PayCard = "CARD"
	PayPix  = "PIX"
)

// Ticket records one vehicle's stay in the lot. EnteredAt and ExitedAt
// are persisted business-local timestamp text; the nullable fields stay
// nil until the ticket is paid.
type Ticket struct {
	ID            uint64    `json:"id"`
	Plate         string    `json:"plate"`
	VehicleType   string    `json:"vehicle_type"`
	SpotLabel     string    `json:"spot_label"`
	ClientType    string    `json:"client_type"`
	EnteredAt     string    `json:"entered_at"`
	ExitedAt      *string   `json:"exited_at"`
	AmountCents   *int64    `json:"amount_cents"`
	Status        string    `json:"status"`
	CashSessionID *uint64   `json:"cash_session_id"`
	PaymentMethod *string   `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidVehicleType reports whether s is an accepted vehicle type.
func ValidVehicleType(s string) bool {
	return s == VehicleCar || s == VehicleMotorcycle
}

// ValidPaymentMethod reports whether s is an accepted payment method.
func ValidPaymentMethod(s string) bool {
	return s == PayCash || s == PayCard || s == PayPix
}
