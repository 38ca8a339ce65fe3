package model

// Tariff is the singleton pricing configuration. Exactly one row exists;
// it is read by every fee computation and changed only through the
// administrative update endpoint.
type Tariff struct {
	ID               uint64 `json:"id"`
	CarRateCents     int64  `json:"car_rate_cents"`     // hourly
	MotoRateCents    int64  `json:"moto_rate_cents"`    // hourly
	DailyCapCents    int64  `json:"daily_cap_cents"`    // per 24h unit of stay
	GraceMinutes     int    `json:"grace_minutes"`      // free window after entry
	MonthlyCarCents  int64  `json:"monthly_car_cents"`  // subscription price
	MonthlyMotoCents int64  `json:"monthly_moto_cents"` // subscription price
}

// HourlyRate returns the rate for a vehicle type. Unknown types fall back
// to the car rate; callers validate the type before persisting it.
func (t Tariff) HourlyRate(vehicleType string) int64 {
	if vehicleType == VehicleMotorcycle {
		return t.MotoRateCents
	}
	return t.CarRateCents
}

// MonthlyPrice returns the subscription price for a vehicle type.
func (t Tariff) MonthlyPrice(vehicleType string) int64 {
	if vehicleType == VehicleMotorcycle {
		return t.MonthlyMotoCents
	}
	return t.MonthlyCarCents
}
