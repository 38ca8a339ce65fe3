package billing

import (
	"testing"
	"time"

	"github.com/rflras87/estacionamento/internal/model"
)

var testTariff = model.Tariff{
	CarRateCents:  1000,
	MotoRateCents: 500,
	DailyCapCents: 5000,
	GraceMinutes:  15,
}

func at(h, m, s int) time.Time {
	return time.Date(2026, 3, 10, h, m, s, 0, time.UTC)
}

func TestAssessGraceWindow(t *testing.T) {
	entry := at(10, 0, 0)

	q := Assess(entry, at(10, 10, 0), model.VehicleCar, testTariff)
	if q != Free {
		t.Fatalf("10min stay: want free, got %+v", q)
	}
	// The boundary itself is still free.
	q = Assess(entry, at(10, 15, 0), model.VehicleCar, testTariff)
	if q != Free {
		t.Fatalf("exactly 15min: want free, got %+v", q)
	}
	// One second past the grace window bills a full hour.
	q = Assess(entry, at(10, 15, 1), model.VehicleCar, testTariff)
	if q.Hours != 1 || q.AmountCents != 1000 {
		t.Fatalf("15min1s: want 1h/1000, got %+v", q)
	}
}

func TestAssessRoundsUpToWholeHours(t *testing.T) {
	entry := at(8, 0, 0)

	q := Assess(entry, at(9, 0, 0), model.VehicleCar, testTariff)
	if q.Hours != 1 || q.AmountCents != 1000 {
		t.Fatalf("exactly 1h: want 1h/1000, got %+v", q)
	}
	q = Assess(entry, at(9, 0, 1), model.VehicleCar, testTariff)
	if q.Hours != 2 || q.AmountCents != 2000 {
		t.Fatalf("1h1s: want 2h/2000, got %+v", q)
	}
	q = Assess(entry, at(14, 0, 0), model.VehicleMotorcycle, testTariff)
	if q.Hours != 6 || q.AmountCents != 3000 {
		t.Fatalf("6h moto: want 6h/3000, got %+v", q)
	}
}

func TestAssessDailyCap(t *testing.T) {
	entry := at(0, 0, 0)

	// 8 raw hours would be 8000, the cap holds it at 5000.
	q := Assess(entry, at(8, 0, 0), model.VehicleCar, testTariff)
	if q.Hours != 8 || q.AmountCents != 5000 {
		t.Fatalf("8h car: want 8h/5000, got %+v", q)
	}
	q = Assess(entry, entry.Add(24*time.Hour), model.VehicleCar, testTariff)
	if q.Hours != 24 || q.AmountCents != 5000 {
		t.Fatalf("24h car: want 24h/5000, got %+v", q)
	}
}

func TestAssessMultiDay(t *testing.T) {
	entry := at(0, 0, 0)

	q := Assess(entry, entry.Add(25*time.Hour), model.VehicleCar, testTariff)
	if q.Hours != 25 || q.AmountCents != 10000 {
		t.Fatalf("25h: want 25h/10000, got %+v", q)
	}
	q = Assess(entry, entry.Add(48*time.Hour), model.VehicleCar, testTariff)
	if q.Hours != 48 || q.AmountCents != 10000 {
		t.Fatalf("48h: want 48h/10000, got %+v", q)
	}
	q = Assess(entry, entry.Add(49*time.Hour), model.VehicleMotorcycle, testTariff)
	if q.Hours != 49 || q.AmountCents != 15000 {
		t.Fatalf("49h moto: want 49h/15000, got %+v", q)
	}
}

func TestAssessClampsNegativeElapsed(t *testing.T) {
	q := Assess(at(12, 0, 0), at(11, 0, 0), model.VehicleCar, testTariff)
	if q != Free {
		t.Fatalf("exit before entry: want free, got %+v", q)
	}
}

func TestSubscriberActive(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	str := func(s string) *string { return &s }

	cases := []struct {
		name string
		sub  *model.Subscriber
		want bool
	}{
		{"nil subscriber", nil, false},
		{"cycle ends today", &model.Subscriber{CycleEnd: str("2026-03-10")}, true},
		{"cycle ends tomorrow", &model.Subscriber{CycleEnd: str("2026-03-11")}, true},
		{"cycle ended yesterday", &model.Subscriber{CycleEnd: str("2026-03-09")}, false},
		{"immediate not yet cycled", &model.Subscriber{Activation: model.ActivationImmediate}, true},
		{"on first use not yet cycled", &model.Subscriber{Activation: model.ActivationOnFirstUse}, false},
	}
	for _, c := range cases {
		got, err := SubscriberActive(c.sub, today, loc)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: want %v, got %v", c.name, c.want, got)
		}
	}

	bad := &model.Subscriber{CycleEnd: str("not-a-date")}
	if _, err := SubscriberActive(bad, today, loc); err == nil {
		t.Fatal("malformed cycle_end: want error, got nil")
	}
}
