package handler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/repository"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time   { return f.now }
func (f fixedClock) Today() time.Time { return clock.Midnight(f.now) }

// gateStub satisfies parkedGate in memory.
type gateStub struct {
	parked  map[string]model.Ticket
	created []model.Ticket
}

func (g *gateStub) GetParkedByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (model.Ticket, error) {
	if t, ok := g.parked[plate]; ok {
		return t, nil
	}
	return model.Ticket{}, sql.ErrNoRows
}

func (g *gateStub) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	t.ID = uint64(len(g.created) + 1)
	g.created = append(g.created, *t)
	return nil
}

type cycleWrite struct {
	id         uint64
	start, end string
}

// registryStub satisfies plateRegistry and records cycle writes so tests
// can assert the registry stayed untouched.
type registryStub struct {
	sub    *model.Subscriber
	cycles []cycleWrite
}

func (r *registryStub) GetByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (model.Subscriber, error) {
	if r.sub == nil || r.sub.Plate != plate {
		return model.Subscriber{}, sql.ErrNoRows
	}
	return *r.sub, nil
}

func (r *registryStub) SetCycleTx(ctx context.Context, tx *sql.Tx, id uint64, cycleStart, cycleEnd string) error {
	r.cycles = append(r.cycles, cycleWrite{id: id, start: cycleStart, end: cycleEnd})
	return nil
}

func (r *registryStub) GetByPlate(ctx context.Context, plate string) (model.Subscriber, error) {
	return r.GetByPlateTx(ctx, nil, plate)
}

var (
	handlerNow    = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	handlerTariff = model.Tariff{
		CarRateCents:  1000,
		MotoRateCents: 500,
		DailyCapCents: 5000,
		GraceMinutes:  15,
	}
)

func strp(s string) *string { return &s }

func TestAdmitVehicleRejectsSecondParkedTicket(t *testing.T) {
	gate := &gateStub{parked: map[string]model.Ticket{
		"ABC1234": {ID: 9, Plate: "ABC1234", Status: model.TicketParked},
	}}
	_, err := admitVehicle(context.Background(), nil, gate, &registryStub{}, fixedClock{handlerNow}, time.UTC, "ABC1234", model.VehicleCar, "")
	if err != repository.ErrConflict {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if len(gate.created) != 0 {
		t.Fatal("no ticket may be created while one is PARKED for the plate")
	}
}

func TestAdmitVehicleClassifiesActiveSubscriberByPlate(t *testing.T) {
	// Enrolled as CAR, arriving as MOTORCYCLE: the exemption resolves by
	// plate, the vehicle type on the plan only picks the monthly price.
	reg := &registryStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleCar,
		Activation: model.ActivationImmediate, CycleEnd: strp("2026-03-20"),
	}}
	gate := &gateStub{}

	tk, err := admitVehicle(context.Background(), nil, gate, reg, fixedClock{handlerNow}, time.UTC, "ABC1234", model.VehicleMotorcycle, "M3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.ClientType != model.ClientSubscriber {
		t.Fatalf("client_type: want SUBSCRIBER, got %q", tk.ClientType)
	}
	if tk.VehicleType != model.VehicleMotorcycle {
		t.Fatalf("vehicle_type: got %q", tk.VehicleType)
	}
}

func TestAdmitVehicleStartsFirstUseCycle(t *testing.T) {
	reg := &registryStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleCar,
		Activation: model.ActivationOnFirstUse,
	}}
	gate := &gateStub{}

	tk, err := admitVehicle(context.Background(), nil, gate, reg, fixedClock{handlerNow}, time.UTC, "ABC1234", model.VehicleCar, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.ClientType != model.ClientSubscriber {
		t.Fatalf("client_type: want SUBSCRIBER, got %q", tk.ClientType)
	}
	if len(reg.cycles) != 1 {
		t.Fatalf("want 1 cycle write, got %d", len(reg.cycles))
	}
	if w := reg.cycles[0]; w.id != 5 || w.start != "2026-03-10" || w.end != "2026-04-09" {
		t.Fatalf("bad cycle write: %+v", w)
	}
}

func TestAdmitVehicleExpiredSubscriberLeavesRegistryUntouched(t *testing.T) {
	reg := &registryStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleCar,
		Activation: model.ActivationImmediate,
		CycleStart: strp("2026-01-09"), CycleEnd: strp("2026-02-08"),
	}}
	gate := &gateStub{}

	tk, err := admitVehicle(context.Background(), nil, gate, reg, fixedClock{handlerNow}, time.UTC, "ABC1234", model.VehicleCar, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.ClientType != model.ClientWalkIn {
		t.Fatalf("expired subscription must bill as walk-in, got %q", tk.ClientType)
	}
	if len(reg.cycles) != 0 {
		t.Fatalf("expired subscription must not be touched, got writes: %+v", reg.cycles)
	}
}

func TestCurrentQuoteChargesExpiredSubscriberAsWalkIn(t *testing.T) {
	reg := &registryStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleCar,
		Activation: model.ActivationImmediate, CycleEnd: strp("2026-02-08"),
	}}
	tk := model.Ticket{Plate: "ABC1234", VehicleType: model.VehicleCar,
		EnteredAt: "2026-03-10 08:00:00", Status: model.TicketParked}

	q, free, err := currentQuote(context.Background(), reg, handlerTariff, tk, handlerNow, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free {
		t.Fatal("expired subscription must not be free")
	}
	if q.Hours != 2 || q.AmountCents != 2000 {
		t.Fatalf("want 2h/2000, got %+v", q)
	}
}

func TestCurrentQuoteFreesActiveSubscriberAcrossVehicleTypes(t *testing.T) {
	reg := &registryStub{sub: &model.Subscriber{
		ID: 5, Plate: "ABC1234", VehicleType: model.VehicleCar,
		Activation: model.ActivationImmediate, CycleEnd: strp("2026-03-20"),
	}}
	tk := model.Ticket{Plate: "ABC1234", VehicleType: model.VehicleMotorcycle,
		EnteredAt: "2026-03-10 08:00:00", Status: model.TicketParked}

	q, free, err := currentQuote(context.Background(), reg, handlerTariff, tk, handlerNow, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free || q.AmountCents != 0 {
		t.Fatalf("active subscription must quote free, got free=%v %+v", free, q)
	}
}
