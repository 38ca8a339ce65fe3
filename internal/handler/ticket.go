package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rflras87/estacionamento/internal/billing"
	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/repository"
	"github.com/rflras87/estacionamento/internal/utils"
)

// TicketHandler serves check-in and ticket lookup endpoints.
type TicketHandler struct {
	Tickets     *repository.TicketRepo
	Subscribers *repository.SubscriberRepo
	Tariffs     *repository.TariffRepo
	Clock       clock.Clock
	Loc         *time.Location
}

func NewTicketHandler(t *repository.TicketRepo, s *repository.SubscriberRepo, tr *repository.TariffRepo, clk clock.Clock, loc *time.Location) *TicketHandler {
	return &TicketHandler{Tickets: t, Subscribers: s, Tariffs: tr, Clock: clk, Loc: loc}
}

type checkInReq struct {
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
	SpotLabel   string `json:"spot_label"`
}

type ticketResp struct {
	model.Ticket
	TicketNumber string `json:"ticket_number"`
	PlateDisplay string `json:"plate_display"`
}

func presentTicket(t model.Ticket) ticketResp {
	return ticketResp{
		Ticket:       t,
		TicketNumber: utils.FormatTicketNumber(t.ID),
		PlateDisplay: utils.FormatPlate(t.Plate),
	}
}

// plateSubscribers is the read-only slice of the subscriber registry the
// quote path needs. Implemented by *repository.SubscriberRepo; tests
// substitute stubs.
type plateSubscribers interface {
	GetByPlate(ctx context.Context, plate string) (model.Subscriber, error)
}

// currentQuote prices a stay as of the given exit instant. The subscriber
// registry is consulted live and resolved by plate alone: an active
// subscription means a free stay regardless of the vehicle type on the
// ticket, and a lapsed one bills as a walk-in without touching the
// registry.
func currentQuote(ctx context.Context, subs plateSubscribers, tariff model.Tariff, t model.Ticket, exit time.Time, loc *time.Location) (billing.Quote, bool, error) {
	entry, err := clock.ParseDateTime(t.EnteredAt, loc)
	if err != nil {
		return billing.Free, false, err
	}
	sub, err := subs.GetByPlate(ctx, t.Plate)
	if err == nil {
		active, aerr := billing.SubscriberActive(&sub, clock.Midnight(exit), loc)
		if aerr != nil {
			return billing.Free, false, aerr
		}
		if active {
			return billing.Free, true, nil
		}
	} else if err != sql.ErrNoRows {
		return billing.Free, false, err
	}
	return billing.Assess(entry, exit, t.VehicleType, tariff), false, nil
}

// parkedGate is the slice of the ticket repository the admission path
// needs. Implemented by *repository.TicketRepo.
type parkedGate interface {
	GetParkedByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (model.Ticket, error)
	CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error
}

// plateRegistry is the slice of the subscriber repository the admission
// path needs. Implemented by *repository.SubscriberRepo.
type plateRegistry interface {
	GetByPlateTx(ctx context.Context, tx *sql.Tx, plate string) (model.Subscriber, error)
	SetCycleTx(ctx context.Context, tx *sql.Tx, id uint64, cycleStart, cycleEnd string) error
}

// admitVehicle runs the check-in invariants inside the caller's
// transaction: at most one PARKED ticket per plate (repository.ErrConflict
// otherwise), ON_FIRST_USE activation on the subscriber's first check-in,
// SUBSCRIBER classification by plate alone. An expired subscription
// classifies the ticket WALK_IN and leaves the registry untouched.
func admitVehicle(ctx context.Context, tx *sql.Tx, tickets parkedGate, subs plateRegistry, clk clock.Clock, loc *time.Location, plate, vehicleType, spotLabel string) (model.Ticket, error) {
	if _, err := tickets.GetParkedByPlateTx(ctx, tx, plate); err == nil {
		return model.Ticket{}, repository.ErrConflict
	} else if err != sql.ErrNoRows {
		return model.Ticket{}, err
	}

	clientType := model.ClientWalkIn
	sub, err := subs.GetByPlateTx(ctx, tx, plate)
	switch {
	case err == nil:
		today := clk.Today()
		if sub.Activation == model.ActivationOnFirstUse && sub.CycleStart == nil {
			// First use starts the billing cycle.
			start, end := billing.ActivationCycle(today)
			if err := subs.SetCycleTx(ctx, tx, sub.ID, clock.FormatDate(start), clock.FormatDate(end)); err != nil {
				return model.Ticket{}, err
			}
			clientType = model.ClientSubscriber
		} else {
			active, aerr := billing.SubscriberActive(&sub, today, loc)
			if aerr != nil {
				return model.Ticket{}, aerr
			}
			if active {
				clientType = model.ClientSubscriber
			}
		}
	case err != sql.ErrNoRows:
		return model.Ticket{}, err
	}

	t := model.Ticket{
		Plate:       plate,
		VehicleType: vehicleType,
		SpotLabel:   spotLabel,
		ClientType:  clientType,
		EnteredAt:   clock.FormatDateTime(clk.Now()),
		Status:      model.TicketParked,
	}
	if err := tickets.CreateTx(ctx, tx, &t); err != nil {
		return model.Ticket{}, err
	}
	return t, nil
}

// CheckIn opens a ticket for a vehicle entering the lot. One PARKED
// ticket per plate; a second check-in for the same plate is a conflict.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	plate, ok := utils.NormalizePlate(req.Plate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plate"})
	}
	vt := strings.ToUpper(strings.TrimSpace(req.VehicleType))
	if !model.ValidVehicleType(vt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle_type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 8*time.Second)
	defer cancel()

	tx, err := h.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	defer tx.Rollback()

	t, err := admitVehicle(ctx, tx, h.Tickets, h.Subscribers, h.Clock, h.Loc, plate, vt, strings.TrimSpace(req.SpotLabel))
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle already parked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusCreated, presentTicket(t))
}

type parkedItem struct {
	ticketResp
	ElapsedMinutes  int64 `json:"elapsed_minutes"`
	CurrentHours    int   `json:"current_hours"`
	CurrentFeeCents int64 `json:"current_fee_cents"`
	SubscriberFree  bool  `json:"subscriber_free"`
}

// ListParked returns every vehicle currently in the lot with a live fee
// preview priced as of now.
func (h *TicketHandler) ListParked(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 8*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListParked(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	tariff, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}

	now := h.Clock.Now()
	out := make([]parkedItem, 0, len(tickets))
	for _, t := range tickets {
		item := parkedItem{ticketResp: presentTicket(t)}
		quote, free, qerr := currentQuote(ctx, h.Subscribers, tariff, t, now, h.Loc)
		if qerr != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assess failed"})
		}
		if entry, perr := clock.ParseDateTime(t.EnteredAt, h.Loc); perr == nil {
			if m := int64(now.Sub(entry).Minutes()); m > 0 {
				item.ElapsedMinutes = m
			}
		}
		item.CurrentHours = quote.Hours
		item.CurrentFeeCents = quote.AmountCents
		item.SubscriberFree = free
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "tickets": out})
}

// History lists paid tickets within an inclusive date range. Both bounds
// default to today.
func (h *TicketHandler) History(c echo.Context) error {
	today := clock.FormatDate(h.Clock.Today())
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" {
		from = today
	}
	if to == "" {
		to = today
	}
	if _, err := clock.ParseDate(from, h.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
	}
	if _, err := clock.ParseDate(to, h.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 8*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListPaid(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ticketResp, 0, len(tickets))
	var total int64
	for _, t := range tickets {
		out = append(out, presentTicket(t))
		if t.AmountCents != nil {
			total += *t.AmountCents
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"from":        from,
		"to":          to,
		"count":       len(out),
		"total_cents": total,
		"tickets":     out,
	})
}

// Receipt returns the settlement record of a paid ticket.
func (h *TicketHandler) Receipt(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if t.Status != model.TicketPaid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "paid ticket not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ticket_number":   utils.FormatTicketNumber(t.ID),
		"plate":           utils.FormatPlate(t.Plate),
		"vehicle_type":    t.VehicleType,
		"client_type":     t.ClientType,
		"entered_at":      t.EnteredAt,
		"exited_at":       t.ExitedAt,
		"amount_cents":    t.AmountCents,
		"payment_method":  t.PaymentMethod,
		"cash_session_id": t.CashSessionID,
	})
}
