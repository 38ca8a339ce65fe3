package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rflras87/estacionamento/internal/cashier"
	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/queue"
	"github.com/rflras87/estacionamento/internal/repository"
	queue_publisher "github.com/rflras87/estacionamento/internal/service"
	"github.com/rflras87/estacionamento/internal/utils"
)

// PaymentHandler settles tickets at check-out. Payment requires an open
// cash session; a stale session left over from a previous day is rolled
// over automatically inside the same transaction.
type PaymentHandler struct {
	Tickets     *repository.TicketRepo
	Subscribers *repository.SubscriberRepo
	Tariffs     *repository.TariffRepo
	Cashier     *cashier.Manager
	Clock       clock.Clock
	Loc         *time.Location
}

func NewPaymentHandler(t *repository.TicketRepo, s *repository.SubscriberRepo, tr *repository.TariffRepo, m *cashier.Manager, clk clock.Clock, loc *time.Location) *PaymentHandler {
	return &PaymentHandler{Tickets: t, Subscribers: s, Tariffs: tr, Cashier: m, Clock: clk, Loc: loc}
}

type payReq struct {
	PaymentMethod string `json:"payment_method"`
}

// Preview prices a parked ticket as if it left right now, without
// changing anything.
func (h *PaymentHandler) Preview(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetParkedByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parked ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	tariff, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}

	now := h.Clock.Now()
	quote, free, err := currentQuote(ctx, h.Subscribers, tariff, t, now, h.Loc)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assess failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ticket_number":   utils.FormatTicketNumber(t.ID),
		"plate":           utils.FormatPlate(t.Plate),
		"entered_at":      t.EnteredAt,
		"as_of":           clock.FormatDateTime(now),
		"hours":           quote.Hours,
		"amount_cents":    quote.AmountCents,
		"subscriber_free": free,
	})
}

// Pay settles a parked ticket: assesses the fee at the current instant,
// binds the payment to the open cash session and marks the ticket PAID.
// The whole settlement runs in one transaction so a concurrent payment
// of the same ticket loses cleanly.
func (h *PaymentHandler) Pay(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req payReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if !model.ValidPaymentMethod(method) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_method"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	defer tx.Rollback()

	session, rolled, err := h.Cashier.EnsureUsable(ctx, tx)
	if err != nil {
		if err == repository.ErrNoOpenSession {
			return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": "no open cash session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cash session check failed"})
	}

	t, err := h.Tickets.GetParkedByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Paid already, or never existed.
			if prev, gerr := h.Tickets.GetByID(ctx, id); gerr == nil && prev.Status == model.TicketPaid {
				return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already paid"})
			}
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tariff, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}

	now := h.Clock.Now()
	quote, free, err := currentQuote(ctx, h.Subscribers, tariff, t, now, h.Loc)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assess failed"})
	}

	exitedAt := clock.FormatDateTime(now)
	if err := h.Tickets.MarkPaidTx(ctx, tx, t.ID, exitedAt, quote.AmountCents, session.ID, method); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already paid"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settle ticket failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pcancel()
		if perr := queue_publisher.PublishTicketPaid(pctx, queue.TicketPaidEvent{
			TicketID:      t.ID,
			TicketNumber:  utils.FormatTicketNumber(t.ID),
			Plate:         t.Plate,
			VehicleType:   t.VehicleType,
			ClientType:    t.ClientType,
			EnteredAt:     t.EnteredAt,
			ExitedAt:      exitedAt,
			Hours:         quote.Hours,
			AmountCents:   quote.AmountCents,
			PaymentMethod: method,
			CashSessionID: session.ID,
		}); perr != nil {
			log.Printf("publish ticket.paid failed for ticket %d: %v", t.ID, perr)
		}
	}()

	resp := echo.Map{
		"ticket_number":   utils.FormatTicketNumber(t.ID),
		"plate":           utils.FormatPlate(t.Plate),
		"entered_at":      t.EnteredAt,
		"exited_at":       exitedAt,
		"hours":           quote.Hours,
		"amount_cents":    quote.AmountCents,
		"subscriber_free": free,
		"payment_method":  method,
		"cash_session_id": session.ID,
	}
	if rolled {
		resp["notice"] = "previous cash session was auto-closed and a new one opened for today"
	}
	return c.JSON(http.StatusOK, resp)
}
