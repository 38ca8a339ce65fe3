package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rflras87/estacionamento/internal/cashier"
	"github.com/rflras87/estacionamento/internal/queue"
	"github.com/rflras87/estacionamento/internal/repository"
	queue_publisher "github.com/rflras87/estacionamento/internal/service"
)

// CashSessionHandler serves till open/close and session lookups.
type CashSessionHandler struct {
	Sessions *repository.CashSessionRepo
	Tickets  *repository.TicketRepo
	Cashier  *cashier.Manager
}

func NewCashSessionHandler(s *repository.CashSessionRepo, t *repository.TicketRepo, m *cashier.Manager) *CashSessionHandler {
	return &CashSessionHandler{Sessions: s, Tickets: t, Cashier: m}
}

type openSessionReq struct {
	OpeningFloatCents int64 `json:"opening_float_cents"`
}
type closeSessionReq struct {
	CountedCents int64 `json:"counted_cents"`
}

// Open starts a cash session for the calling operator. At most one
// session may be open at a time.
func (h *CashSessionHandler) Open(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req openSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.OpeningFloatCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "opening_float_cents must be >= 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 8*time.Second)
	defer cancel()

	tx, err := h.Sessions.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	defer tx.Rollback()

	session, err := h.Cashier.Open(ctx, tx, operatorID, req.OpeningFloatCents)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a cash session is already open"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open session failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	return c.JSON(http.StatusCreated, session)
}

// Current returns the open session together with the ticket money
// collected into it so far.
func (h *CashSessionHandler) Current(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Sessions.GetOpen(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no open cash session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tickets, err := h.Tickets.ListPaidBySession(ctx, session.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	var collected int64
	for _, t := range tickets {
		if t.AmountCents != nil {
			collected += *t.AmountCents
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"session":          session,
		"ticket_count":     len(tickets),
		"collected_cents":  collected,
		"expected_balance": session.OpeningFloatCents + collected,
	})
}

// Close settles the open session. counted_cents is the cash the operator
// actually found in the drawer; it is stored next to the expected
// balance so shortfalls stay visible.
func (h *CashSessionHandler) Close(c echo.Context) error {
	var req closeSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CountedCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "counted_cents must be >= 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.Sessions.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	defer tx.Rollback()

	session, err := h.Cashier.Close(ctx, tx, req.CountedCents)
	if err != nil {
		if err == repository.ErrNoOpenSession {
			return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": "no open cash session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "close session failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pcancel()
		var balance int64
		if session.ClosingBalanceCents != nil {
			balance = *session.ClosingBalanceCents
		}
		closedAt := ""
		if session.ClosedAt != nil {
			closedAt = *session.ClosedAt
		}
		if perr := queue_publisher.PublishCashSessionClosed(pctx, queue.CashSessionClosedEvent{
			SessionID:           session.ID,
			OperatorID:          session.OperatorID,
			Status:              session.Status,
			OpenedAt:            session.OpenedAt,
			ClosedAt:            closedAt,
			OpeningFloatCents:   session.OpeningFloatCents,
			ClosingBalanceCents: balance,
		}); perr != nil {
			log.Printf("publish cash_session.closed failed for session %d: %v", session.ID, perr)
		}
	}()

	return c.JSON(http.StatusOK, session)
}

// List returns recent sessions, newest first.
func (h *CashSessionHandler) List(c echo.Context) error {
	limit := 30
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Sessions.List(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(sessions), "sessions": sessions})
}
