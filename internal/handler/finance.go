package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/finance"
	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/repository"
)

// FinanceHandler serves manual bookkeeping entries and period summaries.
type FinanceHandler struct {
	Finance *repository.FinanceRepo
	Tickets *repository.TicketRepo
	Clock   clock.Clock
	Loc     *time.Location
}

func NewFinanceHandler(f *repository.FinanceRepo, t *repository.TicketRepo, clk clock.Clock, loc *time.Location) *FinanceHandler {
	return &FinanceHandler{Finance: f, Tickets: t, Clock: clk, Loc: loc}
}

type createEntryReq struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	EntryDate   string `json:"entry_date"`
}

// CreateEntry records a manual receivable or payable line. TICKETS and
// SUBSCRIPTION entries are system-generated and cannot be typed in here.
func (h *FinanceHandler) CreateEntry(c echo.Context) error {
	var req createEntryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind := strings.ToUpper(strings.TrimSpace(req.Kind))
	if !model.ValidEntryKind(kind) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid kind"})
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description required"})
	}
	if req.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
	}
	entryDate := strings.TrimSpace(req.EntryDate)
	if entryDate == "" {
		entryDate = clock.FormatDate(h.Clock.Today())
	} else if _, err := clock.ParseDate(entryDate, h.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry_date"})
	}

	entry := model.FinanceEntry{
		Kind:        kind,
		Source:      model.SourceManual,
		Description: req.Description,
		AmountCents: req.AmountCents,
		EntryDate:   entryDate,
	}
	if m := strings.ToUpper(strings.TrimSpace(req.Method)); m != "" {
		if !model.ValidPaymentMethod(m) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid method"})
		}
		entry.Method = &m
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Finance.Create(ctx, &entry); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create entry failed"})
	}
	return c.JSON(http.StatusCreated, entry)
}

// Summary aggregates a date range: paid tickets joined with their session
// status, plus every finance entry in the range. Defaults to today.
func (h *FinanceHandler) Summary(c echo.Context) error {
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

	rows, err := h.Tickets.ListPaidRevenue(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	entries, err := h.Finance.ListBetween(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tickets := make([]finance.TicketRevenue, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, finance.TicketRevenue{
			AmountCents: r.AmountCents,
			Method:      r.PaymentMethod,
			Reconciled:  r.SessionStatus != model.SessionOpen,
		})
	}

	return c.JSON(http.StatusOK, finance.Summarize(from, to, tickets, entries))
}
