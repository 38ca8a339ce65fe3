package handler

import (
	"context"
	"database/sql"
	"fmt"
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

// SubscriberHandler manages the monthly subscriber registry.
type SubscriberHandler struct {
	Subscribers *repository.SubscriberRepo
	Tariffs     *repository.TariffRepo
	Finance     *repository.FinanceRepo
	Clock       clock.Clock
	Loc         *time.Location
}

func NewSubscriberHandler(s *repository.SubscriberRepo, t *repository.TariffRepo, f *repository.FinanceRepo, clk clock.Clock, loc *time.Location) *SubscriberHandler {
	return &SubscriberHandler{Subscribers: s, Tariffs: t, Finance: f, Clock: clk, Loc: loc}
}

type createSubscriberReq struct {
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
	Activation  string `json:"activation"`
}

type renewReq struct {
	PaymentMethod string `json:"payment_method"`
}

type subscriberResp struct {
	model.Subscriber
	PlateDisplay string `json:"plate_display"`
	Active       bool   `json:"active"`
}

func (h *SubscriberHandler) present(s model.Subscriber) subscriberResp {
	active, err := billing.SubscriberActive(&s, h.Clock.Today(), h.Loc)
	if err != nil {
		active = false
	}
	return subscriberResp{Subscriber: s, PlateDisplay: utils.FormatPlate(s.Plate), Active: active}
}

// Create enrolls a plate. IMMEDIATE activation opens the first billing
// cycle right away; ON_FIRST_USE leaves it to the first check-in.
func (h *SubscriberHandler) Create(c echo.Context) error {
	var req createSubscriberReq
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
	activation := strings.ToUpper(strings.TrimSpace(req.Activation))
	if activation == "" {
		activation = model.ActivationImmediate
	}
	if !model.ValidActivation(activation) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activation"})
	}

	s := model.Subscriber{
		Plate:       plate,
		VehicleType: vt,
		Plan:        model.PlanMonthly,
		Activation:  activation,
	}
	if activation == model.ActivationImmediate {
		start, end := billing.ActivationCycle(h.Clock.Today())
		cs, ce := clock.FormatDate(start), clock.FormatDate(end)
		s.CycleStart, s.CycleEnd = &cs, &ce
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Subscribers.Create(ctx, &s); err != nil {
		if err == repository.ErrPlateEnrolled {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate already enrolled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create subscriber failed"})
	}
	return c.JSON(http.StatusCreated, h.present(s))
}

// List returns every enrolled plate with its computed active flag.
func (h *SubscriberHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	subs, err := h.Subscribers.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]subscriberResp, 0, len(subs))
	for _, s := range subs {
		out = append(out, h.present(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "subscribers": out})
}

// GetByPlate looks up one subscriber by plate.
func (h *SubscriberHandler) GetByPlate(c echo.Context) error {
	plate, ok := utils.NormalizePlate(c.Param("plate"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plate"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Subscribers.GetByPlate(ctx, plate)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscriber not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, h.present(s))
}

// cycleStore is the slice of the subscriber repository a renewal needs.
// Implemented by *repository.SubscriberRepo.
type cycleStore interface {
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Subscriber, error)
	ExtendCycleTx(ctx context.Context, tx *sql.Tx, id uint64, cycleStart, cycleEnd string) error
}

// paymentLedger records the subscription payment. Implemented by
// *repository.FinanceRepo.
type paymentLedger interface {
	CreateTx(ctx context.Context, tx *sql.Tx, e *model.FinanceEntry) error
}

// renewSubscription extends a subscriber's cycle and records the payment
// entry inside the caller's transaction, so the extension and the money
// commit or roll back together. It returns the updated subscriber and the
// charged price.
func renewSubscription(ctx context.Context, tx *sql.Tx, subs cycleStore, ledger paymentLedger, tariff model.Tariff, id uint64, method string, today time.Time, loc *time.Location) (model.Subscriber, int64, error) {
	s, err := subs.GetByIDTx(ctx, tx, id)
	if err != nil {
		return model.Subscriber{}, 0, err
	}
	price := tariff.MonthlyPrice(s.VehicleType)

	var currentEnd *time.Time
	if s.CycleEnd != nil {
		end, perr := clock.ParseDate(*s.CycleEnd, loc)
		if perr != nil {
			return model.Subscriber{}, 0, perr
		}
		currentEnd = &end
	}
	newEnd := clock.FormatDate(billing.ExtendCycle(today, currentEnd))
	todayStr := clock.FormatDate(today)

	if err := subs.ExtendCycleTx(ctx, tx, s.ID, todayStr, newEnd); err != nil {
		return model.Subscriber{}, 0, err
	}
	entry := model.FinanceEntry{
		Kind:        model.EntryReceivable,
		Source:      model.SourceSubscription,
		Description: fmt.Sprintf("monthly subscription, plate %s", utils.FormatPlate(s.Plate)),
		AmountCents: price,
		Method:      &method,
		EntryDate:   todayStr,
	}
	if err := ledger.CreateTx(ctx, tx, &entry); err != nil {
		return model.Subscriber{}, 0, err
	}

	// Mirror what ExtendCycleTx wrote so the caller can respond without a
	// re-read.
	if s.CycleStart == nil {
		s.CycleStart = &todayStr
	}
	s.CycleEnd = &newEnd
	return s, price, nil
}

// Renew extends the billing cycle by thirty days from whichever is later,
// today or the current cycle end, and records the subscription payment as
// a receivable finance entry at the tariff's monthly price. Both writes
// share one transaction.
func (h *SubscriberHandler) Renew(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscriber id"})
	}
	var req renewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if !model.ValidPaymentMethod(method) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_method"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 8*time.Second)
	defer cancel()

	tariff, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}

	tx, err := h.Subscribers.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	defer tx.Rollback()

	s, price, err := renewSubscription(ctx, tx, h.Subscribers, h.Finance, tariff, id, method, h.Clock.Today(), h.Loc)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "subscriber not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "renew failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"subscriber":   h.present(s),
		"amount_cents": price,
	})
}
