package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rflras87/estacionamento/internal/model"
	"github.com/rflras87/estacionamento/internal/repository"
)

// TariffHandler exposes the singleton price table.
type TariffHandler struct {
	Tariffs *repository.TariffRepo
}

func NewTariffHandler(t *repository.TariffRepo) *TariffHandler {
	return &TariffHandler{Tariffs: t}
}

func (h *TariffHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// Update replaces the price table. ADMIN-only route; the cached copy is
// invalidated on write.
func (h *TariffHandler) Update(c echo.Context) error {
	var req model.Tariff
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CarRateCents <= 0 || req.MotoRateCents <= 0 || req.DailyCapCents <= 0 ||
		req.MonthlyCarCents <= 0 || req.MonthlyMotoCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices must be positive"})
	}
	if req.GraceMinutes < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grace_minutes must be >= 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The body does not have to carry the singleton's id.
	current, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}
	req.ID = current.ID

	if err := h.Tariffs.Update(ctx, req); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update tariff failed"})
	}
	t, err := h.Tariffs.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tariff failed"})
	}
	return c.JSON(http.StatusOK, t)
}
