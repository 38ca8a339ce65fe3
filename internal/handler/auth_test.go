package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rflras87/estacionamento/internal/config"
)

// tokenStoreStub satisfies tokenStore and records revocations.
type tokenStoreStub struct {
	revokedAll []uint64
}

func (s *tokenStoreStub) StoreRefresh(ctx context.Context, operatorID uint64, tokenHash string, exp time.Time) error {
	return nil
}

func (s *tokenStoreStub) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	return 0, nil
}

func (s *tokenStoreStub) RevokeByHash(ctx context.Context, tokenHash string) error { return nil }

func (s *tokenStoreStub) RevokeAllForOperator(ctx context.Context, operatorID uint64) error {
	s.revokedAll = append(s.revokedAll, operatorID)
	return nil
}

func TestLogoutAllRevokesEveryToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/logout-all", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("operator_id", float64(7)) // JWT numeric claims decode as float64

	tokens := &tokenStoreStub{}
	h := NewAuthHandler(config.Config{}, nil, tokens)

	if err := h.LogoutAll(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: want 204, got %d", rec.Code)
	}
	if len(tokens.revokedAll) != 1 || tokens.revokedAll[0] != 7 {
		t.Fatalf("revocations: %+v", tokens.revokedAll)
	}
}

func TestLogoutAllRequiresIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/logout-all", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	tokens := &tokenStoreStub{}
	h := NewAuthHandler(config.Config{}, nil, tokens)

	if err := h.LogoutAll(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want 401, got %d", rec.Code)
	}
	if len(tokens.revokedAll) != 0 {
		t.Fatal("no revocation without identity")
	}
}
