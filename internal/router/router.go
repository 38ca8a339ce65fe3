package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/rflras87/estacionamento/internal/handler"    // handlers implementing the business logic
	"github.com/rflras87/estacionamento/internal/middleware" // JWT authentication and role enforcement
	"github.com/rflras87/estacionamento/internal/repository" // role constants
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probes hit this endpoint to verify the
	// service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes and their middleware. The
// unauthenticated operations live under /v1/auth, protected ones under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	// Unauthenticated register works only while the operators table is
	// empty, so a fresh install can create its first ADMIN account. After
	// that the protected /v1/operators route below must be used.
	g.POST("/register", a.CreateOperator)
	g.POST("/login", a.Login)
	// Refresh rotates the token: the presented refresh token is revoked and
	// a new pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout takes a refresh_token in the body and invalidates it; no JWT
	// required.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(repository.RoleAdmin, repository.RoleOperator))
	auth.GET("/me", a.Me)
	// Revokes every refresh token of the calling operator.
	auth.POST("/logout-all", a.LogoutAll)
	// ADMIN creation of additional operator accounts; the handler enforces
	// the ADMIN role itself so the bootstrap route above can share it.
	auth.POST("/operators", a.CreateOperator)
}

// RegisterOperations registers the day-to-day lot endpoints: tickets,
// subscribers, tariff, cash sessions and finance. All of them require a
// valid access token; tariff updates additionally require the ADMIN role.
func RegisterOperations(e *echo.Echo, jwtSecret string,
	t *handler.TicketHandler,
	p *handler.PaymentHandler,
	s *handler.SubscriberHandler,
	tf *handler.TariffHandler,
	cs *handler.CashSessionHandler,
	f *handler.FinanceHandler,
) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(repository.RoleAdmin, repository.RoleOperator))

	// Tickets: the gate opens them, the till settles them.
	auth.POST("/tickets", t.CheckIn)
	auth.GET("/tickets/parked", t.ListParked)
	auth.GET("/tickets/history", t.History)
	auth.GET("/tickets/:id/preview", p.Preview)
	auth.POST("/tickets/:id/pay", p.Pay)
	auth.GET("/tickets/:id/receipt", t.Receipt)

	// Monthly subscriber registry.
	auth.POST("/subscribers", s.Create)
	auth.GET("/subscribers", s.List)
	auth.GET("/subscribers/:plate", s.GetByPlate)
	auth.POST("/subscribers/:id/renew", s.Renew)

	// Price table: anyone authenticated may read it, only ADMIN may change it.
	auth.GET("/tariff", tf.Get)
	auth.PUT("/tariff", tf.Update, middleware.RequireRole(repository.RoleAdmin))

	// Till sessions.
	auth.POST("/cash-sessions", cs.Open)
	auth.GET("/cash-sessions", cs.List)
	auth.GET("/cash-sessions/current", cs.Current)
	auth.POST("/cash-sessions/close", cs.Close)

	// Bookkeeping.
	auth.POST("/finance/entries", f.CreateEntry)
	auth.GET("/finance/summary", f.Summary)
}
