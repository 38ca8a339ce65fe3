package main // Entry point package

import (
	"context" // request-scoped timeouts for startup work
	"log"     // Logging library
	"time"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/rflras87/estacionamento/internal/cashier"
	"github.com/rflras87/estacionamento/internal/clock"
	"github.com/rflras87/estacionamento/internal/config"
	"github.com/rflras87/estacionamento/internal/database"
	"github.com/rflras87/estacionamento/internal/handler"
	"github.com/rflras87/estacionamento/internal/middleware"
	"github.com/rflras87/estacionamento/internal/queue"
	"github.com/rflras87/estacionamento/internal/repository"
	"github.com/rflras87/estacionamento/internal/router"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()

	biz, err := clock.NewBusiness(cfg.BusinessTZ)
	if err != nil {
		log.Fatalf("invalid BUSINESS_TZ %q: %v", cfg.BusinessTZ, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.InitSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis is optional: a nil client degrades the tariff cache to plain
	// database reads and disables rate limiting.
	rdb := config.NewRedisClient()

	tickets := repository.NewTicketRepo(db)
	subscribers := repository.NewSubscriberRepo(db)
	tariffs := repository.NewTariffRepo(db, rdb)
	sessions := repository.NewCashSessionRepo(db)
	financeRepo := repository.NewFinanceRepo(db)
	operators := repository.NewOperatorRepo(db)
	tokens := repository.NewTokenRepo(db)

	manager := cashier.NewManager(sessions, tickets, financeRepo, biz, biz.Location())

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, operators, tokens), cfg.JWTSecret)
	router.RegisterOperations(e, cfg.JWTSecret,
		handler.NewTicketHandler(tickets, subscribers, tariffs, biz, biz.Location()),
		handler.NewPaymentHandler(tickets, subscribers, tariffs, manager, biz, biz.Location()),
		handler.NewSubscriberHandler(subscribers, tariffs, financeRepo, biz, biz.Location()),
		handler.NewTariffHandler(tariffs),
		handler.NewCashSessionHandler(sessions, tickets, manager),
		handler.NewFinanceHandler(financeRepo, tickets, biz, biz.Location()),
	)

	// Receipt consumer runs for the life of the process and reconnects on
	// its own; a missing broker only disables receipt logging.
	go func() {
		if err := queue.StartReceiptConsumer(); err != nil {
			log.Printf("receipt consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, tz=%s)", addr, cfg.Env, cfg.BusinessTZ)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
