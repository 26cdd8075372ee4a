package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/gastrovia/ticketing/internal/config"
	"github.com/gastrovia/ticketing/internal/database"
	"github.com/gastrovia/ticketing/internal/handler"
	"github.com/gastrovia/ticketing/internal/payment"
	"github.com/gastrovia/ticketing/internal/queue"
	"github.com/gastrovia/ticketing/internal/repository"
	"github.com/gastrovia/ticketing/internal/router"
	"github.com/gastrovia/ticketing/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis powers rate limiting and the response cache; both degrade
	// to no-ops when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and caching disabled")
	}

	var bridge payment.Bridge
	if cfg.StripeSecretKey != "" {
		sb, err := payment.NewStripeBridge(cfg.StripeSecretKey, cfg.StripeCurrency)
		if err != nil {
			log.Fatalf("stripe: %v", err)
		}
		bridge = sb
	} else {
		log.Printf("STRIPE_SECRET_KEY not set, using mock payment bridge")
		bridge = payment.NewMockBridge()
	}

	eventRepo := repository.NewEventRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	tableRepo := repository.NewTableRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	foodRepo := repository.NewFoodRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	claimRepo := repository.NewClaimRepo(db)

	reservations := service.NewReservationService(eventRepo, tableRepo, reservationRepo, orderRepo, foodRepo, cfg.HoldTTL)
	tables := service.NewTableService(eventRepo, tableRepo)
	ticketing := service.NewTicketingService(
		eventRepo, seatRepo, tableRepo, foodRepo, ticketRepo, claimRepo,
		orderRepo, reservationRepo,
		bridge, cfg.StripeCurrency, cfg.ConfirmTimeout,
		queue.PublishTicketsIssued,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.NewSweeper(reservationRepo, cfg.SweepInterval).Run(ctx)
	go func() {
		if err := queue.StartTicketsConsumer(); err != nil {
			log.Printf("tickets consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, router.Handlers{
		Reservations: handler.NewReservationHandler(reservations),
		Tickets:      handler.NewTicketHandler(ticketing),
		Orders:       handler.NewOrderHandler(ticketing),
		Tables:       handler.NewTableHandler(tables, eventRepo),
	}, db, rdb, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
