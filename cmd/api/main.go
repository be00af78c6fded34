package main

import (
	"context"
	"log"

	"github.com/MattisW/matchmaking-platform-sub001/internal/api"
	"github.com/MattisW/matchmaking-platform-sub001/internal/config"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/auth"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/matching"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/offers"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/pricing"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/quotes"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/requests"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/geo"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/mailer"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/payment"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/queue"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	tasks, err := queue.NewClient(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("Failed to connect to task queue: %v", err)
	}
	defer tasks.Close()

	matchingRepo := matching.NewRepository(db)
	notifier, err := mailer.NewSESNotifier(ctx, cfg.AWSRegion, cfg.MailSender, cfg.ClientOrigin, matchingRepo)
	if err != nil {
		log.Fatalf("Failed to set up mailer: %v", err)
	}

	geocoder := geo.NewHTTPGeocoder(cfg.GeocoderBaseURL)
	payments := payment.NewStripeService(cfg.StripeAPIKey)

	pricingSvc := pricing.NewService(pricing.NewRepository(db), cfg.Currency, cfg.QuoteValidityHours)
	requestSvc := requests.NewService(requests.NewRepository(db), geocoder, pricingSvc, payments)
	quoteSvc := quotes.NewService(quotes.NewRepository(db), tasks)
	offerSvc := offers.NewService(offers.NewRepository(db), notifier)

	e := echo.New()
	api.RegisterRoutes(e, api.Handlers{
		Auth:     auth.NewHandler(auth.NewRepository(db), cfg.JWTSecret),
		Requests: requests.NewHandler(requestSvc),
		Quotes:   quotes.NewHandler(quoteSvc),
		Offers:   offers.NewHandler(offerSvc),
	}, cfg.JWTSecret, cfg.ClientOrigin)

	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
