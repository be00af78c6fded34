package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/MattisW/matchmaking-platform-sub001/internal/config"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/matching"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/mailer"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/queue"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The worker consumes matching pipeline tasks: the match stage and the
// invitation stage, each queued and retried independently.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	repo := matching.NewRepository(db)
	notifier, err := mailer.NewSESNotifier(ctx, cfg.AWSRegion, cfg.MailSender, cfg.ClientOrigin, repo)
	if err != nil {
		log.Fatalf("Failed to set up mailer: %v", err)
	}

	pipeline := matching.NewPipeline(repo, matching.NewMatcher(repo), notifier, tasks)

	log.Println("worker: consuming matching tasks")
	if err := tasks.Consume(ctx, pipeline.HandleTask); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker: consume: %v", err)
	}
}
