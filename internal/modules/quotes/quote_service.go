package quotes

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/queue"
)

// ServiceInterface governs the quote lifecycle: pending → accepted|declined.
type ServiceInterface interface {
	GetForRequest(ctx context.Context, transportRequestID, customerID string) (*models.Quote, error)
	// Accept transitions the quote and its transport request atomically, then
	// enqueues the match stage.
	Accept(ctx context.Context, quoteID, customerID string) (*models.Quote, error)
	Decline(ctx context.Context, quoteID, customerID string) (*models.Quote, error)
}

// Service implements the quote lifecycle.
type Service struct {
	repo      RepositoryInterface
	publisher queue.TaskPublisher
	now       func() time.Time
}

func NewService(repo RepositoryInterface, publisher queue.TaskPublisher) *Service {
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

func (s *Service) GetForRequest(ctx context.Context, transportRequestID, customerID string) (*models.Quote, error) {
	quote, ownerID, err := s.repo.GetQuoteByRequest(ctx, transportRequestID)
	if err != nil {
		return nil, fmt.Errorf("quotes.GetForRequest: %w", err)
	}
	if ownerID != customerID {
		return nil, models.ErrNotFound // do not leak other customers' quotes
	}
	return quote, nil
}

func (s *Service) Accept(ctx context.Context, quoteID, customerID string) (*models.Quote, error) {
	quote, err := s.authorize(ctx, quoteID, customerID)
	if err != nil {
		return nil, err
	}
	if quote.Expired(s.now()) {
		return nil, models.ErrQuoteExpired
	}

	transportRequestID, err := s.repo.AcceptQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("quotes.Accept: %w", err)
	}

	// Matching runs asynchronously; acceptance only enqueues the match stage.
	task := queue.Task{Kind: queue.TaskMatchStage, TransportRequestID: transportRequestID}
	if err := s.publisher.Publish(ctx, task); err != nil {
		// The acceptance is committed; a lost task is recovered by ops
		// re-enqueueing, not by rolling back the customer's decision.
		log.Printf("CRITICAL: quote %s accepted but match stage could not be enqueued: %v", quoteID, err)
	}

	quote, _, err = s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("quotes.Accept: reload: %w", err)
	}
	return quote, nil
}

func (s *Service) Decline(ctx context.Context, quoteID, customerID string) (*models.Quote, error) {
	quote, err := s.authorize(ctx, quoteID, customerID)
	if err != nil {
		return nil, err
	}
	if quote.Expired(s.now()) {
		return nil, models.ErrQuoteExpired
	}

	if _, err := s.repo.DeclineQuote(ctx, quoteID); err != nil {
		return nil, fmt.Errorf("quotes.Decline: %w", err)
	}

	quote, _, err = s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("quotes.Decline: reload: %w", err)
	}
	return quote, nil
}

func (s *Service) authorize(ctx context.Context, quoteID, customerID string) (*models.Quote, error) {
	quote, ownerID, err := s.repo.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("quotes.authorize: %w", err)
	}
	if ownerID != customerID {
		return nil, models.ErrNotFound
	}
	return quote, nil
}
