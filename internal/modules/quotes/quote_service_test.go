package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/queue"
)

type fakeRepo struct {
	quote         *models.Quote
	ownerID       string
	requestStatus string
}

func (f *fakeRepo) GetQuote(ctx context.Context, quoteID string) (*models.Quote, string, error) {
	if f.quote == nil || f.quote.ID != quoteID {
		return nil, "", models.ErrNotFound
	}
	cp := *f.quote
	return &cp, f.ownerID, nil
}

func (f *fakeRepo) GetQuoteByRequest(ctx context.Context, transportRequestID string) (*models.Quote, string, error) {
	if f.quote == nil || f.quote.TransportRequestID != transportRequestID {
		return nil, "", models.ErrNotFound
	}
	cp := *f.quote
	return &cp, f.ownerID, nil
}

func (f *fakeRepo) AcceptQuote(ctx context.Context, quoteID string) (string, error) {
	return f.transition(quoteID, models.QuoteStatusAccepted, models.RequestStatusQuoteAccepted)
}

func (f *fakeRepo) DeclineQuote(ctx context.Context, quoteID string) (string, error) {
	return f.transition(quoteID, models.QuoteStatusDeclined, models.RequestStatusQuoteDeclined)
}

func (f *fakeRepo) transition(quoteID, quoteStatus, requestStatus string) (string, error) {
	if f.quote == nil || f.quote.ID != quoteID {
		return "", models.ErrNotFound
	}
	if f.quote.Status != models.QuoteStatusPending {
		return "", models.ErrQuoteNotPending
	}
	f.quote.Status = quoteStatus
	f.requestStatus = requestStatus
	return f.quote.TransportRequestID, nil
}

type fakePublisher struct {
	tasks []queue.Task
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, task queue.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

var testNow = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func pendingQuote() *models.Quote {
	return &models.Quote{
		ID:                 "q-1",
		TransportRequestID: "tr-1",
		Status:             models.QuoteStatusPending,
		TotalPrice:         150,
		Currency:           "EUR",
		ValidUntil:         testNow.Add(72 * time.Hour),
	}
}

func newTestService(fr *fakeRepo, fp *fakePublisher) *Service {
	s := NewService(fr, fp)
	s.now = func() time.Time { return testNow }
	return s
}

func TestAccept(t *testing.T) {
	fr := &fakeRepo{quote: pendingQuote(), ownerID: "cust-1"}
	fp := &fakePublisher{}
	s := newTestService(fr, fp)

	q, err := s.Accept(context.Background(), "q-1", "cust-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if q.Status != models.QuoteStatusAccepted {
		t.Errorf("quote status = %s; want accepted", q.Status)
	}
	if fr.requestStatus != models.RequestStatusQuoteAccepted {
		t.Errorf("request status = %s; want quote_accepted", fr.requestStatus)
	}
	if len(fp.tasks) != 1 || fp.tasks[0].Kind != queue.TaskMatchStage {
		t.Fatalf("published tasks = %v; want one match_stage task", fp.tasks)
	}
	if fp.tasks[0].TransportRequestID != "tr-1" {
		t.Errorf("task request id = %s; want tr-1", fp.tasks[0].TransportRequestID)
	}
}

func TestAcceptTwice(t *testing.T) {
	fr := &fakeRepo{quote: pendingQuote(), ownerID: "cust-1"}
	fp := &fakePublisher{}
	s := newTestService(fr, fp)

	if _, err := s.Accept(context.Background(), "q-1", "cust-1"); err != nil {
		t.Fatalf("first accept error: %v", err)
	}
	_, err := s.Accept(context.Background(), "q-1", "cust-1")
	if !errors.Is(err, models.ErrQuoteNotPending) {
		t.Fatalf("second accept error = %v; want ErrQuoteNotPending", err)
	}
	// State from the first accept must stand.
	if fr.quote.Status != models.QuoteStatusAccepted {
		t.Errorf("quote status = %s; want accepted", fr.quote.Status)
	}
	if len(fp.tasks) != 1 {
		t.Errorf("published tasks = %d; want 1", len(fp.tasks))
	}
}

func TestDecline(t *testing.T) {
	fr := &fakeRepo{quote: pendingQuote(), ownerID: "cust-1"}
	fp := &fakePublisher{}
	s := newTestService(fr, fp)

	q, err := s.Decline(context.Background(), "q-1", "cust-1")
	if err != nil {
		t.Fatalf("Decline error: %v", err)
	}
	if q.Status != models.QuoteStatusDeclined {
		t.Errorf("quote status = %s; want declined", q.Status)
	}
	if fr.requestStatus != models.RequestStatusQuoteDeclined {
		t.Errorf("request status = %s; want quote_declined", fr.requestStatus)
	}
	if len(fp.tasks) != 0 {
		t.Errorf("published tasks = %v; want none", fp.tasks)
	}
}

func TestAcceptExpired(t *testing.T) {
	expired := pendingQuote()
	expired.ValidUntil = testNow.Add(-time.Hour)
	fr := &fakeRepo{quote: expired, ownerID: "cust-1"}
	fp := &fakePublisher{}
	s := newTestService(fr, fp)

	_, err := s.Accept(context.Background(), "q-1", "cust-1")
	if !errors.Is(err, models.ErrQuoteExpired) {
		t.Fatalf("error = %v; want ErrQuoteExpired", err)
	}
	if fr.quote.Status != models.QuoteStatusPending {
		t.Errorf("quote status = %s; an expired quote must not transition", fr.quote.Status)
	}
	if len(fp.tasks) != 0 {
		t.Errorf("published tasks = %v; want none", fp.tasks)
	}
}

func TestDeclineExpired(t *testing.T) {
	expired := pendingQuote()
	expired.ValidUntil = testNow.Add(-time.Minute)
	fr := &fakeRepo{quote: expired, ownerID: "cust-1"}
	s := newTestService(fr, &fakePublisher{})

	_, err := s.Decline(context.Background(), "q-1", "cust-1")
	if !errors.Is(err, models.ErrQuoteExpired) {
		t.Fatalf("error = %v; want ErrQuoteExpired", err)
	}
}

func TestAcceptWrongCustomer(t *testing.T) {
	fr := &fakeRepo{quote: pendingQuote(), ownerID: "cust-1"}
	s := newTestService(fr, &fakePublisher{})

	_, err := s.Accept(context.Background(), "q-1", "cust-2")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("error = %v; want ErrNotFound", err)
	}
	if fr.quote.Status != models.QuoteStatusPending {
		t.Errorf("quote status = %s; want pending", fr.quote.Status)
	}
}

func TestGetForRequestWrongCustomer(t *testing.T) {
	fr := &fakeRepo{quote: pendingQuote(), ownerID: "cust-1"}
	s := newTestService(fr, &fakePublisher{})

	if _, err := s.GetForRequest(context.Background(), "tr-1", "cust-2"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("error = %v; want ErrNotFound", err)
	}
	if q, err := s.GetForRequest(context.Background(), "tr-1", "cust-1"); err != nil || q.ID != "q-1" {
		t.Fatalf("owner lookup = (%v, %v); want the quote", q, err)
	}
}

func TestAcceptSurvivesPublishFailure(t *testing.T) {
	fr := &fakeRepo{quote: pendingQuote(), ownerID: "cust-1"}
	fp := &fakePublisher{err: errors.New("broker down")}
	s := newTestService(fr, fp)

	q, err := s.Accept(context.Background(), "q-1", "cust-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	// The committed acceptance stands even when enqueueing fails.
	if q.Status != models.QuoteStatusAccepted {
		t.Errorf("quote status = %s; want accepted", q.Status)
	}
}
