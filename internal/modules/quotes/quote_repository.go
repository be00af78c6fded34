package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the quote lifecycle's database operations.
// Accept and decline are all-or-nothing: the quote row and the owning
// transport request update together or not at all.
type RepositoryInterface interface {
	// GetQuote loads a quote with its line items plus the owning customer ID.
	GetQuote(ctx context.Context, quoteID string) (*models.Quote, string, error)
	GetQuoteByRequest(ctx context.Context, transportRequestID string) (*models.Quote, string, error)

	// AcceptQuote transitions pending→accepted and the transport request to
	// quote_accepted. Returns the transport request ID, or
	// models.ErrQuoteNotPending without mutating anything.
	AcceptQuote(ctx context.Context, quoteID string) (string, error)
	// DeclineQuote is the mirror transition to declined/quote_declined.
	DeclineQuote(ctx context.Context, quoteID string) (string, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const quoteColumns = `
	q.id, q.transport_request_id, q.status,
	q.base_price, q.surcharge_total, q.total_price, q.currency,
	q.valid_until, q.accepted_at, q.declined_at, q.created_at, q.updated_at,
	tr.customer_id`

func (r *Repository) GetQuote(ctx context.Context, quoteID string) (*models.Quote, string, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes q
		JOIN transport_requests tr ON tr.id = q.transport_request_id
		WHERE q.id = $1`
	return r.scanQuote(ctx, query, quoteID)
}

func (r *Repository) GetQuoteByRequest(ctx context.Context, transportRequestID string) (*models.Quote, string, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes q
		JOIN transport_requests tr ON tr.id = q.transport_request_id
		WHERE q.transport_request_id = $1`
	return r.scanQuote(ctx, query, transportRequestID)
}

func (r *Repository) scanQuote(ctx context.Context, query, arg string) (*models.Quote, string, error) {
	q := &models.Quote{}
	var customerID string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&q.ID, &q.TransportRequestID, &q.Status,
		&q.BasePrice, &q.SurchargeTotal, &q.TotalPrice, &q.Currency,
		&q.ValidUntil, &q.AcceptedAt, &q.DeclinedAt, &q.CreatedAt, &q.UpdatedAt,
		&customerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", models.ErrNotFound
		}
		return nil, "", fmt.Errorf("GetQuote failed: %w", err)
	}

	const itemQuery = `
		SELECT id, quote_id, position, kind, amount, rate_per_km, distance_km, percent
		FROM quote_line_items
		WHERE quote_id = $1
		ORDER BY position`
	rows, err := r.db.Query(ctx, itemQuery, q.ID)
	if err != nil {
		return nil, "", fmt.Errorf("GetQuote line items failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item models.QuoteLineItem
		if err := rows.Scan(
			&item.ID, &item.QuoteID, &item.Position, &item.Kind, &item.Amount,
			&item.RatePerKm, &item.DistanceKm, &item.Percent,
		); err != nil {
			return nil, "", fmt.Errorf("GetQuote line item Scan failed: %w", err)
		}
		q.LineItems = append(q.LineItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("GetQuote line item rows failed: %w", err)
	}
	return q, customerID, nil
}

func (r *Repository) AcceptQuote(ctx context.Context, quoteID string) (string, error) {
	return r.transition(ctx, quoteID,
		`UPDATE quotes
		 SET status = 'accepted', accepted_at = now(), updated_at = now()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING transport_request_id`,
		models.RequestStatusQuoteAccepted,
	)
}

func (r *Repository) DeclineQuote(ctx context.Context, quoteID string) (string, error) {
	return r.transition(ctx, quoteID,
		`UPDATE quotes
		 SET status = 'declined', declined_at = now(), updated_at = now()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING transport_request_id`,
		models.RequestStatusQuoteDeclined,
	)
}

// transition runs one quote status update plus the paired transport request
// update inside a single transaction. The status guard in the UPDATE makes a
// second accept/decline lose cleanly: zero rows, nothing mutated.
func (r *Repository) transition(ctx context.Context, quoteID, quoteUpdate, requestStatus string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("quote transition begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var transportRequestID string
	if err := tx.QueryRow(ctx, quoteUpdate, quoteID).Scan(&transportRequestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrQuoteNotPending
		}
		return "", fmt.Errorf("quote transition failed: %w", err)
	}

	const updateRequest = `
		UPDATE transport_requests
		SET status = $2, updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, updateRequest, transportRequestID, requestStatus); err != nil {
		return "", fmt.Errorf("quote transition request update failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("quote transition commit failed: %w", err)
	}
	return transportRequestID, nil
}
