package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the pricing engine's database operations.
type RepositoryInterface interface {
	// FindActiveRule returns the active rate row for the exact vehicle type,
	// or models.ErrNotFound.
	FindActiveRule(ctx context.Context, vehicleType string) (*models.PricingRule, error)

	// SaveQuote persists the quote with its line items and moves the owning
	// transport request to "quoted", all in one transaction. A second quote
	// for the same transport request fails with models.ErrConflict.
	SaveQuote(ctx context.Context, quote *models.Quote) error
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) FindActiveRule(ctx context.Context, vehicleType string) (*models.PricingRule, error) {
	const query = `
		SELECT id, vehicle_type, rate_per_km, minimum_price,
		       weekend_surcharge_pct, express_surcharge_pct, active
		FROM pricing_rules
		WHERE vehicle_type = $1 AND active`
	rule := &models.PricingRule{}
	err := r.db.QueryRow(ctx, query, vehicleType).Scan(
		&rule.ID, &rule.VehicleType, &rule.RatePerKm, &rule.MinimumPrice,
		&rule.WeekendSurchargePct, &rule.ExpressSurchargePct, &rule.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("FindActiveRule failed: %w", err)
	}
	return rule, nil
}

func (r *Repository) SaveQuote(ctx context.Context, quote *models.Quote) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("SaveQuote begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertQuote = `
		INSERT INTO quotes
			(transport_request_id, status, base_price, surcharge_total, total_price, currency, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, insertQuote,
		quote.TransportRequestID, quote.Status,
		quote.BasePrice, quote.SurchargeTotal, quote.TotalPrice,
		quote.Currency, quote.ValidUntil,
	).Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrConflict
		}
		return fmt.Errorf("SaveQuote insert failed: %w", err)
	}

	const insertItem = `
		INSERT INTO quote_line_items
			(quote_id, position, kind, amount, rate_per_km, distance_km, percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	for i := range quote.LineItems {
		item := &quote.LineItems[i]
		item.QuoteID = quote.ID
		if err := tx.QueryRow(ctx, insertItem,
			quote.ID, item.Position, item.Kind, item.Amount,
			item.RatePerKm, item.DistanceKm, item.Percent,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("SaveQuote line item %d failed: %w", item.Position, err)
		}
	}

	const updateRequest = `
		UPDATE transport_requests
		SET status = $2, updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, updateRequest, quote.TransportRequestID, models.RequestStatusQuoted); err != nil {
		return fmt.Errorf("SaveQuote status update failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("SaveQuote commit failed: %w", err)
	}
	return nil
}
