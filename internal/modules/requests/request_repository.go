package requests

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the transport request store.
type RepositoryInterface interface {
	Create(ctx context.Context, tr *models.TransportRequest) error
	FindByID(ctx context.Context, id string) (*models.TransportRequest, error)
	ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.TransportRequest, int, error)

	// UpdateStatus guards the transition: the row only updates when its
	// current status is one of from. Returns
	// models.ErrRequestNotTransitionable otherwise.
	UpdateStatus(ctx context.Context, id string, from []string, to string) error

	// AcceptedQuoteTotal returns total and currency of the request's accepted
	// quote, for settlement.
	AcceptedQuoteTotal(ctx context.Context, id string) (float64, string, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const requestColumns = `
	id, customer_id, status,
	pickup_address, pickup_lat, pickup_lon, COALESCE(pickup_country, ''),
	delivery_address, delivery_lat, delivery_lon, COALESCE(delivery_country, ''),
	distance_km,
	pickup_from, pickup_until, delivery_from, delivery_until,
	COALESCE(vehicle_type, ''),
	cargo_length_cm, cargo_width_cm, cargo_height_cm, cargo_weight_kg, loading_meters,
	needs_liftgate, needs_pallet_jack, needs_side_loading, needs_tarp, needs_gps_tracking,
	matched_carrier_id, created_at, updated_at`

func scanRequest(row pgx.Row) (*models.TransportRequest, error) {
	tr := &models.TransportRequest{}
	err := row.Scan(
		&tr.ID, &tr.CustomerID, &tr.Status,
		&tr.PickupAddress, &tr.PickupLat, &tr.PickupLon, &tr.PickupCountry,
		&tr.DeliveryAddress, &tr.DeliveryLat, &tr.DeliveryLon, &tr.DeliveryCountry,
		&tr.DistanceKm,
		&tr.PickupFrom, &tr.PickupUntil, &tr.DeliveryFrom, &tr.DeliveryUntil,
		&tr.VehicleType,
		&tr.CargoLengthCm, &tr.CargoWidthCm, &tr.CargoHeightCm, &tr.CargoWeightKg, &tr.LoadingMeters,
		&tr.NeedsLiftgate, &tr.NeedsPalletJack, &tr.NeedsSideLoading, &tr.NeedsTarp, &tr.NeedsGPSTracking,
		&tr.MatchedCarrierID, &tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transport request: %w", err)
	}
	return tr, nil
}

func (r *Repository) Create(ctx context.Context, tr *models.TransportRequest) error {
	const query = `
		INSERT INTO transport_requests
			(customer_id, status,
			 pickup_address, pickup_lat, pickup_lon, pickup_country,
			 delivery_address, delivery_lat, delivery_lon, delivery_country,
			 distance_km,
			 pickup_from, pickup_until, delivery_from, delivery_until,
			 vehicle_type,
			 cargo_length_cm, cargo_width_cm, cargo_height_cm, cargo_weight_kg, loading_meters,
			 needs_liftgate, needs_pallet_jack, needs_side_loading, needs_tarp, needs_gps_tracking)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		tr.CustomerID, tr.Status,
		tr.PickupAddress, tr.PickupLat, tr.PickupLon, nullIfEmpty(tr.PickupCountry),
		tr.DeliveryAddress, tr.DeliveryLat, tr.DeliveryLon, nullIfEmpty(tr.DeliveryCountry),
		tr.DistanceKm,
		tr.PickupFrom, tr.PickupUntil, tr.DeliveryFrom, tr.DeliveryUntil,
		nullIfEmpty(tr.VehicleType),
		tr.CargoLengthCm, tr.CargoWidthCm, tr.CargoHeightCm, tr.CargoWeightKg, tr.LoadingMeters,
		tr.NeedsLiftgate, tr.NeedsPalletJack, tr.NeedsSideLoading, tr.NeedsTarp, tr.NeedsGPSTracking,
	).Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.TransportRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM transport_requests WHERE id = $1`
	tr, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return tr, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.TransportRequest, int, error) {
	offset := (page - 1) * limit
	query := `
		SELECT ` + requestColumns + `
		FROM transport_requests
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListByCustomer.Query: %w", err)
	}
	defer rows.Close()

	var out []*models.TransportRequest
	for rows.Next() {
		tr, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListByCustomer: %w", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByCustomer rows: %w", err)
	}

	var total int
	const countQuery = `SELECT count(*) FROM transport_requests WHERE customer_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByCustomer.Count: %w", err)
	}
	return out, total, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, from []string, to string) error {
	const query = `
		UPDATE transport_requests
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($2)`
	cmd, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("repository.UpdateStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrRequestNotTransitionable
	}
	return nil
}

func (r *Repository) AcceptedQuoteTotal(ctx context.Context, id string) (float64, string, error) {
	const query = `
		SELECT total_price, currency
		FROM quotes
		WHERE transport_request_id = $1 AND status = 'accepted'`
	var total float64
	var currency string
	if err := r.db.QueryRow(ctx, query, id).Scan(&total, &currency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", models.ErrNotFound
		}
		return 0, "", fmt.Errorf("repository.AcceptedQuoteTotal: %w", err)
	}
	return total, currency, nil
}
