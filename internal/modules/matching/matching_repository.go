package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/mailer"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the database operations the matcher and the
// pipeline need. The carrier pool is read-only to the matcher.
type RepositoryInterface interface {
	GetTransportRequest(ctx context.Context, id string) (*models.TransportRequest, error)
	SetRequestStatus(ctx context.Context, id, status string) error

	ListActiveCarriers(ctx context.Context) ([]*models.Carrier, error)

	// CreateCarrierRequest persists one match. A second match for the same
	// (transport_request, carrier) pair fails with models.ErrAlreadyMatched.
	CreateCarrierRequest(ctx context.Context, cr *models.CarrierRequest) error
	CountCarrierRequests(ctx context.Context, transportRequestID string) (int, error)
	ListNewCarrierRequests(ctx context.Context, transportRequestID string) ([]*models.CarrierRequest, error)
	// MarkInvitationSent transitions one carrier request new→sent and records
	// the dispatch timestamp.
	MarkInvitationSent(ctx context.Context, carrierRequestID string) error

	// CarrierContact backs the mailer's recipient lookup.
	CarrierContact(ctx context.Context, carrierRequestID string) (*mailer.Contact, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) GetTransportRequest(ctx context.Context, id string) (*models.TransportRequest, error) {
	const query = `
		SELECT id, customer_id, status,
		       pickup_address, pickup_lat, pickup_lon, COALESCE(pickup_country, ''),
		       delivery_address, delivery_lat, delivery_lon, COALESCE(delivery_country, ''),
		       distance_km,
		       pickup_from, pickup_until, delivery_from, delivery_until,
		       COALESCE(vehicle_type, ''),
		       cargo_length_cm, cargo_width_cm, cargo_height_cm, cargo_weight_kg, loading_meters,
		       needs_liftgate, needs_pallet_jack, needs_side_loading, needs_tarp, needs_gps_tracking,
		       matched_carrier_id, created_at, updated_at
		FROM transport_requests
		WHERE id = $1`
	tr := &models.TransportRequest{}
	err := r.db.QueryRow(ctx, query, id).Scan(
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
		return nil, fmt.Errorf("GetTransportRequest failed: %w", err)
	}
	return tr, nil
}

func (r *Repository) SetRequestStatus(ctx context.Context, id, status string) error {
	const query = `
		UPDATE transport_requests
		SET status = $2, updated_at = now()
		WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("SetRequestStatus failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) ListActiveCarriers(ctx context.Context) ([]*models.Carrier, error) {
	const query = `
		SELECT id, company_name, email,
		       lat, lon, service_radius_km, ignore_radius,
		       has_light_vehicle, has_heavy_vehicle,
		       max_length_cm, max_width_cm, max_height_cm,
		       has_liftgate, has_pallet_jack, has_side_loading, has_tarp, has_gps_tracking,
		       pickup_countries, delivery_countries,
		       blacklisted, created_at, updated_at
		FROM carriers
		WHERE NOT blacklisted`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCarriers failed: %w", err)
	}
	defer rows.Close()

	var carriers []*models.Carrier
	for rows.Next() {
		c := &models.Carrier{}
		if err := rows.Scan(
			&c.ID, &c.CompanyName, &c.Email,
			&c.Lat, &c.Lon, &c.ServiceRadiusKm, &c.IgnoreRadius,
			&c.HasLightVehicle, &c.HasHeavyVehicle,
			&c.MaxLengthCm, &c.MaxWidthCm, &c.MaxHeightCm,
			&c.HasLiftgate, &c.HasPalletJack, &c.HasSideLoading, &c.HasTarp, &c.HasGPSTracking,
			&c.PickupCountries, &c.DeliveryCountries,
			&c.Blacklisted, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListActiveCarriers Scan failed: %w", err)
		}
		carriers = append(carriers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveCarriers rows failed: %w", err)
	}
	return carriers, nil
}

func (r *Repository) CreateCarrierRequest(ctx context.Context, cr *models.CarrierRequest) error {
	const query = `
		INSERT INTO carrier_requests
			(transport_request_id, carrier_id, status,
			 distance_to_pickup_km, distance_to_delivery_km, in_radius)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		cr.TransportRequestID, cr.CarrierID, cr.Status,
		cr.DistanceToPickupKm, cr.DistanceToDeliveryKm, cr.InRadius,
	).Scan(&cr.ID, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrAlreadyMatched
		}
		return fmt.Errorf("CreateCarrierRequest failed: %w", err)
	}
	return nil
}

func (r *Repository) CountCarrierRequests(ctx context.Context, transportRequestID string) (int, error) {
	const query = `SELECT count(*) FROM carrier_requests WHERE transport_request_id = $1`
	var n int
	if err := r.db.QueryRow(ctx, query, transportRequestID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountCarrierRequests failed: %w", err)
	}
	return n, nil
}

func (r *Repository) ListNewCarrierRequests(ctx context.Context, transportRequestID string) ([]*models.CarrierRequest, error) {
	const query = `
		SELECT id, transport_request_id, carrier_id, status,
		       distance_to_pickup_km, distance_to_delivery_km, in_radius,
		       invitation_sent_at, created_at, updated_at
		FROM carrier_requests
		WHERE transport_request_id = $1 AND status = 'new'`
	rows, err := r.db.Query(ctx, query, transportRequestID)
	if err != nil {
		return nil, fmt.Errorf("ListNewCarrierRequests failed: %w", err)
	}
	defer rows.Close()

	var out []*models.CarrierRequest
	for rows.Next() {
		cr := &models.CarrierRequest{}
		if err := rows.Scan(
			&cr.ID, &cr.TransportRequestID, &cr.CarrierID, &cr.Status,
			&cr.DistanceToPickupKm, &cr.DistanceToDeliveryKm, &cr.InRadius,
			&cr.InvitationSentAt, &cr.CreatedAt, &cr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListNewCarrierRequests Scan failed: %w", err)
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNewCarrierRequests rows failed: %w", err)
	}
	return out, nil
}

func (r *Repository) MarkInvitationSent(ctx context.Context, carrierRequestID string) error {
	const query = `
		UPDATE carrier_requests
		SET status = 'sent', invitation_sent_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'new'`
	cmd, err := r.db.Exec(ctx, query, carrierRequestID)
	if err != nil {
		return fmt.Errorf("MarkInvitationSent failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrOfferNotOpen
	}
	return nil
}

func (r *Repository) CarrierContact(ctx context.Context, carrierRequestID string) (*mailer.Contact, error) {
	const query = `
		SELECT c.email, c.company_name, left(cr.transport_request_id::text, 8)
		FROM carrier_requests cr
		JOIN carriers c ON c.id = cr.carrier_id
		WHERE cr.id = $1`
	contact := &mailer.Contact{}
	err := r.db.QueryRow(ctx, query, carrierRequestID).Scan(&contact.Email, &contact.CompanyName, &contact.RequestRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("CarrierContact failed: %w", err)
	}
	return contact, nil
}
