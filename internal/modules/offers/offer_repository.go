package offers

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const carrierRequestColumns = `
	id, transport_request_id, carrier_id, status,
	distance_to_pickup_km, distance_to_delivery_km, in_radius,
	offered_price, offered_delivery_at, COALESCE(offered_transport_type, ''),
	COALESCE(offered_vehicle_type, ''), COALESCE(driver_language, ''), COALESCE(notes, ''),
	invitation_sent_at, responded_at, created_at, updated_at`

// RepositoryInterface defines the offer lifecycle's database operations.
type RepositoryInterface interface {
	GetCarrierRequest(ctx context.Context, id string) (*models.CarrierRequest, error)
	ListOffered(ctx context.Context, transportRequestID string) ([]*models.CarrierRequest, error)
	GetRequestOwner(ctx context.Context, transportRequestID string) (string, error)

	// SubmitOffer records the carrier's response, transitioning sent→offered.
	// Returns models.ErrOfferNotOpen if the carrier request is not "sent".
	SubmitOffer(ctx context.Context, id string, in models.SubmitOfferInput) error

	// AwardOffer is the compound transition: the given carrier request becomes
	// "won", every sibling still "offered" becomes "rejected", and the
	// transport request becomes "matched" with the winning carrier recorded.
	// All three mutations commit together or not at all. Returns the IDs of
	// the rejected siblings.
	AwardOffer(ctx context.Context, id string) (rejectedIDs []string, err error)

	// RejectOffer declines a single offer, offered→rejected.
	RejectOffer(ctx context.Context, id string) error
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func scanCarrierRequest(row pgx.Row) (*models.CarrierRequest, error) {
	cr := &models.CarrierRequest{}
	err := row.Scan(
		&cr.ID, &cr.TransportRequestID, &cr.CarrierID, &cr.Status,
		&cr.DistanceToPickupKm, &cr.DistanceToDeliveryKm, &cr.InRadius,
		&cr.OfferedPrice, &cr.OfferedDeliveryAt, &cr.OfferedTransportType,
		&cr.OfferedVehicleType, &cr.DriverLanguage, &cr.Notes,
		&cr.InvitationSentAt, &cr.RespondedAt, &cr.CreatedAt, &cr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan carrier request: %w", err)
	}
	return cr, nil
}

func (r *Repository) GetCarrierRequest(ctx context.Context, id string) (*models.CarrierRequest, error) {
	query := `SELECT ` + carrierRequestColumns + ` FROM carrier_requests WHERE id = $1`
	cr, err := scanCarrierRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("GetCarrierRequest: %w", err)
	}
	return cr, nil
}

func (r *Repository) ListOffered(ctx context.Context, transportRequestID string) ([]*models.CarrierRequest, error) {
	query := `
		SELECT ` + carrierRequestColumns + `
		FROM carrier_requests
		WHERE transport_request_id = $1 AND status = 'offered'
		ORDER BY responded_at`
	rows, err := r.db.Query(ctx, query, transportRequestID)
	if err != nil {
		return nil, fmt.Errorf("ListOffered failed: %w", err)
	}
	defer rows.Close()

	var out []*models.CarrierRequest
	for rows.Next() {
		cr, err := scanCarrierRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOffered: %w", err)
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOffered rows failed: %w", err)
	}
	return out, nil
}

func (r *Repository) GetRequestOwner(ctx context.Context, transportRequestID string) (string, error) {
	const query = `SELECT customer_id FROM transport_requests WHERE id = $1`
	var customerID string
	if err := r.db.QueryRow(ctx, query, transportRequestID).Scan(&customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("GetRequestOwner failed: %w", err)
	}
	return customerID, nil
}

func (r *Repository) SubmitOffer(ctx context.Context, id string, in models.SubmitOfferInput) error {
	const query = `
		UPDATE carrier_requests
		SET status = 'offered',
		    offered_price = $2,
		    offered_delivery_at = $3,
		    offered_transport_type = $4,
		    offered_vehicle_type = $5,
		    driver_language = $6,
		    notes = $7,
		    responded_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status = 'sent'`
	cmd, err := r.db.Exec(ctx, query, id,
		in.Price, in.DeliveryAt, in.TransportType, in.VehicleType, in.DriverLanguage, in.Notes)
	if err != nil {
		return fmt.Errorf("SubmitOffer failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrOfferNotOpen
	}
	return nil
}

func (r *Repository) AwardOffer(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("AwardOffer begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// The status guard makes a concurrent second accept lose: its winner row
	// is no longer "offered", so it sees zero rows and nothing mutates.
	const winQuery = `
		UPDATE carrier_requests
		SET status = 'won', updated_at = now()
		WHERE id = $1 AND status = 'offered'
		RETURNING transport_request_id, carrier_id`
	var transportRequestID, carrierID string
	if err := tx.QueryRow(ctx, winQuery, id).Scan(&transportRequestID, &carrierID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOfferNotOpen
		}
		return nil, fmt.Errorf("AwardOffer win failed: %w", err)
	}

	const rejectQuery = `
		UPDATE carrier_requests
		SET status = 'rejected', updated_at = now()
		WHERE transport_request_id = $1 AND status = 'offered' AND id <> $2
		RETURNING id`
	rows, err := tx.Query(ctx, rejectQuery, transportRequestID, id)
	if err != nil {
		return nil, fmt.Errorf("AwardOffer reject siblings failed: %w", err)
	}
	var rejectedIDs []string
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("AwardOffer reject Scan failed: %w", err)
		}
		rejectedIDs = append(rejectedIDs, rid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AwardOffer reject rows failed: %w", err)
	}

	const matchQuery = `
		UPDATE transport_requests
		SET status = 'matched', matched_carrier_id = $2, updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, matchQuery, transportRequestID, carrierID); err != nil {
		return nil, fmt.Errorf("AwardOffer request update failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("AwardOffer commit failed: %w", err)
	}
	return rejectedIDs, nil
}

func (r *Repository) RejectOffer(ctx context.Context, id string) error {
	const query = `
		UPDATE carrier_requests
		SET status = 'rejected', updated_at = now()
		WHERE id = $1 AND status = 'offered'`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("RejectOffer failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrOfferNotOpen
	}
	return nil
}
