package requests

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/pricing"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/geo"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/payment"
)

// CreateResult is the outcome of opening a transport request. Pricing runs
// immediately after persistence; when its preconditions fail the request
// stays "new" and the reasons are reported instead of a quote.
type CreateResult struct {
	Request       *models.TransportRequest `json:"request"`
	Quote         *models.Quote            `json:"quote,omitempty"`
	PricingErrors []string                 `json:"pricing_errors,omitempty"`
}

// ServiceInterface defines the transport request operations.
type ServiceInterface interface {
	Create(ctx context.Context, customerID string, in models.CreateRequestInput) (*CreateResult, error)
	GetDetails(ctx context.Context, id, customerID string) (*models.TransportRequest, error)
	ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.TransportRequest, int, error)

	// Ops transitions past matching.
	MarkInTransit(ctx context.Context, id string) error
	MarkDelivered(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
}

// Service implements the transport request operations.
type Service struct {
	repo     RepositoryInterface
	geocoder geo.Geocoder
	pricing  pricing.ServiceInterface
	payments payment.ServiceInterface
}

func NewService(repo RepositoryInterface, geocoder geo.Geocoder, pricingSvc pricing.ServiceInterface, payments payment.ServiceInterface) *Service {
	return &Service{
		repo:     repo,
		geocoder: geocoder,
		pricing:  pricingSvc,
		payments: payments,
	}
}

// Create geocodes both addresses, caches the great-circle distance, persists
// the request and prices it. Geocoding failures degrade to a request without
// coordinates instead of failing the create; pricing then reports the missing
// distance as a precondition.
func (s *Service) Create(ctx context.Context, customerID string, in models.CreateRequestInput) (*CreateResult, error) {
	tr := &models.TransportRequest{
		CustomerID:       customerID,
		Status:           models.RequestStatusNew,
		PickupAddress:    in.PickupAddress,
		DeliveryAddress:  in.DeliveryAddress,
		PickupFrom:       in.PickupFrom,
		PickupUntil:      in.PickupUntil,
		DeliveryFrom:     in.DeliveryFrom,
		DeliveryUntil:    in.DeliveryUntil,
		VehicleType:      in.VehicleType,
		CargoLengthCm:    in.CargoLengthCm,
		CargoWidthCm:     in.CargoWidthCm,
		CargoHeightCm:    in.CargoHeightCm,
		CargoWeightKg:    in.CargoWeightKg,
		NeedsLiftgate:    in.NeedsLiftgate,
		NeedsPalletJack:  in.NeedsPalletJack,
		NeedsSideLoading: in.NeedsSideLoading,
		NeedsTarp:        in.NeedsTarp,
		NeedsGPSTracking: in.NeedsGPSTracking,
	}

	if loc, err := s.geocoder.Geocode(ctx, in.PickupAddress); err != nil {
		log.Printf("requests: geocoding pickup failed for %q: %v", in.PickupAddress, err)
	} else {
		tr.PickupLat, tr.PickupLon, tr.PickupCountry = &loc.Lat, &loc.Lon, loc.CountryCode
	}
	if loc, err := s.geocoder.Geocode(ctx, in.DeliveryAddress); err != nil {
		log.Printf("requests: geocoding delivery failed for %q: %v", in.DeliveryAddress, err)
	} else {
		tr.DeliveryLat, tr.DeliveryLon, tr.DeliveryCountry = &loc.Lat, &loc.Lon, loc.CountryCode
	}
	if tr.PickupLat != nil && tr.DeliveryLat != nil {
		d := geo.Haversine(*tr.PickupLat, *tr.PickupLon, *tr.DeliveryLat, *tr.DeliveryLon)
		tr.DistanceKm = &d
	}

	if in.CargoQuantity > 0 && in.CargoLengthCm != nil && in.CargoWidthCm != nil {
		lm := models.ComputeLoadingMeters(*in.CargoLengthCm, *in.CargoWidthCm, in.CargoQuantity)
		tr.LoadingMeters = &lm
	}

	if err := s.repo.Create(ctx, tr); err != nil {
		return nil, fmt.Errorf("requests.Create: %w", err)
	}

	result := &CreateResult{Request: tr}
	quote, err := s.pricing.Calculate(ctx, tr)
	if err != nil {
		var calcErr *pricing.CalculationError
		if errors.As(err, &calcErr) {
			result.PricingErrors = calcErr.Reasons
			return result, nil
		}
		return nil, fmt.Errorf("requests.Create: pricing: %w", err)
	}
	result.Quote = quote
	tr.Status = models.RequestStatusQuoted
	return result, nil
}

func (s *Service) GetDetails(ctx context.Context, id, customerID string) (*models.TransportRequest, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("requests.GetDetails: %w", err)
	}
	if tr.CustomerID != customerID {
		return nil, models.ErrNotFound
	}
	return tr, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.TransportRequest, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByCustomer(ctx, customerID, page, limit)
}

func (s *Service) MarkInTransit(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id,
		[]string{models.RequestStatusMatched}, models.RequestStatusInTransit)
}

// MarkDelivered finalizes the shipment and settles the accepted quote total
// with the customer. A failed charge is logged for ops follow-up; the status
// transition stands.
func (s *Service) MarkDelivered(ctx context.Context, id string) error {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("requests.MarkDelivered: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, id,
		[]string{models.RequestStatusInTransit}, models.RequestStatusDelivered); err != nil {
		return err
	}

	total, currency, err := s.repo.AcceptedQuoteTotal(ctx, id)
	if err != nil {
		log.Printf("CRITICAL: request %s delivered but no accepted quote found for settlement: %v", id, err)
		return nil
	}
	if _, err := s.payments.ChargeCustomer(ctx, tr.CustomerID, total, currency, id); err != nil {
		log.Printf("CRITICAL: request %s delivered but settlement charge failed: %v", id, err)
	}
	return nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id,
		[]string{
			models.RequestStatusNew, models.RequestStatusQuoted,
			models.RequestStatusQuoteAccepted, models.RequestStatusQuoteDeclined,
			models.RequestStatusMatching, models.RequestStatusMatched,
		},
		models.RequestStatusCancelled)
}
