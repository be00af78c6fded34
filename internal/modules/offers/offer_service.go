package offers

import (
	"context"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/mailer"
)

// ServiceInterface governs each carrier's response lifecycle:
// new → sent → offered → won|rejected.
type ServiceInterface interface {
	// GetInvitation loads one carrier request for the public offer page.
	GetInvitation(ctx context.Context, carrierRequestID string) (*models.CarrierRequest, error)
	// SubmitOffer records a carrier's response (sent→offered).
	SubmitOffer(ctx context.Context, carrierRequestID string, in models.SubmitOfferInput) (*models.CarrierRequest, error)
	// ListOffers returns the open offers on a transport request for its owner.
	ListOffers(ctx context.Context, transportRequestID, customerID string) ([]*models.CarrierRequest, error)
	// AcceptOffer awards one offer: it becomes "won", all sibling offers are
	// rejected, and the transport request is matched - atomically.
	AcceptOffer(ctx context.Context, carrierRequestID, customerID string) (*models.CarrierRequest, error)
	// DeclineOffer rejects a single offer.
	DeclineOffer(ctx context.Context, carrierRequestID, customerID string) error
}

// Service implements the offer lifecycle.
type Service struct {
	repo     RepositoryInterface
	notifier mailer.Notifier
}

func NewService(repo RepositoryInterface, notifier mailer.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) GetInvitation(ctx context.Context, carrierRequestID string) (*models.CarrierRequest, error) {
	cr, err := s.repo.GetCarrierRequest(ctx, carrierRequestID)
	if err != nil {
		return nil, fmt.Errorf("offers.GetInvitation: %w", err)
	}
	return cr, nil
}

func (s *Service) SubmitOffer(ctx context.Context, carrierRequestID string, in models.SubmitOfferInput) (*models.CarrierRequest, error) {
	if err := s.repo.SubmitOffer(ctx, carrierRequestID, in); err != nil {
		return nil, fmt.Errorf("offers.SubmitOffer: %w", err)
	}
	cr, err := s.repo.GetCarrierRequest(ctx, carrierRequestID)
	if err != nil {
		return nil, fmt.Errorf("offers.SubmitOffer: reload: %w", err)
	}
	return cr, nil
}

func (s *Service) ListOffers(ctx context.Context, transportRequestID, customerID string) ([]*models.CarrierRequest, error) {
	if err := s.authorizeRequest(ctx, transportRequestID, customerID); err != nil {
		return nil, err
	}
	offers, err := s.repo.ListOffered(ctx, transportRequestID)
	if err != nil {
		return nil, fmt.Errorf("offers.ListOffers: %w", err)
	}
	return offers, nil
}

func (s *Service) AcceptOffer(ctx context.Context, carrierRequestID, customerID string) (*models.CarrierRequest, error) {
	cr, err := s.repo.GetCarrierRequest(ctx, carrierRequestID)
	if err != nil {
		return nil, fmt.Errorf("offers.AcceptOffer: %w", err)
	}
	if err := s.authorizeRequest(ctx, cr.TransportRequestID, customerID); err != nil {
		return nil, err
	}

	rejectedIDs, err := s.repo.AwardOffer(ctx, carrierRequestID)
	if err != nil {
		return nil, fmt.Errorf("offers.AcceptOffer: %w", err)
	}

	// Notifications never roll back the committed award.
	s.notifier.NotifyOfferAccepted(ctx, carrierRequestID)
	for _, rid := range rejectedIDs {
		s.notifier.NotifyOfferRejected(ctx, rid)
	}

	cr, err = s.repo.GetCarrierRequest(ctx, carrierRequestID)
	if err != nil {
		return nil, fmt.Errorf("offers.AcceptOffer: reload: %w", err)
	}
	return cr, nil
}

func (s *Service) DeclineOffer(ctx context.Context, carrierRequestID, customerID string) error {
	cr, err := s.repo.GetCarrierRequest(ctx, carrierRequestID)
	if err != nil {
		return fmt.Errorf("offers.DeclineOffer: %w", err)
	}
	if err := s.authorizeRequest(ctx, cr.TransportRequestID, customerID); err != nil {
		return err
	}

	if err := s.repo.RejectOffer(ctx, carrierRequestID); err != nil {
		return fmt.Errorf("offers.DeclineOffer: %w", err)
	}
	s.notifier.NotifyOfferRejected(ctx, carrierRequestID)
	return nil
}

func (s *Service) authorizeRequest(ctx context.Context, transportRequestID, customerID string) error {
	ownerID, err := s.repo.GetRequestOwner(ctx, transportRequestID)
	if err != nil {
		return fmt.Errorf("offers.authorize: %w", err)
	}
	if ownerID != customerID {
		return models.ErrNotFound
	}
	return nil
}
