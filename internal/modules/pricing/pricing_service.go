package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
)

// CalculationError carries the accumulated precondition/validation reasons of
// a failed quote calculation. No partial state is persisted when it is
// returned.
type CalculationError struct {
	Reasons []string
}

func (e *CalculationError) Error() string {
	return "quote calculation failed: " + strings.Join(e.Reasons, "; ")
}

// ServiceInterface is the pricing engine's contract.
type ServiceInterface interface {
	// Calculate prices a transport request and persists the resulting quote,
	// moving the request to "quoted". Returns *CalculationError for
	// precondition and validation failures.
	Calculate(ctx context.Context, tr *models.TransportRequest) (*models.Quote, error)
}

// Service implements the rule-based price calculator.
type Service struct {
	repo          RepositoryInterface
	currency      string
	validityHours int
	now           func() time.Time
}

func NewService(repo RepositoryInterface, currency string, validityHours int) *Service {
	return &Service{
		repo:          repo,
		currency:      currency,
		validityHours: validityHours,
		now:           time.Now,
	}
}

// expressWindow is the pickup-to-delivery gap at or under which the express
// surcharge applies.
const expressWindow = 24 * time.Hour

func (s *Service) Calculate(ctx context.Context, tr *models.TransportRequest) (quote *models.Quote, err error) {
	// A bug in rate data or rounding must not escape the pricing boundary as
	// a panic; it surfaces as a generic calculation failure instead.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pricing: panic calculating quote for request %s: %v", tr.ID, r)
			quote = nil
			err = fmt.Errorf("pricing.Calculate: unexpected failure")
		}
	}()

	var reasons []string
	if tr.DistanceKm == nil || *tr.DistanceKm <= 0 {
		reasons = append(reasons, "distance is missing or not positive")
	}
	if tr.VehicleType == "" {
		reasons = append(reasons, "vehicle type is missing")
	}
	if len(reasons) > 0 {
		return nil, &CalculationError{Reasons: reasons}
	}

	rule, err := s.resolveRule(ctx, tr.VehicleType)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &CalculationError{Reasons: []string{
				fmt.Sprintf("no active pricing rule for vehicle type %q", tr.VehicleType),
			}}
		}
		return nil, fmt.Errorf("pricing.Calculate: %w", err)
	}

	distance := *tr.DistanceKm
	base := round2(math.Max(distance*rule.RatePerKm, rule.MinimumPrice))

	items := []models.QuoteLineItem{{
		Position:   0,
		Kind:       models.LineItemBaseTransport,
		Amount:     base,
		RatePerKm:  &rule.RatePerKm,
		DistanceKm: &distance,
	}}

	surchargeTotal := 0.0
	if weekendApplies(tr.PickupFrom) && rule.WeekendSurchargePct > 0 {
		amount := round2(base * rule.WeekendSurchargePct / 100)
		surchargeTotal += amount
		items = append(items, models.QuoteLineItem{
			Position: len(items),
			Kind:     models.LineItemWeekendSurcharge,
			Amount:   amount,
			Percent:  &rule.WeekendSurchargePct,
		})
	}
	if expressApplies(tr.PickupFrom, tr.DeliveryUntil) && rule.ExpressSurchargePct > 0 {
		amount := round2(base * rule.ExpressSurchargePct / 100)
		surchargeTotal += amount
		items = append(items, models.QuoteLineItem{
			Position: len(items),
			Kind:     models.LineItemExpressSurcharge,
			Amount:   amount,
			Percent:  &rule.ExpressSurchargePct,
		})
	}

	total := round2(base + surchargeTotal)
	if total < 0 {
		return nil, &CalculationError{Reasons: []string{"total price is negative"}}
	}

	quote = &models.Quote{
		TransportRequestID: tr.ID,
		Status:             models.QuoteStatusPending,
		BasePrice:          base,
		SurchargeTotal:     round2(surchargeTotal),
		TotalPrice:         total,
		Currency:           s.currency,
		ValidUntil:         s.now().Add(time.Duration(s.validityHours) * time.Hour),
		LineItems:          items,
	}

	if err := s.repo.SaveQuote(ctx, quote); err != nil {
		log.Printf("pricing: persisting quote for request %s failed: %v", tr.ID, err)
		return nil, fmt.Errorf("pricing.Calculate: %w", err)
	}
	return quote, nil
}

// resolveRule looks up the rate row: exact vehicle type first, then the
// umbrella's concrete fallback, then the catch-all "any" row.
func (s *Service) resolveRule(ctx context.Context, vehicleType string) (*models.PricingRule, error) {
	rule, err := s.repo.FindActiveRule(ctx, vehicleType)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if fallback := concreteFallback(vehicleType); fallback != "" {
		rule, err = s.repo.FindActiveRule(ctx, fallback)
		if err == nil {
			return rule, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	return s.repo.FindActiveRule(ctx, models.PricingRuleAnyVehicle)
}

// concreteFallback maps an umbrella vehicle type to the concrete category its
// price is derived from.
func concreteFallback(vehicleType string) string {
	switch vehicleType {
	case models.VehicleEither:
		return models.VehicleTransporter
	case models.VehicleAnyLKW:
		return models.VehicleLKW75
	}
	return ""
}

func weekendApplies(pickup *time.Time) bool {
	if pickup == nil {
		return false
	}
	wd := pickup.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func expressApplies(pickup, delivery *time.Time) bool {
	if pickup == nil || delivery == nil {
		return false
	}
	return delivery.Sub(*pickup) <= expressWindow
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
