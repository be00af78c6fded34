package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
)

type fakeRepo struct {
	rules  map[string]*models.PricingRule
	saved  []*models.Quote
	failOn string
}

func newFakeRepo(rules ...*models.PricingRule) *fakeRepo {
	fr := &fakeRepo{rules: make(map[string]*models.PricingRule)}
	for _, r := range rules {
		fr.rules[r.VehicleType] = r
	}
	return fr
}

func (f *fakeRepo) FindActiveRule(ctx context.Context, vehicleType string) (*models.PricingRule, error) {
	rule, ok := f.rules[vehicleType]
	if !ok || !rule.Active {
		return nil, models.ErrNotFound
	}
	cp := *rule
	return &cp, nil
}

func (f *fakeRepo) SaveQuote(ctx context.Context, quote *models.Quote) error {
	for _, q := range f.saved {
		if q.TransportRequestID == quote.TransportRequestID {
			return models.ErrConflict
		}
	}
	quote.ID = "q-1"
	f.saved = append(f.saved, quote)
	return nil
}

func ts(v time.Time) *time.Time { return &v }

func transporterRule() *models.PricingRule {
	return &models.PricingRule{
		VehicleType:         models.VehicleTransporter,
		RatePerKm:           1.0,
		MinimumPrice:        50,
		WeekendSurchargePct: 10,
		ExpressSurchargePct: 5,
		Active:              true,
	}
}

func newTestService(fr *fakeRepo) *Service {
	s := NewService(fr, "EUR", 72)
	s.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	return s
}

func request(distance float64, vehicleType string) *models.TransportRequest {
	return &models.TransportRequest{
		ID:          "tr-1",
		Status:      models.RequestStatusNew,
		VehicleType: vehicleType,
		DistanceKm:  &distance,
	}
}

func TestCalculateBasePrice(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	q, err := s.Calculate(context.Background(), request(320, models.VehicleTransporter))
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if q.BasePrice != 320 {
		t.Errorf("base price = %.2f; want 320.00", q.BasePrice)
	}
	if q.TotalPrice != 320 {
		t.Errorf("total = %.2f; want 320.00", q.TotalPrice)
	}
	if q.Currency != "EUR" {
		t.Errorf("currency = %s; want EUR", q.Currency)
	}
	want := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	if !q.ValidUntil.Equal(want) {
		t.Errorf("valid until = %v; want %v", q.ValidUntil, want)
	}
	if len(q.LineItems) != 1 {
		t.Fatalf("line items = %d; want 1", len(q.LineItems))
	}
	li := q.LineItems[0]
	if li.Kind != models.LineItemBaseTransport || li.Position != 0 {
		t.Errorf("line item = %+v; want base_transport at position 0", li)
	}
	if li.RatePerKm == nil || *li.RatePerKm != 1.0 {
		t.Errorf("rate parameter = %v; want 1.0", li.RatePerKm)
	}
	if li.DistanceKm == nil || *li.DistanceKm != 320 {
		t.Errorf("distance parameter = %v; want 320", li.DistanceKm)
	}
	if len(fr.saved) != 1 {
		t.Errorf("saved quotes = %d; want 1", len(fr.saved))
	}
}

func TestCalculateMinimumPrice(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	q, err := s.Calculate(context.Background(), request(20, models.VehicleTransporter))
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if q.BasePrice != 50 {
		t.Errorf("base price = %.2f; want the 50.00 minimum", q.BasePrice)
	}
}

func TestCalculateWeekendSurcharge(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	tr := request(100, models.VehicleTransporter)
	// Saturday pickup, delivery far enough out that express does not apply.
	tr.PickupFrom = ts(time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC))
	tr.DeliveryUntil = ts(time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC))

	q, err := s.Calculate(context.Background(), tr)
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if q.BasePrice != 100 {
		t.Fatalf("base price = %.2f; want 100.00", q.BasePrice)
	}
	if q.SurchargeTotal != 10 {
		t.Errorf("surcharge total = %.2f; want 10.00", q.SurchargeTotal)
	}
	if q.TotalPrice != 110 {
		t.Errorf("total = %.2f; want 110.00", q.TotalPrice)
	}
	if len(q.LineItems) != 2 {
		t.Fatalf("line items = %d; want 2", len(q.LineItems))
	}
	li := q.LineItems[1]
	if li.Kind != models.LineItemWeekendSurcharge || li.Amount != 10 {
		t.Errorf("surcharge item = %+v; want weekend_surcharge of 10.00", li)
	}
	if li.Percent == nil || *li.Percent != 10 {
		t.Errorf("percent parameter = %v; want 10", li.Percent)
	}
}

func TestCalculateExpressSurcharge(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	tr := request(200, models.VehicleTransporter)
	// Monday pickup with a 12-hour delivery window.
	tr.PickupFrom = ts(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	tr.DeliveryUntil = ts(time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC))

	q, err := s.Calculate(context.Background(), tr)
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if q.SurchargeTotal != 10 {
		t.Errorf("surcharge total = %.2f; want 10.00 (5%% of 200)", q.SurchargeTotal)
	}
	if q.TotalPrice != 210 {
		t.Errorf("total = %.2f; want 210.00", q.TotalPrice)
	}
	if len(q.LineItems) != 2 || q.LineItems[1].Kind != models.LineItemExpressSurcharge {
		t.Fatalf("line items = %+v; want base + express_surcharge", q.LineItems)
	}
}

func TestCalculateBothSurcharges(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	tr := request(100, models.VehicleTransporter)
	// Sunday pickup, same-day delivery: weekend and express stack, each
	// computed on the base alone.
	tr.PickupFrom = ts(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	tr.DeliveryUntil = ts(time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC))

	q, err := s.Calculate(context.Background(), tr)
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if q.SurchargeTotal != 15 {
		t.Errorf("surcharge total = %.2f; want 15.00", q.SurchargeTotal)
	}
	if q.TotalPrice != 115 {
		t.Errorf("total = %.2f; want 115.00", q.TotalPrice)
	}
	if len(q.LineItems) != 3 {
		t.Fatalf("line items = %d; want 3", len(q.LineItems))
	}
	for i, li := range q.LineItems {
		if li.Position != i {
			t.Errorf("line item %d has position %d", i, li.Position)
		}
	}
}

func TestCalculatePreconditions(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	tr := &models.TransportRequest{ID: "tr-1"}
	_, err := s.Calculate(context.Background(), tr)

	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("error = %v; want *CalculationError", err)
	}
	if len(calcErr.Reasons) != 2 {
		t.Errorf("reasons = %v; want both missing distance and missing vehicle type", calcErr.Reasons)
	}
	if len(fr.saved) != 0 {
		t.Error("a failed calculation must not persist a quote")
	}
}

func TestCalculateZeroDistance(t *testing.T) {
	fr := newFakeRepo(transporterRule())
	s := newTestService(fr)

	_, err := s.Calculate(context.Background(), request(0, models.VehicleTransporter))
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("error = %v; want *CalculationError", err)
	}
}

func TestRuleResolutionFallbacks(t *testing.T) {
	lkw75 := transporterRule()
	lkw75.VehicleType = models.VehicleLKW75
	lkw75.RatePerKm = 2.0
	anyRule := transporterRule()
	anyRule.VehicleType = models.PricingRuleAnyVehicle
	anyRule.RatePerKm = 3.0

	tests := []struct {
		name        string
		rules       []*models.PricingRule
		vehicleType string
		wantRate    float64
	}{
		{"exact match", []*models.PricingRule{transporterRule(), anyRule}, models.VehicleTransporter, 1.0},
		{"lkw umbrella falls back to lkw_7_5t", []*models.PricingRule{lkw75}, models.VehicleAnyLKW, 2.0},
		{"either falls back to transporter", []*models.PricingRule{transporterRule()}, models.VehicleEither, 1.0},
		{"catch-all any", []*models.PricingRule{anyRule}, models.VehicleLKW40, 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(newFakeRepo(tt.rules...))
			q, err := s.Calculate(context.Background(), request(100, tt.vehicleType))
			if err != nil {
				t.Fatalf("Calculate error: %v", err)
			}
			if q.LineItems[0].RatePerKm == nil || *q.LineItems[0].RatePerKm != tt.wantRate {
				t.Errorf("applied rate = %v; want %.1f", q.LineItems[0].RatePerKm, tt.wantRate)
			}
		})
	}
}

func TestCalculateNoRule(t *testing.T) {
	s := newTestService(newFakeRepo())

	_, err := s.Calculate(context.Background(), request(100, models.VehicleLKW40))
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("error = %v; want *CalculationError", err)
	}
}

func TestCalculateInactiveRule(t *testing.T) {
	inactive := transporterRule()
	inactive.Active = false
	s := newTestService(newFakeRepo(inactive))

	_, err := s.Calculate(context.Background(), request(100, models.VehicleTransporter))
	var calcErr *CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("error = %v; want *CalculationError", err)
	}
}
