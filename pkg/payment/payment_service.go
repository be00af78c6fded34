package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// ServiceInterface is the settlement boundary: charge the customer the
// accepted quote total once the shipment is delivered.
type ServiceInterface interface {
	ChargeCustomer(ctx context.Context, customerID string, amount float64, currency, transportRequestID string) (string, error)
}

// StripeService settles delivered transport requests via Stripe
// PaymentIntents.
type StripeService struct{}

func NewStripeService(apiKey string) *StripeService {
	stripe.Key = apiKey
	return &StripeService{}
}

// ChargeCustomer creates and confirms a PaymentIntent against the customer's
// stored default payment method. Returns the PaymentIntent ID.
func (s *StripeService) ChargeCustomer(ctx context.Context, customerID string, amount float64, currency, transportRequestID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("invalid settlement amount %.2f", amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:     stripe.Int64(int64(math.Round(amount * 100))), // cents
		Currency:   stripe.String(currency),
		Customer:   stripe.String(customerID),
		Confirm:    stripe.Bool(true),
		OffSession: stripe.Bool(true),
	}
	params.AddMetadata("transport_request_id", transportRequestID)
	// Retried settlements of the same request must not double-charge.
	params.SetIdempotencyKey("settle-" + transportRequestID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe payment intent: %w", err)
	}
	return pi.ID, nil
}
