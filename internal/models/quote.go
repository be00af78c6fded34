package models

import "time"

// Quote statuses. "expired" is a derived read of a pending quote past its
// validity deadline, never a persisted status.
const (
	QuoteStatusPending  = "pending"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
)

// Line-item kinds. The engine emits kind + parameters; display text is the
// presentation layer's job.
const (
	LineItemBaseTransport    = "base_transport"
	LineItemWeekendSurcharge = "weekend_surcharge"
	LineItemExpressSurcharge = "express_surcharge"
)

// LineItemLabel maps a line-item kind to its display label.
func LineItemLabel(kind string) string {
	switch kind {
	case LineItemBaseTransport:
		return "Base transport cost"
	case LineItemWeekendSurcharge:
		return "Weekend surcharge"
	case LineItemExpressSurcharge:
		return "Express surcharge"
	}
	return kind
}

// Quote is the priced proposal shown to the customer before carrier matching
// begins. Exactly one quote exists per transport request (database-enforced).
type Quote struct {
	ID                 string `json:"id"`
	TransportRequestID string `json:"transport_request_id"`
	Status             string `json:"status"`

	BasePrice      float64 `json:"base_price"`
	SurchargeTotal float64 `json:"surcharge_total"`
	TotalPrice     float64 `json:"total_price"`
	Currency       string  `json:"currency"`

	ValidUntil time.Time  `json:"valid_until"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	DeclinedAt *time.Time `json:"declined_at,omitempty"`

	LineItems []QuoteLineItem `json:"line_items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether a still-pending quote is past its validity
// deadline at the given instant.
func (q *Quote) Expired(now time.Time) bool {
	return q.Status == QuoteStatusPending && now.After(q.ValidUntil)
}

// QuoteLineItem is one ordered line of a quote. Position 0 is always the base
// transport cost; subsequent lines are surcharges. A negative amount denotes
// a discount.
type QuoteLineItem struct {
	ID       string  `json:"id"`
	QuoteID  string  `json:"quote_id"`
	Position int     `json:"position"`
	Kind     string  `json:"kind"`
	Amount   float64 `json:"amount"`

	// Calculation parameters, set per kind: rate/distance for the base line,
	// percent for surcharge lines.
	RatePerKm  *float64 `json:"rate_per_km,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Percent    *float64 `json:"percent,omitempty"`
}
