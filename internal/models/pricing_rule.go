package models

// PricingRuleAnyVehicle keys the catch-all rate row.
const PricingRuleAnyVehicle = "any"

// PricingRule is one row of the rate table, keyed by vehicle-type category.
// Looked up by the pricing engine, never mutated by it.
type PricingRule struct {
	ID                 string  `json:"id"`
	VehicleType        string  `json:"vehicle_type"`
	RatePerKm          float64 `json:"rate_per_km"`
	MinimumPrice       float64 `json:"minimum_price"`
	WeekendSurchargePct float64 `json:"weekend_surcharge_pct"`
	ExpressSurchargePct float64 `json:"express_surcharge_pct"`
	Active             bool    `json:"active"`
}
