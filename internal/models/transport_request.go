package models

import "time"

// Transport request lifecycle statuses.
const (
	RequestStatusNew           = "new"
	RequestStatusQuoted        = "quoted"
	RequestStatusQuoteAccepted = "quote_accepted"
	RequestStatusQuoteDeclined = "quote_declined"
	RequestStatusMatching      = "matching"
	RequestStatusMatched       = "matched"
	RequestStatusInTransit     = "in_transit"
	RequestStatusDelivered     = "delivered"
	RequestStatusCancelled     = "cancelled"
)

// Vehicle types. The concrete types key pricing rules and carrier fleets;
// "lkw" and "either" are umbrella values a customer may pick when any heavy
// vehicle (or any vehicle at all) will do.
const (
	VehicleTransporter = "transporter"
	VehicleLKW75       = "lkw_7_5t"
	VehicleLKW12       = "lkw_12t"
	VehicleLKW40       = "lkw_40t"
	VehicleAnyLKW      = "lkw"
	VehicleEither      = "either"
)

func IsLightVehicle(vt string) bool {
	return vt == VehicleTransporter
}

func IsHeavyVehicle(vt string) bool {
	switch vt {
	case VehicleLKW75, VehicleLKW12, VehicleLKW40, VehicleAnyLKW:
		return true
	}
	return false
}

// ValidVehicleTypes lists every value accepted on a transport request.
func ValidVehicleTypes() []string {
	return []string{
		VehicleTransporter, VehicleLKW75, VehicleLKW12, VehicleLKW40,
		VehicleAnyLKW, VehicleEither,
	}
}

// MaxLoadingMeters is the legal trailer length in meters; loading-meter
// figures are capped here.
const MaxLoadingMeters = 13.6

// TransportRequest is a customer's shipment order awaiting pricing and
// carrier assignment.
type TransportRequest struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`

	PickupAddress   string   `json:"pickup_address"`
	PickupLat       *float64 `json:"pickup_lat,omitempty"`
	PickupLon       *float64 `json:"pickup_lon,omitempty"`
	PickupCountry   string   `json:"pickup_country,omitempty"` // ISO 3166-1 alpha-2
	DeliveryAddress string   `json:"delivery_address"`
	DeliveryLat     *float64 `json:"delivery_lat,omitempty"`
	DeliveryLon     *float64 `json:"delivery_lon,omitempty"`
	DeliveryCountry string   `json:"delivery_country,omitempty"`

	// DistanceKm is computed once from the geocoded coordinates and cached;
	// the pricing engine treats it as a required input.
	DistanceKm *float64 `json:"distance_km,omitempty"`

	PickupFrom    *time.Time `json:"pickup_from,omitempty"`
	PickupUntil   *time.Time `json:"pickup_until,omitempty"`
	DeliveryFrom  *time.Time `json:"delivery_from,omitempty"`
	DeliveryUntil *time.Time `json:"delivery_until,omitempty"`

	VehicleType string `json:"vehicle_type,omitempty"`

	CargoLengthCm *float64 `json:"cargo_length_cm,omitempty"`
	CargoWidthCm  *float64 `json:"cargo_width_cm,omitempty"`
	CargoHeightCm *float64 `json:"cargo_height_cm,omitempty"`
	CargoWeightKg *float64 `json:"cargo_weight_kg,omitempty"`
	LoadingMeters *float64 `json:"loading_meters,omitempty"`

	NeedsLiftgate    bool `json:"needs_liftgate"`
	NeedsPalletJack  bool `json:"needs_pallet_jack"`
	NeedsSideLoading bool `json:"needs_side_loading"`
	NeedsTarp        bool `json:"needs_tarp"`
	NeedsGPSTracking bool `json:"needs_gps_tracking"`

	// MatchedCarrierID references the carrier whose offer won, once one has.
	MatchedCarrierID *string `json:"matched_carrier_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeLoadingMeters derives the loading-meter figure for a cargo footprint
// stacked side by side across a 2.4 m trailer width, capped at the legal
// trailer length.
func ComputeLoadingMeters(lengthCm, widthCm float64, quantity int) float64 {
	if lengthCm <= 0 || widthCm <= 0 || quantity <= 0 {
		return 0
	}
	perRow := int(240 / widthCm)
	if perRow < 1 {
		perRow = 1
	}
	rows := (quantity + perRow - 1) / perRow
	lm := float64(rows) * lengthCm / 100
	if lm > MaxLoadingMeters {
		return MaxLoadingMeters
	}
	return lm
}

// CreateRequestInput is the payload to open a new transport request.
type CreateRequestInput struct {
	PickupAddress   string     `json:"pickup_address" validate:"required"`
	DeliveryAddress string     `json:"delivery_address" validate:"required"`
	PickupFrom      *time.Time `json:"pickup_from,omitempty"`
	PickupUntil     *time.Time `json:"pickup_until,omitempty"`
	DeliveryFrom    *time.Time `json:"delivery_from,omitempty"`
	DeliveryUntil   *time.Time `json:"delivery_until,omitempty"`

	VehicleType string `json:"vehicle_type,omitempty" validate:"omitempty,oneof=transporter lkw_7_5t lkw_12t lkw_40t lkw either"`

	CargoLengthCm *float64 `json:"cargo_length_cm,omitempty" validate:"omitempty,gt=0"`
	CargoWidthCm  *float64 `json:"cargo_width_cm,omitempty" validate:"omitempty,gt=0"`
	CargoHeightCm *float64 `json:"cargo_height_cm,omitempty" validate:"omitempty,gt=0"`
	CargoWeightKg *float64 `json:"cargo_weight_kg,omitempty" validate:"omitempty,gt=0"`
	CargoQuantity int      `json:"cargo_quantity,omitempty" validate:"omitempty,gt=0"`

	NeedsLiftgate    bool `json:"needs_liftgate"`
	NeedsPalletJack  bool `json:"needs_pallet_jack"`
	NeedsSideLoading bool `json:"needs_side_loading"`
	NeedsTarp        bool `json:"needs_tarp"`
	NeedsGPSTracking bool `json:"needs_gps_tracking"`
}
