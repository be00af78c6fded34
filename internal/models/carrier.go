package models

import "time"

// Carrier is a transport provider that can be invited to bid on a transport
// request. Maintained by operations staff; the matching core only reads it.
type Carrier struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`

	Lat             *float64 `json:"lat,omitempty"`
	Lon             *float64 `json:"lon,omitempty"`
	ServiceRadiusKm *float64 `json:"service_radius_km,omitempty"`
	// IgnoreRadius lets a carrier opt out of the radius filter entirely.
	IgnoreRadius bool `json:"ignore_radius"`

	HasLightVehicle bool `json:"has_light_vehicle"`
	HasHeavyVehicle bool `json:"has_heavy_vehicle"`
	// Maximum cargo dimensions of the heavy vehicle, if configured.
	MaxLengthCm *float64 `json:"max_length_cm,omitempty"`
	MaxWidthCm  *float64 `json:"max_width_cm,omitempty"`
	MaxHeightCm *float64 `json:"max_height_cm,omitempty"`

	HasLiftgate    bool `json:"has_liftgate"`
	HasPalletJack  bool `json:"has_pallet_jack"`
	HasSideLoading bool `json:"has_side_loading"`
	HasTarp        bool `json:"has_tarp"`
	HasGPSTracking bool `json:"has_gps_tracking"`

	// ISO country codes the carrier picks up in / delivers to.
	PickupCountries   []string `json:"pickup_countries"`
	DeliveryCountries []string `json:"delivery_countries"`

	Blacklisted bool `json:"blacklisted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServesCountries reports whether the carrier's configured country sets cover
// the given pickup and delivery countries.
func (c *Carrier) ServesCountries(pickup, delivery string) bool {
	return containsCountry(c.PickupCountries, pickup) && containsCountry(c.DeliveryCountries, delivery)
}

func containsCountry(set []string, code string) bool {
	for _, s := range set {
		if s == code {
			return true
		}
	}
	return false
}
