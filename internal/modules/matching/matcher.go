package matching

import (
	"context"
	"fmt"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/geo"
)

// carrierFilter is one stage of the filter chain. Stages compose with logical
// AND; a stage whose criterion does not apply returns true for every carrier.
type carrierFilter func(tr *models.TransportRequest, c *models.Carrier) bool

// filterChain lists the stages in evaluation order.
var filterChain = []carrierFilter{
	byVehicleType,
	byCoverage,
	byRadius,
	byCapacity,
	byEquipment,
}

// Matcher filters the carrier pool for a transport request and materializes
// one carrier request per qualifying carrier.
type Matcher struct {
	repo RepositoryInterface
}

func NewMatcher(repo RepositoryInterface) *Matcher {
	return &Matcher{repo: repo}
}

// Run applies the filter chain to the pool and persists a carrier request for
// every survivor, returning the number created. Matching an already-matched
// carrier is an error, not a skip: Run must only be invoked once per
// transport request.
func (m *Matcher) Run(ctx context.Context, tr *models.TransportRequest, pool []*models.Carrier) (int, error) {
	created := 0
	for _, c := range pool {
		if !qualifies(tr, c) {
			continue
		}
		cr := materialize(tr, c)
		if err := m.repo.CreateCarrierRequest(ctx, cr); err != nil {
			return created, fmt.Errorf("Matcher.Run: carrier %s: %w", c.ID, err)
		}
		created++
	}
	return created, nil
}

func qualifies(tr *models.TransportRequest, c *models.Carrier) bool {
	for _, f := range filterChain {
		if !f(tr, c) {
			return false
		}
	}
	return true
}

// byVehicleType keeps carriers whose fleet covers the requested vehicle
// class. An unspecified or "either" request keeps everyone.
func byVehicleType(tr *models.TransportRequest, c *models.Carrier) bool {
	switch {
	case tr.VehicleType == "" || tr.VehicleType == models.VehicleEither:
		return true
	case models.IsLightVehicle(tr.VehicleType):
		return c.HasLightVehicle
	case models.IsHeavyVehicle(tr.VehicleType):
		return c.HasHeavyVehicle
	}
	return true
}

// byCoverage keeps carriers serving both countries of the lane. Skipped when
// either country is unknown.
func byCoverage(tr *models.TransportRequest, c *models.Carrier) bool {
	if tr.PickupCountry == "" || tr.DeliveryCountry == "" {
		return true
	}
	return c.ServesCountries(tr.PickupCountry, tr.DeliveryCountry)
}

// byRadius keeps carriers whose service radius reaches the pickup point.
// Carriers that ignore the radius bypass the stage; carriers without a
// location or radius are excluded once the stage applies.
func byRadius(tr *models.TransportRequest, c *models.Carrier) bool {
	if tr.PickupLat == nil || tr.PickupLon == nil {
		return true
	}
	if c.IgnoreRadius {
		return true
	}
	if c.Lat == nil || c.Lon == nil || c.ServiceRadiusKm == nil {
		return false
	}
	d := geo.Haversine(*c.Lat, *c.Lon, *tr.PickupLat, *tr.PickupLon)
	return d <= *c.ServiceRadiusKm
}

// byCapacity applies only to heavy-vehicle requests with at least one cargo
// dimension. Each axis constrains only when both sides specify it.
func byCapacity(tr *models.TransportRequest, c *models.Carrier) bool {
	if !models.IsHeavyVehicle(tr.VehicleType) {
		return true
	}
	if tr.CargoLengthCm == nil && tr.CargoWidthCm == nil && tr.CargoHeightCm == nil {
		return true
	}
	if !c.HasHeavyVehicle {
		return false
	}
	return fits(tr.CargoLengthCm, c.MaxLengthCm) &&
		fits(tr.CargoWidthCm, c.MaxWidthCm) &&
		fits(tr.CargoHeightCm, c.MaxHeightCm)
}

func fits(need, have *float64) bool {
	if need == nil || have == nil {
		return true
	}
	return *have >= *need
}

// byEquipment requires the carrier to have every piece of equipment the
// request demands.
// TODO: side-loading and tarp requirements exist on the request but are not
// enforced here; pending product clarification on whether that is intended.
func byEquipment(tr *models.TransportRequest, c *models.Carrier) bool {
	if tr.NeedsLiftgate && !c.HasLiftgate {
		return false
	}
	if tr.NeedsPalletJack && !c.HasPalletJack {
		return false
	}
	if tr.NeedsGPSTracking && !c.HasGPSTracking {
		return false
	}
	return true
}

// materialize builds the carrier request row for a qualifying carrier,
// snapshotting distances and the in-radius flag.
func materialize(tr *models.TransportRequest, c *models.Carrier) *models.CarrierRequest {
	cr := &models.CarrierRequest{
		TransportRequestID: tr.ID,
		CarrierID:          c.ID,
		Status:             models.CarrierRequestStatusNew,
	}
	if c.Lat != nil && c.Lon != nil {
		if tr.PickupLat != nil && tr.PickupLon != nil {
			d := geo.Haversine(*c.Lat, *c.Lon, *tr.PickupLat, *tr.PickupLon)
			cr.DistanceToPickupKm = &d
		}
		if tr.DeliveryLat != nil && tr.DeliveryLon != nil {
			d := geo.Haversine(*c.Lat, *c.Lon, *tr.DeliveryLat, *tr.DeliveryLon)
			cr.DistanceToDeliveryKm = &d
		}
	}
	switch {
	case c.IgnoreRadius:
		cr.InRadius = true
	case cr.DistanceToPickupKm != nil && c.ServiceRadiusKm != nil:
		cr.InRadius = *cr.DistanceToPickupKm <= *c.ServiceRadiusKm
	default:
		cr.InRadius = false
	}
	return cr
}
