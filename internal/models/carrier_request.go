package models

import "time"

// Carrier request (match/invitation) statuses.
const (
	CarrierRequestStatusNew      = "new"
	CarrierRequestStatusSent     = "sent"
	CarrierRequestStatusOffered  = "offered"
	CarrierRequestStatusWon      = "won"
	CarrierRequestStatusRejected = "rejected"
)

// CarrierRequest links one transport request to one carrier and tracks that
// carrier's response lifecycle. At most one row exists per
// (transport_request, carrier) pair; the database enforces this.
type CarrierRequest struct {
	ID                 string `json:"id"`
	TransportRequestID string `json:"transport_request_id"`
	CarrierID          string `json:"carrier_id"`
	Status             string `json:"status"`

	// Distances from the carrier's location, snapshotted at match time.
	DistanceToPickupKm   *float64 `json:"distance_to_pickup_km,omitempty"`
	DistanceToDeliveryKm *float64 `json:"distance_to_delivery_km,omitempty"`
	InRadius             bool     `json:"in_radius"`

	// Offer fields, populated when the carrier responds.
	OfferedPrice         *float64   `json:"offered_price,omitempty"`
	OfferedDeliveryAt    *time.Time `json:"offered_delivery_at,omitempty"`
	OfferedTransportType string     `json:"offered_transport_type,omitempty"`
	OfferedVehicleType   string     `json:"offered_vehicle_type,omitempty"`
	DriverLanguage       string     `json:"driver_language,omitempty"`
	Notes                string     `json:"notes,omitempty"`

	InvitationSentAt *time.Time `json:"invitation_sent_at,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitOfferInput is the payload a carrier posts on the public offer
// submission endpoint.
type SubmitOfferInput struct {
	Price          float64    `json:"price" validate:"required,gt=0"`
	DeliveryAt     *time.Time `json:"delivery_at,omitempty"`
	TransportType  string     `json:"transport_type,omitempty"`
	VehicleType    string     `json:"vehicle_type,omitempty" validate:"omitempty,oneof=transporter lkw_7_5t lkw_12t lkw_40t"`
	DriverLanguage string     `json:"driver_language,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}
