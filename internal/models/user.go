package models

import "time"

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a platform account (customer or operations staff). Identity
// management beyond login lives outside this service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ErrorResponse is the uniform JSON error body.
type ErrorResponse struct {
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}
