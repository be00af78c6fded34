package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrConflict = errors.New("resource conflict, item already exists")
var ErrInvalidCredentials = errors.New("invalid credentials") // email or password provided does not match database record

// ErrQuoteNotPending indicates an accept/decline on a quote that has already
// reached a terminal state (or was accepted/declined concurrently).
var ErrQuoteNotPending = errors.New("quote is not pending")

// ErrQuoteExpired indicates the quote's validity deadline has passed.
var ErrQuoteExpired = errors.New("quote validity deadline has passed")

// ErrOfferNotOpen indicates a transition on a carrier request that is not in
// the state the transition requires (e.g. accepting an offer that was already
// won or rejected).
var ErrOfferNotOpen = errors.New("carrier request is not open for this transition")

// ErrAlreadyMatched indicates a carrier was matched to the same transport
// request twice. This is a caller logic error, not a retryable condition.
var ErrAlreadyMatched = errors.New("carrier already matched to this transport request")

// ErrRequestNotTransitionable indicates a transport request status change that
// the lifecycle does not permit from the current status.
var ErrRequestNotTransitionable = errors.New("transport request status does not permit this transition")
