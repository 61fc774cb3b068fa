package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login gate outcomes. Blocked and invalid credentials are surfaced
	// identically to clients; only logs and metrics tell them apart.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrBlocked            = errors.New("source address is blacklisted")
	ErrStoreUnavailable   = errors.New("persistence store unavailable")

	// Used by the protected-route guard, never by the login gate.
	ErrTokenInvalid = errors.New("token is invalid or expired")
)
