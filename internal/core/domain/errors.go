package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrSweepInProgress indicates an ingestion sweep is already running
	ErrSweepInProgress = errors.New("sweep already in progress")

	// ErrInvalidTransition indicates an illegal email status transition
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDimensionMismatch indicates a vector does not match the index dimension
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCountMismatch indicates the vector index and chunk metadata diverged
	ErrCountMismatch = errors.New("index/metadata count mismatch")

	// ErrIndexCorrupt indicates a persisted index artifact could not be read
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an external service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
