// Package apperrors contains sentinel errors used across layers for stable error mapping.
package apperrors

import "errors"

// Sentinels shared by services and handlers. Handlers are the only place
// these are translated into HTTP status codes.
var (
	// ErrNotFound indicates the requested entity does not exist or is not
	// owned by the requesting user. The two cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation (e.g., email taken).
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized indicates a missing, invalid, or expired credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned on login failure. Unknown email and
	// wrong password produce this same error to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrValidation indicates malformed or missing input. Wrap with
	// fmt.Errorf("%w: detail", ErrValidation) to carry specifics.
	ErrValidation = errors.New("validation")
)
