package identity

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already in use")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures carry no user-enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers signature, expiry and malformed-token failures
	// alike; the distinction is not surfaced past the gate boundary.
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrInvalidRole  = errors.New("invalid role")
)
