// Package common defines shared constants and sentinel errors used across
// the server, transports and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrUnavailable marks persistence or infrastructure failures. Callers may
	// retry; it is never reported as an authentication failure.
	ErrUnavailable = errors.New("service unavailable")

	// Registration and verification errors.
	ErrDuplicateAccount = errors.New("email already in use")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrExpiredToken     = errors.New("expired token")

	// Login and session errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotVerified = errors.New("email not verified")
	ErrUnauthenticated    = errors.New("unauthenticated")
)
