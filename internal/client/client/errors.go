package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotVerified   = errors.New("email not verified")
	ErrAlreadyExists = errors.New("account already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotLoggedIn   = errors.New("not logged in")
)
