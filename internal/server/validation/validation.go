// Package validation checks inbound requests at the transport boundary and
// turns them into the plain inputs the services accept.
package validation

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

// PasswordMinEntropyBits rejects short or single-class passwords.
const PasswordMinEntropyBits = 45

// ErrInvalidRequest wraps every validation failure so transports map it to
// a single status.
var ErrInvalidRequest = errors.New("invalid request")

// Error carries the per-field messages of a failed validation.
type Error struct {
	Fields validation.Errors
}

func (e *Error) Error() string { return e.Fields.Error() }

func (e *Error) Unwrap() error { return ErrInvalidRequest }

func wrap(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &Error{Fields: fields}
	}
	return &Error{Fields: validation.Errors{"request": err}}
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *Registration) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	return wrap(validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 72),
			validation.By(strongPassword),
		),
	))
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *Login) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return wrap(validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	))
}

type Verification struct {
	Token     string `json:"token"`
	AccountID string `json:"id"`
}

func (r *Verification) Validate() error {
	return wrap(validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.AccountID, validation.Required, is.UUID),
	))
}

func strongPassword(value interface{}) error {
	s, _ := value.(string)
	if err := passwordvalidator.Validate(s, PasswordMinEntropyBits); err != nil {
		return errors.New("password is not strong enough")
	}
	return nil
}
