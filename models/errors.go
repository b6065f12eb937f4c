// models/errors.go
package models

import "errors"

// Error taxonomy shared by repositories, services and controllers.
// Controllers translate these into status codes; anything else is an internal error.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrOTPNotFound        = errors.New("otp not found")
	ErrOTPMismatch        = errors.New("otp mismatch")
	ErrOTPExpired         = errors.New("otp expired")
	ErrDelivery           = errors.New("notification delivery failed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrMovieNotFound      = errors.New("movie not found")
)
