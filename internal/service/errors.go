package service

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrAlreadyRegistered   = errors.New("email already registered")
	ErrNotFound            = errors.New("not found")
	ErrOTPExpired          = errors.New("otp expired")
	ErrOTPInvalid          = errors.New("otp invalid")
	ErrTooManyAttempts     = errors.New("too many attempts")
	ErrRateLimited         = errors.New("rate limited")
	ErrNotificationFailure = errors.New("notification failed")
	ErrMemberIDExhausted   = errors.New("member id space exhausted")
)
