package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")

	ErrSecretNotFound  = errors.New("secret not found")
	ErrInvalidSecret   = errors.New("invalid code")
	ErrSecretExpired   = errors.New("code expired")
	ErrSecretExhausted = errors.New("too many attempts")
	ErrWrongPurpose    = errors.New("wrong secret purpose")

	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUserNotFound          = errors.New("user not found")
	ErrDeliveryFailed        = errors.New("email delivery failed")
)
