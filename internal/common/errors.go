// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already taken")

	// Service-level errors (generic flow control).
	ErrInternal    = errors.New("internal error")
	ErrUnavailable = errors.New("storage unavailable")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password too weak")

	// Token lifecycle errors. Expired tokens are reported as ErrTokenNotFound
	// to callers so expiry is never distinguishable from absence.
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrTokenNotFound = errors.New("token not found")
)
