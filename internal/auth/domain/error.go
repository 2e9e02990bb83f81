package domain

import "errors"

var (
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrEmailNotVerified  = errors.New("email_not_verified")
	ErrProviderDisabled  = errors.New("provider_disabled")
	ErrUserNotFound      = errors.New("user_not_found")
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrSessionExpired    = errors.New("session_expired")
	ErrSessionRevoked    = errors.New("session_revoked")
	ErrInvalidSession    = errors.New("invalid_session")
)
