package domain

import (
	"context"
	"time"
)

type Service interface {
	LoginWithGoogle(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	Me(ctx context.Context) (*UserResponse, error)
}

// Verifier checks an identity token and returns its verified subject.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

type LoginRequest struct {
	Credential string `json:"credential" binding:"required"`
	UserAgent  string `json:"-"`
	IPAddress  string `json:"-"`
}

type LoginResult struct {
	User      UserResponse
	RawToken  string
	ExpiresAt time.Time
	Created   bool
}

type UserResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url,omitempty"`
}
