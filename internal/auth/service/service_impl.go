package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/gstinvoice/internal/account/domain"
	"github.com/smallbiznis/gstinvoice/internal/auth/domain"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/smallbiznis/gstinvoice/internal/config"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	GenID       *snowflake.Node
	Verifier    domain.Verifier
	Accounts    accountdomain.Service
	Clock       clock.Clock
	Settings    *config.GSTSettingsHolder `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	verifier    domain.Verifier
	accounts    accountdomain.Service
	clock       clock.Clock
	settings    *config.GSTSettingsHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("auth.service"),
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		genID:       p.GenID,
		verifier:    p.Verifier,
		accounts:    p.Accounts,
		clock:       p.Clock,
		settings:    p.Settings,
	}
}

// LoginWithGoogle verifies the ID token, finds or creates the user and opens
// a session. A first sign-in also provisions the user's organization in the
// same transaction.
func (s *Service) LoginWithGoogle(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	identity, err := s.verifier.Verify(ctx, req.Credential)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var (
		user    *domain.User
		orgID   snowflake.ID
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err = s.findUser(ctx, repo, identity)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}

		if user == nil {
			user = &domain.User{
				ID:          s.genID.Generate(),
				Email:       identity.Email,
				Provider:    domain.ProviderGoogle,
				ExternalID:  identity.Subject,
				DisplayName: displayName(identity),
				AvatarURL:   identity.Picture,
				LastLoginAt: &now,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repo.Create(ctx, user); err != nil {
				return err
			}
			org, err := s.accounts.Provision(ctx, tx, user.ID, organizationName(identity))
			if err != nil {
				return err
			}
			orgID = org.ID
			created = true
			return nil
		}

		fields := map[string]any{
			"external_id":   identity.Subject,
			"last_login_at": now,
			"updated_at":    now,
		}
		if identity.Picture != "" {
			fields["avatar_url"] = identity.Picture
		}
		if user.DisplayName == "" {
			fields["display_name"] = displayName(identity)
		}
		return repo.UpdateFields(ctx, user.ID, fields)
	})
	if err != nil {
		return nil, err
	}

	if orgID == 0 {
		org, err := s.accounts.OrganizationForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		orgID = org.ID
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		OrgID:            orgID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL()),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("user signed in",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", orgID.String()),
		zap.Bool("new_user", created),
	)

	return &domain.LoginResult{
		User:      toUserResponse(user, orgID),
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		Created:   created,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	if err := s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now()); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}
	return nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}
	session.LastSeenAt = now
	return session, nil
}

// Me returns the signed-in user carried in ctx.
func (s *Service) Me(ctx context.Context) (*domain.UserResponse, error) {
	userID, ok := orgcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, domain.ErrInvalidSession
	}
	orgID, _ := orgcontext.OrgIDFromContext(ctx)

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user, orgID)
	return &resp, nil
}

func (s *Service) findUser(ctx context.Context, repo domain.Repository, identity *domain.Identity) (*domain.User, error) {
	user, err := repo.FindByExternalID(ctx, domain.ProviderGoogle, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	// Verified Google email links an account whose subject changed.
	return repo.FindByEmail(ctx, identity.Email)
}

func (s *Service) sessionTTL() time.Duration {
	hours := s.settings.Get().SessionTTLHours
	if hours <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(hours) * time.Hour
}

func toUserResponse(user *domain.User, orgID snowflake.ID) domain.UserResponse {
	resp := domain.UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.DisplayName,
		AvatarURL: user.AvatarURL,
	}
	if orgID != 0 {
		resp.OrganizationID = orgID.String()
	}
	return resp
}

func displayName(identity *domain.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	local, _, _ := strings.Cut(identity.Email, "@")
	return local
}

func organizationName(identity *domain.Identity) string {
	return displayName(identity) + "'s Business"
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
