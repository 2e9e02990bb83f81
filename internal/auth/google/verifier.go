// Package google verifies Google Sign-In ID tokens against Google's published
// signing keys.
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/gstinvoice/internal/auth/domain"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/smallbiznis/gstinvoice/internal/config"
	obstracing "github.com/smallbiznis/gstinvoice/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DefaultCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

	defaultRefreshInterval = time.Hour
	certsTimeout           = 10 * time.Second
	clockLeeway            = 30 * time.Second
)

var validIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

type Options struct {
	ClientID        string
	CertsURL        string
	HTTPClient      *http.Client
	RefreshInterval time.Duration
	Clock           clock.Clock
	Log             *zap.Logger
}

// Verifier checks RS256 signatures, issuer, audience, expiry and
// email_verified. The key set is loaded on first use and refreshed in the
// background; a token signed with an unknown kid triggers a rate limited
// refetch.
type Verifier struct {
	clientID        string
	certsURL        string
	client          *http.Client
	refreshInterval time.Duration
	clock           clock.Clock
	log             *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jwks keyfunc.Keyfunc
}

func NewVerifier(opts Options) *Verifier {
	certsURL := strings.TrimSpace(opts.CertsURL)
	if certsURL == "" {
		certsURL = DefaultCertsURL
	}
	refresh := opts.RefreshInterval
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	c := opts.Clock
	if c == nil {
		c = clock.New()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Verifier{
		clientID:        strings.TrimSpace(opts.ClientID),
		certsURL:        certsURL,
		client:          obstracing.WrapHTTPClient(opts.HTTPClient),
		refreshInterval: refresh,
		clock:           c,
		log:             log.Named("auth.google"),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Provide builds the verifier from application config and stops the key
// refresh with the application.
func Provide(lc fx.Lifecycle, cfg config.Config, c clock.Clock, log *zap.Logger) domain.Verifier {
	v := NewVerifier(Options{
		ClientID:   cfg.GoogleClientID,
		HTTPClient: &http.Client{Timeout: certsTimeout},
		Clock:      c,
		Log:        log,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			v.Close()
			return nil
		},
	})
	return v
}

// Close ends the background key refresh.
func (v *Verifier) Close() {
	v.cancel()
}

type claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

func (v *Verifier) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	if v.clientID == "" {
		return nil, domain.ErrProviderDisabled
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.ErrInvalidCredential
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(v.clock.Now),
	)

	jwks, err := v.keySet()
	if err != nil {
		return nil, err
	}

	var c claims
	_, err = parser.ParseWithClaims(credential, &c, jwks.KeyfuncCtx(ctx))
	if err != nil {
		v.log.Debug("id token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}

	if _, ok := validIssuers[c.Issuer]; !ok {
		return nil, fmt.Errorf("%w: issuer %q", domain.ErrInvalidCredential, c.Issuer)
	}
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Email) == "" {
		return nil, domain.ErrInvalidCredential
	}
	if !c.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}

	return &domain.Identity{
		Subject:       c.Subject,
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		EmailVerified: c.EmailVerified,
		Name:          strings.TrimSpace(c.Name),
		Picture:       strings.TrimSpace(c.Picture),
	}, nil
}

func (v *Verifier) keySet() (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil {
		return v.jwks, nil
	}
	jwks, err := keyfunc.NewDefaultOverrideCtx(v.ctx, []string{v.certsURL}, keyfunc.Override{
		Client:          v.client,
		HTTPTimeout:     certsTimeout,
		RefreshInterval: v.refreshInterval,
		RefreshErrorHandlerFunc: func(u string) func(ctx context.Context, err error) {
			return func(ctx context.Context, err error) {
				v.log.Warn("google signing keys refresh failed", zap.String("url", u), zap.Error(err))
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load google certs: %w", err)
	}
	v.jwks = jwks
	return jwks, nil
}
