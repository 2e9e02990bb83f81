package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/gstinvoice/internal/auth/domain"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-123.apps.googleusercontent.com"

type fixture struct {
	verifier *Verifier
	key      *rsa.PrivateKey
	clock    *clock.FakeClock
	fetches  *int32
	// published holds the kid to key map the certs endpoint serves.
	published *atomic.Value
}

func jwkFor(kid string, key *rsa.PrivateKey) map[string]string {
	return map[string]string{
		"kid": kid,
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}
}

func setup(t *testing.T) fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	published := &atomic.Value{}
	published.Store([]map[string]string{jwkFor("k1", key)})

	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": published.Load()})
	}))
	t.Cleanup(server.Close)

	fake := clock.NewFakeClock(time.Now().UTC().Truncate(time.Second))
	v := NewVerifier(Options{
		ClientID:   testClientID,
		CertsURL:   server.URL,
		HTTPClient: server.Client(),
		Clock:      fake,
	})
	t.Cleanup(v.Close)
	return fixture{verifier: v, key: key, clock: fake, fetches: &fetches, published: published}
}

func (f fixture) sign(t *testing.T, mutate func(c *claims), kid string, key *rsa.PrivateKey) string {
	t.Helper()
	now := f.clock.Now()
	c := claims{
		Email:         "Priya@Example.com",
		EmailVerified: true,
		Name:          "Priya Shah",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "1098765",
			Audience:  jwt.ClaimStrings{testClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	if mutate != nil {
		mutate(&c)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	f := setup(t)

	identity, err := f.verifier.Verify(context.Background(), f.sign(t, nil, "k1", f.key))
	require.NoError(t, err)
	assert.Equal(t, "1098765", identity.Subject)
	assert.Equal(t, "priya@example.com", identity.Email)
	assert.Equal(t, "Priya Shah", identity.Name)

	_, err = f.verifier.Verify(context.Background(), f.sign(t, func(c *claims) {
		c.Issuer = "accounts.google.com"
	}, "k1", f.key))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.fetches))
}

func TestVerifyRejects(t *testing.T) {
	f := setup(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"wrong audience", f.sign(t, func(c *claims) { c.Audience = jwt.ClaimStrings{"someone-else"} }, "k1", f.key), domain.ErrInvalidCredential},
		{"wrong issuer", f.sign(t, func(c *claims) { c.Issuer = "https://evil.example" }, "k1", f.key), domain.ErrInvalidCredential},
		{"expired", f.sign(t, func(c *claims) { c.ExpiresAt = jwt.NewNumericDate(f.clock.Now().Add(-time.Hour)) }, "k1", f.key), domain.ErrInvalidCredential},
		{"missing expiry", f.sign(t, func(c *claims) { c.ExpiresAt = nil }, "k1", f.key), domain.ErrInvalidCredential},
		{"unverified email", f.sign(t, func(c *claims) { c.EmailVerified = false }, "k1", f.key), domain.ErrEmailNotVerified},
		{"foreign signature", f.sign(t, nil, "k1", other), domain.ErrInvalidCredential},
		{"unknown kid", f.sign(t, nil, "k9", f.key), domain.ErrInvalidCredential},
		{"garbage", "not.a.jwt", domain.ErrInvalidCredential},
		{"empty", "  ", domain.ErrInvalidCredential},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.verifier.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	f := setup(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "1",
		"email":          "a@b.c",
		"email_verified": true,
		"exp":            f.clock.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = f.verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestVerifyPicksUpRotatedKey(t *testing.T) {
	f := setup(t)

	_, err := f.verifier.Verify(context.Background(), f.sign(t, nil, "k1", f.key))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.fetches))

	rotated, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f.published.Store([]map[string]string{jwkFor("k1", f.key), jwkFor("k2", rotated)})

	identity, err := f.verifier.Verify(context.Background(), f.sign(t, nil, "k2", rotated))
	require.NoError(t, err)
	assert.Equal(t, "1098765", identity.Subject)
	assert.Equal(t, int32(2), atomic.LoadInt32(f.fetches))
}

func TestVerifyWithoutClientID(t *testing.T) {
	v := NewVerifier(Options{})
	_, err := v.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
}
