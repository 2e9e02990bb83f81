package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstinvoice/internal/config"
	"github.com/stretchr/testify/assert"
)

func newContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestReadToken(t *testing.T) {
	m := NewManager(config.Config{}, nil)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		token  string
		wantOK bool
	}{
		{
			name:   "cookie",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "from-cookie"}) },
			token:  "from-cookie",
			wantOK: true,
		},
		{
			name:   "bearer",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer from-header") },
			token:  "from-header",
			wantOK: true,
		},
		{
			name: "cookie wins",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "from-cookie"})
				r.Header.Set("Authorization", "Bearer from-header")
			},
			token:  "from-cookie",
			wantOK: true,
		},
		{
			name:  "basic auth ignored",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic Zm9vOmJhcg==") },
		},
		{
			name:  "empty bearer",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		},
		{
			name:  "nothing",
			setup: func(r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.setup(req)

			token, ok := m.ReadToken(newContext(req))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
