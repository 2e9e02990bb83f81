package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/gstinvoice/internal/auth/domain"
	"go.uber.org/zap"
)

type googleLoginRequest struct {
	Credential string `json:"credential" binding:"required"`
}

type loginResponse struct {
	User      authdomain.UserResponse `json:"user"`
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expires_at"`
	Created   bool                    `json:"created"`
}

// LoginWithGoogle exchanges a Google ID token for a session. Browsers get the
// session cookie; API clients use the returned token as a bearer token.
func (s *Server) LoginWithGoogle(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	result, err := s.authsvc.LoginWithGoogle(c.Request.Context(), authdomain.LoginRequest{
		Credential: strings.TrimSpace(req.Credential),
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		s.log.Info("google sign-in rejected", zap.String("reason", err.Error()))
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": loginResponse{
		User:      result.User,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt.UTC(),
		Created:   result.Created,
	}})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Debug("logout of unknown session", zap.Error(err))
		}
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	resp, err := s.authsvc.Me(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
