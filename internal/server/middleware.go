package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session from the cookie or bearer token and
// scopes the request to the session's organization.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), int64(session.OrgID))
		ctx = orgcontext.WithUserID(ctx, int64(session.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, session.UserID.String())
		c.Next()
	}
}

// LoginRateLimit throttles sign-in attempts per client address.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.guard.Enabled() || !s.cfg.RateLimit.Enabled {
			c.Next()
			return
		}

		res, err := s.guard.AllowLogin(c.Request.Context(), c.ClientIP())
		if err != nil || res == nil || res.Allowed {
			c.Next()
			return
		}

		s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "auth_google")
		if res.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
		}
		AbortWithError(c, ErrRateLimited)
	}
}
