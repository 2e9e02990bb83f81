package context

import (
	"context"
	"strings"

	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
)

type requestIDKey struct{}

// WithRequestID stores the correlation id assigned to the inbound request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// OrgIDFromContext renders the tenant id for log fields, empty when absent.
func OrgIDFromContext(ctx context.Context) string {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return ""
	}
	return orgID.String()
}

func UserIDFromContext(ctx context.Context) string {
	userID, ok := orgcontext.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return ""
	}
	return userID.String()
}
