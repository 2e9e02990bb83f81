package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/gstinvoice/internal/observability/context"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttrOrgID     attribute.Key = "gst.org_id"
	AttrUserID    attribute.Key = "gst.user_id"
	AttrInvoiceID attribute.Key = "gst.invoice_id"
	AttrProductID attribute.Key = "gst.product_id"
)

// resourceRoutes maps a route prefix to the span attribute that carries its
// :id parameter.
var resourceRoutes = []struct {
	prefix string
	key    attribute.Key
}{
	{prefix: "/api/invoices/:id", key: AttrInvoiceID},
	{prefix: "/api/products/:id", key: AttrProductID},
}

type MiddlewareConfig struct {
	// SkipRoutes are exact paths served without a span, e.g. /health.
	SkipRoutes []string
}

// GinMiddleware instruments inbound HTTP requests. Once the handler chain has
// run, the span is tagged with the organization and user resolved by the auth
// middleware and with the invoice or product the route addresses.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	tracer := otel.Tracer("gstinvoice/http")
	skip := make(map[string]struct{}, len(cfg.SkipRoutes))
	for _, route := range cfg.SkipRoutes {
		if route = strings.TrimSpace(route); route != "" {
			skip[route] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+strings.ToUpper(c.Request.Method), trace.WithSpanKind(trace.SpanKindServer))

		requestID := obscontext.RequestIDFromContext(ctx)
		if requestID != "" {
			member, err := baggage.NewMember("request_id", requestID)
			if err == nil {
				bag, bagErr := baggage.New(member)
				if bagErr == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		span.SetName("HTTP " + strings.ToUpper(c.Request.Method) + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)
		span.SetAttributes(domainAttributes(c, route)...)

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
		span.End()
	}
}

// domainAttributes reads the request context after the handlers ran, since
// the org and user are only known once the session was resolved.
func domainAttributes(c *gin.Context, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	ctx := c.Request.Context()
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok && orgID != 0 {
		attrs = append(attrs, AttrOrgID.String(orgID.String()))
	}
	if userID, ok := orgcontext.UserIDFromContext(ctx); ok && userID != 0 {
		attrs = append(attrs, AttrUserID.String(userID.String()))
	}
	for _, r := range resourceRoutes {
		if !strings.HasPrefix(route, r.prefix) {
			continue
		}
		if id := strings.TrimSpace(c.Param("id")); id != "" {
			attrs = append(attrs, r.key.String(id))
		}
		break
	}
	return attrs
}
