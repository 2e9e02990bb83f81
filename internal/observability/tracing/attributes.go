package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var blockedAttributeKeys = map[attribute.Key]struct{}{
	"customer_name":  {},
	"customer_email": {},
	"customer_phone": {},
	"customer_gst":   {},
	"email":          {},
	"authorization":  {},
	"cookie":         {},
}

// SafeAttributes drops attributes that may carry customer data.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attribute.Key(strings.ToLower(string(attr.Key)))]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces an error to its sentinel code so span events never carry
// user input. Errors without a code collapse to request_failed.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return errors.New(coded.Code())
	}
	msg := err.Error()
	if msg != "" && !strings.ContainsAny(msg, " :") {
		return errors.New(msg)
	}
	return errRequestFailed
}

// ExtractContext pulls the remote span and baggage out of the carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
