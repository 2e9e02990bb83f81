package observability

import (
	"testing"

	"github.com/smallbiznis/gstinvoice/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigTraceDefaults(t *testing.T) {
	t.Setenv("OTEL_SAMPLING_RATIO", "")
	t.Setenv("OTEL_TRACE_SKIP_ROUTES", "")
	t.Setenv("DEPLOYMENT_ENV", "")

	dev := LoadConfig(config.Config{Environment: "development"})
	assert.Equal(t, "gstinvoice", dev.ServiceName)
	assert.Equal(t, 1.0, dev.OtelSamplingRatio)
	assert.Equal(t, []string{"/health", "/metrics"}, dev.TraceSkipRoutes)

	prod := LoadConfig(config.Config{Environment: "production"})
	assert.Equal(t, 0.1, prod.OtelSamplingRatio)
}

func TestLoadConfigTraceOverrides(t *testing.T) {
	t.Setenv("DEPLOYMENT_ENV", "production")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("OTEL_TRACE_SKIP_ROUTES", "/health, ,/api/gst/states")

	cfg := LoadConfig(config.Config{})
	assert.Equal(t, 0.5, cfg.OtelSamplingRatio)
	assert.Equal(t, []string{"/health", "/api/gst/states"}, cfg.TraceSkipRoutes)

	t.Setenv("OTEL_SAMPLING_RATIO", "3")
	assert.Equal(t, 0.1, LoadConfig(config.Config{}).OtelSamplingRatio)
}
