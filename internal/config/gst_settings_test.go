package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadGSTSettingsDefaultsWithoutFile(t *testing.T) {
	holder, err := LoadGSTSettings(zap.NewNop(), t.TempDir())
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, DefaultGSTSettings(), got)
}

func TestLoadGSTSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`gst:
  rateSlabs: [0, 5, 18]
  defaultTaxRate: 12
  defaultUnit: kg
  lowStockThreshold: 3
  invoicePrefix: BILL
  sessionTTLHours: 24
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gst.yml"), content, 0o600))

	holder, err := LoadGSTSettings(zap.NewNop(), dir)
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, []float64{0, 5, 18}, got.RateSlabs)
	assert.Equal(t, 12.0, got.DefaultTaxRate)
	assert.Equal(t, "kg", got.DefaultUnit)
	assert.Equal(t, 3, got.LowStockThreshold)
	assert.Equal(t, "BILL", got.InvoicePrefix)
	assert.Equal(t, 24, got.SessionTTLHours)
}

func TestLoadGSTSettingsRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`gst:
  defaultTaxRate: 140
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gst.yml"), content, 0o600))

	_, err := LoadGSTSettings(zap.NewNop(), dir)
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *GSTSettingsHolder
	assert.Equal(t, DefaultGSTSettings(), holder.Get())
}
