package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GSTSettings are the tunable tax and inventory defaults read from gst.yml.
type GSTSettings struct {
	RateSlabs         []float64 `mapstructure:"rateSlabs"`
	DefaultTaxRate    float64   `mapstructure:"defaultTaxRate"`
	DefaultUnit       string    `mapstructure:"defaultUnit"`
	LowStockThreshold int       `mapstructure:"lowStockThreshold"`
	InvoicePrefix     string    `mapstructure:"invoicePrefix"`
	SessionTTLHours   int       `mapstructure:"sessionTTLHours"`
}

func DefaultGSTSettings() GSTSettings {
	return GSTSettings{
		RateSlabs:         []float64{0, 0.25, 3, 5, 12, 18, 28},
		DefaultTaxRate:    18,
		DefaultUnit:       "piece",
		LowStockThreshold: 10,
		InvoicePrefix:     "INV",
		SessionTTLHours:   7 * 24,
	}
}

type GSTSettingsHolder struct {
	current atomic.Value // holds GSTSettings
}

var defaultSettingsPaths = []string{
	"/var/lib/gstinvoice/config",
	"/etc/gstinvoice",
	".",
}

func NewGSTSettingsHolder(log *zap.Logger) (*GSTSettingsHolder, error) {
	return LoadGSTSettings(log, defaultSettingsPaths...)
}

// NewStaticGSTSettings wraps fixed settings without a backing file.
func NewStaticGSTSettings(settings GSTSettings) *GSTSettingsHolder {
	holder := &GSTSettingsHolder{}
	holder.current.Store(settings)
	return holder
}

// LoadGSTSettings reads gst.yml from the first matching path and watches it for changes.
func LoadGSTSettings(log *zap.Logger, paths ...string) (*GSTSettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.gst")

	v := viper.New()
	v.SetConfigName("gst")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("GSTINVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGSTSettings()
	v.SetDefault("gst.rateSlabs", defaults.RateSlabs)
	v.SetDefault("gst.defaultTaxRate", defaults.DefaultTaxRate)
	v.SetDefault("gst.defaultUnit", defaults.DefaultUnit)
	v.SetDefault("gst.lowStockThreshold", defaults.LowStockThreshold)
	v.SetDefault("gst.invoicePrefix", defaults.InvoicePrefix)
	v.SetDefault("gst.sessionTTLHours", defaults.SessionTTLHours)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	settings, err := decodeGSTSettings(v)
	if err != nil {
		return nil, err
	}
	if err := validateGSTSettings(settings); err != nil {
		return nil, err
	}

	holder := NewStaticGSTSettings(settings)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeGSTSettings(v)
			if err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateGSTSettings(updated); err != nil {
				log.Warn("invalid settings ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("settings reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// decodeGSTSettings goes through Unmarshal so file values are merged with defaults.
func decodeGSTSettings(v *viper.Viper) (GSTSettings, error) {
	var wrapper struct {
		GST GSTSettings `mapstructure:"gst"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return GSTSettings{}, err
	}
	return wrapper.GST, nil
}

func (h *GSTSettingsHolder) Get() GSTSettings {
	if h == nil {
		return DefaultGSTSettings()
	}
	settings, ok := h.current.Load().(GSTSettings)
	if !ok {
		return DefaultGSTSettings()
	}
	return settings
}

func validateGSTSettings(s GSTSettings) error {
	if len(s.RateSlabs) == 0 {
		return errors.New("gst.rateSlabs cannot be empty")
	}
	for _, rate := range s.RateSlabs {
		if rate < 0 || rate > 100 {
			return errors.New("gst.rateSlabs must be within 0..100")
		}
	}
	if s.DefaultTaxRate < 0 || s.DefaultTaxRate > 100 {
		return errors.New("gst.defaultTaxRate must be within 0..100")
	}
	if strings.TrimSpace(s.DefaultUnit) == "" {
		return errors.New("gst.defaultUnit cannot be empty")
	}
	if strings.TrimSpace(s.InvoicePrefix) == "" {
		return errors.New("gst.invoicePrefix cannot be empty")
	}
	if s.LowStockThreshold < 0 {
		return errors.New("gst.lowStockThreshold cannot be negative")
	}
	if s.SessionTTLHours <= 0 {
		return errors.New("gst.sessionTTLHours must be positive")
	}
	return nil
}
