package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AuditThresholds are the completion rates, in percent, below which the
// auditor's completeness summary logs a warning.
type AuditThresholds struct {
	MinPaymentToEnterprisePct float64 `mapstructure:"minPaymentToEnterprisePct"`
	MinEnterpriseToTotalPct   float64 `mapstructure:"minEnterpriseToTotalPct"`
}

func DefaultAuditThresholds() AuditThresholds {
	return AuditThresholds{
		MinPaymentToEnterprisePct: 90,
		MinEnterpriseToTotalPct:   90,
	}
}

// AuditThresholdHolder keeps the current thresholds and hot-reloads them
// when the config file changes.
type AuditThresholdHolder struct {
	current atomic.Value // holds AuditThresholds
}

func NewAuditThresholdHolder() (*AuditThresholdHolder, error) {
	v := viper.New()

	v.SetConfigName("audit")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/settletrace")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SETTLETRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultAuditThresholds()
		v.SetDefault("audit.minPaymentToEnterprisePct", defaults.MinPaymentToEnterprisePct)
		v.SetDefault("audit.minEnterpriseToTotalPct", defaults.MinEnterpriseToTotalPct)
	}

	var cfg AuditThresholds
	if err := v.UnmarshalKey("audit", &cfg); err != nil {
		return nil, err
	}
	if err := validateAuditThresholds(cfg); err != nil {
		return nil, err
	}

	holder := &AuditThresholdHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AuditThresholds
		if err := v.UnmarshalKey("audit", &updated); err != nil {
			log.Printf("[audit-config] reload failed: %v", err)
			return
		}
		if err := validateAuditThresholds(updated); err != nil {
			log.Printf("[audit-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[audit-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AuditThresholdHolder) Current() AuditThresholds {
	return h.current.Load().(AuditThresholds)
}

// NewStaticAuditThresholdHolder returns a holder fixed at the given
// thresholds, for tests.
func NewStaticAuditThresholdHolder(t AuditThresholds) *AuditThresholdHolder {
	holder := &AuditThresholdHolder{}
	holder.current.Store(t)
	return holder
}

func validateAuditThresholds(cfg AuditThresholds) error {
	if cfg.MinPaymentToEnterprisePct < 0 || cfg.MinPaymentToEnterprisePct > 100 {
		return errors.New("audit.minPaymentToEnterprisePct out of range")
	}
	if cfg.MinEnterpriseToTotalPct < 0 || cfg.MinEnterpriseToTotalPct > 100 {
		return errors.New("audit.minEnterpriseToTotalPct out of range")
	}
	return nil
}
