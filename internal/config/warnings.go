package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WarningConfig controls how acknowledgeable user warnings are deduplicated.
type WarningConfig struct {
	// SessionTTL bounds how long an acknowledgement lives for a session.
	SessionTTL time.Duration `mapstructure:"sessionTTL"`
	// Silenced lists warning names that are never surfaced.
	Silenced []string `mapstructure:"silenced"`
}

func DefaultWarningConfig() WarningConfig {
	return WarningConfig{
		SessionTTL: 12 * time.Hour,
	}
}

// IsSilenced reports whether the named warning is configured to stay quiet.
func (c WarningConfig) IsSilenced(name string) bool {
	for _, s := range c.Silenced {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

type WarningConfigHolder struct {
	current atomic.Value // holds WarningConfig
}

// NewStaticWarningConfigHolder returns a holder that never reloads.
func NewStaticWarningConfigHolder(cfg WarningConfig) *WarningConfigHolder {
	holder := &WarningConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewWarningConfigHolder() (*WarningConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("warnings")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/stockledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOCKLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultWarningConfig()
	v.SetDefault("warnings.sessionTTL", defaults.SessionTTL.String())
	v.SetDefault("warnings.silenced", []string{})

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg WarningConfig
	if err := v.UnmarshalKey("warnings", &cfg); err != nil {
		return nil, err
	}
	if err := validateWarningConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticWarningConfigHolder(cfg)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WarningConfig
		if err := v.UnmarshalKey("warnings", &updated); err != nil {
			log.Printf("[warning-config] reload failed: %v", err)
			return
		}
		if err := validateWarningConfig(updated); err != nil {
			log.Printf("[warning-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[warning-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *WarningConfigHolder) Get() WarningConfig {
	return h.current.Load().(WarningConfig)
}

func validateWarningConfig(cfg WarningConfig) error {
	if cfg.SessionTTL <= 0 {
		return errors.New("warnings.sessionTTL must be positive")
	}
	return nil
}
