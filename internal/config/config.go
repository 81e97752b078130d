package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mayvqt/StatusBot/internal/domain"
)

// MinPollInterval is the enforced floor for the poll cadence.
const MinPollInterval = 5 * time.Second

type EntityConfig struct {
	Name   string `mapstructure:"name"`
	Kind   string `mapstructure:"kind"`
	Target string `mapstructure:"target"`
}

type Config struct {
	Addr     string `mapstructure:"addr"`
	LogDir   string `mapstructure:"log_dir"`
	LogLevel string `mapstructure:"log_level"`

	StatePath string `mapstructure:"state_path"`

	PollInterval time.Duration `mapstructure:"poll_interval"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	WebhookURL     string        `mapstructure:"webhook_url"`
	NotifyCooldown time.Duration `mapstructure:"notify_cooldown"`
	NotifyWindow   time.Duration `mapstructure:"notify_window"`
	NotifyBurst    int           `mapstructure:"notify_burst"`

	APIRequestsPerMin int `mapstructure:"api_rpm"`
	APIBurst          int `mapstructure:"api_burst"`

	Entities []EntityConfig `mapstructure:"entities"`
}

// Targets converts the configured entity list, preserving file order.
// Validation of individual entries is the poller's job (a bad entry is
// skipped per cycle, it never fails the load).
func (c Config) Targets() []domain.Entity {
	out := make([]domain.Entity, 0, len(c.Entities))
	for _, e := range c.Entities {
		out = append(out, domain.Entity{
			Name:   e.Name,
			Kind:   domain.EntityKind(strings.ToLower(e.Kind)),
			Target: e.Target,
		})
	}
	return out
}

// Loader reads the YAML config file with env overrides (STATUSBOT_*) and can
// watch it for changes.
type Loader struct {
	v *viper.Viper
}

func NewLoader(path string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")
	v.SetDefault("state_path", "state/status.json")
	v.SetDefault("poll_interval", "60s")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("probe_timeout", "3s")
	v.SetDefault("webhook_url", "")
	v.SetDefault("notify_cooldown", "60s")
	v.SetDefault("notify_window", "5s")
	v.SetDefault("notify_burst", 5)
	v.SetDefault("api_rpm", 120)
	v.SetDefault("api_burst", 60)

	v.SetEnvPrefix("STATUSBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func (l *Loader) Load() (Config, error) {
	if l.v.ConfigFileUsed() != "" {
		if err := l.v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults + env; a present but
			// broken file is a startup error.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.PollInterval < MinPollInterval {
		cfg.PollInterval = MinPollInterval
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}
	if cfg.NotifyBurst < 1 {
		cfg.NotifyBurst = 1
	}
	if cfg.NotifyWindow <= 0 {
		cfg.NotifyWindow = 5 * time.Second
	}
	return cfg, nil
}

// WatchEntities re-reads the file on change and delivers the new entity list.
// Delivery is non-blocking: if the poller has not yet consumed the previous
// update, the stale one is dropped in favor of the new list.
func (l *Loader) WatchEntities(logger *zap.Logger, updates chan []domain.Entity) {
	l.v.OnConfigChange(func(in fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			logger.Warn("config_reload_failed", zap.String("file", in.Name), zap.Error(err))
			return
		}
		ents := cfg.Targets()
		for {
			select {
			case updates <- ents:
				logger.Info("config_reloaded", zap.Int("entities", len(ents)))
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	l.v.WatchConfig()
}
