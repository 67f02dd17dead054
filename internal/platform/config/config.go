// Package config loads service configuration from config.yaml and the
// environment so main stays lean. Every knob has a working default; a missing
// config file is not an error.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"floorwatch/internal/activity/models"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Labels LabelsConfig `mapstructure:"labels"`
	Alerts AlertsConfig `mapstructure:"alerts"`
	Trend  TrendConfig  `mapstructure:"trend"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	AdminToken string `mapstructure:"admin_token"`
}

// StoreConfig bounds the event log.
type StoreConfig struct {
	Capacity         int `mapstructure:"capacity"`
	RetentionMinutes int `mapstructure:"retention_minutes"`
	SweepSeconds     int `mapstructure:"sweep_seconds"`
}

// Retention returns the retention horizon as a duration.
func (s StoreConfig) Retention() time.Duration {
	return time.Duration(s.RetentionMinutes) * time.Minute
}

// SweepInterval returns how often the retention sweeper runs.
func (s StoreConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepSeconds) * time.Second
}

// LabelsConfig selects the label source for the cache.
// Source is one of "file", "redis", or "none".
type LabelsConfig struct {
	Source   string `mapstructure:"source"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
	RedisKey string `mapstructure:"redis_key"`
}

// AlertsConfig carries the static rule set.
type AlertsConfig struct {
	InactivitySeconds int          `mapstructure:"inactivity_seconds"`
	Rules             []RuleConfig `mapstructure:"rules"`
}

// RuleConfig is one prolonged-activity rule as configured.
type RuleConfig struct {
	Activity         string `mapstructure:"activity"`
	ThresholdSeconds int    `mapstructure:"threshold_seconds"`
	Severity         string `mapstructure:"severity"`
}

// InactivityThreshold returns the inactivity threshold as a duration.
func (a AlertsConfig) InactivityThreshold() time.Duration {
	return time.Duration(a.InactivitySeconds) * time.Second
}

// AlertRules converts configured rules to the domain type, skipping rules
// with unusable values rather than failing startup.
func (a AlertsConfig) AlertRules() []models.AlertRule {
	rules := make([]models.AlertRule, 0, len(a.Rules))
	for _, r := range a.Rules {
		if r.Activity == "" || r.ThresholdSeconds <= 0 {
			continue
		}
		severity := models.AlertRuleSeverity(r.Severity)
		if !severity.IsValid() {
			severity = models.SeverityWarning
		}
		rules = append(rules, models.AlertRule{
			Activity:  r.Activity,
			Threshold: time.Duration(r.ThresholdSeconds) * time.Second,
			Severity:  severity,
		})
	}
	return rules
}

// TrendConfig tunes trend classification.
type TrendConfig struct {
	Epsilon float64 `mapstructure:"epsilon"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config.yaml from the given path (or the working directory when
// empty), applies FLOORWATCH_* environment overrides, and falls back to
// defaults for anything unset.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path == "" {
		path = "."
	}
	v.AddConfigPath(path)

	v.SetEnvPrefix("FLOORWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Running on pure defaults and env is fine; only a malformed file
		// is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("store.capacity", 10000)
	v.SetDefault("store.retention_minutes", 24*60)
	v.SetDefault("store.sweep_seconds", 60)
	v.SetDefault("labels.source", "none")
	v.SetDefault("labels.redis_key", "activity:labels")
	v.SetDefault("alerts.inactivity_seconds", 300)
	v.SetDefault("trend.epsilon", 0.1)
	v.SetDefault("log.level", "info")
}
