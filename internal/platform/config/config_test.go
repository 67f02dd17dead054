package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorwatch/internal/activity/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10000, cfg.Store.Capacity)
	assert.Equal(t, 24*time.Hour, cfg.Store.Retention())
	assert.Equal(t, time.Minute, cfg.Store.SweepInterval())
	assert.Equal(t, "none", cfg.Labels.Source)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.InactivityThreshold())
	assert.Equal(t, 0.1, cfg.Trend.Epsilon)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  addr: ":9090"
  admin_token: "secret"
store:
  capacity: 500
  retention_minutes: 60
labels:
  source: file
  path: /etc/floorwatch/labels.json
alerts:
  inactivity_seconds: 120
  rules:
    - activity: standing_still
      threshold_seconds: 300
      severity: warning
    - activity: ""
      threshold_seconds: 10
    - activity: sleeping
      threshold_seconds: 60
      severity: bogus
trend:
  epsilon: 0.2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.AdminToken)
	assert.Equal(t, 500, cfg.Store.Capacity)
	assert.Equal(t, time.Hour, cfg.Store.Retention())
	assert.Equal(t, "file", cfg.Labels.Source)
	assert.Equal(t, 2*time.Minute, cfg.Alerts.InactivityThreshold())
	assert.Equal(t, 0.2, cfg.Trend.Epsilon)

	rules := cfg.Alerts.AlertRules()
	require.Len(t, rules, 2, "rules with empty activity are skipped")
	assert.Equal(t, models.AlertRule{
		Activity:  "standing_still",
		Threshold: 300 * time.Second,
		Severity:  models.SeverityWarning,
	}, rules[0])
	assert.Equal(t, models.SeverityWarning, rules[1].Severity,
		"unknown severity falls back to warning")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: ["), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}
