package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.APIPort)
	assert.Equal(t, 8081, cfg.Server.DashboardPort)
	assert.Equal(t, "alerts.csv", cfg.Alerts.LogPath)
	assert.Equal(t, 5*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, []float64{310, 311, 312}, cfg.Severity.Thresholds)
	assert.Equal(t, 310.0, cfg.Score.DefaultMin)
	assert.Equal(t, 312.0, cfg.Score.DefaultMax)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  api_port: 9090
refresh:
  interval: 10s
severity:
  thresholds: [100, 200, 300]
alerts:
  log_path: /var/log/detector/alerts.csv
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.APIPort)
	assert.Equal(t, 8081, cfg.Server.DashboardPort, "unset keys keep defaults")
	assert.Equal(t, 10*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, []float64{100, 200, 300}, cfg.Severity.Thresholds)
	assert.Equal(t, "/var/log/detector/alerts.csv", cfg.Alerts.LogPath)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	write := func(t *testing.T, yaml string) error {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
		_, err := Load(dir)
		return err
	}

	assert.Error(t, write(t, "refresh:\n  interval: 0s\n"))
	assert.Error(t, write(t, "severity:\n  thresholds: [1, 2]\n"))
	assert.Error(t, write(t, "severity:\n  thresholds: [3, 2, 1]\n"))
	assert.Error(t, write(t, "score:\n  default_min: 500\n  default_max: 100\n"))
	assert.Error(t, write(t, "alerts:\n  log_path: \"\"\n"))
}
