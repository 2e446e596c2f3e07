// internal/config/config.go
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		APIPort       int `mapstructure:"api_port"`
		DashboardPort int `mapstructure:"dashboard_port"`
	} `mapstructure:"server"`
	Alerts struct {
		LogPath    string `mapstructure:"log_path"`
		SeedSample bool   `mapstructure:"seed_sample"` // write sample rows if the log is missing
	} `mapstructure:"alerts"`
	Refresh struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"refresh"`
	Severity struct {
		Thresholds []float64 `mapstructure:"thresholds"`
	} `mapstructure:"severity"`
	Score struct {
		// Default slider bounds handed to the dashboard seam.
		DefaultMin float64 `mapstructure:"default_min"`
		DefaultMax float64 `mapstructure:"default_max"`
	} `mapstructure:"score"`
	Auth struct {
		APIKeys               []string `mapstructure:"api_keys"`
		JWTSecret             string   `mapstructure:"jwt_secret"`
		JWTExpirationMinutes  int      `mapstructure:"jwt_expiration_minutes"`
		DashboardPasswordHash string   `mapstructure:"dashboard_password_hash"` // bcrypt; empty disables login
	} `mapstructure:"auth"`
	Logging struct {
		Level      string `mapstructure:"level"`
		File       string `mapstructure:"file"` // empty = console only
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"logging"`
}

// Load reads config.yaml from path (a directory), layers environment
// variables over it, and falls back to defaults when the file is absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("SIEMGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No file is fine; defaults plus env carry the process.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would misbehave at runtime rather
// than letting them surface mid-cycle.
func (c *Config) Validate() error {
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	}
	if n := len(c.Severity.Thresholds); n != 3 {
		return fmt.Errorf("severity.thresholds: want 3 cut points, got %d", n)
	}
	t := c.Severity.Thresholds
	if !sort.Float64sAreSorted(t) || t[0] == t[1] || t[1] == t[2] {
		return fmt.Errorf("severity.thresholds must be strictly ascending, got %v", t)
	}
	if c.Score.DefaultMin > c.Score.DefaultMax {
		return fmt.Errorf("score.default_min %v exceeds score.default_max %v", c.Score.DefaultMin, c.Score.DefaultMax)
	}
	if c.Alerts.LogPath == "" {
		return fmt.Errorf("alerts.log_path must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.dashboard_port", 8081)
	v.SetDefault("alerts.log_path", "alerts.csv")
	v.SetDefault("alerts.seed_sample", true)
	v.SetDefault("refresh.interval", 5*time.Second)
	v.SetDefault("severity.thresholds", []float64{310, 311, 312})
	v.SetDefault("score.default_min", 310.0)
	v.SetDefault("score.default_max", 312.0)
	v.SetDefault("auth.jwt_expiration_minutes", 60)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}
