package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor JADWAL_CONFIG_PATH is set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Timezone string `yaml:"timezone"`

	SIMRS struct {
		BaseURL        string  `yaml:"base_url"`
		APIKey         string  `yaml:"api_key"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		Burst          int     `yaml:"burst"`
	} `yaml:"simrs"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		DoctorTTLSeconds int `yaml:"doctor_ttl_seconds"`
	} `yaml:"cache"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Directory struct {
		RetryAfterSeconds int `yaml:"retry_after_seconds"`
	} `yaml:"directory"`

	Queue struct {
		PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
		FetchTimeoutSeconds int  `yaml:"fetch_timeout_seconds"`
		DiscardStale        bool `yaml:"discard_stale"`
	} `yaml:"queue"`

	Booking struct {
		MinDaysAhead int `yaml:"min_days_ahead"`
		MaxDaysAhead int `yaml:"max_days_ahead"`
	} `yaml:"booking"`

	HTTP struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"http"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// Load reads the YAML file at path, expanding ${ENV_VAR} placeholders.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.SIMRS.BaseURL == "" {
		return nil, fmt.Errorf("simrs.base_url is required")
	}
	if cfg.Booking.MaxDaysAhead < cfg.Booking.MinDaysAhead {
		return nil, fmt.Errorf("booking.max_days_ahead (%d) is before min_days_ahead (%d)",
			cfg.Booking.MaxDaysAhead, cfg.Booking.MinDaysAhead)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Asia/Jakarta"
	}
	if c.SIMRS.TimeoutSeconds <= 0 {
		c.SIMRS.TimeoutSeconds = 10
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/jadwalpoli.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Queue.PollIntervalSeconds <= 0 {
		c.Queue.PollIntervalSeconds = 30
	}
	if c.Queue.FetchTimeoutSeconds <= 0 {
		c.Queue.FetchTimeoutSeconds = 15
	}
	if c.Booking.MinDaysAhead <= 0 {
		c.Booking.MinDaysAhead = 1
	}
	if c.Booking.MaxDaysAhead <= 0 {
		c.Booking.MaxDaysAhead = 14
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
}

// Location returns the clinic time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) SIMRSTimeout() time.Duration {
	return time.Duration(c.SIMRS.TimeoutSeconds) * time.Second
}

func (c *Config) DoctorCacheTTL() time.Duration {
	return time.Duration(c.Cache.DoctorTTLSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Queue.PollIntervalSeconds) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Queue.FetchTimeoutSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) DirectoryRetryAfter() time.Duration {
	if c.Directory.RetryAfterSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Directory.RetryAfterSeconds) * time.Second
}
