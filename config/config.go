package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Poller     PollerConfig     `yaml:"poller"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push alerts.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// CameraConfig identifies one camera whose snapshots are polled.
type CameraConfig struct {
	ID      int64  `yaml:"id"`
	VenueID int64  `yaml:"venue_id"`
	Label   string `yaml:"label"`
}

// VisionRequest defines the HTTP request to the vision-analysis service.
type VisionRequest struct {
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// PollerConfig holds the snapshot poller configuration.
type PollerConfig struct {
	Enabled             bool           `yaml:"enabled"`
	IntervalSeconds     int            `yaml:"interval_seconds"`
	Interval            time.Duration  `yaml:"-"` // Ignored by YAML parser
	Timezone            string         `yaml:"timezone"`
	ZoneCacheTTLSeconds int            `yaml:"zone_cache_ttl_seconds"`
	Vision              VisionRequest  `yaml:"vision"`
	Cameras             []CameraConfig `yaml:"cameras"`
}

// SweeperConfig holds the staleness sweeper configuration.
type SweeperConfig struct {
	Enabled            bool          `yaml:"enabled"`
	IntervalSeconds    int           `yaml:"interval_seconds"`
	Interval           time.Duration `yaml:"-"`
	ExpireAfterSeconds int           `yaml:"expire_after_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Poller.IntervalSeconds <= 0 {
		cfg.Poller.IntervalSeconds = 60
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalSeconds) * time.Second

	if cfg.Poller.Timezone == "" {
		cfg.Poller.Timezone = "UTC"
	}

	if cfg.Poller.ZoneCacheTTLSeconds <= 0 {
		cfg.Poller.ZoneCacheTTLSeconds = 300
	}

	if cfg.Poller.Vision.TimeoutSeconds <= 0 {
		cfg.Poller.Vision.TimeoutSeconds = 30
	}

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = cfg.Poller.IntervalSeconds
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second

	if cfg.Sweeper.ExpireAfterSeconds <= 0 {
		cfg.Sweeper.ExpireAfterSeconds = 600
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
