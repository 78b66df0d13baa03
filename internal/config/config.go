package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Config holds the configuration for the ledger service.
// Environment variables are parsed from the LEDGER_ prefix.
type Config struct {
	// Build target selects the default store: local (sqlite), cloud (postgres), test (memory)
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`

	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	HTTPPort int    `envconfig:"HTTP_PORT" default:"8090"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Upstream log server
	LogSourceURL            string `envconfig:"LOG_SOURCE_URL" default:"http://localhost:8080"`
	LogSourceTimeoutSeconds int    `envconfig:"LOG_SOURCE_TIMEOUT_SECONDS" default:"10"`
	LogSourceMaxRetries     int    `envconfig:"LOG_SOURCE_MAX_RETRIES" default:"3"`

	// Segmentation
	WaterGapMinutes   float64 `envconfig:"WATER_GAP_MINUTES" default:"5"`
	BookGapMinutes    float64 `envconfig:"BOOK_GAP_MINUTES" default:"5"`
	LaptopGapMinutes  float64 `envconfig:"LAPTOP_GAP_MINUTES" default:"5"`
	MinSessionMinutes float64 `envconfig:"MIN_SESSION_MINUTES" default:"1"`

	WaterGoalMl      float64 `envconfig:"WATER_GOAL_ML" default:"2000"`
	StudyGoalMinutes float64 `envconfig:"STUDY_GOAL_MINUTES" default:"300"`

	RulesFile string `envconfig:"RULES_FILE" default:""`
	StateFile string `envconfig:"STATE_FILE" default:""`
	MemoSize  int    `envconfig:"MEMO_SIZE" default:"256"`

	PersistIntervalSeconds    int `envconfig:"PERSIST_INTERVAL_SECONDS" default:"5"`
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	case "test":
		defaultDB = "memory"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			c.SQLitePath = "ledger.db"
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("DB_DRIVER postgres requires POSTGRES_DSN")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.WaterGapMinutes < 0 || c.BookGapMinutes < 0 || c.LaptopGapMinutes < 0 {
		return fmt.Errorf("gap minutes must not be negative")
	}
	if c.MinSessionMinutes <= 0 {
		c.MinSessionMinutes = 1
	}
	if c.WaterGoalMl <= 0 || c.StudyGoalMinutes <= 0 {
		return fmt.Errorf("goals must be positive")
	}
	if c.MemoSize <= 0 {
		c.MemoSize = 256
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: LEDGER_HTTP_PORT, LEDGER_LOG_SOURCE_URL
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LEDGER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("log_source_url", cfg.LogSourceURL).
		Str("sqlite_path", cfg.SQLitePath).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Str("rules_file", cfg.RulesFile).
		Str("state_file", cfg.StateFile).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config backed by the in-memory store.
func NewForTesting() *Config {
	cfg := &Config{
		BuildTarget:               "test",
		DBDriver:                  "auto",
		HTTPPort:                  8090,
		LogLevel:                  "debug",
		LogSourceURL:              "http://localhost:8080",
		LogSourceTimeoutSeconds:   2,
		LogSourceMaxRetries:       0,
		WaterGapMinutes:           5,
		BookGapMinutes:            5,
		LaptopGapMinutes:          5,
		MinSessionMinutes:         1,
		WaterGoalMl:               2000,
		StudyGoalMinutes:          300,
		MemoSize:                  64,
		PersistIntervalSeconds:    1,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
	_ = cfg.ResolveDefaults()
	return cfg
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Goals returns the configured default goals.
func (c *Config) Goals() model.Goals {
	return model.Goals{WaterMl: c.WaterGoalMl, StudyMinutes: c.StudyGoalMinutes}
}

func (c *Config) LogSourceTimeout() time.Duration {
	return time.Duration(c.LogSourceTimeoutSeconds) * time.Second
}

func (c *Config) PersistInterval() time.Duration {
	return time.Duration(c.PersistIntervalSeconds) * time.Second
}

func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

func (c *Config) HealthProbeTimeout() time.Duration {
	return time.Duration(c.HealthProbeTimeoutSeconds) * time.Second
}
