/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration loading for Basecamp
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

/* Config is the top-level server configuration */
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Engine    EngineConfig    `yaml:"engine"`
	Decisions DecisionsConfig `yaml:"decisions"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Chat      ChatConfig      `yaml:"chat"`
	Email     EmailConfig     `yaml:"email"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

/* EngineConfig tunes step execution and human pause handling */
type EngineConfig struct {
	BackoffUnit         time.Duration `yaml:"backoff_unit"`
	DefaultStepTimeout  time.Duration `yaml:"default_step_timeout"`
	HumanResponseWindow time.Duration `yaml:"human_response_window"`
}

/* TierConfig describes one rung of the decision ladder */
type TierConfig struct {
	Name            string  `yaml:"name"`
	Endpoint        string  `yaml:"endpoint"`
	Model           string  `yaml:"model"`
	APIKeyEnv       string  `yaml:"api_key_env"`
	CostPerTokenIn  float64 `yaml:"cost_per_token_in"`
	CostPerTokenOut float64 `yaml:"cost_per_token_out"`
}

type DecisionsConfig struct {
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	Tiers               []TierConfig  `yaml:"tiers"`
}

type SchedulerConfig struct {
	CycleInterval     time.Duration `yaml:"cycle_interval"`
	LeaseDuration     time.Duration `yaml:"lease_duration"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

type JobsConfig struct {
	WorkerCount  int           `yaml:"worker_count"`
	PollInterval time.Duration `yaml:"poll_interval"`
	StaleAfter   time.Duration `yaml:"stale_after"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type ChatConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	TokenEnv   string `yaml:"token_env"`
}

type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

/* DefaultConfig returns the built-in defaults */
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "basecamp",
			Password:        "",
			Database:        "basecamp",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			BackoffUnit:         1 * time.Second,
			DefaultStepTimeout:  60 * time.Second,
			HumanResponseWindow: 24 * time.Hour,
		},
		Decisions: DecisionsConfig{
			ConfidenceThreshold: 0.7,
			RequestTimeout:      60 * time.Second,
		},
		Scheduler: SchedulerConfig{
			CycleInterval:     30 * time.Second,
			LeaseDuration:     2 * time.Minute,
			HeartbeatInterval: 30 * time.Second,
		},
		Jobs: JobsConfig{
			WorkerCount:  5,
			PollInterval: 1 * time.Second,
			StaleAfter:   5 * time.Minute,
			MaxAttempts:  3,
		},
	}
}

/* LoadConfig reads a YAML configuration file on top of the defaults */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: path='%s', error=%w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: path='%s', error=%w", path, err)
	}

	return cfg, nil
}

/*
 * LoadFromEnv overlays environment variables onto cfg. Only a subset of
 * settings is exposed this way; file configuration covers the rest.
 */
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("BASECAMP_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BASECAMP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BASECAMP_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("BASECAMP_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("BASECAMP_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("BASECAMP_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("BASECAMP_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("BASECAMP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BASECAMP_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("BASECAMP_CONFIDENCE_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Decisions.ConfidenceThreshold = t
		}
	}
	if v := os.Getenv("BASECAMP_CHAT_WEBHOOK_URL"); v != "" {
		cfg.Chat.WebhookURL = v
	}
}

/* ConnString builds a lib/pq connection string from the database section */
func (c *DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}
