package config

import (
	"fmt"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/utils"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Tracker   TrackerConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Path            string
	BusyTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RateLimitConfig struct {
	RequestsPerMin int
	BurstSize      int
}

// TrackerConfig holds the task-tracker policy knobs: the daily completion
// goal, archive paging, and how many completed tasks analytics fetches.
type TrackerConfig struct {
	DailyGoal        int
	ArchivePageSize  int
	RecentFetchLimit int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         utils.GetEnv("SERVER_HOST", "0.0.0.0"),
			Port:         utils.GetEnvAsInt("SERVER_PORT", 8080),
			Environment:  utils.GetEnv("ENVIRONMENT", "development"),
			ReadTimeout:  utils.GetEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: utils.GetEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  utils.GetEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Path:            utils.GetEnv("DB_PATH", "storage/db/todo.sqlite"),
			BusyTimeout:     utils.GetEnvAsDuration("DB_BUSY_TIMEOUT", 10*time.Second),
			MaxOpenConns:    utils.GetEnvAsInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    utils.GetEnvAsInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: utils.GetEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMin: utils.GetEnvAsInt("RATE_LIMIT_REQUESTS_PER_MIN", 120),
			BurstSize:      utils.GetEnvAsInt("RATE_LIMIT_BURST_SIZE", 20),
		},
		Tracker: TrackerConfig{
			DailyGoal:        utils.GetEnvAsInt("TRACKER_DAILY_GOAL", 3),
			ArchivePageSize:  utils.GetEnvAsInt("TRACKER_ARCHIVE_PAGE_SIZE", 10),
			RecentFetchLimit: utils.GetEnvAsInt("TRACKER_RECENT_FETCH_LIMIT", 300),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}
	if cfg.Tracker.DailyGoal <= 0 {
		cfg.Tracker.DailyGoal = 3
	}
	if cfg.Tracker.ArchivePageSize <= 0 {
		cfg.Tracker.ArchivePageSize = 10
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
