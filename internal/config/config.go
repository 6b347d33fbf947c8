package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost         = "localhost"
	defaultPort         = 6379
	defaultInputKey     = "metrics"
	defaultHandlerPath  = "/opt/handler.lua"
	defaultPollInterval = 5 * time.Second

	envHost         = "REDIS_HOST"
	envPort         = "REDIS_PORT"
	envDB           = "REDIS_DB"
	envInputKey     = "REDIS_INPUT_KEY"
	envOutputKey    = "REDIS_OUTPUT_KEY"
	envHandlerPath  = "TENDRIL_HANDLER"
	envPollInterval = "TENDRIL_POLL_INTERVAL"
	envLogLevel     = "TENDRIL_LOG_LEVEL"
)

// Config holds the runtime configuration resolved from environment variables.
type Config struct {
	Host         string
	Port         int
	DB           int
	InputKey     string
	OutputKey    string
	HandlerPath  string
	PollInterval time.Duration
	LogLevel     slog.Level
}

// Load reads configuration from the environment. It fails when REDIS_PORT
// does not parse as an integer or when REDIS_OUTPUT_KEY is unset; both are
// unrecoverable startup errors.
func Load() (Config, error) {
	cfg := Config{
		Host:         defaultHost,
		Port:         defaultPort,
		InputKey:     defaultInputKey,
		HandlerPath:  defaultHandlerPath,
		PollInterval: defaultPollInterval,
		LogLevel:     slog.LevelInfo,
	}

	if v := os.Getenv(envHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(envPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s value %q: %w", envPort, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(envDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s value %q: %w", envDB, v, err)
		}
		cfg.DB = db
	}
	if v := os.Getenv(envInputKey); v != "" {
		cfg.InputKey = v
	}

	cfg.OutputKey = os.Getenv(envOutputKey)
	if cfg.OutputKey == "" {
		return Config{}, fmt.Errorf("%s not set", envOutputKey)
	}

	if v := os.Getenv(envHandlerPath); v != "" {
		cfg.HandlerPath = v
	}
	if v := os.Getenv(envPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s value %q: %w", envPollInterval, v, err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr returns the store address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
