package utils

import (
	"os"
	"strconv"
	"time"
)

// GetEnv returns the value of the environment variable or the fallback when
// it is unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt returns the environment variable parsed as an integer, or the
// fallback when unset or unparseable.
func GetEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetEnvAsDuration returns the environment variable parsed as a
// time.Duration, or the fallback when unset or unparseable.
func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
