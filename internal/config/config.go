package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	Target     string
	Timeout    time.Duration
	RateLimit  float64
	DBPath     string
	ReportDir  string
	LogLevel   slog.Level
	MaxDelay   int

	// BearerToken, when set, is the only token echod's /bearer accepts.
	BearerToken string
}

func Load() *Config {
	return &Config{
		ListenAddr: getEnv("SMOKE_LISTEN_ADDR", ":8080"),
		Target:     getEnv("SMOKE_TARGET", "https://httpbin.org"),
		Timeout:    getEnvDuration("SMOKE_TIMEOUT", 10*time.Second),
		RateLimit:  getEnvFloat("SMOKE_RATE_LIMIT", 0),
		DBPath:     getEnv("SMOKE_DB_PATH", ""),
		ReportDir:  getEnv("SMOKE_REPORT_DIR", "reports"),
		LogLevel:   parseLevel(getEnv("SMOKE_LOG_LEVEL", "info")),
		MaxDelay:   getEnvInt("SMOKE_MAX_DELAY", 10),

		BearerToken: getEnv("SMOKE_BEARER_TOKEN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go duration strings ("5s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n := getEnvInt(key, -1); n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
