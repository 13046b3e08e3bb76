package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	CaiyunToken   string
	CaiyunBaseURL string

	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration

	// AutoRefreshInterval refreshes every open screen periodically (0 = off).
	AutoRefreshInterval time.Duration

	// Snapshot history.
	StoreDriver     string        // "memory" or "sqlite"
	StorePath       string        // sqlite database file
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment (and .env, when present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := &AppConfig{
		CaiyunToken:   os.Getenv("CAIYUN_TOKEN"),
		CaiyunBaseURL: getenvDefault("CAIYUN_BASE_URL", "https://api.caiyunapp.com/v2.5"),
		StoreDriver:   getenvDefault("STORE_DRIVER", "memory"),
		StorePath:     getenvDefault("STORE_PATH", "sunnyweather.db"),
		Port:          getenvDefault("PORT", "8080"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),
		LogFormat:     getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	// Roughly 24h at 15-minute intervals.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.AutoRefreshInterval, err = getenvDuration("AUTO_REFRESH_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want memory or sqlite", cfg.StoreDriver)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
