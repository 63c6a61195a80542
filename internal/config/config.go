// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL        = "https://api.purpleair.com/v1"
	defaultListenPort     = 9760
	defaultRefreshSeconds = 60
	defaultRequestTimeout = 30 * time.Second

	// publicSensorSentinel marks a public sensor in the private-key list.
	publicSensorSentinel = "none"
)

// Config holds runtime configuration for the exporter.
type Config struct {
	ReadAPIKey      string
	SensorIDs       []string
	PrivateKeys     []string // parallel to SensorIDs; "" means public
	BaseURL         string
	ListenPort      int
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ReadAPIKey = strings.TrimSpace(os.Getenv("PURPLEAIR_API_KEY"))
	if cfg.ReadAPIKey == "" {
		return cfg, errors.New("PURPLEAIR_API_KEY is required")
	}

	cfg.SensorIDs = splitList(os.Getenv("PURPLEAIR_SENSOR_IDS"))
	if len(cfg.SensorIDs) == 0 {
		return cfg, errors.New("PURPLEAIR_SENSOR_IDS is required")
	}

	keys, err := parsePrivateKeys(os.Getenv("PURPLEAIR_PRIVATE_KEYS"), len(cfg.SensorIDs))
	if err != nil {
		return cfg, err
	}
	cfg.PrivateKeys = keys

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PURPLEAIR_BASE_URL")), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	cfg.ListenPort = defaultListenPort
	if v := strings.TrimSpace(os.Getenv("LISTEN_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return cfg, fmt.Errorf("invalid LISTEN_PORT %q", v)
		}
		cfg.ListenPort = port
	}

	cfg.RefreshInterval = defaultRefreshSeconds * time.Second
	if v := strings.TrimSpace(os.Getenv("REFRESH_SECONDS")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 {
			return cfg, fmt.Errorf("invalid REFRESH_SECONDS %q", v)
		}
		cfg.RefreshInterval = time.Duration(secs) * time.Second
	}

	cfg.RequestTimeout = defaultRequestTimeout
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

// ListenAddr formats the listen address for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.ListenPort)
}

// parsePrivateKeys validates the private-key list against the sensor count.
// An empty variable means every sensor is public; a populated list must be
// the same length as the sensor list, with the "none" sentinel marking
// public sensors.
func parsePrivateKeys(raw string, sensorCount int) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return make([]string, sensorCount), nil
	}

	keys := splitList(raw)
	if len(keys) != sensorCount {
		return nil, fmt.Errorf("PURPLEAIR_PRIVATE_KEYS holds %d entries for %d sensors", len(keys), sensorCount)
	}
	for i, k := range keys {
		if strings.EqualFold(k, publicSensorSentinel) {
			keys[i] = ""
		}
	}
	return keys, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
