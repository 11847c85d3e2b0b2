/*
Package configs is responsible for loading and parsing the application's configuration.

All settings come from environment variables with development-friendly
defaults; values that would be unsafe to default are required outside
development.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default Mojang API endpoints. Overridable for tests and proxies.
const (
	DefaultSessionURL = "https://sessionserver.mojang.com"
	DefaultProfileURL = "https://api.mojang.com"
)

// AppConfig contains all configuration parameters required to run the hub.
type AppConfig struct {
	// General Server Settings
	Environment string
	Host        string
	Port        int

	// Security Settings
	AllowedOrigins []string
	APISecret      string

	// Per-connection inbound rate limit (messages per minute, burst = quota).
	RatelimitPerMinute int

	// Snapshot persistence
	SnapshotFile     string
	SnapshotInterval time.Duration

	// External collaborators
	DiscordWebhookURL string
	MojangSessionURL  string
	MojangProfileURL  string
}

// LoadConfig reads and validates the configuration from environment variables.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.Host = os.Getenv("HOST")
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "3000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("port number %d is out of range", port)
	}
	cfg.Port = port

	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	cfg.APISecret = os.Getenv("API_SECRET")
	if cfg.APISecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("API_SECRET environment variable is required in %s environment", cfg.Environment)
		}
		cfg.APISecret = "secret"
	}

	limitStr := os.Getenv("RATELIMIT_PER_MINUTE")
	if limitStr == "" {
		limitStr = "100"
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("invalid RATELIMIT_PER_MINUTE environment variable: %q", limitStr)
	}
	cfg.RatelimitPerMinute = limit

	cfg.SnapshotFile = os.Getenv("SNAPSHOT_FILE")
	if cfg.SnapshotFile == "" {
		cfg.SnapshotFile = "cosmetics.json"
	}

	intervalStr := os.Getenv("SNAPSHOT_INTERVAL_SECONDS")
	if intervalStr == "" {
		intervalStr = "300"
	}
	intervalSecs, err := strconv.Atoi(intervalStr)
	if err != nil || intervalSecs <= 0 {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL_SECONDS environment variable: %q", intervalStr)
	}
	cfg.SnapshotInterval = time.Duration(intervalSecs) * time.Second

	cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")

	cfg.MojangSessionURL = os.Getenv("MOJANG_SESSION_URL")
	if cfg.MojangSessionURL == "" {
		cfg.MojangSessionURL = DefaultSessionURL
	}

	cfg.MojangProfileURL = os.Getenv("MOJANG_PROFILE_URL")
	if cfg.MojangProfileURL == "" {
		cfg.MojangProfileURL = DefaultProfileURL
	}

	return cfg, nil
}
