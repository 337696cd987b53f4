package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventSubjectBase       string
	JWTSecret              string
	AdminUIDs              []string
	LandingPath            string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryExportFolder string
	DraftTTL               time.Duration
	SettingsCacheTTL       time.Duration
	LinkRateLimit          int
	LinkRateWindow         time.Duration
	ImportMaxSizeKB        int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether export uploads can be pushed to Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROBING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Probing Questions API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.subject", "probing")
	v.SetDefault("landing.path", "/index.html")
	v.SetDefault("cloudinary.folder", "probing/exports")
	v.SetDefault("draft.ttl", "168h")
	v.SetDefault("settings.cache_ttl", "30s")
	v.SetDefault("link.rate_limit", 5)
	v.SetDefault("link.rate_window", "1m")
	v.SetDefault("import.max_size_kb", 512)

	draftTTL, err := parseDuration(v.GetString("draft.ttl"), 168*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid draft ttl: %w", err)
	}

	settingsTTL, err := parseDuration(v.GetString("settings.cache_ttl"), 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid settings cache ttl: %w", err)
	}

	linkWindow, err := parseDuration(v.GetString("link.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid link rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseDriver:         strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectBase:       v.GetString("events.subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		AdminUIDs:              SplitList(v.GetString("admin.uids")),
		LandingPath:            v.GetString("landing.path"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryExportFolder: v.GetString("cloudinary.folder"),
		DraftTTL:               draftTTL,
		SettingsCacheTTL:       settingsTTL,
		LinkRateLimit:          v.GetInt("link.rate_limit"),
		LinkRateWindow:         linkWindow,
		ImportMaxSizeKB:        v.GetInt("import.max_size_kb"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.LinkRateLimit <= 0 {
		cfg.LinkRateLimit = 5
	}

	if cfg.ImportMaxSizeKB <= 0 {
		cfg.ImportMaxSizeKB = 512
	}

	return cfg, nil
}

// SplitList turns a comma separated value into trimmed, non-empty entries.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
