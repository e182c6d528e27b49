package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the application.
type Config struct {
	DBPath string

	// Favorites API (optional; required only for the sync command).
	FavoritesAPIURL   string
	FavoritesAdminKey string

	// LogMode selects the logger preset, "development" or "production".
	LogMode string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("PLANNER_DB_PATH")
	if dbPath == "" {
		return nil, fmt.Errorf("PLANNER_DB_PATH environment variable not set")
	}

	// Favorites API settings are optional at startup; commands that talk
	// to the API validate their presence themselves.
	favoritesURL := os.Getenv("FAVORITES_API_URL")
	favoritesAdminKey := os.Getenv("FAVORITES_ADMIN_KEY")

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}

	return &Config{
		DBPath:            dbPath,
		FavoritesAPIURL:   favoritesURL,
		FavoritesAdminKey: favoritesAdminKey,
		LogMode:           logMode,
	}, nil
}
