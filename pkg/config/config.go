// Package config loads application configuration from environment variables
// and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Port   int
	DBPath string

	// Dashboard list bounds.
	UpcomingFestivalsLimit  int
	RecentPaymentsLimit     int
	RecentTransactionsLimit int
}

// Load reads configuration from environment variables, loading a .env file
// first if one exists. An explicit path can be passed for tests.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Missing .env in the working directory is fine.
		_ = godotenv.Load()
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	upcoming, err := intEnv("DASHBOARD_UPCOMING_FESTIVALS", 5)
	if err != nil {
		return nil, err
	}
	recentPayments, err := intEnv("DASHBOARD_RECENT_PAYMENTS", 10)
	if err != nil {
		return nil, err
	}
	recentTxns, err := intEnv("DASHBOARD_RECENT_TRANSACTIONS", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                    port,
		DBPath:                  getEnvOrDefault("DB_PATH", "./festival.db"),
		UpcomingFestivalsLimit:  upcoming,
		RecentPaymentsLimit:     recentPayments,
		RecentTransactionsLimit: recentTxns,
	}, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
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
