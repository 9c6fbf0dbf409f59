package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

type Config struct {
	ServerAddr        string
	DatabaseDriver    string
	DatabaseDSN       string
	AllowedOrigins    []string
	ReconcileInterval time.Duration
}

func NewConfig(serverAddr, databaseDriver, databaseDSN string, allowedOrigins []string, reconcileInterval time.Duration) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	switch databaseDriver {
	case driverSQLite, driverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", databaseDriver)
	}
	if reconcileInterval <= 0 {
		return nil, fmt.Errorf("reconcile interval must be positive")
	}

	return &Config{
		ServerAddr:        serverAddr,
		DatabaseDriver:    databaseDriver,
		DatabaseDSN:       databaseDSN,
		AllowedOrigins:    normalizeOrigins(allowedOrigins),
		ReconcileInterval: reconcileInterval,
	}, nil
}

func normalizeOrigins(origins []string) []string {
	normalized := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			normalized = append(normalized, o)
		}
	}
	return normalized
}

// Env returns the value of the environment variable key, or def when unset.
func Env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func EnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
