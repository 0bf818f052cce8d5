// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roach88/keyledger/internal/seed"
)

// KDF profiles.
const (
	KDFProfileProduction = "production"
	KDFProfileTest       = "test"
)

// Config holds runtime settings. It is read once at startup and treated as
// immutable.
type Config struct {
	// Storage
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Derivation
	KDFProfile string

	// Engine
	HistorySize int

	// Metrics; empty disables the listener.
	MetricsAddr string
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads Config from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:      getEnvString("KEYLEDGER_DB", "keyledger.db"),
		LogLevel:    strings.ToLower(getEnvString("KEYLEDGER_LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnvString("KEYLEDGER_LOG_FORMAT", "text")),
		KDFProfile:  strings.ToLower(getEnvString("KEYLEDGER_KDF_PROFILE", KDFProfileProduction)),
		HistorySize: getEnvInt("KEYLEDGER_HISTORY_SIZE", 100),
		MetricsAddr: getEnvString("KEYLEDGER_METRICS_ADDR", ""),
	}

	var invalid []string
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "KEYLEDGER_LOG_LEVEL="+cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		invalid = append(invalid, "KEYLEDGER_LOG_FORMAT="+cfg.LogFormat)
	}
	switch cfg.KDFProfile {
	case KDFProfileProduction, KDFProfileTest:
	default:
		invalid = append(invalid, "KEYLEDGER_KDF_PROFILE="+cfg.KDFProfile)
	}
	if cfg.HistorySize < 0 {
		invalid = append(invalid, "KEYLEDGER_HISTORY_SIZE="+strconv.Itoa(cfg.HistorySize))
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}
	return cfg, nil
}

// KDFParams returns the Argon2id parameters for the configured profile.
func (c *Config) KDFParams() seed.KDFParams {
	if c.KDFProfile == KDFProfileTest {
		return seed.TestKDFParams()
	}
	return seed.ProductionKDFParams()
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
