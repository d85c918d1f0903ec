package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Keyword store backends.
const (
	StoreJSON = "json"
	StoreBolt = "bolt"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Host          string
	Port          int
	UploadLimitMB int

	// Keyword persistence
	KeywordStore string
	KeywordsFile string
	KeywordsDB   string

	// Reports written by the HTTP front end, removed once older than ReportTTL
	ReportDir string
	ReportTTL time.Duration

	// Extraction
	PdftotextFallback bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment after loading an optional
// .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Host:          getEnv("HOST", ""),
		Port:          getEnvAsInt("PORT", 8080),
		UploadLimitMB: getEnvAsInt("UPLOAD_LIMIT_MB", 32),

		KeywordStore: strings.ToLower(getEnv("KEYWORD_STORE", StoreJSON)),
		KeywordsFile: getEnv("KEYWORDS_FILE", "keywords.json"),
		KeywordsDB:   getEnv("KEYWORDS_DB", "keywords.db"),

		ReportDir: getEnv("REPORT_DIR", filepath.Join(os.TempDir(), "fatura-reports")),
		ReportTTL: getEnvDuration("REPORT_TTL", time.Hour),

		PdftotextFallback: getEnvAsBool("PDFTOTEXT_FALLBACK", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.UploadLimitMB < 1 {
		problems = append(problems, fmt.Sprintf("invalid upload limit %dMB: must be positive", c.UploadLimitMB))
	}

	switch c.KeywordStore {
	case StoreJSON:
		if c.KeywordsFile == "" {
			problems = append(problems, "keywords file cannot be empty when using the json store")
		}
	case StoreBolt:
		if c.KeywordsDB == "" {
			problems = append(problems, "keywords database cannot be empty when using the bolt store")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid keyword store %q: must be one of [%s %s]", c.KeywordStore, StoreJSON, StoreBolt))
	}

	if c.ReportDir == "" {
		problems = append(problems, "report directory cannot be empty")
	}
	if c.ReportTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid report TTL %s: must be positive", c.ReportTTL))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be console or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
