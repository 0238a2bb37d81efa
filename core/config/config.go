package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/MichaelEischer/openproject-gitlab-migrator/core/db"
)

type Config struct {
	OTel    OTelConfig
	Source  SourceConfig
	Target  TargetConfig
	Env     string
	Verbose bool
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// SourceConfig describes the OpenProject installation being read.
type SourceConfig struct {
	DB             db.Config
	AttachmentsDir string
	RulesFile      string
}

// TargetConfig holds replay settings that do not come from the command line.
type TargetConfig struct {
	// DefaultUserID is used for every login that has no account on the target.
	DefaultUserID int64
}

// Load loads configuration from environment variables.
// In development, a .env file in the working directory is read first.
func Load() (Config, error) {
	if getEnv("MIGRATE_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:     getEnv("MIGRATE_ENV", "development"),
		Verbose: getEnvBool("MIGRATE_VERBOSE", false),
		Source: SourceConfig{
			DB: db.Config{
				Driver:   getEnv("SOURCE_DB_DRIVER", db.DriverMySQL),
				DSN:      getEnv("SOURCE_DATABASE_URL", ""),
				MaxConns: getEnvInt32("SOURCE_DB_MAX_CONNS", 4),
				MinConns: getEnvInt32("SOURCE_DB_MIN_CONNS", 1),
			},
			AttachmentsDir: getEnv("ATTACHMENTS_DIR", "file"),
			RulesFile:      getEnv("RULES_FILE", ""),
		},
		Target: TargetConfig{
			DefaultUserID: getEnvInt64("GITLAB_DEFAULT_USER_ID", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "openproject-migrator"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
