package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env file (PAYDESK_ENV_FILE or ./.env), without overriding the real environment
//  3. YAML config file (explicit path, PAYDESK_CONFIG env, ./config.yaml, /etc/paydesk/config.yaml)
//  4. PAYDESK_* and backward-compatible environment variable mapping
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv populates the process environment from a dotenv file.
// Variables that are already set win. A missing default file is not an
// error; a missing file named by PAYDESK_ENV_FILE is.
func loadDotEnv() error {
	path := os.Getenv("PAYDESK_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PAYDESK_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/paydesk/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PAYDESK_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/paydesk/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
// The PAYDESK_* names are applied after the legacy names so they win when
// both are present.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	intVar := func(name string, dst *int) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", name, v))
			return
		}
		*dst = n
	}
	boolVar := func(name string, dst *bool) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", name, v))
			return
		}
		*dst = b
	}
	strVar := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	// Legacy env var mappings.
	intVar("PORT", &cfg.Server.Port)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Type = "postgres"
		cfg.Storage.Postgres.DSN = v
	}
	strVar("JWT_SECRET", &cfg.Auth.JWTSecret)
	if v := os.Getenv("JWT_EXPIRED_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("JWT_EXPIRED_IN: %q is not a duration", v))
		} else {
			cfg.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("JWT_MAXAGE"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("JWT_MAXAGE: %q is not an integer", v))
		} else {
			cfg.Auth.TokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	intVar("PAYDESK_PORT", &cfg.Server.Port)
	if v := os.Getenv("PAYDESK_CORS_ORIGINS"); v != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(v)
	}

	strVar("PAYDESK_STORAGE", &cfg.Storage.Type)
	strVar("PAYDESK_DATABASE_URL", &cfg.Storage.Postgres.DSN)
	strVar("PAYDESK_SQLITE_PATH", &cfg.Storage.SQLite.Path)

	strVar("PAYDESK_JWT_SECRET", &cfg.Auth.JWTSecret)
	strVar("PAYDESK_JWT_SECRET_FILE", &cfg.Auth.JWTSecretFile)
	strVar("PAYDESK_COOKIE_NAME", &cfg.Auth.CookieName)
	boolVar("PAYDESK_COOKIE_SECURE", &cfg.Auth.CookieSecure)
	intVar("PAYDESK_HASHING_PERMITS", &cfg.Auth.HashingPermits)

	intVar("PAYDESK_LOGIN_RATE_LIMIT", &cfg.RateLimit.LoginPerMinute)
	strVar("PAYDESK_RATE_LIMIT_BACKEND", &cfg.RateLimit.Backend)
	strVar("PAYDESK_REDIS_ADDR", &cfg.RateLimit.Redis.Addr)
	strVar("PAYDESK_REDIS_PASSWORD", &cfg.RateLimit.Redis.Password)

	strVar("PAYDESK_EXPORT_SINK", &cfg.Export.Sink)
	strVar("PAYDESK_EXPORT_DIR", &cfg.Export.Dir)
	strVar("PAYDESK_S3_BUCKET", &cfg.Export.S3.Bucket)
	strVar("PAYDESK_S3_REGION", &cfg.Export.S3.Region)
	strVar("PAYDESK_S3_ENDPOINT", &cfg.Export.S3.Endpoint)
	strVar("PAYDESK_S3_ACCESS_KEY_ID", &cfg.Export.S3.AccessKeyID)
	strVar("PAYDESK_S3_SECRET_ACCESS_KEY", &cfg.Export.S3.SecretAccessKey)

	boolVar("PAYDESK_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)

	strVar("PAYDESK_LOG_LEVEL", &cfg.Logging.Level)
	strVar("PAYDESK_LOG_FORMAT", &cfg.Logging.Format)
	strVar("PAYDESK_DEBUG", &cfg.Logging.Debug)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	return errors.Join(errs...)
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name string
		file string
		dst  *string
	}{
		{"auth.jwt_secret_file", cfg.Auth.JWTSecretFile, &cfg.Auth.JWTSecret},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"rate_limit.redis.password_file", cfg.RateLimit.Redis.PasswordFile, &cfg.RateLimit.Redis.Password},
		{"export.s3.secret_access_key_file", cfg.Export.S3.SecretAccessKeyFile, &cfg.Export.S3.SecretAccessKey},
	}
	for _, ref := range refs {
		if ref.file == "" || *ref.dst != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.dst = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
