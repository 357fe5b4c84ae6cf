package config

import (
	"errors"
	"fmt"
	"time"
)

// SessionLifetime is the only accepted value for auth.token_ttl.
const SessionLifetime = 60 * time.Minute

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("storage.sqlite.path is required when storage.type is \"sqlite\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\", or \"sqlite\", got %q", c.Storage.Type))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret (or auth.jwt_secret_file, JWT_SECRET) is required"))
	}
	if c.Auth.TokenTTL != 0 && c.Auth.TokenTTL != SessionLifetime {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be %s, got %s", SessionLifetime, c.Auth.TokenTTL))
	}
	if c.Auth.CookieName == "" {
		errs = append(errs, fmt.Errorf("auth.cookie_name must not be empty"))
	}
	if c.Auth.HashingPermits < 1 {
		errs = append(errs, fmt.Errorf("auth.hashing_permits must be >= 1, got %d", c.Auth.HashingPermits))
	}

	if c.RateLimit.LoginPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.login_per_minute must be >= 0, got %d", c.RateLimit.LoginPerMinute))
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.RateLimit.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("rate_limit.redis.addr is required when rate_limit.backend is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("rate_limit.backend must be \"memory\" or \"redis\", got %q", c.RateLimit.Backend))
	}

	switch c.Export.Sink {
	case "file":
	case "s3":
		if c.Export.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("export.s3.bucket is required when export.sink is \"s3\""))
		}
		if c.Export.S3.Region == "" {
			errs = append(errs, fmt.Errorf("export.s3.region is required when export.sink is \"s3\""))
		}
	default:
		errs = append(errs, fmt.Errorf("export.sink must be \"file\" or \"s3\", got %q", c.Export.Sink))
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"trace\", \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
