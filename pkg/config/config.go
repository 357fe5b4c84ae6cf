// Package config provides unified configuration for the paydesk server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env file (optional, never overrides the real environment)
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (PAYDESK_ prefix)
//  5. Backward-compatible env var mapping (DATABASE_URL, JWT_SECRET, ...)
//  6. File reference resolution (_file suffix fields)
//  7. Validation
package config

import "time"

// Config holds all configuration for the paydesk server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Export        ExportConfig        `yaml:"export"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8000
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig lists the browser origins allowed to call the API with
// credentials.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: ["http://localhost:3000"]
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory", "postgres" or "sqlite", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // default: "./data/paydesk.db"
}

// AuthConfig holds session token and password hashing settings.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`      // required
	JWTSecretFile string `yaml:"jwt_secret_file"` // _file variant for jwt_secret

	// TokenTTL is accepted for compatibility; session tokens always live
	// 60 minutes and any other value is rejected.
	TokenTTL time.Duration `yaml:"token_ttl"`

	CookieName     string `yaml:"cookie_name"`     // default: "token"
	CookieSecure   bool   `yaml:"cookie_secure"`   // default: false
	HashingPermits int    `yaml:"hashing_permits"` // default: 4
}

// RateLimitConfig throttles login attempts per client address.
type RateLimitConfig struct {
	LoginPerMinute int         `yaml:"login_per_minute"` // default: 10, 0 disables
	Backend        string      `yaml:"backend"`          // "memory" or "redis", default: "memory"
	Redis          RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
}

// ExportConfig selects where generated spreadsheets are kept.
type ExportConfig struct {
	Sink string   `yaml:"sink"` // "file" or "s3", default: "file"
	Dir  string   `yaml:"dir"`  // default: os.TempDir()
	S3   S3Config `yaml:"s3"`
}

// S3Config holds settings for the S3 export sink.
type S3Config struct {
	Bucket              string `yaml:"bucket"`
	Region              string `yaml:"region"`
	Endpoint            string `yaml:"endpoint"`       // optional, for S3-compatible stores
	Prefix              string `yaml:"prefix"`         // default: "exports/"
	UsePathStyle        bool   `yaml:"use_path_style"` // required by most S3-compatible stores
	AccessKeyID         string `yaml:"access_key_id"`
	SecretAccessKey     string `yaml:"secret_access_key"`
	SecretAccessKeyFile string `yaml:"secret_access_key_file"` // _file variant
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:3000"},
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
			SQLite: SQLiteConfig{
				Path: "./data/paydesk.db",
			},
		},
		Auth: AuthConfig{
			CookieName:     "token",
			HashingPermits: 4,
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
			Backend:        "memory",
		},
		Export: ExportConfig{
			Sink: "file",
			S3: S3Config{
				Prefix: "exports/",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
