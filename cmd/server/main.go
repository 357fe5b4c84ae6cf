// Command server runs the paydesk API.
//
// Configuration is read from a YAML file (see -config), a .env file and
// the environment. Environment variables:
//
//	PAYDESK_CONFIG      - Path to the config file
//	PAYDESK_PORT        - Listen port (default: 8000)
//	PAYDESK_STORAGE     - Storage type: "memory", "postgres" or "sqlite"
//	PAYDESK_JWT_SECRET  - Session signing secret (required)
//	PAYDESK_DEBUG       - Debug categories, e.g. "auth,storage" or "all"
//
// The legacy PORT, DATABASE_URL, JWT_SECRET, JWT_EXPIRED_IN and JWT_MAXAGE
// variables are honoured as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/auth/password"
	"github.com/rhuss/paydesk/pkg/auth/token"
	"github.com/rhuss/paydesk/pkg/config"
	"github.com/rhuss/paydesk/pkg/debug"
	"github.com/rhuss/paydesk/pkg/export"
	"github.com/rhuss/paydesk/pkg/observability"
	"github.com/rhuss/paydesk/pkg/service"
	"github.com/rhuss/paydesk/pkg/storage"
	"github.com/rhuss/paydesk/pkg/storage/memory"
	"github.com/rhuss/paydesk/pkg/storage/postgres"
	"github.com/rhuss/paydesk/pkg/storage/sqlite"
	transporthttp "github.com/rhuss/paydesk/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	hasher, err := password.New(
		password.WithPermits(cfg.Auth.HashingPermits),
		password.WithObserver(observability.ObservePasswordHash),
	)
	if err != nil {
		return fmt.Errorf("creating hasher: %w", err)
	}
	if err := hasher.SelfTest(ctx); err != nil {
		return fmt.Errorf("password hasher self-test: %w", err)
	}

	codec, err := token.New([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	sink, err := newSink(ctx, cfg.Export)
	if err != nil {
		return fmt.Errorf("creating export sink: %w", err)
	}

	svc, err := service.New(ctx, service.Deps{
		Store:    store,
		Hasher:   hasher,
		Codec:    codec,
		Exporter: export.NewExporter(store, sink),
	}, service.DefaultConfig())
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	gate := auth.NewGate(auth.NewExtractor(cfg.Auth.CookieName), codec, auth.NewResolver(store))

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.CookieName = cfg.Auth.CookieName
	adapterCfg.CookieSecure = cfg.Auth.CookieSecure
	adapterCfg.AllowedOrigins = cfg.Server.CORS.AllowedOrigins
	adapterCfg.HealthCheck = store.HealthCheck
	adapterCfg.MetricsPath = ""
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}

	if cfg.RateLimit.LoginPerMinute > 0 {
		limiter, closeLimiter, err := newLoginLimiter(ctx, cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("creating login limiter: %w", err)
		}
		defer closeLimiter()
		adapterCfg.LoginLimiter = limiter
	}

	srv := transporthttp.NewServer(
		transporthttp.Services{Accounts: svc, Records: svc, Exports: svc},
		gate,
		adapterCfg,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	slog.Info("server starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"export_sink", sink.Kind(),
		"login_per_minute", cfg.RateLimit.LoginPerMinute,
		"token_lifetime", token.Lifetime,
	)
	return srv.ListenAndServe()
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return s, nil
	case "sqlite":
		s, err := sqlite.New(sqlite.Config{Path: cfg.SQLite.Path})
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "sqlite", "path", cfg.SQLite.Path)
		return s, nil
	default:
		slog.Warn("storage is in-memory, data is lost on restart")
		return memory.New(), nil
	}
}

func newSink(ctx context.Context, cfg config.ExportConfig) (export.Sink, error) {
	if cfg.Sink == "s3" {
		return export.NewS3Sink(ctx, export.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	}
	return export.NewFileSink(cfg.Dir)
}

// newLoginLimiter returns the configured limiter and a release function.
func newLoginLimiter(ctx context.Context, cfg config.RateLimitConfig) (auth.RateLimiter, func(), error) {
	if cfg.Backend == "redis" {
		l, err := auth.NewRedisLimiter(ctx, auth.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.LoginPerMinute, time.Minute)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Close() }, nil
	}
	return auth.NewInProcessLimiter(cfg.LoginPerMinute, time.Minute), func() {}, nil
}
