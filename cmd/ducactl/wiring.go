package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	auditpg "3tcapital/ducactl/internal/adapters/audit/postgres"
	"3tcapital/ducactl/internal/adapters/cli"
	"3tcapital/ducactl/internal/adapters/ducaapi"
	"3tcapital/ducactl/internal/adapters/session/file"
	"3tcapital/ducactl/internal/adapters/session/memory"
	sessionredis "3tcapital/ducactl/internal/adapters/session/redis"
	appauth "3tcapital/ducactl/internal/application/auth"
	appdeclaration "3tcapital/ducactl/internal/application/declaration"
	"3tcapital/ducactl/internal/application/review"
	appuser "3tcapital/ducactl/internal/application/user"
	"3tcapital/ducactl/internal/core/audit"
	"3tcapital/ducactl/internal/core/session"
	"3tcapital/ducactl/internal/infrastructure/auth"
	"3tcapital/ducactl/internal/infrastructure/config"
	"3tcapital/ducactl/internal/infrastructure/database"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/infrastructure/logger"
	"3tcapital/ducactl/internal/infrastructure/metrics"
)

// build wires the application services for one command run.
func build(ctx context.Context, flags cli.GlobalFlags) (*cli.App, error) {
	// Load already validates; flag overrides may fix what it rejected, so validate again after them.
	cfg, _ := config.Load()
	if flags.BaseURL != "" {
		cfg.API.BaseURL = flags.BaseURL
	}
	if flags.Timeout > 0 {
		cfg.API.Timeout = flags.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment, os.Stderr)

	var closers []func(ctx context.Context)
	closeAll := func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
	}

	store, closeStore, err := sessionStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	auditRepo, closeAudit := auditRepository(ctx, cfg, log)
	if closeAudit != nil {
		closers = append(closers, closeAudit)
	}

	traced := httpclient.NewTracedClient(httpclient.TracedClientConfig{
		AuditEnabled:    cfg.Audit.Enabled && auditRepo != nil,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
		MaxConnsPerHost: cfg.API.MaxConnsPerHost,
	}, log, auditRepo)
	// Flush before the pool closes: closers run in reverse order.
	closers = append(closers, func(ctx context.Context) {
		if err := traced.Flush(ctx); err != nil {
			log.Warn("Audit records still pending at exit", "error", err)
		}
	})

	collectors := metrics.New()
	if cfg.Metrics.TextfilePath != "" {
		closers = append(closers, func(context.Context) {
			if err := collectors.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
				log.Warn("Failed to write metrics textfile", "path", cfg.Metrics.TextfilePath, "error", err)
			}
		})
	}

	tokens := auth.NewTokenProvider(store, log)
	exec := httpclient.NewExecutor(httpclient.ExecutorConfig{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		Retry:             httpclient.NetworkRetry(cfg.API.RetryMaxAttempts, cfg.API.RetryBackoff),
		MaxErrorBodyBytes: cfg.API.MaxErrorBodyBytes,
		Breaker:           httpclient.NewBreaker(cfg.API.BreakerFailures, cfg.API.BreakerCooldown),
	}, traced, tokens, collectors, log)
	client := ducaapi.NewClient(exec)

	var verifier appauth.Verifier
	if cfg.Auth.JWKSetURI != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSetURI, log)
		if err != nil {
			closeAll(ctx)
			return nil, fmt.Errorf("load JWKS: %w", err)
		}
		verifier = jwks
		closers = append(closers, func(context.Context) { jwks.Close() })
	}

	log.Debug("Client configured",
		"base_url", exec.BaseURL(),
		"timeout", cfg.API.Timeout,
		"retry_max_attempts", cfg.API.RetryMaxAttempts,
		"session_backend", cfg.Session.Backend,
		"audit", auditRepo != nil,
		"jwks", verifier != nil,
	)

	return &cli.App{
		Auth:         appauth.NewService(client, tokens, verifier, log),
		Review:       review.NewService(client, log),
		Declarations: appdeclaration.NewService(client, log),
		Users:        appuser.NewService(client, log),
		Log:          log,
		Close:        closeAll,
	}, nil
}

func sessionStore(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (session.Store, func(context.Context), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return memory.NewStore(cfg.Session.TTL), nil, nil
	case config.SessionBackendRedis:
		client, err := sessionredis.Connect(ctx, sessionredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect session store: %w", err)
		}
		closeClient := func(context.Context) {
			if err := client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
				log.Warn("Failed to close redis client", "error", err)
			}
		}
		return sessionredis.NewStore(client, cfg.Session.Profile, cfg.Session.TTL), closeClient, nil
	default:
		return file.NewStore(cfg.Session.File), nil, nil
	}
}

// auditRepository opens the audit database when auditing is enabled. Failures only
// disable the audit trail; commands still run.
func auditRepository(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (audit.Repository, func(context.Context)) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	if !cfg.Database.DatabaseConfigured() {
		log.Warn("Audit trail disabled: database not configured")
		return nil, nil
	}

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Warn("Audit trail disabled: failed to connect to database",
			"error", err,
			"host", cfg.Database.Host,
			"database", cfg.Database.Database,
			"user", cfg.Database.User,
			"password_set", cfg.Database.Password != "",
		)
		return nil, nil
	}

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		log.Warn("Audit trail disabled: migrations failed", "error", err)
		pool.Close()
		return nil, nil
	}

	log.Debug("Audit trail enabled", "database", cfg.Database.Database, "max_body_size", cfg.Audit.MaxBodySize)
	return auditpg.NewRepository(pool, log), func(context.Context) { pool.Close() }
}
