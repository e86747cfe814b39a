package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	healthhttp "3tcapital/ducactl/internal/adapters/http/health"
	"3tcapital/ducactl/internal/adapters/mockapi"
	apphealth "3tcapital/ducactl/internal/application/health"
	"3tcapital/ducactl/internal/infrastructure/config"
	"3tcapital/ducactl/internal/infrastructure/http/server"
	"3tcapital/ducactl/internal/infrastructure/logger"
	"3tcapital/ducactl/internal/infrastructure/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ducamock stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("ducamock", cfg.Log.Level, cfg.App.Environment, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := mockapi.New(mockapi.Options{
		JWTSecret: cfg.Mock.JWTSecret,
		TokenTTL:  cfg.Mock.TokenTTL,
		Logger:    log,
		Metrics:   metrics.New(),
	})
	if err != nil {
		return fmt.Errorf("create mock api: %w", err)
	}

	health := apphealth.NewService(apphealth.Metadata{
		Service:     "ducamock",
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, api.StoreProbe())

	srv, err := server.New(server.Options{
		Addr:    cfg.Mock.Address(),
		Logger:  log,
		Handler: api.Routes(),
		Health:  http.HandlerFunc(healthhttp.NewHandler(health, log).Status),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("Mock DUCA backend ready",
		"addr", cfg.Mock.Address(),
		"demo_users", []string{"transportista@demo.com", "agente@demo.com", "admin@demo.com"},
		"failing_numero", mockapi.FailingNumero,
	)
	return srv.Run(ctx)
}
