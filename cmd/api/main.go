package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/devicehub/internal/config"
	"github.com/geocoder89/devicehub/internal/db"
	httpx "github.com/geocoder89/devicehub/internal/http"
	"github.com/geocoder89/devicehub/internal/observability"
	"github.com/geocoder89/devicehub/internal/redisclient"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	shutdownTracer, err := observability.InitTracer(otelCtx, "devicehub-api", cfg.OtelEndpoint)
	otelCancel()

	if err != nil {
		log.Warn("tracing disabled", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// postgres

	pool, err := db.NewPool(cfg.DBURL, 5)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	seedCtx, seedCancel := config.WithTimeout(5 * time.Second)
	if err := db.EnsureSeedUser(seedCtx, pool, cfg); err != nil {
		log.Error("seed user failed", "err", err)
	}
	seedCancel()

	// redis; the API still serves without it, token caching degrades to memory

	rds := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, pingCancel := config.WithTimeout(2 * time.Second)
	if err := rds.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, using in-process token cache", "err", err)
		_ = rds.Close()
		rds = nil
	}
	pingCancel()

	// metrics

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	router := httpx.NewRouter(log, cfg, pool, rds, prom, reg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}

		if rds != nil {
			_ = rds.Close()
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
