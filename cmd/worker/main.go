package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/devicehub/internal/config"
	"github.com/geocoder89/devicehub/internal/db"
	"github.com/geocoder89/devicehub/internal/observability"
	"github.com/geocoder89/devicehub/internal/repo/postgres"
	"github.com/geocoder89/devicehub/internal/sweeper"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL, 2)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	refreshRepo := postgres.NewRefreshTokensRepo(pool)

	s := sweeper.New(sweeper.Config{
		Interval:     10 * time.Minute,
		RevokedGrace: 24 * time.Hour,
	}, refreshRepo, prom, log)

	log.Info("session sweeper started")

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("sweeper stopped with error", "err", err)
	}

	log.Info("sweeper shutdown complete")
}
