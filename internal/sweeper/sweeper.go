package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/devicehub/internal/observability"
)

// SessionStore is the slice of the refresh-token repo the sweeper needs.
type SessionStore interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	DeleteRevoked(ctx context.Context, before time.Time) (int64, error)
}

type Config struct {
	Interval time.Duration
	// how long revoked rows stay visible before being purged
	RevokedGrace time.Duration
}

type Sweeper struct {
	cfg   Config
	store SessionStore
	prom  *observability.Prom
	log   *slog.Logger
}

func New(cfg Config, store SessionStore, prom *observability.Prom, log *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.RevokedGrace <= 0 {
		cfg.RevokedGrace = 24 * time.Hour
	}

	return &Sweeper{
		cfg:   cfg,
		store: store,
		prom:  prom,
		log:   log,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
// Failed sweeps back off exponentially instead of hammering the database.
func (s *Sweeper) Run(ctx context.Context) error {
	attempt := 0

	for {
		err := s.SweepOnce(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			delay := ExponentialBackoff(attempt)
			attempt++

			s.log.Error("sweep failed", "err", err, "retry_in", delay.String())

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) error {
	start := time.Now()
	now := start.UTC()

	expired, err := s.store.DeleteExpired(ctx, now)

	if err != nil {
		s.observe(start, "error")
		return err
	}

	revoked, err := s.store.DeleteRevoked(ctx, now.Add(-s.cfg.RevokedGrace))

	if err != nil {
		s.observe(start, "error")
		return err
	}

	if s.prom != nil {
		s.prom.SweptTotal.WithLabelValues("expired").Add(float64(expired))
		s.prom.SweptTotal.WithLabelValues("revoked").Add(float64(revoked))
	}
	s.observe(start, "ok")

	if expired > 0 || revoked > 0 {
		s.log.Info("sweep complete", "expired", expired, "revoked", revoked)
	}

	return nil
}

func (s *Sweeper) observe(start time.Time, result string) {
	if s.prom == nil {
		return
	}
	s.prom.SweepDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
