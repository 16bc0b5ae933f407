package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// Store moves bookings whose time has passed into their terminal status.
type Store interface {
	Sweep(ctx context.Context, now time.Time) (model.SweepResult, error)
}

type SweeperConfig struct {
	Interval time.Duration
}

// Sweeper completes confirmed bookings once they end and cancels pending
// bookings nobody confirmed before they started.
type Sweeper struct {
	store    Store
	clock    availability.Clock
	logger   *slog.Logger
	interval time.Duration
}

func NewSweeper(store Store, clock availability.Clock, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if clock == nil {
		clock = availability.SystemClock{}
	}
	return &Sweeper{store: store, clock: clock, logger: logger, interval: cfg.Interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) model.SweepResult {
	res, err := s.store.Sweep(ctx, s.clock.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("booking sweep failed", "err", err)
		}
		return model.SweepResult{}
	}
	if res.Completed > 0 || res.Expired > 0 {
		s.logger.Info("booking sweep", "completed", res.Completed, "expired", res.Expired)
	}
	return res
}
