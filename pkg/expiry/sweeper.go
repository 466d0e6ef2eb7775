package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/restomenu/menukit/pkg/subscription"
)

// Config holds sweeper configuration.
type Config struct {
	SweepInterval time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"60s"`
}

// Sweeper persists the expired status for subscriptions whose derived
// status is expired. Derivation already reports lapsed active and trial
// records as expired regardless of the stored value, so sweeping only
// reconciles storage with the derived truth; nothing breaks if a sweep
// is late. Paused records are never touched: pausing shields a
// subscription from expiry until it is resumed.
type Sweeper struct {
	subs     subscription.SubscriptionStore
	clock    subscription.Clock
	log      *slog.Logger
	interval time.Duration
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source. Intended for tests.
func WithClock(c subscription.Clock) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSweeper creates a sweeper over the subscription store. A nil store is
// a programming error and panics.
func NewSweeper(subs subscription.SubscriptionStore, cfg Config, opts ...Option) *Sweeper {
	if subs == nil {
		panic("expiry: subscription store is required")
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s := &Sweeper{
		subs:     subs,
		clock:    subscription.SystemClock(),
		log:      slog.New(slog.DiscardHandler),
		interval: interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on the configured interval until the context is canceled.
// Always returns the context's error.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "expiry sweeper started",
		slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				s.log.ErrorContext(ctx, "expiry sweep failed", slog.Any("error", err))
			} else if n > 0 {
				s.log.InfoContext(ctx, "expiry sweep completed", slog.Int("expired", n))
			}
		}
	}
}

// SweepOnce marks every subscription whose derived status is expired and
// returns how many records changed. Records already stored as expired are
// never rewritten, so each lapse is persisted exactly once.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()

	candidates, err := s.subs.List(ctx, subscription.ListFilter{
		Statuses: []subscription.Status{
			subscription.StatusActive,
			subscription.StatusTrial,
		},
	})
	if err != nil {
		return 0, err
	}

	var swept int
	for i := range candidates {
		sub := &candidates[i]
		if subscription.Derive(sub, now) != subscription.StatusExpired {
			continue
		}

		status := subscription.StatusExpired
		if _, err := s.subs.Update(ctx, sub.ID, subscription.Patch{Status: &status}); err != nil {
			s.log.ErrorContext(ctx, "failed to mark subscription expired",
				slog.Int64("subscription_id", sub.ID),
				slog.Int64("restaurant_id", sub.RestaurantID),
				slog.Any("error", err),
			)
			continue
		}
		swept++
	}
	return swept, nil
}
