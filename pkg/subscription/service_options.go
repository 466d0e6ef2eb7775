package subscription

import "log/slog"

// Option configures the lifecycle service.
type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a structured logger. Nil loggers are ignored and the
// service keeps discarding log output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDefaultDurationDays overrides the validity window used when a plan
// defines no duration. Non-positive values are ignored.
func WithDefaultDurationDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.durationDays = days
		}
	}
}
