package notification

import "context"

// Decision describes the outcome of a manual payment review, shaped for
// delivery to the restaurant owner.
type Decision struct {
	RestaurantID int64
	PlanName     string
	Approved     bool
	AdminNotes   string
	Amount       int64
	Currency     string
}

// Notifier delivers payment review outcomes. Implementations must be safe
// for concurrent use.
type Notifier interface {
	PaymentDecided(ctx context.Context, d Decision) error
}

// Noop discards every notification. It is the default when no delivery
// channel is configured.
type Noop struct{}

func (Noop) PaymentDecided(ctx context.Context, d Decision) error { return nil }
