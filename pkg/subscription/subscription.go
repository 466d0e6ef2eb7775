package subscription

import (
	"math"
	"time"

	"github.com/restomenu/menukit/pkg/limits"
)

// Status is a subscription status. Stored statuses are active, paused,
// expired, and trial; none exists only as a derived value for restaurants
// without a subscription record.
type Status string

const (
	StatusNone    Status = "none" // derived only, never persisted
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusExpired Status = "expired"
	StatusTrial   Status = "trial"
)

// Subscription is a restaurant's time-bounded enrollment in a plan.
// Each restaurant has at most one current subscription, maintained by
// upsert convention on RestaurantID. Records are never hard-deleted, only
// status-transitioned.
type Subscription struct {
	ID           int64
	RestaurantID int64
	Status       Status
	PlanID       int64 // 0 means no plan
	PlanName     string
	PlanPrice    Money
	StartDate    time.Time
	EndDate      *time.Time
	Limits       limits.Map // per-restaurant overrides, may be partial or empty
	Features     []string   // denormalized plan features at (re)activation time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPaused reports whether the stored status is paused.
func (s *Subscription) IsPaused() bool {
	return s.Status == StatusPaused
}

// HasEnded reports whether the subscription's end date has passed at now.
// A missing end date never ends.
func (s *Subscription) HasEnded(now time.Time) bool {
	return s.EndDate != nil && !s.EndDate.After(now)
}

// DaysRemainingAt returns whole days left until the end date at a given
// time, rounding partial days up. Returns 0 when ended or without an end
// date. Useful for testing with fixed time values.
func (s *Subscription) DaysRemainingAt(now time.Time) int {
	if s.EndDate == nil {
		return 0
	}
	remaining := s.EndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// Money is a monetary amount in the smallest currency unit.
// For example, $10.99 USD is Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// IsZero reports whether the amount carries no value.
func (m Money) IsZero() bool { return m.Amount == 0 && m.Currency == "" }
