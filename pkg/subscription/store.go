package subscription

import (
	"context"
	"time"

	"github.com/restomenu/menukit/pkg/limits"
)

// PlanStore reads subscription plans. Read-only from this core's
// perspective; plan administration belongs to the outer API layer.
type PlanStore interface {
	// Get retrieves a plan by ID. Returns ErrPlanNotFound when missing.
	Get(ctx context.Context, planID int64) (*Plan, error)

	// List returns all known plans.
	List(ctx context.Context) ([]Plan, error)
}

// SubscriptionStore persists subscription records. One current record per
// restaurant by upsert convention: callers look up by restaurant before
// deciding create-vs-update.
type SubscriptionStore interface {
	// Get retrieves a subscription by record ID.
	// Returns ErrNotFound when missing.
	Get(ctx context.Context, id int64) (*Subscription, error)

	// GetByRestaurant retrieves the restaurant's current subscription.
	// Returns ErrNotFound when the restaurant never subscribed.
	GetByRestaurant(ctx context.Context, restaurantID int64) (*Subscription, error)

	// Create persists a new subscription and returns the stored record.
	Create(ctx context.Context, sub *Subscription) (*Subscription, error)

	// Update applies a partial patch and returns the updated record.
	// Returns ErrNotFound when the record does not exist.
	Update(ctx context.Context, id int64, patch Patch) (*Subscription, error)

	// List returns subscriptions matching the filter.
	List(ctx context.Context, filter ListFilter) ([]Subscription, error)
}

// RestaurantStore exposes the single restaurant mutation this core needs:
// keeping the owner's active flag consistent with subscription activation.
type RestaurantStore interface {
	// SetActive flips the restaurant's active flag.
	// Returns ErrRestaurantNotFound when the restaurant does not exist.
	SetActive(ctx context.Context, restaurantID int64, active bool) error
}

// Patch is a partial subscription update. Nil fields stay untouched.
type Patch struct {
	PlanID    *int64
	PlanName  *string
	PlanPrice *Money
	Status    *Status
	StartDate *time.Time
	EndDate   **time.Time // set to new(…) to clear, nil to keep
	Limits    *limits.Map
	Features  *[]string
}

// ListFilter narrows a subscription listing. Zero value matches all.
type ListFilter struct {
	Statuses []Status
}

// Matches reports whether a subscription satisfies the filter.
func (f ListFilter) Matches(s *Subscription) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if s.Status == st {
			return true
		}
	}
	return false
}
