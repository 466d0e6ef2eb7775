package memory

import (
	"context"
	"sync"

	"github.com/restomenu/menukit/pkg/subscription"
)

// RestaurantStore is an in-memory subscription.RestaurantStore tracking
// only the active flag this module cares about.
type RestaurantStore struct {
	mu     sync.RWMutex
	active map[int64]bool
}

// NewRestaurantStore creates a store seeded with the given restaurant IDs,
// all inactive.
func NewRestaurantStore(restaurantIDs ...int64) *RestaurantStore {
	s := &RestaurantStore{active: make(map[int64]bool, len(restaurantIDs))}
	for _, id := range restaurantIDs {
		s.active[id] = false
	}
	return s
}

func (s *RestaurantStore) SetActive(ctx context.Context, restaurantID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[restaurantID]; !ok {
		return subscription.ErrRestaurantNotFound
	}
	s.active[restaurantID] = active
	return nil
}

// IsActive reports the current flag. Unknown restaurants report false.
func (s *RestaurantStore) IsActive(restaurantID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[restaurantID]
}
