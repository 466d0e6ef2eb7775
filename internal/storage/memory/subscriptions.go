package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/restomenu/menukit/pkg/subscription"
)

// SubscriptionStore is an in-memory subscription.SubscriptionStore with
// auto-assigned record IDs.
type SubscriptionStore struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[int64]subscription.Subscription
}

// NewSubscriptionStore creates an empty store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{nextID: 1, subs: make(map[int64]subscription.Subscription)}
}

func cloneSub(s subscription.Subscription) subscription.Subscription {
	out := s
	if s.EndDate != nil {
		end := *s.EndDate
		out.EndDate = &end
	}
	out.Limits = s.Limits.Clone()
	if s.Features != nil {
		out.Features = append([]string(nil), s.Features...)
	}
	return out
}

func (s *SubscriptionStore) Get(ctx context.Context, id int64) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	out := cloneSub(sub)
	return &out, nil
}

func (s *SubscriptionStore) GetByRestaurant(ctx context.Context, restaurantID int64) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.RestaurantID == restaurantID {
			out := cloneSub(sub)
			return &out, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneSub(*sub)
	stored.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.subs[stored.ID] = stored

	out := cloneSub(stored)
	return &out, nil
}

func (s *SubscriptionStore) Update(ctx context.Context, id int64, patch subscription.Patch) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, subscription.ErrNotFound
	}

	if patch.PlanID != nil {
		sub.PlanID = *patch.PlanID
	}
	if patch.PlanName != nil {
		sub.PlanName = *patch.PlanName
	}
	if patch.PlanPrice != nil {
		sub.PlanPrice = *patch.PlanPrice
	}
	if patch.Status != nil {
		sub.Status = *patch.Status
	}
	if patch.StartDate != nil {
		sub.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		if *patch.EndDate == nil {
			sub.EndDate = nil
		} else {
			end := **patch.EndDate
			sub.EndDate = &end
		}
	}
	if patch.Limits != nil {
		sub.Limits = patch.Limits.Clone()
	}
	if patch.Features != nil {
		sub.Features = append([]string(nil), *patch.Features...)
	}
	sub.UpdatedAt = time.Now().UTC()
	s.subs[id] = sub

	out := cloneSub(sub)
	return &out, nil
}

func (s *SubscriptionStore) List(ctx context.Context, filter subscription.ListFilter) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]subscription.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if filter.Matches(&sub) {
			out = append(out, cloneSub(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
