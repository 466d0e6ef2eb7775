package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/restomenu/menukit/pkg/subscription"
)

// PlanStore is an in-memory subscription.PlanStore.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[int64]subscription.Plan
}

// NewPlanStore creates a store seeded with the given plans.
func NewPlanStore(plans ...subscription.Plan) *PlanStore {
	s := &PlanStore{plans: make(map[int64]subscription.Plan, len(plans))}
	for _, p := range plans {
		s.plans[p.ID] = p.Clone()
	}
	return s
}

func (s *PlanStore) Get(ctx context.Context, planID int64) (*subscription.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (s *PlanStore) List(ctx context.Context) ([]subscription.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]subscription.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put inserts or replaces a plan.
func (s *PlanStore) Put(plan subscription.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan.Clone()
}
