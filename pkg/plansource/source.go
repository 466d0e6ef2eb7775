package plansource

import (
	"context"
	"errors"
	"sync"

	"github.com/restomenu/menukit/pkg/subscription"
)

var (
	// ErrNoPlans indicates a source that produced an empty catalog.
	ErrNoPlans = errors.New("plan source returned no plans")

	// ErrLoadFailed wraps source read failures.
	ErrLoadFailed = errors.New("failed to load plans")
)

// Source loads the plan catalog from some backing medium. Load returns the
// full catalog on every call; caching is the Catalog's job.
type Source interface {
	Load(ctx context.Context) ([]subscription.Plan, error)
}

type inMemSource struct {
	plans []subscription.Plan
}

// NewInMemSource returns a Source over a deep copy of the given plans.
// Panics when called with no plans: an empty catalog means nothing can be
// sold, which is a deployment mistake, not a runtime condition.
func NewInMemSource(plans ...subscription.Plan) Source {
	if len(plans) == 0 {
		panic("plansource: at least one plan is required")
	}

	copies := make([]subscription.Plan, len(plans))
	for i, p := range plans {
		copies[i] = p.Clone()
	}
	return &inMemSource{plans: copies}
}

func (s *inMemSource) Load(ctx context.Context) ([]subscription.Plan, error) {
	out := make([]subscription.Plan, len(s.plans))
	for i, p := range s.plans {
		out[i] = p.Clone()
	}
	return out, nil
}

// Catalog caches a loaded plan catalog and serves it through the
// subscription.PlanStore interface. The first read triggers the load;
// Reload refreshes the cache explicitly.
type Catalog struct {
	source Source

	mu    sync.RWMutex
	byID  map[int64]subscription.Plan
	order []int64
}

// NewCatalog creates a catalog over the source. Panics on a nil source.
func NewCatalog(source Source) *Catalog {
	if source == nil {
		panic("plansource: source is required")
	}
	return &Catalog{source: source}
}

// Get implements subscription.PlanStore.
func (c *Catalog) Get(ctx context.Context, planID int64) (*subscription.Plan, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	plan, ok := c.byID[planID]
	if !ok {
		return nil, subscription.ErrPlanNotFound
	}
	out := plan.Clone()
	return &out, nil
}

// List implements subscription.PlanStore, preserving source order.
func (c *Catalog) List(ctx context.Context) ([]subscription.Plan, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]subscription.Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].Clone())
	}
	return out, nil
}

// Reload replaces the cached catalog with a fresh load. On failure the
// previous catalog stays in place.
func (c *Catalog) Reload(ctx context.Context) error {
	plans, err := c.source.Load(ctx)
	if err != nil {
		return errors.Join(ErrLoadFailed, err)
	}
	if len(plans) == 0 {
		return ErrNoPlans
	}

	byID := make(map[int64]subscription.Plan, len(plans))
	order := make([]int64, 0, len(plans))
	for _, p := range plans {
		if _, dup := byID[p.ID]; !dup {
			order = append(order, p.ID)
		}
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.byID = byID
	c.order = order
	c.mu.Unlock()
	return nil
}

func (c *Catalog) ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.byID != nil
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}
