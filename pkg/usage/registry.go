package usage

import (
	"context"
	"fmt"

	"github.com/restomenu/menukit/pkg/limits"
)

// CounterFunc returns the current usage for one restaurant resource.
// Must be fast and ideally cached, it runs on every creation attempt.
type CounterFunc func(ctx context.Context, restaurantID int64) (int64, error)

// CounterRegistry maps a limit key to its CounterFunc.
// Not thread-safe: register all counters at startup only.
type CounterRegistry map[limits.Key]CounterFunc

// NewRegistry returns a new, empty CounterRegistry.
func NewRegistry() CounterRegistry {
	return make(CounterRegistry)
}

// Register sets or replaces the CounterFunc for key. Panics if fn is nil.
func (r CounterRegistry) Register(key limits.Key, fn CounterFunc) {
	if fn == nil {
		panic(fmt.Sprintf("usage: CounterFunc for %q cannot be nil", key))
	}
	r[key] = fn
}

// SnapshotSource supplies usage snapshots for a restaurant.
type SnapshotSource interface {
	Snapshot(ctx context.Context, restaurantID int64) (Snapshot, error)
}

// RegisterSnapshotCounters wires the four countable limit keys to a
// snapshot source. Each counter fetches a fresh snapshot; wrap the source
// in a cache (see the rediscache storage package) when that is too costly.
func RegisterSnapshotCounters(r CounterRegistry, src SnapshotSource) {
	r.Register(limits.KeyMaxProducts, func(ctx context.Context, restaurantID int64) (int64, error) {
		snap, err := src.Snapshot(ctx, restaurantID)
		return snap.Products, err
	})
	r.Register(limits.KeyMaxCategories, func(ctx context.Context, restaurantID int64) (int64, error) {
		snap, err := src.Snapshot(ctx, restaurantID)
		return snap.Categories, err
	})
	r.Register(limits.KeyMaxBranches, func(ctx context.Context, restaurantID int64) (int64, error) {
		snap, err := src.Snapshot(ctx, restaurantID)
		return snap.Branches, err
	})
	r.Register(limits.KeyMaxOrders, func(ctx context.Context, restaurantID int64) (int64, error) {
		snap, err := src.Snapshot(ctx, restaurantID)
		return snap.Orders, err
	})
}
