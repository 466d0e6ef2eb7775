package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restomenu/menukit/pkg/subscription"
)

// RestaurantStore is a PostgreSQL-backed subscription.RestaurantStore.
type RestaurantStore struct {
	pool *pgxpool.Pool
}

// NewRestaurantStore creates a restaurant store over the pool. Panics on a
// nil pool.
func NewRestaurantStore(pool *pgxpool.Pool) *RestaurantStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &RestaurantStore{pool: pool}
}

func (s *RestaurantStore) SetActive(ctx context.Context, restaurantID int64, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE restaurants SET is_active = $2 WHERE id = $1`, restaurantID, active)
	if err != nil {
		return errors.Join(subscription.ErrUpstream, err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrRestaurantNotFound
	}
	return nil
}
