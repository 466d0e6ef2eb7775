package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restomenu/menukit/pkg/subscription"
)

// SubscriptionStore is a PostgreSQL-backed subscription.SubscriptionStore.
// A unique index on restaurant_id backs the one-subscription-per-restaurant
// convention at the storage level.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a subscription store over the pool. Panics
// on a nil pool.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &SubscriptionStore{pool: pool}
}

const subscriptionColumns = `id, restaurant_id, status, plan_id, plan_name,
	price_amount, price_currency, start_date, end_date, limits, features,
	created_at, updated_at`

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.RestaurantID, &sub.Status, &sub.PlanID, &sub.PlanName,
		&sub.PlanPrice.Amount, &sub.PlanPrice.Currency,
		&sub.StartDate, &sub.EndDate, &sub.Limits, &sub.Features,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id int64) (*subscription.Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return s.scanOne(row)
}

func (s *SubscriptionStore) GetByRestaurant(ctx context.Context, restaurantID int64) (*subscription.Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE restaurant_id = $1`, restaurantID)
	return s.scanOne(row)
}

func (s *SubscriptionStore) scanOne(row pgx.Row) (*subscription.Subscription, error) {
	sub, err := scanSubscription(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, subscription.ErrNotFound
		}
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	return sub, nil
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (restaurant_id, status, plan_id, plan_name,
			price_amount, price_currency, start_date, end_date, limits, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+subscriptionColumns,
		sub.RestaurantID, sub.Status, sub.PlanID, sub.PlanName,
		sub.PlanPrice.Amount, sub.PlanPrice.Currency,
		sub.StartDate, sub.EndDate, sub.Limits, sub.Features,
	)

	created, err := scanSubscription(row)
	if err != nil {
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	return created, nil
}

func (s *SubscriptionStore) Update(ctx context.Context, id int64, patch subscription.Patch) (*subscription.Subscription, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.PlanID != nil {
		add("plan_id", *patch.PlanID)
	}
	if patch.PlanName != nil {
		add("plan_name", *patch.PlanName)
	}
	if patch.PlanPrice != nil {
		add("price_amount", patch.PlanPrice.Amount)
		add("price_currency", patch.PlanPrice.Currency)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	if patch.Limits != nil {
		add("limits", *patch.Limits)
	}
	if patch.Features != nil {
		add("features", *patch.Features)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET `+strings.Join(set, ", ")+`
		WHERE id = $1
		RETURNING `+subscriptionColumns, args...)

	updated, err := scanSubscription(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, subscription.ErrNotFound
		}
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	return updated, nil
}

func (s *SubscriptionStore) List(ctx context.Context, filter subscription.ListFilter) ([]subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions`
	var args []any
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, statuses)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, errors.Join(subscription.ErrUpstream, err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	return subs, nil
}
