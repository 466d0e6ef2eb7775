package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restomenu/menukit/pkg/subscription"
)

// PlanStore is a PostgreSQL-backed subscription.PlanStore.
type PlanStore struct {
	pool *pgxpool.Pool
}

// NewPlanStore creates a plan store over the pool. Panics on a nil pool.
func NewPlanStore(pool *pgxpool.Pool) *PlanStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &PlanStore{pool: pool}
}

const planColumns = `id, name, description, price_amount, price_currency, features, limits, duration_days`

func scanPlan(row pgx.Row) (*subscription.Plan, error) {
	var p subscription.Plan
	err := row.Scan(
		&p.ID, &p.Name, &p.Description,
		&p.Price.Amount, &p.Price.Currency,
		&p.Features, &p.Limits, &p.DurationDays,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlanStore) Get(ctx context.Context, planID int64) (*subscription.Plan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, planID)

	plan, err := scanPlan(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, subscription.ErrPlanNotFound
		}
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	return plan, nil
}

func (s *PlanStore) List(ctx context.Context) ([]subscription.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans ORDER BY id`)
	if err != nil {
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	defer rows.Close()

	var plans []subscription.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, errors.Join(subscription.ErrUpstream, err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(subscription.ErrUpstream, err)
	}
	return plans, nil
}

// Put inserts or replaces a plan. Used by seeding and plan administration.
func (s *PlanStore) Put(ctx context.Context, plan subscription.Plan) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO plans (id, name, description, price_amount, price_currency, features, limits, duration_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price_amount = EXCLUDED.price_amount,
			price_currency = EXCLUDED.price_currency,
			features = EXCLUDED.features,
			limits = EXCLUDED.limits,
			duration_days = EXCLUDED.duration_days`,
		plan.ID, plan.Name, plan.Description,
		plan.Price.Amount, plan.Price.Currency,
		plan.Features, plan.Limits, plan.DurationDays,
	)
	if err != nil {
		return errors.Join(subscription.ErrUpstream, err)
	}
	return nil
}
