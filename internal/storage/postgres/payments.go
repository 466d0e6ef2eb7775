package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restomenu/menukit/pkg/payment"
)

// PaymentStore is a PostgreSQL-backed payment.Store.
type PaymentStore struct {
	pool *pgxpool.Pool
}

// NewPaymentStore creates a payment store over the pool. Panics on a nil
// pool.
func NewPaymentStore(pool *pgxpool.Pool) *PaymentStore {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &PaymentStore{pool: pool}
}

const paymentColumns = `id, restaurant_id, user_id, plan_id, plan_name,
	amount, currency, method_name, method_type, method_account,
	status, admin_notes, created_at, processed_at`

func scanPayment(row pgx.Row) (*payment.Request, error) {
	var req payment.Request
	err := row.Scan(
		&req.ID, &req.RestaurantID, &req.UserID, &req.PlanID, &req.PlanName,
		&req.Amount.Amount, &req.Amount.Currency,
		&req.Method.Name, &req.Method.Type, &req.Method.Account,
		&req.Status, &req.AdminNotes, &req.CreatedAt, &req.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *PaymentStore) Get(ctx context.Context, id uuid.UUID) (*payment.Request, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payment_requests WHERE id = $1`, id)

	req, err := scanPayment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, payment.ErrNotFound
		}
		return nil, errors.Join(payment.ErrUpstream, err)
	}
	return req, nil
}

func (s *PaymentStore) Create(ctx context.Context, req *payment.Request) (*payment.Request, error) {
	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO payment_requests (id, restaurant_id, user_id, plan_id, plan_name,
			amount, currency, method_name, method_type, method_account, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+paymentColumns,
		id, req.RestaurantID, req.UserID, req.PlanID, req.PlanName,
		req.Amount.Amount, req.Amount.Currency,
		req.Method.Name, req.Method.Type, req.Method.Account,
		req.Status, req.CreatedAt,
	)

	created, err := scanPayment(row)
	if err != nil {
		return nil, errors.Join(payment.ErrUpstream, err)
	}
	return created, nil
}

func (s *PaymentStore) List(ctx context.Context, filter payment.ListFilter) ([]payment.Request, error) {
	// Zero filter values disable the corresponding predicate.
	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payment_requests
		WHERE ($1 = 0 OR restaurant_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at`,
		filter.RestaurantID, string(filter.Status),
	)
	if err != nil {
		return nil, errors.Join(payment.ErrUpstream, err)
	}
	defer rows.Close()

	var reqs []payment.Request
	for rows.Next() {
		req, err := scanPayment(rows)
		if err != nil {
			return nil, errors.Join(payment.ErrUpstream, err)
		}
		reqs = append(reqs, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(payment.ErrUpstream, err)
	}
	return reqs, nil
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status payment.Status, notes string, processedAt time.Time) (*payment.Request, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE payment_requests
		SET status = $2, admin_notes = $3, processed_at = $4
		WHERE id = $1
		RETURNING `+paymentColumns,
		id, status, notes, processedAt,
	)

	updated, err := scanPayment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, payment.ErrNotFound
		}
		return nil, errors.Join(payment.ErrUpstream, err)
	}
	return updated, nil
}
