package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/restomenu/menukit/pkg/subscription"
)

// Status is the review state of a payment request. Requests start pending
// and move to exactly one terminal state; processed requests are never
// reopened.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// MethodSnapshot captures the payment method details as submitted. The
// snapshot is immutable so later edits to the configured methods do not
// rewrite history.
type MethodSnapshot struct {
	Name    string
	Type    string
	Account string
}

// Request is a manual payment submitted by a restaurant owner and reviewed
// by an administrator. PlanName and Amount are denormalized from the plan
// at submission time; the review record must reflect what the owner agreed
// to pay even if the plan changes afterwards.
type Request struct {
	ID           uuid.UUID
	RestaurantID int64
	UserID       int64
	PlanID       int64
	PlanName     string
	Amount       subscription.Money
	Method       MethodSnapshot
	Status       Status
	AdminNotes   string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// Processed reports whether the request has reached a terminal state.
func (r *Request) Processed() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// ListFilter narrows List results. Zero values mean no filtering on that
// field.
type ListFilter struct {
	RestaurantID int64
	Status       Status
}

// Matches reports whether the request passes the filter.
func (f ListFilter) Matches(r *Request) bool {
	if f.RestaurantID != 0 && r.RestaurantID != f.RestaurantID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Store persists payment requests. UpdateStatus must be atomic: it moves
// a request to a terminal state together with the reviewer notes and the
// processing timestamp in one write.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Request, error)
	Create(ctx context.Context, req *Request) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, notes string, processedAt time.Time) (*Request, error)
}

// Lifecycle is the slice of the subscription service the approval workflow
// depends on. *subscription.Service satisfies it.
type Lifecycle interface {
	Renew(ctx context.Context, restaurantID, planID int64) (*subscription.Subscription, error)
	HasBlockingActiveSubscription(ctx context.Context, restaurantID int64) (bool, error)
}
