package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/restomenu/menukit/pkg/notification"
	"github.com/restomenu/menukit/pkg/statemachine"
	"github.com/restomenu/menukit/pkg/subscription"
)

const (
	eventApprove statemachine.Event = "approve"
	eventReject  statemachine.Event = "reject"
)

// reviewMachine validates review decisions against the request's current
// state. Both terminal states have no outgoing transitions, which is what
// makes processed requests immutable.
func reviewMachine(current Status) *statemachine.Machine {
	return statemachine.MustNew(statemachine.State(current),
		statemachine.WithTransition(statemachine.State(StatusPending), statemachine.State(StatusApproved), eventApprove, nil, nil),
		statemachine.WithTransition(statemachine.State(StatusPending), statemachine.State(StatusRejected), eventReject, nil, nil),
	)
}

// SubmitParams carries everything needed to open a payment request.
type SubmitParams struct {
	RestaurantID int64
	UserID       int64
	PlanID       int64
	PlanName     string
	Amount       subscription.Money
	Method       MethodSnapshot
}

// Service runs the manual payment review workflow: owners submit requests,
// administrators approve or reject them, and approval renews the
// restaurant's subscription.
type Service struct {
	store     Store
	lifecycle Lifecycle
	notifier  notification.Notifier
	clock     subscription.Clock
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the delivery channel for review outcomes.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(c subscription.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the review workflow. Store and lifecycle are
// required; a nil dependency is a programming error and panics.
func NewService(store Store, lifecycle Lifecycle, opts ...Option) *Service {
	if store == nil {
		panic("payment: store is required")
	}
	if lifecycle == nil {
		panic("payment: lifecycle is required")
	}

	s := &Service{
		store:     store,
		lifecycle: lifecycle,
		notifier:  notification.Noop{},
		clock:     subscription.SystemClock(),
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit opens a payment request for review. Submission is refused while
// the restaurant already has an active subscription; there is nothing a
// second pending payment could buy.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*Request, error) {
	if params.RestaurantID <= 0 {
		return nil, fmt.Errorf("%w: restaurant id is required", ErrValidation)
	}
	if params.PlanID <= 0 {
		return nil, fmt.Errorf("%w: plan id is required", ErrValidation)
	}

	blocked, err := s.lifecycle.HasBlockingActiveSubscription(ctx, params.RestaurantID)
	if err != nil {
		return nil, upstream(err)
	}
	if blocked {
		return nil, ErrActiveSubscription
	}

	req := &Request{
		ID:           uuid.New(),
		RestaurantID: params.RestaurantID,
		UserID:       params.UserID,
		PlanID:       params.PlanID,
		PlanName:     params.PlanName,
		Amount:       params.Amount,
		Method:       params.Method,
		Status:       StatusPending,
		CreatedAt:    s.clock.Now(),
	}

	created, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, upstream(err)
	}

	s.log.InfoContext(ctx, "payment request submitted",
		slog.String("payment_id", created.ID.String()),
		slog.Int64("restaurant_id", created.RestaurantID),
		slog.Int64("plan_id", created.PlanID),
	)
	return created, nil
}

// Get returns a payment request by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, upstream(err)
	}
	return req, nil
}

// List returns payment requests matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	reqs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, upstream(err)
	}
	return reqs, nil
}

// Approve marks the request approved and renews the restaurant's
// subscription with a fresh validity window. The payment write is
// committed before activation is attempted; if activation then fails the
// approval stands and the error reports the partial result so the
// operator can finish activation by hand.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, notes string) (*Request, error) {
	req, err := s.decide(ctx, id, eventApprove, StatusApproved, notes)
	if err != nil {
		return nil, err
	}

	sub, err := s.lifecycle.Renew(ctx, req.RestaurantID, req.PlanID)
	if err != nil {
		s.log.ErrorContext(ctx, "payment approved but activation failed",
			slog.String("payment_id", req.ID.String()),
			slog.Int64("restaurant_id", req.RestaurantID),
			slog.Any("error", err),
		)
		return req, &PartialApprovalError{Payment: req, ActivationErr: err}
	}

	s.log.InfoContext(ctx, "payment approved",
		slog.String("payment_id", req.ID.String()),
		slog.Int64("restaurant_id", req.RestaurantID),
		slog.Int64("subscription_id", sub.ID),
	)
	s.notify(ctx, req, true)
	return req, nil
}

// Reject marks the request rejected. No subscription state changes.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, notes string) (*Request, error) {
	req, err := s.decide(ctx, id, eventReject, StatusRejected, notes)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "payment rejected",
		slog.String("payment_id", req.ID.String()),
		slog.Int64("restaurant_id", req.RestaurantID),
	)
	s.notify(ctx, req, false)
	return req, nil
}

// decide validates the transition and commits the terminal state.
func (s *Service) decide(ctx context.Context, id uuid.UUID, event statemachine.Event, target Status, notes string) (*Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, upstream(err)
	}

	if err := reviewMachine(req.Status).Fire(ctx, event, nil); err != nil {
		return nil, fmt.Errorf("%w: %s request cannot transition to %s",
			ErrAlreadyProcessed, req.Status, target)
	}

	updated, err := s.store.UpdateStatus(ctx, id, target, notes, s.clock.Now())
	if err != nil {
		return nil, upstream(err)
	}
	return updated, nil
}

// notify delivers the outcome best-effort; delivery failures are logged,
// never surfaced, because the review decision is already committed.
func (s *Service) notify(ctx context.Context, req *Request, approved bool) {
	err := s.notifier.PaymentDecided(ctx, notification.Decision{
		RestaurantID: req.RestaurantID,
		PlanName:     req.PlanName,
		Approved:     approved,
		AdminNotes:   req.AdminNotes,
		Amount:       req.Amount.Amount,
		Currency:     req.Amount.Currency,
	})
	if err != nil {
		s.log.WarnContext(ctx, "payment decision notification failed",
			slog.String("payment_id", req.ID.String()),
			slog.Any("error", err),
		)
	}
}
