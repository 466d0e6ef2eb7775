package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/restomenu/menukit/pkg/limits"
	"github.com/restomenu/menukit/pkg/statemachine"
)

// Lifecycle events understood by the status machine.
const (
	eventActivate statemachine.Event = "activate"
	eventPause    statemachine.Event = "pause"
	eventResume   statemachine.Event = "resume"
	eventExpire   statemachine.Event = "expire"
)

// statusMachine builds the lifecycle state machine seeded with the
// subscription's current stored status. Expiry transitions are detected by
// derivation, not commanded, but the machine still names them so the sweep
// path shares the same transition table.
func statusMachine(current Status) *statemachine.Machine {
	return statemachine.MustNew(statemachine.State(current),
		statemachine.WithTransitions(
			statemachine.Transition{From: statemachine.State(StatusActive), To: statemachine.State(StatusPaused), Event: eventPause},
			statemachine.Transition{From: statemachine.State(StatusPaused), To: statemachine.State(StatusActive), Event: eventResume},
			statemachine.Transition{From: statemachine.State(StatusActive), To: statemachine.State(StatusActive), Event: eventActivate},
			statemachine.Transition{From: statemachine.State(StatusPaused), To: statemachine.State(StatusActive), Event: eventActivate},
			statemachine.Transition{From: statemachine.State(StatusExpired), To: statemachine.State(StatusActive), Event: eventActivate},
			statemachine.Transition{From: statemachine.State(StatusTrial), To: statemachine.State(StatusActive), Event: eventActivate},
			statemachine.Transition{From: statemachine.State(StatusActive), To: statemachine.State(StatusExpired), Event: eventExpire},
			statemachine.Transition{From: statemachine.State(StatusPaused), To: statemachine.State(StatusExpired), Event: eventExpire},
			statemachine.Transition{From: statemachine.State(StatusTrial), To: statemachine.State(StatusExpired), Event: eventExpire},
		),
	)
}

// transition validates a lifecycle event against the current stored status
// and returns the resulting status.
func transition(ctx context.Context, current Status, event statemachine.Event) (Status, error) {
	m := statusMachine(current)
	if err := m.Fire(ctx, event, nil); err != nil {
		return "", errors.Join(ErrInvalidTransition, err)
	}
	return Status(m.Current()), nil
}

// CreateParams carries the input for creating a fresh subscription.
// Fields arrive already normalized; see FromPayload and NormalizePlanID.
type CreateParams struct {
	RestaurantID int64
	PlanID       int64 // 0 means no plan
	Limits       limits.Map
	Features     []string
}

// Service orchestrates subscription lifecycle operations against the plan,
// subscription, and restaurant stores, keeping the owning restaurant's
// active flag consistent with activation.
type Service struct {
	plans        PlanStore
	subs         SubscriptionStore
	restaurants  RestaurantStore
	clock        Clock
	log          *slog.Logger
	durationDays int
}

// NewService creates the lifecycle manager. Panics when a required store
// is nil to fail fast during initialization.
func NewService(plans PlanStore, subs SubscriptionStore, restaurants RestaurantStore, opts ...Option) *Service {
	if plans == nil {
		panic("subscription: PlanStore is required")
	}
	if subs == nil {
		panic("subscription: SubscriptionStore is required")
	}
	if restaurants == nil {
		panic("subscription: RestaurantStore is required")
	}

	s := &Service{
		plans:        plans,
		subs:         subs,
		restaurants:  restaurants,
		clock:        SystemClock(),
		log:          slog.New(slog.DiscardHandler),
		durationDays: DefaultPlanDurationDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the restaurant's current subscription.
func (s *Service) Get(ctx context.Context, restaurantID int64) (*Subscription, error) {
	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, upstream(err)
	}
	return sub, nil
}

// DerivedStatus returns the live status for the restaurant at the current
// clock reading. A missing subscription derives to none without error.
func (s *Service) DerivedStatus(ctx context.Context, restaurantID int64) (Status, error) {
	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StatusNone, nil
		}
		return StatusNone, upstream(err)
	}
	return Derive(sub, s.clock.Now()), nil
}

// Create builds and persists a new subscription: active immediately, start
// now, end after the plan's duration. The provided limit overrides are
// stored verbatim; effective limits are always derived via MergedLimits.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Subscription, error) {
	now := s.clock.Now()

	plan, err := s.planFor(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}

	end := now.AddDate(0, 0, s.duration(plan))
	if !end.After(now) {
		return nil, errors.Join(ErrValidation, ErrInvalidPeriod)
	}

	sub := &Subscription{
		RestaurantID: params.RestaurantID,
		Status:       StatusActive,
		PlanID:       params.PlanID,
		StartDate:    now,
		EndDate:      &end,
		Limits:       params.Limits.Clone(),
		Features:     params.Features,
	}
	applyPlanSnapshot(sub, plan)

	created, err := s.subs.Create(ctx, sub)
	if err != nil {
		return nil, upstream(err)
	}

	s.log.InfoContext(ctx, "subscription created",
		slog.Int64("restaurant_id", params.RestaurantID),
		slog.Int64("plan_id", params.PlanID),
		slog.Time("end_date", end))
	return created, nil
}

// Activate sets the restaurant's subscription to active, creating a record
// when none exists. An end date already in the past is pushed forward by
// the plan duration; remaining time is otherwise preserved. The owning
// restaurant's active flag is set as part of activation.
func (s *Service) Activate(ctx context.Context, restaurantID, planID int64) (*Subscription, error) {
	return s.activate(ctx, restaurantID, planID, false)
}

// Renew is activation with a fresh validity window: the start date resets
// to now and the end date to now plus the plan duration, regardless of any
// remaining time. Manual payment approval always renews; approval restarts
// the window rather than extending it.
func (s *Service) Renew(ctx context.Context, restaurantID, planID int64) (*Subscription, error) {
	return s.activate(ctx, restaurantID, planID, true)
}

func (s *Service) activate(ctx context.Context, restaurantID, planID int64, freshWindow bool) (*Subscription, error) {
	now := s.clock.Now()

	plan, err := s.planFor(ctx, planID)
	if err != nil {
		return nil, err
	}

	existing, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, upstream(err)
	}

	var sub *Subscription
	if existing == nil {
		sub, err = s.Create(ctx, CreateParams{RestaurantID: restaurantID, PlanID: planID})
		if err != nil {
			return nil, err
		}
	} else {
		next, terr := transition(ctx, existing.Status, eventActivate)
		if terr != nil {
			return nil, terr
		}

		patch := Patch{Status: &next}
		if planID != 0 {
			patch.PlanID = &planID
			patch.PlanName = &plan.Name
			patch.PlanPrice = &plan.Price
			features := append([]string(nil), plan.Features...)
			patch.Features = &features
		}
		if freshWindow {
			start := now
			end := now.AddDate(0, 0, s.duration(plan))
			endPtr := &end
			patch.StartDate = &start
			patch.EndDate = &endPtr
		} else if existing.EndDate == nil || existing.HasEnded(now) {
			end := now.AddDate(0, 0, s.duration(plan))
			endPtr := &end
			patch.EndDate = &endPtr
		}

		sub, err = s.subs.Update(ctx, existing.ID, patch)
		if err != nil {
			return nil, upstream(err)
		}
	}

	if err := s.restaurants.SetActive(ctx, restaurantID, true); err != nil {
		return nil, upstream(err)
	}

	s.log.InfoContext(ctx, "subscription activated",
		slog.Int64("restaurant_id", restaurantID),
		slog.Int64("plan_id", planID),
		slog.Bool("fresh_window", freshWindow))
	return sub, nil
}

// Pause suspends an existing subscription. The end date is not altered; a
// paused subscription never derives to expired while it stays paused.
func (s *Service) Pause(ctx context.Context, restaurantID int64) (*Subscription, error) {
	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, upstream(err)
	}

	next, err := transition(ctx, sub.Status, eventPause)
	if err != nil {
		return nil, err
	}

	updated, err := s.subs.Update(ctx, sub.ID, Patch{Status: &next})
	if err != nil {
		return nil, upstream(err)
	}

	s.log.InfoContext(ctx, "subscription paused", slog.Int64("restaurant_id", restaurantID))
	return updated, nil
}

// Resume returns a paused subscription to active. An end date that lapsed
// while paused is pushed forward by the plan duration, matching the
// activation invariant that a resulting end date must lie in the future.
func (s *Service) Resume(ctx context.Context, restaurantID int64) (*Subscription, error) {
	now := s.clock.Now()

	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, upstream(err)
	}

	next, err := transition(ctx, sub.Status, eventResume)
	if err != nil {
		return nil, err
	}

	patch := Patch{Status: &next}
	if sub.EndDate == nil || sub.HasEnded(now) {
		plan, perr := s.planFor(ctx, sub.PlanID)
		if perr != nil {
			return nil, perr
		}
		end := now.AddDate(0, 0, s.duration(plan))
		endPtr := &end
		patch.EndDate = &endPtr
	}

	updated, err := s.subs.Update(ctx, sub.ID, patch)
	if err != nil {
		return nil, upstream(err)
	}

	if err := s.restaurants.SetActive(ctx, restaurantID, true); err != nil {
		return nil, upstream(err)
	}

	s.log.InfoContext(ctx, "subscription resumed", slog.Int64("restaurant_id", restaurantID))
	return updated, nil
}

// ExtendByDays pushes the end date forward by days, counted from the
// current end date when it lies in the future, otherwise from now.
func (s *Service) ExtendByDays(ctx context.Context, restaurantID int64, days int) (*Subscription, error) {
	if days <= 0 {
		return nil, errors.Join(ErrValidation, fmt.Errorf("extension days must be positive, got %d", days))
	}

	now := s.clock.Now()

	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, upstream(err)
	}

	base := now
	if sub.EndDate != nil && sub.EndDate.After(now) {
		base = *sub.EndDate
	}
	end := base.AddDate(0, 0, days)
	endPtr := &end

	updated, err := s.subs.Update(ctx, sub.ID, Patch{EndDate: &endPtr})
	if err != nil {
		return nil, upstream(err)
	}

	s.log.InfoContext(ctx, "subscription extended",
		slog.Int64("restaurant_id", restaurantID),
		slog.Int("days", days),
		slog.Time("end_date", end))
	return updated, nil
}

// Update applies an arbitrary field patch to a subscription record. A plan
// change re-resolves the denormalized plan snapshot and re-runs the limit
// merger against the newly selected plan's limits, so stale merged values
// from a previous plan can never survive. Status changes go through the
// lifecycle machine; date changes must keep the end strictly after the
// start.
func (s *Service) Update(ctx context.Context, subscriptionID int64, patch Patch) (*Subscription, error) {
	cur, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return nil, upstream(err)
	}

	if patch.Status != nil && *patch.Status != cur.Status {
		event, ok := eventFor(cur.Status, *patch.Status)
		if !ok {
			return nil, errors.Join(ErrInvalidTransition,
				fmt.Errorf("no event maps %s to %s", cur.Status, *patch.Status))
		}
		if _, terr := transition(ctx, cur.Status, event); terr != nil {
			return nil, terr
		}
	}

	planID := cur.PlanID
	if patch.PlanID != nil {
		planID = *patch.PlanID
	}

	planChanged := patch.PlanID != nil && *patch.PlanID != cur.PlanID
	if planChanged {
		plan, perr := s.planFor(ctx, planID)
		if perr != nil {
			return nil, perr
		}
		if plan != nil {
			patch.PlanName = &plan.Name
			patch.PlanPrice = &plan.Price
		}
	}

	if err := validatePeriod(cur, patch); err != nil {
		return nil, err
	}

	updated, err := s.subs.Update(ctx, subscriptionID, patch)
	if err != nil {
		return nil, upstream(err)
	}

	if planChanged || patch.Limits != nil {
		// Re-run the merger against the currently selected plan so callers
		// observing effective limits see the fresh resolution immediately.
		plan, perr := s.planFor(ctx, updated.PlanID)
		if perr != nil {
			return nil, perr
		}
		merged := MergedLimits(plan, updated)
		s.log.DebugContext(ctx, "subscription limits re-merged",
			slog.Int64("subscription_id", subscriptionID),
			slog.Int64("plan_id", updated.PlanID),
			slog.Int("keys", len(merged)))
	}

	return updated, nil
}

// EffectiveLimits resolves the restaurant's effective limit set: plan
// limits as the base, subscription overrides on top, defaults for the
// gaps.
func (s *Service) EffectiveLimits(ctx context.Context, restaurantID int64) (limits.Map, error) {
	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, upstream(err)
	}

	plan, err := s.planFor(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	return MergedLimits(plan, sub), nil
}

// HasBlockingActiveSubscription reports whether the restaurant holds a
// subscription whose derived status is active. One active subscription
// blocks a new purchase; the payment submission path checks this before
// accepting a request.
func (s *Service) HasBlockingActiveSubscription(ctx context.Context, restaurantID int64) (bool, error) {
	sub, err := s.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, upstream(err)
	}
	return Derive(sub, s.clock.Now()) == StatusActive, nil
}

// duration returns the validity window in days for a plan, falling back
// to the service-level default when the plan is nil or silent.
func (s *Service) duration(plan *Plan) int {
	if plan == nil || plan.DurationDays <= 0 {
		return s.durationDays
	}
	return plan.DurationDays
}

// planFor loads the plan for planID; a zero planID yields a nil plan,
// which downstream helpers treat as "defaults only".
func (s *Service) planFor(ctx context.Context, planID int64) (*Plan, error) {
	if planID == 0 {
		return nil, nil
	}
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, upstream(err)
	}
	return plan, nil
}

// applyPlanSnapshot denormalizes the plan's display fields onto the
// subscription record.
func applyPlanSnapshot(sub *Subscription, plan *Plan) {
	if plan == nil {
		return
	}
	sub.PlanName = plan.Name
	sub.PlanPrice = plan.Price
	if sub.Features == nil {
		sub.Features = append([]string(nil), plan.Features...)
	}
}

// eventFor maps a requested raw status change to a lifecycle event.
func eventFor(from, to Status) (statemachine.Event, bool) {
	switch to {
	case StatusActive:
		if from == StatusPaused {
			return eventResume, true
		}
		return eventActivate, true
	case StatusPaused:
		return eventPause, true
	case StatusExpired:
		return eventExpire, true
	default:
		return "", false
	}
}

// validatePeriod enforces the end-after-start invariant on the record the
// patch would produce.
func validatePeriod(cur *Subscription, patch Patch) error {
	start := cur.StartDate
	if patch.StartDate != nil {
		start = *patch.StartDate
	}

	end := cur.EndDate
	if patch.EndDate != nil {
		end = *patch.EndDate
	}

	if end != nil && !start.IsZero() && !end.After(start) {
		return errors.Join(ErrValidation, ErrInvalidPeriod)
	}
	return nil
}
