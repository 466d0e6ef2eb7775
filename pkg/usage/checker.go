package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/restomenu/menukit/pkg/limits"
	"github.com/restomenu/menukit/pkg/subscription"
)

// Evaluate applies the usage gate rules to already-fetched data: derived
// status must be active, the effective limit comes from the merger, -1
// means unlimited, and a count limit allows creation while current stays
// below it. Pure function, no I/O.
func Evaluate(sub *subscription.Subscription, planLimits limits.Map, key limits.Key, current int64, now time.Time) CheckResult {
	if sub == nil {
		return CheckResult{Allowed: false, Remaining: 0, Reason: ReasonNoSubscription}
	}
	if subscription.Derive(sub, now) != subscription.StatusActive {
		return CheckResult{Allowed: false, Remaining: 0, Reason: ReasonNotActive}
	}

	return evaluateLimit(limits.Merge(planLimits, sub.Limits).Get(key), current)
}

// evaluateLimit gates a single resolved limit value against a count.
// Flags behave as unlimited when enabled and as a zero cap when disabled.
func evaluateLimit(limit limits.Value, current int64) CheckResult {
	if limit.IsFlag() {
		if limit.AsFlag() {
			return CheckResult{Allowed: true, Remaining: limits.Unlimited, Reason: ReasonOK}
		}
		return CheckResult{Allowed: false, Remaining: 0, Reason: ReasonLimitReached}
	}

	ceiling := limit.AsCount()
	if ceiling == limits.Unlimited {
		return CheckResult{Allowed: true, Remaining: limits.Unlimited, Reason: ReasonOK}
	}

	remaining := ceiling - current
	if remaining < 0 {
		remaining = 0
	}
	if current < ceiling {
		return CheckResult{Allowed: true, Remaining: remaining, Reason: ReasonOK}
	}
	return CheckResult{Allowed: false, Remaining: remaining, Reason: ReasonLimitReached}
}

// Checker answers "may this restaurant create one more X" against the
// stores and registered counters. It never returns an error: any failure
// degrades to a fail-closed CheckResult so UI callers cannot crash on a
// flaky backend.
type Checker struct {
	subs     subscription.SubscriptionStore
	plans    subscription.PlanStore
	counters CounterRegistry
	clock    subscription.Clock
	log      *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock subscription.Clock) CheckerOption {
	return func(c *Checker) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

// NewChecker creates a usage checker. Panics when a required store is nil
// to fail fast during initialization.
func NewChecker(subs subscription.SubscriptionStore, plans subscription.PlanStore, counters CounterRegistry, opts ...CheckerOption) *Checker {
	if subs == nil {
		panic("usage: SubscriptionStore is required")
	}
	if plans == nil {
		panic("usage: PlanStore is required")
	}
	if counters == nil {
		counters = NewRegistry()
	}

	c := &Checker{
		subs:     subs,
		plans:    plans,
		counters: counters,
		clock:    subscription.SystemClock(),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckLimit decides whether the restaurant may create one more resource
// of the given kind under its effective limits.
func (c *Checker) CheckLimit(ctx context.Context, restaurantID int64, key limits.Key) CheckResult {
	now := c.clock.Now()

	sub, err := c.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return CheckResult{Allowed: false, Remaining: 0, Reason: ReasonNoSubscription}
		}
		return c.failClosed(ctx, restaurantID, key, err)
	}

	if subscription.Derive(sub, now) != subscription.StatusActive {
		return CheckResult{Allowed: false, Remaining: 0, Reason: ReasonNotActive}
	}

	limit, err := c.effectiveLimit(ctx, sub, key)
	if err != nil {
		return c.failClosed(ctx, restaurantID, key, err)
	}

	// Unlimited and flag limits never need a count.
	if limit.IsUnlimited() || limit.IsFlag() {
		return evaluateLimit(limit, 0)
	}

	counter, ok := c.counters[key]
	if !ok {
		return c.failClosed(ctx, restaurantID, key, errors.New("no usage counter registered"))
	}

	current, err := counter(ctx, restaurantID)
	if err != nil {
		return c.failClosed(ctx, restaurantID, key, err)
	}

	return evaluateLimit(limit, current)
}

// Remaining returns how many more resources of the given kind may be
// created; -1 when unlimited, 0 when the check fails for any reason.
func (c *Checker) Remaining(ctx context.Context, restaurantID int64, key limits.Key) int64 {
	return c.CheckLimit(ctx, restaurantID, key).Remaining
}

// AllUsage reports current usage against the effective limit for every
// countable resource with a registered counter. Counter failures leave the
// current value at zero rather than failing the whole report.
func (c *Checker) AllUsage(ctx context.Context, restaurantID int64) (map[limits.Key]Info, error) {
	sub, err := c.subs.GetByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	plan, err := c.planFor(ctx, sub)
	if err != nil {
		return nil, err
	}

	merged := subscription.MergedLimits(plan, sub)
	out := make(map[limits.Key]Info)
	for key, limit := range merged {
		if !limit.IsCount() {
			continue
		}
		info := Info{Limit: limit.AsCount()}
		if counter, ok := c.counters[key]; ok {
			if current, cerr := counter(ctx, restaurantID); cerr == nil {
				info.Current = current
			}
		}
		out[key] = info
	}
	return out, nil
}

func (c *Checker) effectiveLimit(ctx context.Context, sub *subscription.Subscription, key limits.Key) (limits.Value, error) {
	plan, err := c.planFor(ctx, sub)
	if err != nil {
		return limits.Value{}, err
	}
	return subscription.MergedLimits(plan, sub).Get(key), nil
}

func (c *Checker) planFor(ctx context.Context, sub *subscription.Subscription) (*subscription.Plan, error) {
	if sub.PlanID == 0 {
		return nil, nil
	}
	return c.plans.Get(ctx, sub.PlanID)
}

func (c *Checker) failClosed(ctx context.Context, restaurantID int64, key limits.Key, err error) CheckResult {
	c.log.WarnContext(ctx, "usage check degraded to fail-closed",
		slog.Int64("restaurant_id", restaurantID),
		slog.String("limit", string(key)),
		slog.Any("error", err))
	return CheckResult{Allowed: false, Remaining: 0, Reason: ReasonError}
}
