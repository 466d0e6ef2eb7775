package subscription

import (
	"slices"

	"github.com/restomenu/menukit/pkg/limits"
)

// DefaultPlanDurationDays is the validity window granted by activation
// when a plan does not define its own duration.
const DefaultPlanDurationDays = 30

// Plan is a named subscription tier with price, features, and resource
// limits. Plans referenced by active subscriptions stay immutable except
// through an explicit plan-update operation.
type Plan struct {
	ID           int64      `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Description  string     `json:"description" yaml:"description"`
	Price        Money      `json:"price" yaml:"price"`
	Features     []string   `json:"features" yaml:"features"` // ordered, human-readable
	Limits       limits.Map `json:"limits" yaml:"limits"`
	DurationDays int        `json:"durationDays" yaml:"durationDays"`
}

// Duration returns the plan's validity window in days, falling back to
// DefaultPlanDurationDays. A nil plan also yields the default so callers
// can activate plan-less subscriptions.
func (p *Plan) Duration() int {
	if p == nil || p.DurationDays <= 0 {
		return DefaultPlanDurationDays
	}
	return p.DurationDays
}

// Clone returns a deep copy of the plan. Prevents callers from mutating a
// shared catalog entry.
func (p Plan) Clone() Plan {
	out := p
	out.Features = slices.Clone(p.Features)
	out.Limits = p.Limits.Clone()
	return out
}

// MergedLimits resolves the effective limit set for a subscription against
// its plan. Either argument may be nil; the limits package default table
// fills the gaps.
func MergedLimits(plan *Plan, sub *Subscription) limits.Map {
	var base, override limits.Map
	if plan != nil {
		base = plan.Limits
	}
	if sub != nil {
		override = sub.Limits
	}
	return limits.Merge(base, override)
}
