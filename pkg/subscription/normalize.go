package subscription

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/restomenu/menukit/pkg/limits"
)

// Upstream payloads are loosely typed: the same logical field arrives
// under mixed naming conventions and mixed scalar shapes. Everything is
// normalized here, once, into the canonical types; the rest of the core
// never branches on alternate spellings.

// NormalizePlanID collapses the observed upstream plan-id shapes (null,
// empty string, numeric string, float, int) into a single canonical int64,
// with 0 meaning "no plan". Non-numeric input fails the validation family.
func NormalizePlanID(raw any) (int64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPlanID, v)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPlanID, v.String())
		}
		return n, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPlanID, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidPlanID, raw)
	}
}

// ParseTimestamp accepts the timestamp shapes seen in upstream payloads:
// native time values, epoch seconds (bare or wrapped in a seconds object),
// and ISO-8601 strings. Unparsable input reports ok=false and is treated
// as an absent timestamp by callers.
func ParseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return ParseTimestamp(*v)
	case int64:
		return epochSeconds(float64(v))
	case int:
		return epochSeconds(float64(v))
	case float64:
		return epochSeconds(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return epochSeconds(f)
	case map[string]any:
		// Wrapped epoch-seconds objects: {seconds: n} or {_seconds: n}.
		for _, key := range []string{"seconds", "_seconds"} {
			if inner, ok := v[key]; ok {
				return ParseTimestamp(inner)
			}
		}
		return time.Time{}, false
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func epochSeconds(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), true
}

// FromPayload adapts one raw upstream subscription payload into the
// canonical Subscription. Mixed-case field aliases are resolved here only.
func FromPayload(raw map[string]any) (*Subscription, error) {
	if raw == nil {
		return nil, nil
	}

	planID, err := NormalizePlanID(pick(raw, "planId", "plan_id", "planID"))
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:           asInt64(pick(raw, "id", "subscriptionId", "subscription_id")),
		RestaurantID: asInt64(pick(raw, "restaurantId", "restaurant_id")),
		Status:       Status(asString(pick(raw, "status"))),
		PlanID:       planID,
		PlanName:     asString(pick(raw, "planName", "plan_name")),
		Features:     asStrings(pick(raw, "features")),
	}

	if amount := pick(raw, "planPrice", "plan_price"); amount != nil {
		sub.PlanPrice = Money{Amount: asInt64(amount), Currency: asString(pick(raw, "currency"))}
	}
	if t, ok := ParseTimestamp(pick(raw, "startDate", "start_date")); ok {
		sub.StartDate = t
	}
	if t, ok := ParseTimestamp(pick(raw, "endDate", "end_date")); ok {
		sub.EndDate = &t
	}
	if lm, ok := pick(raw, "limits").(map[string]any); ok {
		sub.Limits = limits.MapFromAny(lm)
	}
	if t, ok := ParseTimestamp(pick(raw, "createdAt", "created_at")); ok {
		sub.CreatedAt = t
	}
	if t, ok := ParseTimestamp(pick(raw, "updatedAt", "updated_at")); ok {
		sub.UpdatedAt = t
	}

	return sub, nil
}

// PlanFromPayload adapts one raw upstream plan payload into the canonical
// Plan.
func PlanFromPayload(raw map[string]any) (*Plan, error) {
	if raw == nil {
		return nil, nil
	}

	id, err := NormalizePlanID(pick(raw, "id", "planId", "plan_id"))
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:          id,
		Name:        asString(pick(raw, "name")),
		Description: asString(pick(raw, "description")),
		Features:    asStrings(pick(raw, "features")),
	}
	if amount := pick(raw, "price"); amount != nil {
		plan.Price = Money{Amount: asInt64(amount), Currency: asString(pick(raw, "currency"))}
	}
	if lm, ok := pick(raw, "limits").(map[string]any); ok {
		plan.Limits = limits.MapFromAny(lm)
	}
	if d := asInt64(pick(raw, "durationDays", "duration_days")); d > 0 {
		plan.DurationDays = int(d)
	}

	return plan, nil
}

func pick(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asInt64(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}

func asString(raw any) string {
	s, _ := raw.(string)
	return s
}

func asStrings(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
