package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/restomenu/menukit/pkg/subscription"
)

// RequestFromPayload adapts one raw upstream payment payload into the
// canonical Request. Mixed-case field aliases are resolved here only.
func RequestFromPayload(raw map[string]any) (*Request, error) {
	if raw == nil {
		return nil, nil
	}

	planID, err := subscription.NormalizePlanID(pick(raw, "planId", "plan_id", "planID"))
	if err != nil {
		return nil, err
	}

	req := &Request{
		RestaurantID: asInt64(pick(raw, "restaurantId", "restaurant_id")),
		UserID:       asInt64(pick(raw, "userId", "user_id")),
		PlanID:       planID,
		PlanName:     asString(pick(raw, "planName", "plan_name")),
		Status:       Status(asString(pick(raw, "status"))),
		AdminNotes:   asString(pick(raw, "adminNotes", "admin_notes", "notes")),
	}
	if req.Status == "" {
		req.Status = StatusPending
	}

	if id := asString(pick(raw, "id", "paymentId", "payment_id")); id != "" {
		parsed, perr := uuid.Parse(id)
		if perr != nil {
			return nil, fmt.Errorf("%w: invalid payment id %q", ErrValidation, id)
		}
		req.ID = parsed
	}

	if amount := pick(raw, "amount"); amount != nil {
		req.Amount = subscription.Money{
			Amount:   asInt64(amount),
			Currency: asString(pick(raw, "currency")),
		}
	}

	if method, ok := pick(raw, "paymentMethod", "payment_method", "method").(map[string]any); ok {
		req.Method = MethodSnapshot{
			Name:    asString(pick(method, "name")),
			Type:    asString(pick(method, "type")),
			Account: asString(pick(method, "account", "accountNumber", "account_number")),
		}
	}

	if t, ok := subscription.ParseTimestamp(pick(raw, "createdAt", "created_at")); ok {
		req.CreatedAt = t
	}
	if t, ok := subscription.ParseTimestamp(pick(raw, "processedAt", "processed_at")); ok {
		req.ProcessedAt = &t
	}

	return req, nil
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
