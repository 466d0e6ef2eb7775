package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/restomenu/menukit/pkg/subscription"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  *subscription.Subscription
		want subscription.Status
	}{
		{
			name: "nil subscription derives to none",
			sub:  nil,
			want: subscription.StatusNone,
		},
		{
			name: "active with future end date stays active",
			sub:  &subscription.Subscription{Status: subscription.StatusActive, EndDate: &future},
			want: subscription.StatusActive,
		},
		{
			name: "paused overrides expiry even past end date",
			sub:  &subscription.Subscription{Status: subscription.StatusPaused, EndDate: &past},
			want: subscription.StatusPaused,
		},
		{
			name: "active past end date derives to expired",
			sub:  &subscription.Subscription{Status: subscription.StatusActive, EndDate: &past},
			want: subscription.StatusExpired,
		},
		{
			name: "end date exactly now derives to expired",
			sub:  &subscription.Subscription{Status: subscription.StatusActive, EndDate: &now},
			want: subscription.StatusExpired,
		},
		{
			name: "trial passes through as raw status",
			sub:  &subscription.Subscription{Status: subscription.StatusTrial, EndDate: &future},
			want: subscription.StatusTrial,
		},
		{
			name: "trial past end date derives to expired",
			sub:  &subscription.Subscription{Status: subscription.StatusTrial, EndDate: &past},
			want: subscription.StatusExpired,
		},
		{
			name: "empty status with future end defaults to active",
			sub:  &subscription.Subscription{EndDate: &future},
			want: subscription.StatusActive,
		},
		{
			name: "no end date keeps stored status",
			sub:  &subscription.Subscription{Status: subscription.StatusActive},
			want: subscription.StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.Derive(tt.sub, now))
		})
	}
}

func TestDerive_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	justAfter := now.Add(time.Millisecond)
	sub := &subscription.Subscription{Status: subscription.StatusActive, EndDate: &justAfter}
	assert.Equal(t, subscription.StatusActive, subscription.Derive(sub, now))

	sub.EndDate = &now
	assert.Equal(t, subscription.StatusExpired, subscription.Derive(sub, now))
}

func TestDerive_Idempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	sub := &subscription.Subscription{Status: subscription.StatusActive, EndDate: &past}

	first := subscription.Derive(sub, now)
	second := subscription.Derive(sub, now)
	assert.Equal(t, first, second)
	// Derivation must not mutate the record.
	assert.Equal(t, subscription.StatusActive, sub.Status)
}

func TestSubscription_DaysRemainingAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	end := now.AddDate(0, 0, 10)
	sub := &subscription.Subscription{EndDate: &end}
	assert.Equal(t, 10, sub.DaysRemainingAt(now))

	// Partial days round up, even well under half a day.
	soon := now.Add(6 * time.Hour)
	sub.EndDate = &soon
	assert.Equal(t, 1, sub.DaysRemainingAt(now))

	past := now.Add(-time.Hour)
	sub.EndDate = &past
	assert.Equal(t, 0, sub.DaysRemainingAt(now))

	sub.EndDate = nil
	assert.Equal(t, 0, sub.DaysRemainingAt(now))
}
