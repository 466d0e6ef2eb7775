package subscription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/restomenu/menukit/pkg/limits"
	"github.com/restomenu/menukit/pkg/subscription"
)

// Mock implementations

type mockPlanStore struct {
	mock.Mock
}

func (m *mockPlanStore) Get(ctx context.Context, planID int64) (*subscription.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Plan), args.Error(1)
}

func (m *mockPlanStore) List(ctx context.Context) ([]subscription.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscription.Plan), args.Error(1)
}

type mockSubscriptionStore struct {
	mock.Mock
}

func (m *mockSubscriptionStore) Get(ctx context.Context, id int64) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionStore) GetByRestaurant(ctx context.Context, restaurantID int64) (*subscription.Subscription, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionStore) Update(ctx context.Context, id int64, patch subscription.Patch) (*subscription.Subscription, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockSubscriptionStore) List(ctx context.Context, filter subscription.ListFilter) ([]subscription.Subscription, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

type mockRestaurantStore struct {
	mock.Mock
}

func (m *mockRestaurantStore) SetActive(ctx context.Context, restaurantID int64, active bool) error {
	args := m.Called(ctx, restaurantID, active)
	return args.Error(0)
}

// Test helpers

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func growthPlan() *subscription.Plan {
	return &subscription.Plan{
		ID:    2,
		Name:  "Growth",
		Price: subscription.Money{Amount: 2900, Currency: "USD"},
		Limits: limits.Map{
			limits.KeyMaxProducts: limits.Count(100),
			limits.KeyMaxBranches: limits.Count(5),
			limits.KeyAPIAccess:   limits.Flag(true),
		},
		Features: []string{"Online menu", "QR codes"},
	}
}

func newTestService(t *testing.T, plans *mockPlanStore, subs *mockSubscriptionStore, restaurants *mockRestaurantStore) *subscription.Service {
	t.Helper()
	return subscription.NewService(plans, subs, restaurants,
		subscription.WithClock(subscription.FixedClock(testNow)))
}

func TestNewService_RequiresStores(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		subscription.NewService(nil, &mockSubscriptionStore{}, &mockRestaurantStore{})
	})
	assert.Panics(t, func() {
		subscription.NewService(&mockPlanStore{}, nil, &mockRestaurantStore{})
	})
	assert.Panics(t, func() {
		subscription.NewService(&mockPlanStore{}, &mockSubscriptionStore{}, nil)
	})
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	plans := new(mockPlanStore)
	subs := new(mockSubscriptionStore)
	restaurants := new(mockRestaurantStore)
	svc := newTestService(t, plans, subs, restaurants)

	plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
	subs.On("Create", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.RestaurantID == 7 &&
			sub.Status == subscription.StatusActive &&
			sub.PlanID == 2 &&
			sub.PlanName == "Growth" &&
			sub.StartDate.Equal(testNow) &&
			sub.EndDate != nil && sub.EndDate.Equal(testNow.AddDate(0, 0, 30))
	})).Return(&subscription.Subscription{ID: 1, RestaurantID: 7, Status: subscription.StatusActive, PlanID: 2}, nil)

	created, err := svc.Create(context.Background(), subscription.CreateParams{RestaurantID: 7, PlanID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	plans.AssertExpectations(t)
	subs.AssertExpectations(t)
}

func TestService_Create_PlanDuration(t *testing.T) {
	t.Parallel()

	plan := growthPlan()
	plan.DurationDays = 90

	plans := new(mockPlanStore)
	subs := new(mockSubscriptionStore)
	svc := newTestService(t, plans, subs, new(mockRestaurantStore))

	plans.On("Get", mock.Anything, int64(2)).Return(plan, nil)
	subs.On("Create", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
		return sub.EndDate.Equal(testNow.AddDate(0, 0, 90))
	})).Return(&subscription.Subscription{ID: 1}, nil)

	_, err := svc.Create(context.Background(), subscription.CreateParams{RestaurantID: 7, PlanID: 2})
	require.NoError(t, err)
	subs.AssertExpectations(t)
}

func TestService_Activate(t *testing.T) {
	t.Parallel()

	t.Run("creates when no subscription exists", func(t *testing.T) {
		t.Parallel()

		plans := new(mockPlanStore)
		subs := new(mockSubscriptionStore)
		restaurants := new(mockRestaurantStore)
		svc := newTestService(t, plans, subs, restaurants)

		plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(nil, subscription.ErrNotFound)
		subs.On("Create", mock.Anything, mock.Anything).
			Return(&subscription.Subscription{ID: 1, RestaurantID: 7, Status: subscription.StatusActive}, nil)
		restaurants.On("SetActive", mock.Anything, int64(7), true).Return(nil)

		sub, err := svc.Activate(context.Background(), 7, 2)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)

		restaurants.AssertExpectations(t)
	})

	t.Run("lapsed end date pushed forward", func(t *testing.T) {
		t.Parallel()

		lapsed := testNow.Add(-time.Hour)
		existing := &subscription.Subscription{
			ID: 3, RestaurantID: 7, Status: subscription.StatusExpired, PlanID: 2, EndDate: &lapsed,
		}

		plans := new(mockPlanStore)
		subs := new(mockSubscriptionStore)
		restaurants := new(mockRestaurantStore)
		svc := newTestService(t, plans, subs, restaurants)

		plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.Status != nil && *patch.Status == subscription.StatusActive &&
				patch.EndDate != nil && (*patch.EndDate).Equal(testNow.AddDate(0, 0, 30))
		})).Return(&subscription.Subscription{ID: 3, Status: subscription.StatusActive}, nil)
		restaurants.On("SetActive", mock.Anything, int64(7), true).Return(nil)

		_, err := svc.Activate(context.Background(), 7, 2)
		require.NoError(t, err)
		subs.AssertExpectations(t)
	})

	t.Run("remaining time preserved for active subscription", func(t *testing.T) {
		t.Parallel()

		remaining := testNow.AddDate(0, 0, 12)
		existing := &subscription.Subscription{
			ID: 3, RestaurantID: 7, Status: subscription.StatusActive, PlanID: 2, EndDate: &remaining,
		}

		plans := new(mockPlanStore)
		subs := new(mockSubscriptionStore)
		restaurants := new(mockRestaurantStore)
		svc := newTestService(t, plans, subs, restaurants)

		plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.EndDate == nil // untouched
		})).Return(existing, nil)
		restaurants.On("SetActive", mock.Anything, int64(7), true).Return(nil)

		_, err := svc.Activate(context.Background(), 7, 2)
		require.NoError(t, err)
		subs.AssertExpectations(t)
	})
}

func TestService_Renew_RestartsWindow(t *testing.T) {
	t.Parallel()

	// 12 days still remaining; renewal must discard them.
	remaining := testNow.AddDate(0, 0, 12)
	existing := &subscription.Subscription{
		ID: 3, RestaurantID: 7, Status: subscription.StatusActive, PlanID: 1, EndDate: &remaining,
	}

	plans := new(mockPlanStore)
	subs := new(mockSubscriptionStore)
	restaurants := new(mockRestaurantStore)
	svc := newTestService(t, plans, subs, restaurants)

	plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
	subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
	subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
		return patch.PlanID != nil && *patch.PlanID == 2 &&
			patch.StartDate != nil && patch.StartDate.Equal(testNow) &&
			patch.EndDate != nil && (*patch.EndDate).Equal(testNow.AddDate(0, 0, 30)) &&
			patch.PlanName != nil && *patch.PlanName == "Growth" &&
			patch.Features != nil
	})).Return(&subscription.Subscription{ID: 3, Status: subscription.StatusActive, PlanID: 2}, nil)
	restaurants.On("SetActive", mock.Anything, int64(7), true).Return(nil)

	sub, err := svc.Renew(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sub.PlanID)

	subs.AssertExpectations(t)
	restaurants.AssertExpectations(t)
}

func TestService_Pause(t *testing.T) {
	t.Parallel()

	t.Run("pauses an active subscription without touching the end date", func(t *testing.T) {
		t.Parallel()

		end := testNow.AddDate(0, 0, 10)
		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusActive, EndDate: &end}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.Status != nil && *patch.Status == subscription.StatusPaused && patch.EndDate == nil
		})).Return(&subscription.Subscription{ID: 3, Status: subscription.StatusPaused, EndDate: &end}, nil)

		sub, err := svc.Pause(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPaused, sub.Status)
	})

	t.Run("no subscription", func(t *testing.T) {
		t.Parallel()

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(nil, subscription.ErrNotFound)

		_, err := svc.Pause(context.Background(), 7)
		assert.ErrorIs(t, err, subscription.ErrNotFound)
	})

	t.Run("pausing an expired subscription is rejected", func(t *testing.T) {
		t.Parallel()

		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusExpired}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)

		_, err := svc.Pause(context.Background(), 7)
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	})
}

func TestService_Resume(t *testing.T) {
	t.Parallel()

	t.Run("resume with time remaining keeps end date", func(t *testing.T) {
		t.Parallel()

		end := testNow.AddDate(0, 0, 5)
		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusPaused, EndDate: &end}

		subs := new(mockSubscriptionStore)
		restaurants := new(mockRestaurantStore)
		svc := newTestService(t, new(mockPlanStore), subs, restaurants)

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.Status != nil && *patch.Status == subscription.StatusActive && patch.EndDate == nil
		})).Return(&subscription.Subscription{ID: 3, Status: subscription.StatusActive}, nil)
		restaurants.On("SetActive", mock.Anything, int64(7), true).Return(nil)

		_, err := svc.Resume(context.Background(), 7)
		require.NoError(t, err)
	})

	t.Run("resume after lapse pushes end date forward", func(t *testing.T) {
		t.Parallel()

		lapsed := testNow.Add(-48 * time.Hour)
		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusPaused, PlanID: 2, EndDate: &lapsed}

		plans := new(mockPlanStore)
		subs := new(mockSubscriptionStore)
		restaurants := new(mockRestaurantStore)
		svc := newTestService(t, plans, subs, restaurants)

		plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.EndDate != nil && (*patch.EndDate).Equal(testNow.AddDate(0, 0, 30))
		})).Return(&subscription.Subscription{ID: 3, Status: subscription.StatusActive}, nil)
		restaurants.On("SetActive", mock.Anything, int64(7), true).Return(nil)

		_, err := svc.Resume(context.Background(), 7)
		require.NoError(t, err)
	})

	t.Run("resuming a non-paused subscription is rejected", func(t *testing.T) {
		t.Parallel()

		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusActive}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)

		_, err := svc.Resume(context.Background(), 7)
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	})
}

func TestService_ExtendByDays(t *testing.T) {
	t.Parallel()

	t.Run("accumulates from a future end date", func(t *testing.T) {
		t.Parallel()

		end := testNow.AddDate(0, 0, 10)
		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusActive, EndDate: &end}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			// D + 30, not now + 30.
			return patch.EndDate != nil && (*patch.EndDate).Equal(end.AddDate(0, 0, 30))
		})).Return(existing, nil)

		_, err := svc.ExtendByDays(context.Background(), 7, 30)
		require.NoError(t, err)
		subs.AssertExpectations(t)
	})

	t.Run("counts from now when the end date already passed", func(t *testing.T) {
		t.Parallel()

		lapsed := testNow.Add(-time.Hour)
		existing := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusActive, EndDate: &lapsed}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(existing, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.EndDate != nil && (*patch.EndDate).Equal(testNow.AddDate(0, 0, 15))
		})).Return(existing, nil)

		_, err := svc.ExtendByDays(context.Background(), 7, 15)
		require.NoError(t, err)
	})

	t.Run("rejects non-positive day counts", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, new(mockPlanStore), new(mockSubscriptionStore), new(mockRestaurantStore))

		_, err := svc.ExtendByDays(context.Background(), 7, 0)
		assert.ErrorIs(t, err, subscription.ErrValidation)
	})
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	t.Run("plan change refreshes the denormalized snapshot", func(t *testing.T) {
		t.Parallel()

		cur := &subscription.Subscription{ID: 3, RestaurantID: 7, Status: subscription.StatusActive, PlanID: 1}
		newPlanID := int64(2)

		plans := new(mockPlanStore)
		subs := new(mockSubscriptionStore)
		svc := newTestService(t, plans, subs, new(mockRestaurantStore))

		plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
		subs.On("Get", mock.Anything, int64(3)).Return(cur, nil)
		subs.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(patch subscription.Patch) bool {
			return patch.PlanID != nil && *patch.PlanID == 2 &&
				patch.PlanName != nil && *patch.PlanName == "Growth" &&
				patch.PlanPrice != nil && patch.PlanPrice.Amount == 2900
		})).Return(&subscription.Subscription{ID: 3, PlanID: 2}, nil)

		updated, err := svc.Update(context.Background(), 3, subscription.Patch{PlanID: &newPlanID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.PlanID)
	})

	t.Run("end date not after start date is rejected", func(t *testing.T) {
		t.Parallel()

		cur := &subscription.Subscription{ID: 3, StartDate: testNow, Status: subscription.StatusActive}
		badEnd := testNow.Add(-time.Hour)
		badEndPtr := &badEnd

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("Get", mock.Anything, int64(3)).Return(cur, nil)

		_, err := svc.Update(context.Background(), 3, subscription.Patch{EndDate: &badEndPtr})
		assert.ErrorIs(t, err, subscription.ErrInvalidPeriod)
	})

	t.Run("disallowed status patch is rejected", func(t *testing.T) {
		t.Parallel()

		cur := &subscription.Subscription{ID: 3, Status: subscription.StatusExpired}
		paused := subscription.StatusPaused

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))

		subs.On("Get", mock.Anything, int64(3)).Return(cur, nil)

		_, err := svc.Update(context.Background(), 3, subscription.Patch{Status: &paused})
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	})
}

func TestService_HasBlockingActiveSubscription(t *testing.T) {
	t.Parallel()

	t.Run("active non-expired subscription blocks", func(t *testing.T) {
		t.Parallel()

		end := testNow.AddDate(0, 0, 10)
		sub := &subscription.Subscription{Status: subscription.StatusActive, EndDate: &end}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(sub, nil)

		blocked, err := svc.HasBlockingActiveSubscription(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("expired subscription does not block", func(t *testing.T) {
		t.Parallel()

		lapsed := testNow.Add(-time.Hour)
		sub := &subscription.Subscription{Status: subscription.StatusActive, EndDate: &lapsed}

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(sub, nil)

		blocked, err := svc.HasBlockingActiveSubscription(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("missing subscription does not block", func(t *testing.T) {
		t.Parallel()

		subs := new(mockSubscriptionStore)
		svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))
		subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(nil, subscription.ErrNotFound)

		blocked, err := svc.HasBlockingActiveSubscription(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, blocked)
	})
}

func TestService_EffectiveLimits(t *testing.T) {
	t.Parallel()

	end := testNow.AddDate(0, 0, 10)
	sub := &subscription.Subscription{
		RestaurantID: 7, Status: subscription.StatusActive, PlanID: 2, EndDate: &end,
		Limits: limits.Map{
			limits.KeyMaxProducts: limits.Count(200), // meaningful override
			limits.KeyMaxBranches: limits.Count(0),   // ignored, falls back to plan
			limits.KeyWhiteLabel:  limits.Flag(true), // flag override
		},
	}

	plans := new(mockPlanStore)
	subs := new(mockSubscriptionStore)
	svc := newTestService(t, plans, subs, new(mockRestaurantStore))

	plans.On("Get", mock.Anything, int64(2)).Return(growthPlan(), nil)
	subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(sub, nil)

	merged, err := svc.EffectiveLimits(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(200), merged.Get(limits.KeyMaxProducts).AsCount())
	assert.Equal(t, int64(5), merged.Get(limits.KeyMaxBranches).AsCount())
	assert.True(t, merged.Get(limits.KeyWhiteLabel).AsFlag())
	assert.Equal(t, "email", merged.Get(limits.KeySupportLevel).AsTier())
}

func TestService_UpstreamErrorsAreWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")

	subs := new(mockSubscriptionStore)
	svc := newTestService(t, new(mockPlanStore), subs, new(mockRestaurantStore))
	subs.On("GetByRestaurant", mock.Anything, int64(7)).Return(nil, boom)

	_, err := svc.Get(context.Background(), 7)
	require.ErrorIs(t, err, subscription.ErrUpstream)
	require.ErrorIs(t, err, boom)
}
