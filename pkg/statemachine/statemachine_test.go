package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restomenu/menukit/pkg/statemachine"
)

const (
	statePending  statemachine.State = "pending"
	stateApproved statemachine.State = "approved"
	stateRejected statemachine.State = "rejected"

	eventApprove statemachine.Event = "approve"
	eventReject  statemachine.Event = "reject"
)

func newApprovalMachine(t *testing.T, opts ...statemachine.Option) *statemachine.Machine {
	t.Helper()

	base := []statemachine.Option{
		statemachine.WithTransition(statePending, stateApproved, eventApprove, nil, nil),
		statemachine.WithTransition(statePending, stateRejected, eventReject, nil, nil),
	}
	m, err := statemachine.New(statePending, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	t.Run("valid transition", func(t *testing.T) {
		t.Parallel()

		m := newApprovalMachine(t)
		require.NoError(t, m.Fire(context.Background(), eventApprove, nil))
		assert.Equal(t, stateApproved, m.Current())
	})

	t.Run("terminal state refuses further events", func(t *testing.T) {
		t.Parallel()

		m := newApprovalMachine(t)
		require.NoError(t, m.Fire(context.Background(), eventReject, nil))

		err := m.Fire(context.Background(), eventApprove, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransition(err))
		assert.Equal(t, stateRejected, m.Current())
	})

	t.Run("empty event", func(t *testing.T) {
		t.Parallel()

		m := newApprovalMachine(t)
		assert.ErrorIs(t, m.Fire(context.Background(), "", nil), statemachine.ErrInvalidEvent)
	})
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()

	blocked := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
		return false
	}

	m, err := statemachine.New(statePending,
		statemachine.WithTransition(statePending, stateApproved, eventApprove,
			[]statemachine.Guard{blocked}, nil),
	)
	require.NoError(t, err)

	assert.False(t, m.CanFire(context.Background(), eventApprove, nil))

	err = m.Fire(context.Background(), eventApprove, nil)
	require.Error(t, err)
	assert.True(t, statemachine.IsRejected(err))
	assert.Equal(t, statePending, m.Current())
}

func TestMachine_GuardBranching(t *testing.T) {
	t.Parallel()

	// Two transitions for the same event; the first passing guard wins.
	wantAuto := false
	isAuto := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
		return wantAuto
	}

	m, err := statemachine.New(statePending,
		statemachine.WithTransitions(
			statemachine.Transition{
				From: statePending, To: stateRejected, Event: eventApprove,
				Guards: []statemachine.Guard{isAuto},
			},
			statemachine.Transition{
				From: statePending, To: stateApproved, Event: eventApprove,
			},
		),
	)
	require.NoError(t, err)

	require.NoError(t, m.Fire(context.Background(), eventApprove, nil))
	assert.Equal(t, stateApproved, m.Current())
}

func TestMachine_ActionFailureAbortsTransition(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
		return boom
	}

	m, err := statemachine.New(statePending,
		statemachine.WithTransition(statePending, stateApproved, eventApprove, nil,
			[]statemachine.Action{failing}),
	)
	require.NoError(t, err)

	err = m.Fire(context.Background(), eventApprove, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, statePending, m.Current())
}

func TestMachine_Reset(t *testing.T) {
	t.Parallel()

	m := newApprovalMachine(t)
	require.NoError(t, m.Fire(context.Background(), eventApprove, nil))

	m.Reset()
	assert.Equal(t, statePending, m.Current())
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New("")
	assert.Error(t, err)

	_, err = statemachine.New(statePending,
		statemachine.WithTransition("", stateApproved, eventApprove, nil, nil))
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	assert.Panics(t, func() {
		statemachine.MustNew(statePending,
			statemachine.WithTransition(statePending, "", eventApprove, nil, nil))
	})
}
