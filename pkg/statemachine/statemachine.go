package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State is a named state in the machine.
type State string

// Event is a named trigger for a transition.
type Event string

// Action runs side effects while a transition fires. Returning an error
// aborts the transition and leaves the machine in its current state.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard decides at runtime whether a transition may fire.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition is a single state change triggered by an event.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // all must pass
	Actions []Action // run in order before the state change
}

// Machine is a small finite state machine. Transitions are registered at
// construction time; Fire and CanFire are safe for concurrent use.
type Machine struct {
	initial State
	current State
	// [from][event] -> candidate transitions, first passing guard set wins
	transitions map[State]map[Event][]Transition
	mu          sync.RWMutex
}

// Option configures a machine during construction.
type Option func(*Machine) error

// New builds a machine starting at initial with the given transitions.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, fmt.Errorf("statemachine: initial state cannot be empty")
	}
	m := &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event][]Transition),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on configuration errors, for static machines
// wired at startup.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// WithTransition registers a transition.
func WithTransition(from, to State, event Event, guards []Guard, actions []Action) Option {
	return func(m *Machine) error {
		return m.add(Transition{From: from, To: to, Event: event, Guards: guards, Actions: actions})
	}
}

// WithTransitions registers several transitions at once.
func WithTransitions(transitions ...Transition) Option {
	return func(m *Machine) error {
		for i, t := range transitions {
			if err := m.add(t); err != nil {
				return fmt.Errorf("transition[%d] %s->%s on %s: %w", i, t.From, t.To, t.Event, err)
			}
		}
		return nil
	}
}

func (m *Machine) add(t Transition) error {
	if t.From == "" || t.To == "" || t.Event == "" {
		return ErrInvalidTransition
	}
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[Event][]Transition)
	}
	// Multiple transitions per from/event pair support guard-based branching.
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	return nil
}

// Current returns the machine's current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire attempts to apply event from the current state. Actions run before
// the state changes; an action error aborts the transition.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == "" {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.pick(ctx, event, data)
	if err != nil {
		return err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, m.current, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	return nil
}

// CanFire reports whether event would be accepted from the current state.
func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.pick(ctx, event, data)
	return err == nil
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

// pick finds the first transition for event whose guards all pass.
// Callers must hold at least a read lock.
func (m *Machine) pick(ctx context.Context, event Event, data any) (*Transition, error) {
	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return nil, &NoTransitionError{From: m.current, Event: event}
	}

	for i := range candidates {
		t := &candidates[i]
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return t, nil
		}
	}

	return nil, &TransitionRejectedError{From: m.current, Event: event}
}
