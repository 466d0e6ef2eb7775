// Package statemachine provides a small finite state machine with guarded
// transitions and pre-transition actions.
//
// States and events are plain strings. Transitions are registered at
// construction time through functional options and cannot change
// afterwards; Fire and CanFire are safe for concurrent use. When several
// transitions share a from/event pair, the first one whose guards all pass
// wins, which allows guard-based branching with priority ordering.
//
// The payment approval workflow and the subscription lifecycle build their
// status machines on this package.
package statemachine
