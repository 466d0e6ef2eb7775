// Package usage gates resource creation against a restaurant's effective
// subscription limits.
//
// A check passes only when the subscription's derived status is active and
// the current count stays below the effective limit for the resource,
// where -1 marks an unlimited cap. Checks are advisory gates for the UI,
// not security boundaries: every failure, from a missing subscription to a
// flaky store, degrades to a fail-closed CheckResult with a reason string
// instead of an error.
//
// Current counts come from CounterFuncs registered per limit key, usually
// wired to a SnapshotSource owned by whatever system counts products,
// categories, branches, and orders.
package usage
