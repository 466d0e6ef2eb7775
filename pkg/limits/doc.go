// Package limits resolves the effective resource limits for a restaurant
// subscription by merging plan-level limits with per-subscription
// overrides.
//
// A limit value is one of three variants: a numeric cap (with -1 meaning
// unlimited), a boolean feature toggle, or a string tier such as the
// support level. Overrides follow the "meaningful override" rule: an
// override replaces the plan value only when it is set, non-empty, and
// either a boolean or a non-zero number. A zero numeric override is
// treated as unconfigured and falls back to the plan value.
//
// The package also owns the canonical default table applied when a limit
// is absent from both the plan and the override. All other components
// must resolve limits through Merge rather than hardcoding fallbacks.
//
// Merge is a pure function with no I/O, safe for concurrent use.
package limits
