// Package subscription is the reconciliation core for restaurant
// subscriptions: canonical domain types, live status derivation, upstream
// payload normalization, and the lifecycle manager that orchestrates
// create, activate, pause, resume, extend, and update operations.
//
// # Status derivation
//
// The persisted status field is only part of the truth. Derive combines
// the stored status with the end date and a clock reading into the live
// status; paused always wins over expiry, and an end date at or before
// now derives to expired. Derivation is pure: a periodic caller (see the
// expiry package) re-evaluates it and persists observed transitions.
//
// # Lifecycle
//
// The Service depends on the abstract PlanStore, SubscriptionStore, and
// RestaurantStore contracts. Activation keeps the owning restaurant's
// active flag consistent and enforces the invariant that a persisted end
// date always lies strictly after the start date, pushing lapsed end
// dates forward by the plan duration. Renew grants a fresh window from
// now regardless of remaining time, the rule manual payment approval
// relies on.
//
// At most one current subscription exists per restaurant, maintained by
// the look-up-then-upsert convention rather than a storage constraint.
// Two concurrent activations for the same restaurant can therefore race;
// storage backends should add a uniqueness constraint when that window
// matters.
//
// # Normalization
//
// Upstream payloads use mixed naming conventions and loosely typed
// scalars. FromPayload, PlanFromPayload, NormalizePlanID, and
// ParseTimestamp collapse those shapes into the canonical types at the
// boundary; internal logic never branches on alternate spellings.
package subscription
