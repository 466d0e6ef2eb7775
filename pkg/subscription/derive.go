package subscription

import "time"

// Derive computes the live status of a subscription at now without any
// I/O. The rules, in order:
//
//  1. no subscription record derives to none
//  2. paused wins over everything, including a past end date
//  3. an end date at or before now derives to expired
//  4. otherwise the stored status, or active when the status is empty
//
// Derive is pure and idempotent. Callers re-evaluate it against a ticking
// clock and persist an observed expired transition back to storage; see
// the expiry package.
func Derive(s *Subscription, now time.Time) Status {
	if s == nil {
		return StatusNone
	}
	if s.Status == StatusPaused {
		return StatusPaused
	}
	if s.HasEnded(now) {
		return StatusExpired
	}
	if s.Status != "" {
		return s.Status
	}
	return StatusActive
}
