package subscription

import "time"

// Clock supplies the current time. Injectable so lifecycle rules and
// status derivation stay testable against fixed times.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock reading the wall clock in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// FixedClock returns a Clock frozen at t, for tests.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
