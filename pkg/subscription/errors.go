package subscription

import "errors"

var (
	// Not-found family: a referenced record does not exist.
	ErrNotFound           = errors.New("subscription not found")
	ErrPlanNotFound       = errors.New("subscription plan not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")

	// ErrInvalidTransition marks a status change the lifecycle state
	// machine does not permit.
	ErrInvalidTransition = errors.New("subscription status transition not allowed")

	// Validation family: malformed input after normalization attempts.
	ErrValidation    = errors.New("invalid subscription input")
	ErrInvalidPlanID = errors.New("plan id must be numeric")
	ErrInvalidPeriod = errors.New("subscription end date must be after start date")

	// ErrUpstream wraps store call failures (network/storage). The
	// underlying cause is always joined in.
	ErrUpstream = errors.New("subscription store call failed")
)

// upstream wraps a store failure while keeping sentinel errors from the
// store surface detectable with errors.Is.
func upstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPlanNotFound) || errors.Is(err, ErrRestaurantNotFound) {
		return err
	}
	return errors.Join(ErrUpstream, err)
}
