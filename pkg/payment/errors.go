package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the payment request does not exist.
	ErrNotFound = errors.New("payment request not found")

	// ErrAlreadyProcessed indicates a review decision was attempted on a
	// request that already reached a terminal state.
	ErrAlreadyProcessed = errors.New("payment request already processed")

	// ErrActiveSubscription blocks submission while the restaurant already
	// has an active subscription.
	ErrActiveSubscription = errors.New("restaurant already has an active subscription")

	// ErrValidation indicates the submitted request is malformed.
	ErrValidation = errors.New("payment request validation failed")

	// ErrUpstream wraps storage failures so callers can distinguish
	// infrastructure faults from domain rejections.
	ErrUpstream = errors.New("payment upstream failure")
)

// PartialApprovalError reports an approval whose payment record was
// committed but whose subscription activation failed. The payment is NOT
// rolled back: the money has been acknowledged, so the operator resolves
// the activation manually instead of silently un-approving the payment.
type PartialApprovalError struct {
	Payment       *Request
	ActivationErr error
}

func (e *PartialApprovalError) Error() string {
	return fmt.Sprintf("payment %s approved but subscription activation failed: %v",
		e.Payment.ID, e.ActivationErr)
}

func (e *PartialApprovalError) Unwrap() error { return e.ActivationErr }

// IsPartialApproval reports whether err carries a committed-but-unactivated
// approval, and returns the typed error when it does.
func IsPartialApproval(err error) (*PartialApprovalError, bool) {
	var pe *PartialApprovalError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func upstream(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUpstream, err)
}
