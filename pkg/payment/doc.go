// Package payment implements the manual payment review workflow for plan
// purchases. Restaurant owners submit a payment request against a plan;
// administrators approve or reject it. Approval commits the payment record
// first and only then renews the subscription, so a failed activation
// never silently discards an acknowledged payment.
package payment
