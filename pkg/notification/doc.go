// Package notification delivers payment review outcomes to restaurant
// owners. The default Noop implementation makes notifications optional;
// production deployments wire the Postmark-backed notifier.
package notification
