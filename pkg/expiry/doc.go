// Package expiry reconciles stored subscription statuses with their
// validity windows. Reads derive expiry on the fly; the sweeper exists so
// storage and listings eventually agree with what reads already report.
package expiry
