// Package memory provides mutex-guarded in-memory implementations of the
// domain store interfaces. Used for local development and tests that need
// real store semantics without a database.
package memory
