// Package rediscache caches usage snapshots in Redis so limit checks do
// not hammer the primary store on every creation attempt.
package rediscache
