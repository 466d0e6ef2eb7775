// Package postgres implements the domain store interfaces on PostgreSQL
// via pgx, with goose-managed embedded migrations. Limit maps are stored
// as JSONB; plan features as text arrays.
package postgres
