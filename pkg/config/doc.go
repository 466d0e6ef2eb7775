// Package config loads typed configuration structs from environment
// variables, with optional .env support for local development. Parsed
// configs are cached per type so every component in the process reads one
// consistent configuration.
package config
