// Package logger builds configured log/slog loggers for the platform
// services: JSON for production, text for development, with a service
// attribute stamped on every record.
package logger
