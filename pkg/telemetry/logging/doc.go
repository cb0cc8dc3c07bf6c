// Package logging configures the process-wide structured logger.
//
// Meridian logs through log/slog; components derive their own loggers with
// slog.Default().With("component", ...). This package owns handler
// construction (level, format, source annotation) and installing the
// resulting logger as the process default.
package logging
