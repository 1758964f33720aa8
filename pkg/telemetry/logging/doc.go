// Package logging configures the daemon's structured logger.
//
// The daemon logs through log/slog. This package turns the logging section
// of the configuration into a handler (JSON or text, leveled) and installs
// it as the process default; every component then derives its own logger
// with a component attribute:
//
//	logger := slog.Default().With("component", "retention.scheduler")
//
// SetDefault must run before components are constructed, since they capture
// the default logger at construction time.
package logging
