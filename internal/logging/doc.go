// Package logging assembles structured slog loggers and attribute helpers
// used across airlog components.
//
// It centralizes level and output plumbing and standardizes field names so
// every component tags log lines the same way. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
