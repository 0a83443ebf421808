// Package logging wires slog loggers for the daemon and CLI, plus the
// append-only security audit trail required by the path-containment and
// authorization checks.
package logging
