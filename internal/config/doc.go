// Package config loads, normalizes, and validates the TOML configuration
// consumed by every component. The loaded Config is treated as immutable:
// it is constructed once at startup and passed explicitly into each
// constructor, never read from a global.
package config
