// Package notifications delivers pipeline events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Idea and error events can be toggled independently so a noisy inbox can
// keep failure alerts on while muting per-idea messages.
package notifications
