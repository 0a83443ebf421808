// Package services defines the shared error taxonomy for the ingestion
// pipeline and helpers for classifying failures consistently across
// components.
//
// Every fallible operation in the core wraps its errors with one of the
// exported sentinel markers so boundaries (CLI, daemon, notifications) can
// map them to user-facing behavior without string matching.
package services
