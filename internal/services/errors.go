package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad input shape or size: unsupported audio,
	// oversized uploads, malformed analysis payloads.
	ErrValidation = errors.New("validation error")
	// ErrSecurity marks path traversal attempts and unauthorized
	// privileged actions. Always audited before being surfaced.
	ErrSecurity = errors.New("security error")
	// ErrNotFound marks lookups of unknown ideas, jobs, or tokens.
	ErrNotFound = errors.New("not found")
	// ErrExpiredToken marks download tokens past their expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrQueueFull marks a submission rejected because the job queue is
	// at capacity.
	ErrQueueFull = errors.New("queue at capacity")
	// ErrPersistence marks index or filesystem write failures. The
	// in-flight operation is aborted and its disk side effects rolled
	// back; it is never retried automatically.
	ErrPersistence = errors.New("persistence error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTerminalForUser reports whether an error should be presented to the
// submitter as-is rather than logged as an internal failure.
func IsTerminalForUser(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrQueueFull)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
