package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Audit is the security audit trail. Path-containment violations and
// unauthorized privileged actions are recorded here before the error is
// surfaced, so a failed check is never silently swallowed.
type Audit struct {
	logger *slog.Logger
}

// NewAudit opens (or creates) the append-only audit log under logDir.
func NewAudit(logDir string) (*Audit, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure audit log directory: %w", err)
	}
	path := filepath.Join(logDir, "security_audit.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	levelVar := new(slog.LevelVar)
	return &Audit{logger: slog.New(newJSONHandler(file, levelVar))}, nil
}

// NewNopAudit returns an audit trail that discards records. Tests only.
func NewNopAudit() *Audit {
	return &Audit{logger: NewNop()}
}

// PathViolation records a path that resolved outside its base directory.
func (a *Audit) PathViolation(component, path, base string) {
	if a == nil || a.logger == nil {
		return
	}
	a.logger.Warn("path escapes base directory",
		String("event", "path_violation"),
		String("component", component),
		String("path", path),
		String("base", base),
	)
}

// Unauthorized records a privileged action attempted without permission.
func (a *Audit) Unauthorized(component, action, userID string) {
	if a == nil || a.logger == nil {
		return
	}
	a.logger.Warn("unauthorized action",
		String("event", "unauthorized"),
		String("component", component),
		String("action", action),
		String("user_id", userID),
	)
}
