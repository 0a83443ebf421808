package services

import (
	"voicetovision/internal/logging"
	"voicetovision/internal/sanitize"
)

// SafePath canonicalizes path and confirms it stays inside baseDir. A
// violation is written to the security audit trail before the SecurityError
// is returned, so no call site can observe a traversal without it being
// recorded.
func SafePath(audit *logging.Audit, component, path, baseDir string) (string, error) {
	resolved, err := sanitize.WithinBase(path, baseDir)
	if err != nil {
		audit.PathViolation(component, path, baseDir)
		return "", Wrap(ErrSecurity, component, "path check", path, err)
	}
	return resolved, nil
}
