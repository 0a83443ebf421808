package sanitize

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase reports a path whose canonical form escapes its base
// directory. Callers must record the violation on the security audit trail
// before surfacing it.
var ErrOutsideBase = errors.New("path escapes base directory")

// WithinBase canonicalizes path and baseDir and returns the resolved path
// when it is equal to or a descendant of baseDir. Symlinks are resolved for
// the longest existing prefix of each path, so a link pointing out of the
// base cannot smuggle a path through.
func WithinBase(path, baseDir string) (string, error) {
	resolvedBase, err := canonicalize(baseDir)
	if err != nil {
		return "", err
	}
	resolvedPath, err := canonicalize(path)
	if err != nil {
		return "", err
	}
	if resolvedPath == resolvedBase {
		return resolvedPath, nil
	}
	if strings.HasPrefix(resolvedPath, resolvedBase+string(filepath.Separator)) {
		return resolvedPath, nil
	}
	return "", ErrOutsideBase
}

// canonicalize produces the absolute, symlink-resolved form of a path. The
// target itself may not exist yet (create paths); resolution then applies to
// its closest existing ancestor.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	// Walk up to the first existing ancestor, resolve that, and re-attach
	// the missing suffix.
	dir := abs
	var suffix []string
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		suffix = append(suffix, filepath.Base(dir))
		dir = parent
		if _, statErr := os.Stat(dir); statErr == nil {
			break
		}
	}
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}
	for i := len(suffix) - 1; i >= 0; i-- {
		resolvedDir = filepath.Join(resolvedDir, suffix[i])
	}
	return resolvedDir, nil
}
