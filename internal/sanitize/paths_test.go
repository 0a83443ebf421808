package sanitize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWithinBaseAcceptsDescendants(t *testing.T) {
	base := t.TempDir()
	child := filepath.Join(base, "idea", "resumen.txt")

	resolved, err := WithinBase(child, base)
	if err != nil {
		t.Fatalf("WithinBase: %v", err)
	}
	if filepath.Base(resolved) != "resumen.txt" {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
}

func TestWithinBaseAcceptsBaseItself(t *testing.T) {
	base := t.TempDir()
	if _, err := WithinBase(base, base); err != nil {
		t.Fatalf("WithinBase(base, base): %v", err)
	}
}

func TestWithinBaseRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(base, "..", "..", "etc", "passwd")

	if _, err := WithinBase(outside, base); !errors.Is(err, ErrOutsideBase) {
		t.Fatalf("expected ErrOutsideBase, got %v", err)
	}
}

func TestWithinBaseRejectsSibling(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "ideas")
	sibling := filepath.Join(parent, "ideas_evil", "x")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := WithinBase(sibling, base); !errors.Is(err, ErrOutsideBase) {
		t.Fatalf("expected ErrOutsideBase for sibling prefix, got %v", err)
	}
}

func TestWithinBaseResolvesSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "ideas")
	target := filepath.Join(root, "elsewhere")
	for _, dir := range []string{base, target} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	link := filepath.Join(base, "escape")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := WithinBase(filepath.Join(link, "file.txt"), base); !errors.Is(err, ErrOutsideBase) {
		t.Fatalf("expected ErrOutsideBase through symlink, got %v", err)
	}
}

func TestWithinBaseAllowsNotYetExistingTarget(t *testing.T) {
	base := t.TempDir()
	future := filepath.Join(base, "new_idea", "analisis.json")

	if _, err := WithinBase(future, base); err != nil {
		t.Fatalf("WithinBase on missing descendant: %v", err)
	}
}
