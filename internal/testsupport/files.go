package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteAudioFixture creates a fake audio file of the given size under dir
// and returns its path.
func WriteAudioFixture(t testing.TB, dir, name string, size int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write audio fixture: %v", err)
	}
	return path
}
