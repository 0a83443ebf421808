package testsupport

import (
	"path/filepath"
	"testing"

	"voicetovision/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.System.BaseFolder = filepath.Join(base, "ideas")
	cfg.System.TempFolder = filepath.Join(base, "temp")
	cfg.System.InboxDir = filepath.Join(base, "inbox")
	cfg.System.LogDir = filepath.Join(base, "logs")
	cfg.Auth.AuthorizedUsers = []string{"tester"}
	cfg.Auth.Admins = []string{"admin"}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithMaxAudioSizeMB overrides the upload size ceiling.
func WithMaxAudioSizeMB(mb int) ConfigOption {
	return func(c *config.Config) {
		c.System.MaxAudioSizeMB = mb
	}
}

// WithLinkExpiryMinutes overrides the download token lifetime.
func WithLinkExpiryMinutes(minutes int) ConfigOption {
	return func(c *config.Config) {
		c.System.LinkExpiryMinutes = minutes
	}
}

// WithMaxConcurrentJobs overrides the worker pool size.
func WithMaxConcurrentJobs(n int) ConfigOption {
	return func(c *config.Config) {
		c.System.MaxConcurrentJobs = n
	}
}

// WithQueueCapacity overrides the pending job ceiling.
func WithQueueCapacity(n int) ConfigOption {
	return func(c *config.Config) {
		c.System.QueueCapacity = n
	}
}
