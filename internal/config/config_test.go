package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsApplied(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.System.MaxAudioSizeMB != 25 {
		t.Errorf("max_audio_size_mb = %d, want 25", cfg.System.MaxAudioSizeMB)
	}
	if cfg.System.LinkExpiryMinutes != 30 {
		t.Errorf("link_expiry_minutes = %d, want 30", cfg.System.LinkExpiryMinutes)
	}
	if cfg.System.MaxConcurrentJobs != 2 {
		t.Errorf("max_concurrent_jobs = %d, want 2", cfg.System.MaxConcurrentJobs)
	}
	if cfg.System.MaxFilenameLength != 50 {
		t.Errorf("max_filename_length = %d, want 50", cfg.System.MaxFilenameLength)
	}
	if cfg.System.AutoDeleteEnabled {
		t.Error("auto_delete_enabled should default to false")
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[system]
base_folder = "` + filepath.Join(dir, "ideas") + `"
temp_folder = "` + filepath.Join(dir, "tmp") + `"
inbox_dir = "` + filepath.Join(dir, "inbox") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
max_concurrent_jobs = 4
supported_formats = ["mp3", ".WAV"]

[auth]
authorized_users = ["1", " 2 ", ""]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.System.MaxConcurrentJobs != 4 {
		t.Errorf("max_concurrent_jobs = %d, want 4", cfg.System.MaxConcurrentJobs)
	}
	// Extensions are normalized to lowercase with a leading dot.
	if !cfg.SupportsFormat(".mp3") || !cfg.SupportsFormat(".wav") {
		t.Errorf("supported formats not normalized: %v", cfg.System.SupportedFormats)
	}
	if cfg.SupportsFormat(".flac") {
		t.Error("unexpected format accepted")
	}
	if got := cfg.Auth.AuthorizedUsers; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("authorized_users = %v, want [1 2]", got)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestValidateRejectsInboxEqualBase(t *testing.T) {
	cfg := Default()
	cfg.System.BaseFolder = "/tmp/same"
	cfg.System.InboxDir = "/tmp/same"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for inbox == base")
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := os.WriteFile(path, []byte(SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

func TestMaxAudioSizeBytes(t *testing.T) {
	cfg := Default()
	if got := cfg.MaxAudioSizeBytes(); got != 25*1024*1024 {
		t.Fatalf("MaxAudioSizeBytes = %d", got)
	}
}
