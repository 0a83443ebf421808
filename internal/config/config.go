package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// System contains the core folder layout and ingestion limits.
type System struct {
	BaseFolder        string   `toml:"base_folder"`
	TempFolder        string   `toml:"temp_folder"`
	InboxDir          string   `toml:"inbox_dir"`
	LogDir            string   `toml:"log_dir"`
	MaxAudioSizeMB    int      `toml:"max_audio_size_mb"`
	MaxFilenameLength int      `toml:"max_filename_length"`
	LinkExpiryMinutes int      `toml:"link_expiry_minutes"`
	MaxConcurrentJobs int      `toml:"max_concurrent_jobs"`
	QueueCapacity     int      `toml:"queue_capacity"`
	AutoDeleteEnabled bool     `toml:"auto_delete_enabled"`
	SupportedFormats  []string `toml:"supported_formats"`
}

// Whisper contains configuration for the external transcription tool.
type Whisper struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Ollama contains configuration for the external analysis model.
type Ollama struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Auth contains the user allowlists consulted before acting on behalf of a
// submitter.
type Auth struct {
	AuthorizedUsers []string `toml:"authorized_users"`
	Admins          []string `toml:"admins"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Ideas          bool   `toml:"ideas"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
	InboxSettleMillis    int `toml:"inbox_settle_millis"`
}

// Config is the immutable root configuration constructed once at startup
// and passed explicitly into each component's constructor.
type Config struct {
	System        System        `toml:"system"`
	Whisper       Whisper       `toml:"whisper"`
	Ollama        Ollama        `toml:"ollama"`
	Auth          Auth          `toml:"auth"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Workflow      Workflow      `toml:"workflow"`
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voicetovision/config.toml")
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("v2v.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs to operate.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.System.BaseFolder, c.System.TempFolder, c.System.InboxDir, c.System.LogDir, c.DownloadsDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DownloadsDir returns the scratch directory used for download bundles.
func (c *Config) DownloadsDir() string {
	if strings.TrimSpace(c.System.TempFolder) == "" {
		return ""
	}
	return filepath.Join(c.System.TempFolder, "downloads")
}

// MaxAudioSizeBytes returns the audio upload ceiling in bytes.
func (c *Config) MaxAudioSizeBytes() int64 {
	return int64(c.System.MaxAudioSizeMB) * 1024 * 1024
}

// SupportsFormat reports whether a file extension (with leading dot) is an
// accepted audio format.
func (c *Config) SupportsFormat(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, allowed := range c.System.SupportedFormats {
		if strings.EqualFold(strings.TrimSpace(allowed), ext) {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
