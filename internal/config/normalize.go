package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSystem()
	c.normalizeWhisper()
	c.normalizeOllama()
	c.normalizeAuth()
	c.normalizeLogging()
	c.normalizeWorkflow()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.System.BaseFolder) == "" {
		c.System.BaseFolder = defaultBaseFolder
	}
	if c.System.BaseFolder, err = expandPath(c.System.BaseFolder); err != nil {
		return fmt.Errorf("system.base_folder: %w", err)
	}
	if strings.TrimSpace(c.System.TempFolder) == "" {
		c.System.TempFolder = defaultTempFolder
	}
	if c.System.TempFolder, err = expandPath(c.System.TempFolder); err != nil {
		return fmt.Errorf("system.temp_folder: %w", err)
	}
	if strings.TrimSpace(c.System.InboxDir) == "" {
		c.System.InboxDir = defaultInboxDir
	}
	if c.System.InboxDir, err = expandPath(c.System.InboxDir); err != nil {
		return fmt.Errorf("system.inbox_dir: %w", err)
	}
	if strings.TrimSpace(c.System.LogDir) == "" {
		c.System.LogDir = defaultLogDir
	}
	if c.System.LogDir, err = expandPath(c.System.LogDir); err != nil {
		return fmt.Errorf("system.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSystem() {
	if c.System.MaxAudioSizeMB <= 0 {
		c.System.MaxAudioSizeMB = defaultMaxAudioSizeMB
	}
	if c.System.MaxFilenameLength <= 0 {
		c.System.MaxFilenameLength = defaultMaxFilenameLength
	}
	if c.System.LinkExpiryMinutes <= 0 {
		c.System.LinkExpiryMinutes = defaultLinkExpiryMinutes
	}
	if c.System.MaxConcurrentJobs <= 0 {
		c.System.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.System.QueueCapacity <= 0 {
		c.System.QueueCapacity = defaultQueueCapacity
	}
	if len(c.System.SupportedFormats) == 0 {
		c.System.SupportedFormats = defaultSupportedFormats()
	}
	normalized := make([]string, 0, len(c.System.SupportedFormats))
	for _, format := range c.System.SupportedFormats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		if !strings.HasPrefix(format, ".") {
			format = "." + format
		}
		normalized = append(normalized, format)
	}
	c.System.SupportedFormats = normalized
}

func (c *Config) normalizeWhisper() {
	if strings.TrimSpace(c.Whisper.Binary) == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
	if strings.TrimSpace(c.Whisper.Model) == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeout
	}
	c.Whisper.Language = strings.TrimSpace(c.Whisper.Language)
}

func (c *Config) normalizeOllama() {
	c.Ollama.BaseURL = strings.TrimRight(strings.TrimSpace(c.Ollama.BaseURL), "/")
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = defaultOllamaBaseURL
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		c.Ollama.Model = defaultOllamaModel
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		c.Ollama.TimeoutSeconds = defaultOllamaTimeout
	}
}

func (c *Config) normalizeAuth() {
	c.Auth.AuthorizedUsers = trimNonEmpty(c.Auth.AuthorizedUsers)
	c.Auth.Admins = trimNonEmpty(c.Auth.Admins)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SweepIntervalSeconds <= 0 {
		c.Workflow.SweepIntervalSeconds = defaultSweepInterval
	}
	if c.Workflow.InboxSettleMillis <= 0 {
		c.Workflow.InboxSettleMillis = defaultInboxSettle
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
