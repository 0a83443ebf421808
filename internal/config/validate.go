package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSystem(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateOllama(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSystem() error {
	if strings.TrimSpace(c.System.BaseFolder) == "" {
		return errors.New("system.base_folder is required")
	}
	if c.System.BaseFolder == c.System.InboxDir {
		return errors.New("system.inbox_dir must differ from system.base_folder")
	}
	if c.System.MaxFilenameLength < 8 {
		return fmt.Errorf("system.max_filename_length must be at least 8, got %d", c.System.MaxFilenameLength)
	}
	for _, format := range c.System.SupportedFormats {
		if !strings.HasPrefix(format, ".") || len(format) < 2 {
			return fmt.Errorf("system.supported_formats entry %q is not a file extension", format)
		}
	}
	return nil
}

func (c *Config) validateWhisper() error {
	if strings.TrimSpace(c.Whisper.Binary) == "" {
		return errors.New("whisper.binary is required")
	}
	return nil
}

func (c *Config) validateOllama() error {
	if !strings.HasPrefix(c.Ollama.BaseURL, "http://") && !strings.HasPrefix(c.Ollama.BaseURL, "https://") {
		return fmt.Errorf("ollama.base_url must be an http(s) URL, got %q", c.Ollama.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
