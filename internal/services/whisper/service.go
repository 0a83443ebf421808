package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"voicetovision/internal/config"
)

// Service runs the whisper CLI for audio transcription.
type Service struct {
	cfg           config.Whisper
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg config.Whisper) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Result contains the outcome of a transcription.
type Result struct {
	Text     string
	Language string
}

// Transcribe runs whisper against the audio file and returns the transcript
// plus the detected language. workDir receives whisper's output files; it is
// created if missing.
func (s *Service) Transcribe(ctx context.Context, audioPath, workDir string) (Result, error) {
	var result Result

	if audioPath == "" {
		return result, fmt.Errorf("transcribe: audio path required")
	}
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure work dir: %w", err)
	}

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := s.buildArgs(audioPath, workDir)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return result, fmt.Errorf("whisper: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(workDir, baseName+".json")
	return loadResult(jsonPath)
}

func (s *Service) buildArgs(audioPath, workDir string) []string {
	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_format", "json",
		"--output_dir", workDir,
	}
	if s.cfg.Language != "" && s.cfg.Language != "auto" {
		args = append(args, "--language", s.cfg.Language)
	}
	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func loadResult(path string) (Result, error) {
	var result Result

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("whisper: read output: %w", err)
	}

	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return result, fmt.Errorf("whisper: decode output: %w", err)
	}

	result.Text = strings.TrimSpace(payload.Text)
	result.Language = payload.Language
	if result.Text == "" {
		return result, fmt.Errorf("whisper: empty transcript in %s", filepath.Base(path))
	}
	return result, nil
}
