package whisper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicetovision/internal/config"
)

func TestTranscribeParsesOutput(t *testing.T) {
	cfg := config.Whisper{Binary: "whisper", Model: "small", Language: "es"}
	svc := NewService(cfg)

	workDir := t.TempDir()
	audio := filepath.Join(workDir, "nota.ogg")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != "whisper" {
			t.Errorf("binary = %q", name)
		}
		gotArgs = args
		payload := `{"text": " Una idea sobre huertos urbanos. ", "language": "es"}`
		return os.WriteFile(filepath.Join(workDir, "nota.json"), []byte(payload), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), audio, workDir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "Una idea sobre huertos urbanos." {
		t.Errorf("text = %q", result.Text)
	}
	if result.Language != "es" {
		t.Errorf("language = %q", result.Language)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--model small") || !strings.Contains(joined, "--language es") {
		t.Errorf("args = %q", joined)
	}
	if !strings.Contains(joined, "--output_format json") {
		t.Errorf("args missing json output: %q", joined)
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	svc := NewService(config.Whisper{Binary: "whisper", Model: "small"})

	workDir := t.TempDir()
	audio := filepath.Join(workDir, "vacio.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(workDir, "vacio.json"), []byte(`{"text": "  "}`), 0o644)
	})

	if _, err := svc.Transcribe(context.Background(), audio, workDir); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestTranscribeRequiresAudioPath(t *testing.T) {
	svc := NewService(config.Whisper{Binary: "whisper"})
	if _, err := svc.Transcribe(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for missing audio path")
	}
}
