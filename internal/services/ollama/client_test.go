package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voicetovision/internal/config"
	"voicetovision/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Ollama{BaseURL: server.URL, Model: "llama3.2", TimeoutSeconds: 5}
	return NewClient(cfg, WithSleeper(func(time.Duration) {}))
}

func analysisJSON() string {
	return `{
		"nombre_idea": "App Delivery Local",
		"resumen": "Aplicación móvil para conectar comercios locales con clientes cercanos.",
		"explicacion": "El proyecto consiste en una plataforma de entrega.",
		"tipo": "App",
		"tags": ["delivery", "local"],
		"nivel_madurez": "concepto",
		"viabilidad": 8,
		"siguientes_pasos": ["Investigar competencia"],
		"riesgos": ["Competencia establecida"]
	}`
}

func TestAnalyze(t *testing.T) {
	var gotRequest chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": analysisJSON()},
		})
	})

	analysis, err := client.Analyze(context.Background(), "quiero montar un delivery", "es")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Name != "App Delivery Local" {
		t.Errorf("name = %q", analysis.Name)
	}
	if analysis.Viability != 8 {
		t.Errorf("viability = %d", analysis.Viability)
	}

	if gotRequest.Model != "llama3.2" {
		t.Errorf("model = %q", gotRequest.Model)
	}
	if gotRequest.Stream {
		t.Error("expected stream=false")
	}
	if gotRequest.Format != "json" {
		t.Errorf("format = %q", gotRequest.Format)
	}
	if len(gotRequest.Messages) != 2 || gotRequest.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", gotRequest.Messages)
	}
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n" + analysisJSON() + "\n```"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": content},
		})
	})

	analysis, err := client.Analyze(context.Background(), "una idea", "es")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Type != "App" {
		t.Errorf("type = %q", analysis.Type)
	}
}

func TestAnalyzeRejectsMalformedReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "no soy json"},
		})
	})

	_, err := client.Analyze(context.Background(), "una idea", "es")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeRejectsIncompleteAnalysis(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": `{"nombre_idea": "Solo Nombre"}`},
		})
	})

	_, err := client.Analyze(context.Background(), "una idea", "es")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeRetriesServerErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": analysisJSON()},
		})
	})

	if _, err := client.Analyze(context.Background(), "una idea", "es"); err != nil {
		t.Fatalf("Analyze after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	client := NewClient(config.Ollama{BaseURL: "http://localhost:11434", Model: "llama3.2"})
	if _, err := client.Analyze(context.Background(), "  ", "es"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
