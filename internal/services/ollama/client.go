package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicetovision/internal/config"
	"voicetovision/internal/ideas"
	"voicetovision/internal/services"
)

const systemPrompt = `Eres un analizador experto de ideas de negocio y proyectos.
Tu tarea es analizar transcripciones de audio y generar un JSON estructurado.

REGLAS ESTRICTAS:
1. Responde ÚNICAMENTE con un objeto JSON válido
2. NO añadas texto antes o después del JSON
3. NO uses markdown (no ` + "```json ni ```" + `)
4. El nombre debe ser corto, profesional, sin símbolos ni emojis
5. Máximo 5 palabras en el nombre

ESTRUCTURA JSON REQUERIDA:
{
  "nombre_idea": "Nombre corto profesional sin símbolos",
  "resumen": "Resumen claro en 5-8 líneas explicando la idea principal",
  "explicacion": "Explicación estructurada y detallada de la idea",
  "tipo": "App / Negocio / Automatización / Contenido / Otro",
  "tags": ["tag1", "tag2", "tag3"],
  "nivel_madurez": "concepto / desarrollado / avanzado",
  "viabilidad": 7,
  "siguientes_pasos": ["paso concreto 1", "paso concreto 2"],
  "riesgos": ["riesgo 1", "riesgo 2"]
}`

const maxRetries = 2

// Client talks to a local Ollama instance to turn transcripts into
// structured analyses.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	sleep      func(time.Duration)
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleeper overrides the retry backoff sleep (for testing).
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(cfg config.Ollama, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		sleep:   time.Sleep,
	}
	if client.timeout <= 0 {
		client.timeout = 2 * time.Minute
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Format   string        `json:"format"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// Analyze sends the transcript to the model and decodes its JSON reply into
// an analysis record. The reply is validated before being returned; a
// malformed reply is a ValidationError, not a crash.
func (c *Client) Analyze(ctx context.Context, transcript, language string) (*ideas.Analysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, services.Wrap(services.ErrValidation, "ollama", "analyze", "empty transcript", nil)
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(transcript, language)},
		},
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		content, callErr := c.call(ctx, payload)
		if callErr == nil {
			return decodeAnalysis(content)
		}
		lastErr = callErr

		if ctx.Err() != nil || attempt == maxRetries {
			break
		}
		c.sleep(time.Duration(500*(attempt+1)) * time.Millisecond)
	}
	return nil, fmt.Errorf("ollama analyze: %w", lastErr)
}

func (c *Client) call(ctx context.Context, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama error: %s", decoded.Error)
	}
	return decoded.Message.Content, nil
}

// Ping verifies Ollama is reachable. Used at daemon startup for a clear
// failure message instead of a mid-job surprise.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	return nil
}

func buildUserPrompt(transcript, language string) string {
	instruction := map[string]string{
		"es": "Responde en español.",
		"en": "Respond in English.",
		"fr": "Répondez en français.",
		"de": "Antworten Sie auf Deutsch.",
		"pt": "Responda em português.",
	}[language]
	if instruction == "" {
		instruction = "Responde en español."
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nTRANSCRIPCIÓN DEL AUDIO:\n\"\"\"\n")
	b.WriteString(transcript)
	b.WriteString("\n\"\"\"\n\nAnaliza esta idea y genera el JSON estructurado según las instrucciones del sistema.\nRecuerda: SOLO el JSON, sin texto adicional, sin markdown.")
	return b.String()
}

// decodeAnalysis tolerates models that wrap the JSON in fences or prose by
// cutting to the outermost object before decoding.
func decodeAnalysis(content string) (*ideas.Analysis, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, services.Wrap(services.ErrValidation, "ollama", "analyze",
			"model reply contains no JSON object", nil)
	}

	var analysis ideas.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ollama", "analyze",
			"model reply is not valid analysis JSON", err)
	}
	if err := ideas.ValidateAnalysis(&analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
