package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicetovision/internal/config"
)

const userAgent = "VoiceToVision/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyJobQueued(ctx context.Context, jobID, submitter string) error
	NotifyIdeaCreated(ctx context.Context, folderName, ideaType string, viability int) error
	NotifyJobFailed(ctx context.Context, jobID string, err error) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		ideaEvents: cfg.Notifications.Ideas,
		errEvents:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	ideaEvents bool
	errEvents  bool
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, jobID, submitter string) error {
	if !n.ideaEvents {
		return nil
	}
	data := payload{
		title:   "VoiceToVision - Job Queued",
		message: fmt.Sprintf("Audio recibido de %s (job %s)", strings.TrimSpace(submitter), jobID),
		tags:    []string{"v2v", "job", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIdeaCreated(ctx context.Context, folderName, ideaType string, viability int) error {
	if !n.ideaEvents {
		return nil
	}
	folderName = strings.TrimSpace(folderName)
	ideaType = strings.TrimSpace(ideaType)
	if ideaType == "" {
		ideaType = "Otro"
	}
	data := payload{
		title:    "VoiceToVision - Idea Creada",
		message:  fmt.Sprintf("💡 %s (%s, viabilidad %d/10)", folderName, ideaType, viability),
		tags:     []string{"v2v", "idea", "created"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID string, err error) error {
	if !n.errEvents {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "VoiceToVision - Job Failed",
		message:  fmt.Sprintf("❌ Job %s falló: %s", jobID, reason),
		tags:     []string{"v2v", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errEvents {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "VoiceToVision - Error",
		message:  builder.String(),
		tags:     []string{"v2v", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "VoiceToVision - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"v2v", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobQueued(context.Context, string, string) error        { return nil }
func (noopService) NotifyIdeaCreated(context.Context, string, string, int) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error         { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
