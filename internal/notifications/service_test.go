package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voicetovision/internal/config"
	"voicetovision/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyIdeaCreated(context.Background(), "Mi_Idea", "App", 7); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceSendsIdeaCreated(t *testing.T) {
	var gotTitle, gotTags, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Ideas = true
	cfg.Notifications.Errors = true
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyIdeaCreated(context.Background(), "Huerto_Urbano", "Negocio", 8); err != nil {
		t.Fatalf("NotifyIdeaCreated: %v", err)
	}
	if gotTitle != "VoiceToVision - Idea Creada" {
		t.Errorf("title = %q", gotTitle)
	}
	if gotTags != "v2v,idea,created" {
		t.Errorf("tags = %q", gotTags)
	}
	if gotBody != "💡 Huerto_Urbano (Negocio, viabilidad 8/10)" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestNtfyServiceRespectsEventToggles(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Ideas = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	_ = svc.NotifyIdeaCreated(ctx, "Silenciada", "App", 5)
	_ = svc.NotifyJobFailed(ctx, "job-1", nil)
	if calls != 0 {
		t.Errorf("expected no deliveries with toggles off, got %d", calls)
	}

	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if calls != 1 {
		t.Errorf("test notification bypasses toggles, calls = %d", calls)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 403 response")
	}
}
