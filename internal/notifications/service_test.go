package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airlog/internal/config"
	"airlog/internal/notifications"
	"airlog/internal/runlog"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	err := svc.NotifyRunCompleted(context.Background(), runlog.Summary{Entries: 3}, time.Minute)
	if err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceSendsRunSummary(t *testing.T) {
	var (
		gotTitle   string
		gotTags    string
		gotMessage string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotMessage = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunSummary = true
	svc := notifications.NewService(&cfg)

	summary := runlog.Summary{Entries: 20, Found: 15, NotFound: 5, Added: 12, StoppedEarly: true}
	if err := svc.NotifyRunCompleted(context.Background(), summary, 90*time.Second); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if gotTitle != "airlog - Run Complete" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
	if gotTags != "airlog,run,completed" {
		t.Fatalf("unexpected tags %q", gotTags)
	}
	if !strings.Contains(gotMessage, "Processed 20 plays") || !strings.Contains(gotMessage, "stopped early") {
		t.Fatalf("unexpected message %q", gotMessage)
	}
}

func TestRunSummaryDisabledSuppressesSend(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunSummary = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunCompleted(context.Background(), runlog.Summary{}, time.Second); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no HTTP calls, got %d", calls)
	}
}

func TestNotifyRunFailedUsesHighPriority(t *testing.T) {
	var gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPriority = r.Header.Get("Priority")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunFailed(context.Background(), io.ErrUnexpectedEOF); err != nil {
		t.Fatalf("NotifyRunFailed: %v", err)
	}
	if gotPriority != "high" {
		t.Fatalf("expected high priority, got %q", gotPriority)
	}
}
