package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"airlog/internal/config"
	"airlog/internal/runlog"
)

const userAgent = "airlog/1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary runlog.Summary, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, err error) error
	NotifyDayCompleted(ctx context.Context, day time.Time, recordPath string) error
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
		runSummary: cfg.Notifications.RunSummary,
		errors:     cfg.Notifications.Errors,
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
	runSummary bool
	errors     bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary runlog.Summary, duration time.Duration) error {
	if !n.runSummary {
		return nil
	}
	message := fmt.Sprintf("Processed %d plays: %d found, %d not found, %d added to playlist (%s)",
		summary.Entries, summary.Found, summary.NotFound, summary.Added, duration.Round(time.Second))
	if summary.StoppedEarly {
		message += " [stopped early on duplicates]"
	}
	data := payload{
		title:   "airlog - Run Complete",
		message: message,
		tags:    []string{"airlog", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error) error {
	if !n.errors || err == nil {
		return nil
	}
	data := payload{
		title:    "airlog - Run Failed",
		message:  fmt.Sprintf("Run failed: %v", err),
		tags:     []string{"airlog", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDayCompleted(ctx context.Context, day time.Time, recordPath string) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title:   "airlog - Day Complete",
		message: fmt.Sprintf("Daily record for %s finalized: %s", day.Format("January 2, 2006"), recordPath),
		tags:    []string{"airlog", "day", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "airlog - Test",
		message: "Test notification from airlog",
		tags:    []string{"airlog", "test"},
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

func (noopService) NotifyRunCompleted(context.Context, runlog.Summary, time.Duration) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error) error                            { return nil }
func (noopService) NotifyDayCompleted(context.Context, time.Time, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                                  { return nil }
