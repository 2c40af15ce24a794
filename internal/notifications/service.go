package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reviewforge/internal/config"
)

const userAgent = "Reviewforge-Go/0.1.0"

// Service defines the notification surface exposed to pipeline commands.
type Service interface {
	NotifyFetchCompleted(ctx context.Context, appID int64, total int, stopReason string) error
	NotifyExtractionCompleted(ctx context.Context, written, failed int, duration time.Duration) error
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

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyFetchCompleted(ctx context.Context, appID int64, total int, stopReason string) error {
	stopReason = strings.TrimSpace(stopReason)
	message := fmt.Sprintf("Fetched %d reviews for app %d", total, appID)
	if stopReason != "" {
		message = fmt.Sprintf("%s (%s)", message, stopReason)
	}
	data := payload{
		title:   "Reviewforge - Fetch Complete",
		message: message,
		tags:    []string{"reviewforge", "fetch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExtractionCompleted(ctx context.Context, written, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Reviewforge - Extraction Complete"
		message = fmt.Sprintf("Extraction complete: %d records written in %s", written, durationText)
	} else {
		title = "Reviewforge - Extraction Complete (with errors)"
		message = fmt.Sprintf("Extraction complete: %d written, %d error records in %s", written, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reviewforge", "extract", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
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
		title:    "Reviewforge - Error",
		message:  builder.String(),
		tags:     []string{"reviewforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reviewforge - Test",
		message:  "Notification system test",
		tags:     []string{"reviewforge", "test"},
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

func (noopService) NotifyFetchCompleted(context.Context, int64, int, string) error { return nil }

func (noopService) NotifyExtractionCompleted(context.Context, int, int, time.Duration) error {
	return nil
}

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
