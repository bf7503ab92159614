package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWelcomeEmail greets a freshly registered account.
	TaskWelcomeEmail = "mail:welcome"
)

// WelcomePayload identifies the account to greet.
type WelcomePayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// NewWelcomeTask constructs an Asynq task.
func NewWelcomeTask(payload WelcomePayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.Email) == "" {
		return nil, fmt.Errorf("jobs: welcome task needs a recipient")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcomeEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// WelcomeMessage renders the greeting sent to a new account.
func WelcomeMessage(payload WelcomePayload) Message {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = "there"
	}
	return Message{
		To:      payload.Email,
		Subject: "Welcome to Inkwell",
		Body: fmt.Sprintf("Hi %s,\n\nYour Inkwell account is ready. Sign in with %s to start writing.\n",
			name, payload.Email),
	}
}

// WelcomeHandler delivers TaskWelcomeEmail tasks through mailer. Malformed
// payloads are dropped without retry; delivery failures are retried by Asynq.
func WelcomeHandler(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskWelcomeEmail)
		var payload WelcomePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Email == "" {
			logger.Warn("drop malformed welcome task", slog.Any("error", err))
			return tracker.End(fmt.Errorf("decode welcome payload: %w", asynq.SkipRetry))
		}
		if err := mailer.Send(ctx, WelcomeMessage(payload)); err != nil {
			logger.Error("send welcome email", slog.String("user_id", payload.UserID), slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("welcome email sent", slog.String("user_id", payload.UserID))
		return tracker.End(nil)
	}
}
