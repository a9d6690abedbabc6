package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
	"github.com/garystarr-surgi/invoice-lock/internal/notify"
)

const kindMail = "mail"

// SendEmailJob delivers mail:send tasks.
type SendEmailJob struct {
	Sender  notify.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSendEmailJob initialises the mail handler.
func NewSendEmailJob(sender notify.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *SendEmailJob {
	return &SendEmailJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle sends one email. Malformed payloads and a missing SMTP host are not
// retried.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sender == nil {
		return errors.New("send email: handler not configured")
	}
	var email notify.Email
	if err := json.Unmarshal(t.Payload(), &email); err != nil {
		return fmt.Errorf("send email: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := email.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("subject", email.Subject), slog.Any("to", email.To))

	tracker := j.Metrics.Track(TaskTypeSendEmail)
	err := j.Sender.Send(ctx, email)
	switch {
	case errors.Is(err, notify.ErrMailDisabled):
		logger.Warn("email dropped, smtp not configured")
		j.Metrics.AddNotifications(kindMail, "dropped", 1)
		return tracker.End(fmt.Errorf("%v: %w", err, asynq.SkipRetry))
	case err != nil:
		logger.Error("email delivery failed", slog.Any("error", err))
		j.Metrics.AddNotifications(kindMail, "failed", 1)
		return tracker.End(err)
	}
	j.Metrics.AddNotifications(kindMail, "delivered", 1)
	logger.Info("email delivered", slog.String("reference", email.Reference))
	return tracker.End(nil)
}
