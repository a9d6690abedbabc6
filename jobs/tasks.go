package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/garystarr-surgi/invoice-lock/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail delivers one rendered email over SMTP.
	TaskTypeSendEmail = "mail:send"
	// TaskLockCheckOverdue runs the overdue invoice lock check.
	TaskLockCheckOverdue = "lock:check_overdue"
	// TaskLockWeeklyDigest sends the locked customer digest to account managers.
	TaskLockWeeklyDigest = "lock:weekly_digest"
)

// Trigger values recorded on lock tasks.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// LockTaskPayload describes who asked for a lock check or digest.
type LockTaskPayload struct {
	Trigger     string    `json:"trigger"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

// NewSendEmailTask constructs a mail:send task.
func NewSendEmailTask(email notify.Email) (*asynq.Task, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(email)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewLockCheckTask constructs a lock:check_overdue task.
func NewLockCheckTask(payload LockTaskPayload) (*asynq.Task, error) {
	return newLockTask(TaskLockCheckOverdue, payload)
}

// NewLockDigestTask constructs a lock:weekly_digest task.
func NewLockDigestTask(payload LockTaskPayload) (*asynq.Task, error) {
	return newLockTask(TaskLockWeeklyDigest, payload)
}

func newLockTask(taskType string, payload LockTaskPayload) (*asynq.Task, error) {
	if payload.Trigger == "" {
		payload.Trigger = TriggerCron
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

func decodeLockPayload(t *asynq.Task) (LockTaskPayload, error) {
	var payload LockTaskPayload
	if len(t.Payload()) == 0 {
		return LockTaskPayload{Trigger: TriggerCron}, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
