package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/notify"
)

type stubRunner struct {
	summary lock.RunSummary
	err     error
	calls   int
}

func (s *stubRunner) Run(context.Context) (lock.RunSummary, error) {
	s.calls++
	return s.summary, s.err
}

type stubDigester struct {
	summary lock.DigestSummary
	err     error
}

func (s *stubDigester) Digest(context.Context) (lock.DigestSummary, error) {
	return s.summary, s.err
}

type stubSender struct {
	sent []notify.Email
	err  error
}

func (s *stubSender) Send(_ context.Context, email notify.Email) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func newMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestLockTasksCarryPayload(t *testing.T) {
	task, err := NewLockCheckTask(LockTaskPayload{RequestedBy: "ops@example.com"})
	require.NoError(t, err)
	require.Equal(t, TaskLockCheckOverdue, task.Type())

	payload, err := decodeLockPayload(task)
	require.NoError(t, err)
	require.Equal(t, TriggerCron, payload.Trigger)
	require.Equal(t, "ops@example.com", payload.RequestedBy)

	digest, err := NewLockDigestTask(LockTaskPayload{Trigger: TriggerManual})
	require.NoError(t, err)
	require.Equal(t, TaskLockWeeklyDigest, digest.Type())
}

func TestSendEmailTaskRejectsInvalidEmail(t *testing.T) {
	_, err := NewSendEmailTask(notify.Email{Subject: "no recipient"})
	require.Error(t, err)

	task, err := NewSendEmailTask(notify.Email{To: []string{"am@example.com"}, Subject: "hi"})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, task.Type())
}

func TestLockCheckJobRuns(t *testing.T) {
	runner := &stubRunner{summary: lock.RunSummary{RunID: "r1", Saved: 2}}
	job := NewLockCheckJob(runner, nil, newMetrics())
	task, err := NewLockCheckTask(LockTaskPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, runner.calls)
}

func TestLockCheckJobSkipsWhenRunHeld(t *testing.T) {
	runner := &stubRunner{err: lock.ErrRunInProgress}
	job := NewLockCheckJob(runner, nil, newMetrics())

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskLockCheckOverdue, nil)))
}

func TestLockCheckJobReturnsFailure(t *testing.T) {
	boom := errors.New("db down")
	job := NewLockCheckJob(&stubRunner{err: boom}, nil, newMetrics())

	err := job.Handle(context.Background(), asynq.NewTask(TaskLockCheckOverdue, nil))
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestLockCheckJobRejectsBadPayload(t *testing.T) {
	job := NewLockCheckJob(&stubRunner{}, nil, newMetrics())
	err := job.Handle(context.Background(), asynq.NewTask(TaskLockCheckOverdue, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLockDigestJobPartialFailureIsNotRetried(t *testing.T) {
	boom := errors.New("queue down")
	job := NewLockDigestJob(&stubDigester{summary: lock.DigestSummary{Sent: 1, Failed: 1}, err: boom}, nil, newMetrics())

	err := job.Handle(context.Background(), asynq.NewTask(TaskLockWeeklyDigest, nil))
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, asynq.SkipRetry)

	job = NewLockDigestJob(&stubDigester{summary: lock.DigestSummary{Failed: 2}, err: boom}, nil, newMetrics())
	err = job.Handle(context.Background(), asynq.NewTask(TaskLockWeeklyDigest, nil))
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailJob(t *testing.T) {
	sender := &stubSender{}
	job := NewSendEmailJob(sender, nil, newMetrics())
	email := notify.Email{To: []string{"am@example.com"}, Subject: "Customer locked", HTMLBody: "<p>x</p>"}
	task, err := NewSendEmailTask(email)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []notify.Email{email}, sender.sent)

	sender.err = notify.ErrMailDisabled
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)

	sender.err = errors.New("connection refused")
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	body, err := json.Marshal(notify.Email{Subject: "missing to"})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, body)), asynq.SkipRetry)
}

func TestHealthHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Retry: 1}}, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var health QueueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	require.Equal(t, QueueHealth{Queue: QueueDefault, Pending: 3, Retry: 1}, health)
}

func TestHealthHandlerUnavailable(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, slogDiscard()).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
