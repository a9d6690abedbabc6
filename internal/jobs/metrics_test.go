package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("lock:check_overdue").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("lock:check_overdue").End(boom), boom)
	m.Track("lock:check_overdue").Skip()

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lock:check_overdue", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lock:check_overdue", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("lock:check_overdue")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("lock:check_overdue")))
}

func TestLockCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddLocks("Soft Locked", 2)
	m.AddLocks("", 1)
	m.AddLocks("Hard Locked", 0)
	m.AddNotifications("lock_notice", "sent", 3)

	require.Equal(t, 2.0, testutil.ToFloat64(m.locks.WithLabelValues("Soft Locked")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.locks.WithLabelValues("none")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.notifications.WithLabelValues("lock_notice", "sent")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddLocks("Soft Locked", 1)
	m.AddNotifications("digest", "failed", 1)
	require.NoError(t, m.Track("x").End(nil))
}
