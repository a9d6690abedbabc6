package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
)

type recordingQueue struct {
	emails []Email
	err    error
}

func (q *recordingQueue) EnqueueSendEmail(_ context.Context, email Email) error {
	if q.err != nil {
		return q.err
	}
	q.emails = append(q.emails, email)
	return nil
}

func sampleNotice(tier lock.Tier, days int) lock.Notice {
	return lock.Notice{
		RunID: "run-1",
		Customer: lock.CustomerLock{
			CustomerID:          7,
			Code:                "CUST-007",
			Name:                "Acme Dental",
			AccountManagerEmail: "am@example.com",
		},
		Invoice: lock.OverdueInvoice{
			Number:      "INV-000042",
			CustomerID:  7,
			Currency:    "usd",
			Outstanding: decimal.RequireFromString("1250.5"),
			DueAt:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		Tier:        tier,
		DaysOverdue: days,
		AsOf:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderSoftNotice(t *testing.T) {
	email, err := RenderLockNotice(sampleNotice(lock.TierSoft, 40))
	require.NoError(t, err)
	require.Equal(t, []string{"am@example.com"}, email.To)
	require.Equal(t, "Customer Acme Dental soft locked at 40 days overdue", email.Subject)
	require.Contains(t, email.HTMLBody, "<strong>soft locked</strong>")
	require.Contains(t, email.HTMLBody, "<strong>INV-000042</strong>")
	require.Contains(t, email.HTMLBody, "(Due: 2025-05-01)")
	require.Contains(t, email.HTMLBody, "Outstanding Amount: 1,250.50 USD")
	require.Contains(t, email.HTMLBody, "Customer access is limited until resolved.")
	require.Contains(t, email.HTMLBody, "Lock enforced on 2025-06-10.")
	require.Equal(t, "run-1", email.Reference)
}

func TestRenderHardNotice(t *testing.T) {
	email, err := RenderLockNotice(sampleNotice(lock.TierHard, 52))
	require.NoError(t, err)
	require.Equal(t, "Customer Acme Dental locked at 52+ days overdue", email.Subject)
	require.Contains(t, email.HTMLBody, "<strong>hard locked</strong>")
	require.Contains(t, email.HTMLBody, "Please escalate with Accounting.")
}

func TestRenderNoticeEscapesNames(t *testing.T) {
	n := sampleNotice(lock.TierSoft, 41)
	n.Customer.Name = "<b>Evil</b>"
	email, err := RenderLockNotice(n)
	require.NoError(t, err)
	require.NotContains(t, email.HTMLBody, "<b>Evil</b>")
	require.Contains(t, email.HTMLBody, "&lt;b&gt;Evil&lt;/b&gt;")
}

func TestRenderNoticeRejectsNoTier(t *testing.T) {
	_, err := RenderLockNotice(sampleNotice(lock.TierNone, 12))
	require.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0", "0.00"},
		{"7.5", "7.50"},
		{"999.995", "1,000.00"},
		{"1250.5", "1,250.50"},
		{"-1234567.891", "-1,234,567.89"},
		{"9999999999999999.99", "9,999,999,999,999,999.99"},
		{"123456789012345678.01", "123,456,789,012,345,678.01"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatAmount(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestRenderDigest(t *testing.T) {
	soft, hard := 44, 61
	entry := lock.DigestEntry{
		ManagerEmail: "am@example.com",
		AsOf:         time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		Customers: []lock.CustomerLock{
			{CustomerID: 1, Name: "Bright Smiles", Locked: true, Status: lock.TierHard, DaysOverdue: &hard},
			{CustomerID: 2, Code: "CUST-002", Locked: true, Status: lock.TierSoft, DaysOverdue: &soft},
		},
	}
	email, err := RenderDigest(entry)
	require.NoError(t, err)
	require.Equal(t, "Locked customer summary: 2 customers as of 2025-06-09", email.Subject)
	require.Contains(t, email.HTMLBody, "<td>Bright Smiles</td><td>Hard Locked</td>")
	require.Contains(t, email.HTMLBody, "<td>CUST-002</td><td>Soft Locked</td>")
	require.Contains(t, email.HTMLBody, ">61</td>")
}

func TestNotifierQueuesEmails(t *testing.T) {
	queue := &recordingQueue{}
	n := NewNotifier(queue, nil)

	require.NoError(t, n.LockNotice(context.Background(), sampleNotice(lock.TierHard, 50)))
	require.NoError(t, n.Digest(context.Background(), lock.DigestEntry{
		ManagerEmail: "am@example.com",
		AsOf:         time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
	}))
	require.Len(t, queue.emails, 2)
	require.Equal(t, "Customer Acme Dental locked at 50+ days overdue", queue.emails[0].Subject)

	queue.err = errors.New("redis down")
	require.ErrorContains(t, n.LockNotice(context.Background(), sampleNotice(lock.TierSoft, 40)), "redis down")
}

func TestSMTPMessage(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "locks@example.com"})
	_, err := sender.Message(Email{Subject: "x"})
	require.Error(t, err)

	msg, err := sender.Message(Email{To: []string{"am@example.com"}, Subject: "hello", HTMLBody: "<p>hi</p>"})
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, msg.GetGenHeader(mail.HeaderSubject))
}

func TestSMTPSendWithoutHost(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{From: "locks@example.com"})
	err := sender.Send(context.Background(), Email{To: []string{"am@example.com"}, Subject: "hello"})
	require.ErrorIs(t, err, ErrMailDisabled)
}
