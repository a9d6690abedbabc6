package lock

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

const tracerName = "github.com/garystarr-surgi/invoice-lock/internal/lock"

// Notification kinds reported to the Recorder.
const (
	KindLockNotice = "lock_notice"
	KindDigest     = "digest"
)

// Config wires a Service.
type Config struct {
	Invoices InvoiceSource
	Repo     Repository
	Notifier Notifier
	Cache    StatusCache
	Metrics  Recorder
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

// Service applies and reports customer locks.
type Service struct {
	invoices InvoiceSource
	repo     Repository
	notifier Notifier
	cache    StatusCache
	metrics  Recorder
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
	tracer   trace.Tracer
}

// NewService constructs a Service. Cache, Metrics, Logger, Location and Now
// are optional.
func NewService(cfg Config) *Service {
	s := &Service{
		invoices: cfg.Invoices,
		repo:     cfg.Repo,
		notifier: cfg.Notifier,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		loc:      cfg.Location,
		now:      cfg.Now,
		tracer:   otel.Tracer(tracerName),
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RunSummary reports one pass of the overdue scan.
type RunSummary struct {
	RunID                string        `json:"run_id"`
	AsOf                 time.Time     `json:"as_of"`
	InvoicesScanned      int           `json:"invoices_scanned"`
	CustomersEvaluated   int           `json:"customers_evaluated"`
	Saved                int           `json:"saved"`
	Notified             int           `json:"notified"`
	NotificationsSkipped int           `json:"notifications_skipped"`
	NotificationsFailed  int           `json:"notifications_failed"`
	Duration             time.Duration `json:"duration"`
}

// Today is the as-of date used by runs started now.
func (s *Service) Today() time.Time {
	return Today(s.now(), s.loc)
}

// Run scans overdue invoices and locks every customer whose most overdue
// invoice reaches a tier. Customers are never unlocked here. A failure on one
// customer does not stop the others; all failures are joined in the returned
// error.
func (s *Service) Run(ctx context.Context) (RunSummary, error) {
	ctx, span := s.tracer.Start(ctx, "lock.Run")
	defer span.End()

	started := s.now()
	summary := RunSummary{RunID: uuid.NewString(), AsOf: Today(started, s.loc)}
	logger := s.logger.With(slog.String("run_id", summary.RunID), slog.String("as_of", summary.AsOf.Format(time.DateOnly)))
	span.SetAttributes(attribute.String("lock.run_id", summary.RunID))

	invoices, err := s.invoices.ListOverdue(ctx, OldestDueDate(summary.AsOf))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list overdue")
		return summary, fmt.Errorf("lock: list overdue invoices: %w", err)
	}
	summary.InvoicesScanned = len(invoices)

	decisions := Aggregate(invoices, summary.AsOf)
	customerIDs := make([]int64, 0, len(decisions))
	for id := range decisions {
		customerIDs = append(customerIDs, id)
	}
	slices.Sort(customerIDs)

	var errs []error
	for _, id := range customerIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		summary.CustomersEvaluated++
		if err := s.apply(ctx, logger, &summary, decisions[id]); err != nil {
			logger.Error("apply customer lock", slog.Int64("customer_id", id), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("customer %d: %w", id, err))
		}
	}

	summary.Duration = s.now().Sub(started)
	span.SetAttributes(
		attribute.Int("lock.invoices_scanned", summary.InvoicesScanned),
		attribute.Int("lock.customers_saved", summary.Saved),
		attribute.Int("lock.notified", summary.Notified),
	)
	logger.Info("lock run finished",
		slog.Int("invoices", summary.InvoicesScanned),
		slog.Int("customers", summary.CustomersEvaluated),
		slog.Int("saved", summary.Saved),
		slog.Int("notified", summary.Notified),
		slog.Int("notifications_skipped", summary.NotificationsSkipped),
		slog.Int("notifications_failed", summary.NotificationsFailed),
		slog.Duration("duration", summary.Duration),
	)
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "customers failed")
		return summary, err
	}
	return summary, nil
}

func (s *Service) apply(ctx context.Context, logger *slog.Logger, summary *RunSummary, d Decision) error {
	customerID := d.Invoice.CustomerID
	t, err := s.repo.ApplyLock(ctx, summary.RunID, customerID, func(current CustomerLock) Transition {
		return Evaluate(current, d)
	})
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			logger.Warn("overdue invoice references unknown customer", slog.Int64("customer_id", customerID), slog.String("invoice", d.Invoice.Number))
			return nil
		}
		return fmt.Errorf("save lock: %w", err)
	}
	if !t.NeedsSave {
		return nil
	}
	summary.Saved++
	s.metrics.AddLocks(string(d.Tier), 1)
	if err := s.InvalidateStatus(ctx, customerID); err != nil {
		logger.Warn("invalidate lock status", slog.Int64("customer_id", customerID), slog.Any("error", err))
	}

	if !t.StatusChanged {
		return nil
	}
	if t.Next.AccountManagerEmail == "" {
		summary.NotificationsSkipped++
		s.metrics.AddNotifications(KindLockNotice, "skipped", 1)
		logger.Info("no account manager email, lock notice skipped", slog.Int64("customer_id", customerID))
		return nil
	}
	notice := Notice{
		RunID:       summary.RunID,
		Customer:    t.Next,
		Invoice:     d.Invoice,
		Tier:        d.Tier,
		DaysOverdue: d.DaysOverdue,
		AsOf:        summary.AsOf,
	}
	if err := s.notifier.LockNotice(ctx, notice); err != nil {
		summary.NotificationsFailed++
		s.metrics.AddNotifications(KindLockNotice, "failed", 1)
		logger.Warn("lock notice failed", slog.Int64("customer_id", customerID), slog.Any("error", err))
		return nil
	}
	summary.Notified++
	s.metrics.AddNotifications(KindLockNotice, "sent", 1)
	return nil
}

// Status is the lock state served to clients before they save a document.
type Status struct {
	Locked      bool          `json:"locked"`
	Status      *Tier         `json:"status"`
	DaysOverdue *int          `json:"days_overdue"`
	StatusHTML  template.HTML `json:"status_html,omitempty"`
}

// Status returns the lock state of a customer. Unknown customers report
// unlocked.
func (s *Service) Status(ctx context.Context, customerID int64) (Status, error) {
	if customerID == 0 {
		return Status{}, nil
	}
	load := func(ctx context.Context) (any, error) {
		c, err := s.repo.GetCustomerLock(ctx, customerID)
		if err != nil {
			if errors.Is(err, ErrCustomerNotFound) {
				return Status{}, nil
			}
			return nil, err
		}
		return statusOf(c), nil
	}
	var st Status
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return Status{}, err
		}
		return v.(Status), nil
	}
	if err := s.cache.Fetch(ctx, shared.CustomerStatusKey(customerID), &st, load); err != nil {
		return Status{}, fmt.Errorf("lock: status %d: %w", customerID, err)
	}
	return st, nil
}

func statusOf(c CustomerLock) Status {
	st := Status{Locked: c.Locked, DaysOverdue: c.DaysOverdue}
	if c.Status != TierNone {
		tier := c.Status
		st.Status = &tier
	}
	if c.Locked {
		st.StatusHTML = StatusHTML(c.DaysOverdue)
	}
	return st
}

// InvalidateStatus drops cached statuses after a customer changes.
func (s *Service) InvalidateStatus(ctx context.Context, customerIDs ...int64) error {
	if s.cache == nil || len(customerIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		keys = append(keys, shared.CustomerStatusKey(id))
	}
	return s.cache.Delete(ctx, keys...)
}

// ValidateCustomerNotLocked refuses saving a doctype document for a locked
// customer. A zero customerID or an unknown customer passes.
func (s *Service) ValidateCustomerNotLocked(ctx context.Context, doctype string, customerID int64) error {
	if customerID == 0 {
		return nil
	}
	c, err := s.repo.GetCustomerLock(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil
		}
		return fmt.Errorf("lock: load customer %d: %w", customerID, err)
	}
	if !c.Locked {
		return nil
	}
	days := 0
	if c.DaysOverdue != nil {
		days = *c.DaysOverdue
	}
	name := c.Name
	if name == "" {
		name = c.Code
	}
	return &LockedError{Doctype: doctype, Customer: name, Status: c.Status.Label(), DaysOverdue: days}
}

// DigestSummary reports one weekly digest.
type DigestSummary struct {
	AsOf            time.Time `json:"as_of"`
	LockedCustomers int       `json:"locked_customers"`
	Sent            int       `json:"sent"`
	Unassigned      int       `json:"unassigned"`
	Failed          int       `json:"failed"`
}

// Digest emails every account manager the list of their locked customers.
// Customers without a manager email are counted as unassigned.
func (s *Service) Digest(ctx context.Context) (DigestSummary, error) {
	ctx, span := s.tracer.Start(ctx, "lock.Digest")
	defer span.End()

	summary := DigestSummary{AsOf: s.Today()}
	locked, err := s.repo.ListLocked(ctx)
	if err != nil {
		span.RecordError(err)
		return summary, fmt.Errorf("lock: list locked customers: %w", err)
	}
	summary.LockedCustomers = len(locked)

	byManager := make(map[string][]CustomerLock)
	for _, c := range locked {
		if c.AccountManagerEmail == "" {
			summary.Unassigned++
			continue
		}
		byManager[c.AccountManagerEmail] = append(byManager[c.AccountManagerEmail], c)
	}
	managers := make([]string, 0, len(byManager))
	for email := range byManager {
		managers = append(managers, email)
	}
	sort.Strings(managers)

	var errs []error
	for _, email := range managers {
		entry := DigestEntry{ManagerEmail: email, Customers: byManager[email], AsOf: summary.AsOf}
		if err := s.notifier.Digest(ctx, entry); err != nil {
			summary.Failed++
			s.metrics.AddNotifications(KindDigest, "failed", 1)
			errs = append(errs, fmt.Errorf("digest for %s: %w", email, err))
			continue
		}
		summary.Sent++
		s.metrics.AddNotifications(KindDigest, "sent", 1)
	}
	if summary.Unassigned > 0 {
		s.metrics.AddNotifications(KindDigest, "skipped", summary.Unassigned)
	}
	s.logger.Info("lock digest finished",
		slog.Int("locked", summary.LockedCustomers),
		slog.Int("sent", summary.Sent),
		slog.Int("unassigned", summary.Unassigned),
	)
	return summary, errors.Join(errs...)
}

// Report lists every locked customer, most overdue first.
func (s *Service) Report(ctx context.Context) ([]CustomerLock, error) {
	return s.repo.ListLocked(ctx)
}
