// Package services implements the entity mutators for events, categories,
// expenses and payments. Every mutation that moves an amount writes the
// documents and the affected totals in one store transaction.
package services

import (
	"context"
	"time"

	"eventbudget/internal/attachments"
	"eventbudget/internal/cache"
	"eventbudget/internal/core"
	"eventbudget/internal/idgen"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/totals"
)

// Notifier is told about every committed change of an event's totals.
type Notifier interface {
	NotifyTotalsChanged(ctx context.Context, ownerID, eventID, reason string) error
}

type Option func(*Service)

// WithAttachments sets the store used to delete attachments of removed
// expenses.
func WithAttachments(files attachments.Store) Option {
	return func(s *Service) { s.files = files }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithSummaryCache(c *cache.Summaries) Option {
	return func(s *Service) { s.summaries = c }
}

func WithReporter(r log.Reporter) Option {
	return func(s *Service) { s.reporter = r }
}

func WithIDGenerator(g idgen.Generator) Option {
	return func(s *Service) { s.newID = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	store     storage.Store
	engine    *totals.Engine
	files     attachments.Store
	notifier  Notifier
	summaries *cache.Summaries
	reporter  log.Reporter
	logger    *log.Logger
	newID     idgen.Generator
	now       func() time.Time
}

func New(store storage.Store, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Service{
		store:  store,
		logger: logger,
		newID:  idgen.New,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = log.NewStructuredLogger(logger)
	}
	s.engine = totals.NewEngine(store, logger).WithClock(s.now)
	return s
}

// Engine exposes the aggregation engine sharing this service's store.
func (s *Service) Engine() *totals.Engine {
	return s.engine
}

// stamp returns the time and actor recorded on written documents.
func (s *Service) stamp(ctx context.Context) (time.Time, string) {
	return s.now().UTC(), core.ActorFrom(ctx)
}

// mutate runs fn in one store transaction. Failures are reported and
// returned through core.WrapStoreError.
func (s *Service) mutate(ctx context.Context, component, op string, fields log.LogFields, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.reporter.Breadcrumb(ctx, component, op, fields)
	if err := s.store.RunTransaction(ctx, fn); err != nil {
		s.reporter.CaptureError(ctx, err, op, fields)
		return core.WrapStoreError(op, err)
	}
	return nil
}

// read reports and wraps failures of read-only operations.
func (s *Service) read(ctx context.Context, op string, fields log.LogFields, err error) error {
	if err == nil {
		return nil
	}
	s.reporter.CaptureError(ctx, err, op, fields)
	return core.WrapStoreError(op, err)
}

// committed invalidates the cached summary and publishes a totals-changed
// notification. Both are best-effort.
func (s *Service) committed(ctx context.Context, ownerID, eventID, reason string) {
	if s.summaries != nil {
		s.summaries.Invalidate(ownerID, eventID)
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyTotalsChanged(ctx, ownerID, eventID, reason); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish totals change",
			log.NewFields().WithEvent(ownerID, eventID).WithError(err).
				WithOperation(log.OpPublish).ToSlice()...)
	}
}

func (s *Service) id(prefix string) (string, error) {
	id, err := s.newID(prefix)
	if err != nil {
		return "", &core.StoreError{Op: "generate id", Err: err}
	}
	return id, nil
}
