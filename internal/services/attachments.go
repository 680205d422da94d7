package services

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"eventbudget/internal/core"
	"eventbudget/internal/log"
)

// maxParallelDeletes bounds concurrent attachment deletions.
const maxParallelDeletes = 4

// expenseAttachments returns the attachment URLs of an expense and of its
// payments.
func expenseAttachments(exp core.Expense) []string {
	urls := append([]string(nil), exp.Attachments...)
	for _, p := range exp.PaymentSchedule {
		urls = append(urls, p.Attachments...)
	}
	if exp.OneOffPayment != nil {
		urls = append(urls, exp.OneOffPayment.Attachments...)
	}
	return urls
}

// deleteAttachments deletes urls in parallel. Failures are logged and
// returned but never abort the caller.
func (s *Service) deleteAttachments(ctx context.Context, urls []string, fields log.LogFields) []error {
	if s.files == nil || len(urls) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeletes)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			if err := s.files.DeleteByURL(gctx, url); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				logFields := log.NewFields().Merge(fields).WithError(err)
				logFields[log.FieldURL] = url
				s.logger.WarnContext(ctx, "Failed to delete attachment", logFields.ToSlice()...)
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}
