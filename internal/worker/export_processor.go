// Package worker exports event summaries to spreadsheets when their totals
// change.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventbudget/internal/amqp"
	"eventbudget/internal/core"
	"eventbudget/internal/log"
	"eventbudget/internal/services"
	"eventbudget/internal/sheets"
)

// SummaryReader loads the current summary of an event.
type SummaryReader interface {
	GetEventSummary(ctx context.Context, ref services.EventRef) (core.EventSummary, error)
}

type ExportProcessorConfig struct {
	// FlushInterval is how often pending events are exported (default: 5s)
	FlushInterval time.Duration

	// MaxRetries is the number of failed exports before an event is dropped (default: 3)
	MaxRetries int
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		FlushInterval: 5 * time.Second,
		MaxRetries:    3,
	}
}

type pendingExport struct {
	ref      services.EventRef
	attempts int
}

// ExportProcessor collects totals-changed notifications and exports each
// changed event at most once per flush.
type ExportProcessor struct {
	reader SummaryReader
	writer sheets.SummaryWriter
	logger *log.Logger
	config ExportProcessorConfig

	pendingMu sync.Mutex
	pending   map[services.EventRef]*pendingExport

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(reader SummaryReader, writer sheets.SummaryWriter, logger *log.Logger, config ExportProcessorConfig) *ExportProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	defaults := DefaultExportProcessorConfig()
	if config.FlushInterval <= 0 {
		config.FlushInterval = defaults.FlushInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	return &ExportProcessor{
		reader:  reader,
		writer:  writer,
		logger:  logger.WithComponent(log.ComponentWorker),
		config:  config,
		pending: make(map[services.EventRef]*pendingExport),
	}
}

// HandleTotalsChanged queues the event of msg for export. It is the AMQP
// consumer handler; the message is acknowledged once queued.
func (p *ExportProcessor) HandleTotalsChanged(ctx context.Context, msg *amqp.TotalsChangedMessage) error {
	ref := services.EventRef{OwnerID: msg.OwnerID, EventID: msg.EventID}
	p.pendingMu.Lock()
	if _, ok := p.pending[ref]; !ok {
		p.pending[ref] = &pendingExport{ref: ref}
	}
	p.pendingMu.Unlock()

	p.logger.DebugContext(ctx, "Queued summary export",
		log.FieldOwnerID, msg.OwnerID,
		log.FieldEventID, msg.EventID,
		"reason", msg.Reason)
	return nil
}

// Pending returns the number of queued events.
func (p *ExportProcessor) Pending() int {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return len(p.pending)
}

// Start begins the flush loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Export processor started", "flush_interval", p.config.FlushInterval)
	return nil
}

// Stop ends the flush loop and exports what is still pending.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.Flush(ctx)
	p.logger.InfoContext(ctx, "Export processor stopped gracefully")
	return nil
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}

// Flush exports every pending event once. Failed exports stay queued until
// MaxRetries is reached.
func (p *ExportProcessor) Flush(ctx context.Context) (exported, failed int) {
	p.pendingMu.Lock()
	batch := make([]*pendingExport, 0, len(p.pending))
	for _, pe := range p.pending {
		batch = append(batch, pe)
	}
	p.pending = make(map[services.EventRef]*pendingExport)
	p.pendingMu.Unlock()

	sort.Slice(batch, func(i, j int) bool {
		if batch[i].ref.OwnerID != batch[j].ref.OwnerID {
			return batch[i].ref.OwnerID < batch[j].ref.OwnerID
		}
		return batch[i].ref.EventID < batch[j].ref.EventID
	})

	for _, pe := range batch {
		if err := p.Export(ctx, pe.ref); err != nil {
			failed++
			p.handleFailure(ctx, pe, err)
			continue
		}
		exported++
	}
	return exported, failed
}

func (p *ExportProcessor) handleFailure(ctx context.Context, pe *pendingExport, err error) {
	pe.attempts++
	fields := log.NewFields().WithEvent(pe.ref.OwnerID, pe.ref.EventID).WithError(err)
	fields["attempt"] = pe.attempts

	if pe.attempts >= p.config.MaxRetries {
		p.logger.ErrorContext(ctx, "Summary export failed permanently after max retries", fields.ToSlice()...)
		return
	}
	p.logger.WarnContext(ctx, "Summary export failed", fields.ToSlice()...)

	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	// a newer notification for the same event resets the retry budget
	if _, ok := p.pending[pe.ref]; !ok {
		p.pending[pe.ref] = pe
	}
}

// Export loads the event summary and writes it. A deleted event is not an
// error.
func (p *ExportProcessor) Export(ctx context.Context, ref services.EventRef) error {
	summary, err := p.reader.GetEventSummary(ctx, ref)
	if err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			p.logger.InfoContext(ctx, "Skipping export of deleted event",
				log.FieldOwnerID, ref.OwnerID,
				log.FieldEventID, ref.EventID)
			return nil
		}
		return fmt.Errorf("load event summary: %w", err)
	}

	if _, err := p.writer.WriteSummary(ctx, ref.OwnerID, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
