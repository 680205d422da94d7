package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventbudget/internal/attachments"
	"eventbudget/internal/cache"
	"eventbudget/internal/core"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/storage/memory"
)

const testOwner = "owner-1"

type recordingNotifier struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (n *recordingNotifier) NotifyTotalsChanged(_ context.Context, _, _, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

type recordingReporter struct {
	mu          sync.Mutex
	breadcrumbs []string
	captured    []string
}

func (r *recordingReporter) Breadcrumb(_ context.Context, _, message string, _ log.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breadcrumbs = append(r.breadcrumbs, message)
}

func (r *recordingReporter) CaptureError(_ context.Context, _ error, operation string, _ log.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, operation)
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	files    *attachments.MemoryStore
	notifier *recordingNotifier
	reporter *recordingReporter
	now      time.Time
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		files:    attachments.NewMemoryStore(),
		notifier: &recordingNotifier{},
		reporter: &recordingReporter{},
		now:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		ctx:      core.WithActor(context.Background(), "user-1"),
	}
	var n int
	f.svc = New(f.store, nil,
		WithAttachments(f.files),
		WithNotifier(f.notifier),
		WithReporter(f.reporter),
		WithSummaryCache(cache.NewSummaries(16, time.Minute)),
		WithIDGenerator(func(prefix string) (string, error) {
			n++
			return fmt.Sprintf("%s%d", prefix, n), nil
		}),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

// seedEvent creates an event with the given category budgets and returns its
// id and the category ids in order.
func (f *fixture) seedEvent(t *testing.T, budgets ...int64) (string, []string) {
	t.Helper()
	in := CreateEventInput{
		OwnerID:   testOwner,
		Name:      "Wedding",
		Type:      "wedding",
		EventDate: core.NewDate(2026, 9, 12),
	}
	for i, b := range budgets {
		in.Categories = append(in.Categories, CategoryTemplate{Name: fmt.Sprintf("Category %c", 'A'+i), Budget: core.Cents(b)})
	}
	eventID, err := f.svc.CreateEvent(f.ctx, in)
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	categories, err := storage.ListCategories(f.ctx, f.store, testOwner, eventID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	byName := map[string]string{}
	for _, c := range categories {
		byName[c.Name] = c.ID
	}
	ids := make([]string, len(budgets))
	for i := range budgets {
		ids[i] = byName[fmt.Sprintf("Category %c", 'A'+i)]
	}
	return eventID, ids
}

func (f *fixture) addExpense(t *testing.T, eventID, categoryID string, cents int64) string {
	t.Helper()
	id, err := f.svc.AddExpense(f.ctx, AddExpenseInput{
		EventRef:   EventRef{OwnerID: testOwner, EventID: eventID},
		Name:       "Expense",
		Amount:     core.Cents(cents),
		CategoryID: categoryID,
		Date:       core.NewDate(2026, 3, 1),
	})
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	return id
}

func (f *fixture) event(t *testing.T, eventID string) core.Event {
	t.Helper()
	e, err := storage.GetEvent(f.ctx, f.store, testOwner, eventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	return e
}

func (f *fixture) category(t *testing.T, eventID, categoryID string) core.Category {
	t.Helper()
	c, err := storage.GetCategory(f.ctx, f.store, testOwner, eventID, categoryID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	return c
}

// assertMatchesRecompute checks that the incrementally maintained totals
// equal a full recompute.
func (f *fixture) assertMatchesRecompute(t *testing.T, eventID string) {
	t.Helper()
	before := f.event(t, eventID).Totals
	categories, err := storage.ListCategories(f.ctx, f.store, testOwner, eventID)
	if err != nil {
		t.Fatal(err)
	}

	after, err := f.svc.Engine().Recompute(f.ctx, testOwner, eventID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if before != after {
		t.Errorf("event totals %+v differ from recompute %+v", before, after)
	}
	for _, c := range categories {
		got := f.category(t, eventID, c.ID)
		if got.ScheduledAmount != c.ScheduledAmount || got.SpentAmount != c.SpentAmount {
			t.Errorf("category %s: incremental %d/%d, recomputed %d/%d", c.ID,
				c.ScheduledAmount.Cents, c.SpentAmount.Cents, got.ScheduledAmount.Cents, got.SpentAmount.Cents)
		}
	}
}
