// Package totals keeps the budgeted, scheduled and spent aggregates of
// events and their categories consistent with the underlying expenses.
package totals

import (
	"context"
	"strings"
	"time"

	"eventbudget/internal/core"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
)

// Engine runs the four aggregation modes against a document store.
type Engine struct {
	store  storage.Store
	logger *log.Logger
	now    func() time.Time
}

func NewEngine(store storage.Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{
		store:  store,
		logger: logger.WithComponent(log.ComponentTotals),
		now:    time.Now,
	}
}

// WithClock replaces the time source used for update stamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Now returns the current time from the engine's clock.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

func requireIDs(ownerID, eventID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return core.Invalid("ownerId", "Owner ID is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return core.Invalid("eventId", "Event ID is required")
	}
	return nil
}

// Recompute rebuilds every category's scheduled and spent amounts and the
// event totals from the expenses. Budgeted amounts are taken from the
// categories as stored. Running it twice yields the same totals.
func (e *Engine) Recompute(ctx context.Context, ownerID, eventID string) (core.Totals, error) {
	if err := requireIDs(ownerID, eventID); err != nil {
		return core.Totals{}, err
	}

	var result core.Totals
	err := e.store.RunTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		t, err := e.recompute(ctx, tx, ownerID, eventID)
		result = t
		return err
	})
	if err != nil {
		return core.Totals{}, core.WrapStoreError("recalculate event totals", err)
	}

	e.logger.InfoContext(ctx, "Event totals recomputed",
		log.NewFields().WithEvent(ownerID, eventID).
			WithTotals(result.Budgeted.Cents, result.Scheduled.Cents, result.Spent.Cents).
			WithOperation(log.OpRecompute).ToSlice()...)
	return result, nil
}

func (e *Engine) recompute(ctx context.Context, tx storage.Tx, ownerID, eventID string) (core.Totals, error) {
	event, err := storage.GetEvent(ctx, tx, ownerID, eventID)
	if err != nil {
		return core.Totals{}, err
	}
	categories, err := storage.ListCategories(ctx, tx, ownerID, eventID)
	if err != nil {
		return core.Totals{}, err
	}
	expenses, err := storage.ListExpenses(ctx, tx, ownerID, eventID)
	if err != nil {
		return core.Totals{}, err
	}

	perCategory := make(map[string]*core.Totals, len(categories))
	for _, c := range categories {
		perCategory[c.ID] = &core.Totals{Budgeted: c.BudgetedAmount}
	}
	for _, exp := range expenses {
		t, ok := perCategory[exp.Category.ID]
		if !ok {
			e.logger.WarnContext(ctx, "Expense references unknown category, skipped",
				log.NewFields().WithEvent(ownerID, eventID).
					WithCategory(exp.Category.ID).
					WithExpense(exp.ID, exp.Amount.Cents).ToSlice()...)
			continue
		}
		t.Scheduled = t.Scheduled.Add(exp.Amount)
		t.Spent = t.Spent.Add(exp.PaidAmount())
	}

	now, actor := e.Now(), core.ActorFrom(ctx)
	var total core.Totals
	for _, c := range categories {
		t := perCategory[c.ID]
		c.ScheduledAmount = t.Scheduled
		c.SpentAmount = t.Spent
		c.Touch(now, actor)
		if err := storage.PutCategory(ctx, tx, ownerID, eventID, c); err != nil {
			return core.Totals{}, err
		}
		total.Budgeted = total.Budgeted.Add(c.BudgetedAmount)
		total.Scheduled = total.Scheduled.Add(t.Scheduled)
		total.Spent = total.Spent.Add(t.Spent)
	}

	event.ApplyTotals(total)
	event.Touch(now, actor)
	if err := storage.PutEvent(ctx, tx, ownerID, event); err != nil {
		return core.Totals{}, err
	}
	return total, nil
}

// Add increments the event totals by each present amount. At least one
// amount must be present; zero counts as present.
func (e *Engine) Add(ctx context.Context, ownerID, eventID string, amounts Amounts) (core.Totals, error) {
	if err := validateAmounts(ownerID, eventID, amounts); err != nil {
		return core.Totals{}, err
	}
	changes := Changes{
		Budgeted:  Change{Add: deref(amounts.Budgeted)},
		Scheduled: Change{Add: deref(amounts.Scheduled)},
		Spent:     Change{Add: deref(amounts.Spent)},
	}
	return e.updateEvent(ctx, ownerID, eventID, changes, "add to event totals")
}

// Subtract decrements the event totals by each present amount, flooring
// every total at zero.
func (e *Engine) Subtract(ctx context.Context, ownerID, eventID string, amounts Amounts) (core.Totals, error) {
	if err := validateAmounts(ownerID, eventID, amounts); err != nil {
		return core.Totals{}, err
	}
	changes := Changes{
		Budgeted:  Change{Subtract: deref(amounts.Budgeted)},
		Scheduled: Change{Subtract: deref(amounts.Scheduled)},
		Spent:     Change{Subtract: deref(amounts.Spent)},
	}
	return e.updateEvent(ctx, ownerID, eventID, changes, "subtract from event totals")
}

// ApplyChanges applies an add and a subtract to each total in one write.
func (e *Engine) ApplyChanges(ctx context.Context, ownerID, eventID string, changes Changes) (core.Totals, error) {
	if err := requireIDs(ownerID, eventID); err != nil {
		return core.Totals{}, err
	}
	if changes.negative() {
		return core.Totals{}, core.Invalid("changes", "Amounts must not be negative")
	}
	return e.updateEvent(ctx, ownerID, eventID, changes, "update event totals")
}

func validateAmounts(ownerID, eventID string, amounts Amounts) error {
	if err := requireIDs(ownerID, eventID); err != nil {
		return err
	}
	if amounts.empty() {
		return core.Invalid("amounts", "At least one amount must be provided")
	}
	if amounts.negative() {
		return core.Invalid("amounts", "Amounts must not be negative")
	}
	return nil
}

func (e *Engine) updateEvent(ctx context.Context, ownerID, eventID string, changes Changes, op string) (core.Totals, error) {
	var result core.Totals
	err := e.store.RunTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		event, err := storage.GetEvent(ctx, tx, ownerID, eventID)
		if err != nil {
			return err
		}
		event.ApplyTotals(changes.ApplyTo(event.Totals))
		event.Touch(e.Now(), core.ActorFrom(ctx))
		result = event.Totals
		return storage.PutEvent(ctx, tx, ownerID, event)
	})
	if err != nil {
		return core.Totals{}, core.WrapStoreError(op, err)
	}
	return result, nil
}

// ApplyPlan applies plan to the touched categories and to the event inside
// the caller's transaction. Category and event totals are floored
// independently.
func (e *Engine) ApplyPlan(ctx context.Context, tx storage.Tx, ownerID, eventID string, plan *Plan) error {
	if plan == nil || plan.Empty() {
		return nil
	}
	now, actor := e.Now(), core.ActorFrom(ctx)
	for _, id := range plan.CategoryIDs() {
		changes := plan.Category(id)
		if err := e.adjustCategory(ctx, tx, ownerID, eventID, id, func(c *core.Category) {
			c.BudgetedAmount = changes.Budgeted.Apply(c.BudgetedAmount)
			c.ScheduledAmount = changes.Scheduled.Apply(c.ScheduledAmount)
			c.SpentAmount = changes.Spent.Apply(c.SpentAmount)
		}); err != nil {
			return err
		}
	}

	event, err := storage.GetEvent(ctx, tx, ownerID, eventID)
	if err != nil {
		return err
	}
	event.ApplyTotals(plan.Event().ApplyTo(event.Totals))
	event.Touch(now, actor)
	return storage.PutEvent(ctx, tx, ownerID, event)
}

func (e *Engine) adjustCategory(ctx context.Context, tx storage.Tx, ownerID, eventID, categoryID string, fn func(*core.Category)) error {
	c, err := storage.GetCategory(ctx, tx, ownerID, eventID, categoryID)
	if err != nil {
		return err
	}
	fn(&c)
	c.Touch(e.Now(), core.ActorFrom(ctx))
	return storage.PutCategory(ctx, tx, ownerID, eventID, c)
}
