package services

import (
	"context"
	"errors"
	"sort"

	"eventbudget/internal/core"
	"eventbudget/internal/idgen"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/totals"
)

// DefaultCurrency is used for events created without a currency.
const DefaultCurrency = "EUR"

// CreateEvent creates an event and its template categories. The event's
// budgeted total is the sum of the category budgets.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}

	eventID, err := s.id(idgen.EventPrefix)
	if err != nil {
		return "", err
	}
	now, actor := s.stamp(ctx)

	categories := make([]core.Category, 0, len(in.Categories))
	var budgeted core.Money
	for _, tpl := range in.Categories {
		id, err := s.id(idgen.CategoryPrefix)
		if err != nil {
			return "", err
		}
		c := newCategory(id, tpl)
		c.Stamp(now, actor)
		categories = append(categories, c)
		budgeted = budgeted.Add(tpl.Budget)
	}

	event := core.Event{
		ID:          eventID,
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		EventDate:   in.EventDate,
		Currency:    in.Currency,
	}
	if event.Currency == "" {
		event.Currency = DefaultCurrency
	}
	event.ApplyTotals(core.Totals{Budgeted: budgeted})
	event.Stamp(now, actor)

	fields := log.NewFields().WithEvent(in.OwnerID, eventID)
	err = s.mutate(ctx, log.ComponentEvents, "create event", fields, func(ctx context.Context, tx storage.Tx) error {
		if err := storage.PutEvent(ctx, tx, in.OwnerID, event); err != nil {
			return err
		}
		for _, c := range categories {
			if err := storage.PutCategory(ctx, tx, in.OwnerID, eventID, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.committed(ctx, in.OwnerID, eventID, "event created")
	return eventID, nil
}

func newCategory(id string, tpl CategoryTemplate) core.Category {
	return core.Category{
		ID:             id,
		Name:           tpl.Name,
		Description:    tpl.Description,
		BudgetedAmount: tpl.Budget,
		Color:          tpl.Color,
		Icon:           tpl.Icon,
	}
}

// GetEventSummary returns the event and its categories sorted by name.
func (s *Service) GetEventSummary(ctx context.Context, ref EventRef) (core.EventSummary, error) {
	if err := validateInput(ref); err != nil {
		return core.EventSummary{}, err
	}
	var gen uint64
	if s.summaries != nil {
		if summary, ok := s.summaries.Get(ref.OwnerID, ref.EventID); ok {
			return summary, nil
		}
		gen = s.summaries.Generation()
	}

	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID)
	event, err := storage.GetEvent(ctx, s.store, ref.OwnerID, ref.EventID)
	if err != nil {
		return core.EventSummary{}, s.read(ctx, "get event summary", fields, err)
	}
	categories, err := storage.ListCategories(ctx, s.store, ref.OwnerID, ref.EventID)
	if err != nil {
		return core.EventSummary{}, s.read(ctx, "get event summary", fields, err)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	summary := core.EventSummary{Event: event, Categories: categories}
	if s.summaries != nil {
		s.summaries.Put(ref.OwnerID, ref.EventID, summary, gen)
	}
	return summary, nil
}

// ListEvents returns the events of an owner ordered by event date.
func (s *Service) ListEvents(ctx context.Context, ownerID string) ([]core.Event, error) {
	if err := validate.Var(ownerID, "notblank,excludesall=/"); err != nil {
		return nil, core.Invalid("ownerId", "is required")
	}
	events, err := storage.ListEvents(ctx, s.store, ownerID)
	if err != nil {
		fields := log.NewFields()
		fields[log.FieldOwnerID] = ownerID
		return nil, s.read(ctx, "list events", fields, err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].EventDate.Before(events[j].EventDate.Time) })
	return events, nil
}

// SetEventCompleted marks an event completed, or reopens it with the status
// derived from its totals.
func (s *Service) SetEventCompleted(ctx context.Context, ref EventRef, completed bool) error {
	if err := validateInput(ref); err != nil {
		return err
	}
	now, actor := s.stamp(ctx)

	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID)
	err := s.mutate(ctx, log.ComponentEvents, "update event status", fields, func(ctx context.Context, tx storage.Tx) error {
		event, err := storage.GetEvent(ctx, tx, ref.OwnerID, ref.EventID)
		if err != nil {
			return err
		}
		if completed {
			event.Status = core.StatusCompleted
		} else {
			event.Status = core.CalculateEventStatus(event.Budgeted, event.Spent)
		}
		event.Touch(now, actor)
		return storage.PutEvent(ctx, tx, ref.OwnerID, event)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ref.OwnerID, ref.EventID, "event status changed")
	return nil
}

// DeleteEvent deletes an event with all its categories and expenses. The
// attachments of the deleted expenses are removed afterwards, best-effort.
func (s *Service) DeleteEvent(ctx context.Context, ref EventRef) error {
	if err := validateInput(ref); err != nil {
		return err
	}

	var urls []string
	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID)
	err := s.mutate(ctx, log.ComponentEvents, "delete event", fields, func(ctx context.Context, tx storage.Tx) error {
		if _, err := storage.GetEvent(ctx, tx, ref.OwnerID, ref.EventID); err != nil {
			return err
		}
		expenses, err := storage.ListExpenses(ctx, tx, ref.OwnerID, ref.EventID)
		if err != nil {
			return err
		}
		categories, err := storage.ListCategories(ctx, tx, ref.OwnerID, ref.EventID)
		if err != nil {
			return err
		}

		urls = urls[:0]
		for _, exp := range expenses {
			urls = append(urls, expenseAttachments(exp)...)
			if err := tx.Delete(ctx, storage.ExpensePath(ref.OwnerID, ref.EventID, exp.ID)); err != nil {
				return err
			}
		}
		for _, c := range categories {
			if err := tx.Delete(ctx, storage.CategoryPath(ref.OwnerID, ref.EventID, c.ID)); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, storage.EventPath(ref.OwnerID, ref.EventID))
	})
	if err != nil {
		return err
	}

	s.deleteAttachments(ctx, urls, fields)
	s.committed(ctx, ref.OwnerID, ref.EventID, "event deleted")
	return nil
}

// RecomputeTotals runs a full recompute of the event totals.
func (s *Service) RecomputeTotals(ctx context.Context, ref EventRef) (core.Totals, error) {
	return s.runTotals(ctx, ref, "recalculate event totals", "totals recomputed", func() (core.Totals, error) {
		return s.engine.Recompute(ctx, ref.OwnerID, ref.EventID)
	})
}

func (s *Service) AddToEventTotals(ctx context.Context, ref EventRef, amounts totals.Amounts) (core.Totals, error) {
	return s.runTotals(ctx, ref, "add to event totals", "totals added", func() (core.Totals, error) {
		return s.engine.Add(ctx, ref.OwnerID, ref.EventID, amounts)
	})
}

func (s *Service) SubtractFromEventTotals(ctx context.Context, ref EventRef, amounts totals.Amounts) (core.Totals, error) {
	return s.runTotals(ctx, ref, "subtract from event totals", "totals subtracted", func() (core.Totals, error) {
		return s.engine.Subtract(ctx, ref.OwnerID, ref.EventID, amounts)
	})
}

func (s *Service) UpdateEventTotalsComplex(ctx context.Context, ref EventRef, changes totals.Changes) (core.Totals, error) {
	return s.runTotals(ctx, ref, "update event totals", "totals updated", func() (core.Totals, error) {
		return s.engine.ApplyChanges(ctx, ref.OwnerID, ref.EventID, changes)
	})
}

func (s *Service) runTotals(ctx context.Context, ref EventRef, op, reason string, fn func() (core.Totals, error)) (core.Totals, error) {
	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID)
	s.reporter.Breadcrumb(ctx, log.ComponentTotals, op, fields)

	t, err := fn()
	if err != nil {
		var ve *core.ValidationError
		if !errors.As(err, &ve) {
			s.reporter.CaptureError(ctx, err, op, fields)
		}
		return core.Totals{}, err
	}
	s.committed(ctx, ref.OwnerID, ref.EventID, reason)
	return t, nil
}
