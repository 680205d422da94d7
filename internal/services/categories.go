package services

import (
	"context"
	"fmt"

	"eventbudget/internal/core"
	"eventbudget/internal/idgen"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/totals"
)

// CreateCategory adds a category to an event and its budget to the event's
// budgeted total.
func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	categoryID, err := s.id(idgen.CategoryPrefix)
	if err != nil {
		return "", err
	}
	now, actor := s.stamp(ctx)

	fields := log.NewFields().WithEvent(in.OwnerID, in.EventID).WithCategory(categoryID)
	err = s.mutate(ctx, log.ComponentCategories, "create category", fields, func(ctx context.Context, tx storage.Tx) error {
		if _, err := storage.GetEvent(ctx, tx, in.OwnerID, in.EventID); err != nil {
			return err
		}
		c := newCategory(categoryID, in.CategoryTemplate)
		c.BudgetedAmount = core.Money{}
		c.Stamp(now, actor)
		if err := storage.PutCategory(ctx, tx, in.OwnerID, in.EventID, c); err != nil {
			return err
		}
		return s.engine.ApplyPlan(ctx, tx, in.OwnerID, in.EventID, totals.NewPlan().AddBudgeted(categoryID, in.Budget))
	})
	if err != nil {
		return "", err
	}

	s.committed(ctx, in.OwnerID, in.EventID, "category created")
	return categoryID, nil
}

// UpdateCategoryBudget sets a category's budget and moves the event's
// budgeted total by the difference.
func (s *Service) UpdateCategoryBudget(ctx context.Context, in UpdateCategoryBudgetInput) error {
	if err := validateInput(in); err != nil {
		return err
	}

	fields := log.NewFields().WithEvent(in.OwnerID, in.EventID).WithCategory(in.CategoryID)
	err := s.mutate(ctx, log.ComponentCategories, "update category budget", fields, func(ctx context.Context, tx storage.Tx) error {
		c, err := storage.GetCategory(ctx, tx, in.OwnerID, in.EventID, in.CategoryID)
		if err != nil {
			return err
		}
		plan := totals.NewPlan().
			SubtractBudgeted(c.ID, c.BudgetedAmount).
			AddBudgeted(c.ID, in.Budget)
		return s.engine.ApplyPlan(ctx, tx, in.OwnerID, in.EventID, plan)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, in.OwnerID, in.EventID, "category budget changed")
	return nil
}

// DeleteCategory deletes a category that no expense references and removes
// its amounts from the event totals.
func (s *Service) DeleteCategory(ctx context.Context, ref CategoryRef) error {
	if err := validateInput(ref); err != nil {
		return err
	}

	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID).WithCategory(ref.CategoryID)
	err := s.mutate(ctx, log.ComponentCategories, "delete category", fields, func(ctx context.Context, tx storage.Tx) error {
		c, err := storage.GetCategory(ctx, tx, ref.OwnerID, ref.EventID, ref.CategoryID)
		if err != nil {
			return err
		}
		expenses, err := storage.ExpensesByCategory(ctx, tx, ref.OwnerID, ref.EventID, ref.CategoryID)
		if err != nil {
			return err
		}
		if len(expenses) > 0 {
			return &core.ConflictError{Message: fmt.Sprintf("Cannot delete category %q: %d expenses still reference it", c.Name, len(expenses))}
		}

		plan := totals.NewPlan().
			SubtractBudgeted(c.ID, c.BudgetedAmount).
			SubtractScheduled(c.ID, c.ScheduledAmount).
			SubtractSpent(c.ID, c.SpentAmount)
		if err := s.engine.ApplyPlan(ctx, tx, ref.OwnerID, ref.EventID, plan); err != nil {
			return err
		}
		return tx.Delete(ctx, storage.CategoryPath(ref.OwnerID, ref.EventID, c.ID))
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ref.OwnerID, ref.EventID, "category deleted")
	return nil
}

// CategoryIDForExpense returns the category an expense belongs to, or an
// empty string when the expense does not exist.
func (s *Service) CategoryIDForExpense(ctx context.Context, ref ExpenseRef) (string, error) {
	if err := validateInput(ref); err != nil {
		return "", err
	}
	id, err := totals.GetCategoryIDFromExpense(ctx, s.store, ref.OwnerID, ref.EventID, ref.ExpenseID)
	if err != nil {
		fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID).WithExpense(ref.ExpenseID, 0)
		return "", s.read(ctx, "get category of expense", fields, err)
	}
	return id, nil
}
