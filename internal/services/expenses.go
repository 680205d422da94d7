package services

import (
	"context"
	"errors"
	"fmt"

	"eventbudget/internal/core"
	"eventbudget/internal/idgen"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/totals"
)

// AddExpense creates an unpaid expense and adds its amount to the scheduled
// totals of its category and event.
func (s *Service) AddExpense(ctx context.Context, in AddExpenseInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	expenseID, err := s.id(idgen.ExpensePrefix)
	if err != nil {
		return "", err
	}
	now, actor := s.stamp(ctx)

	fields := log.NewFields().WithEvent(in.OwnerID, in.EventID).
		WithCategory(in.CategoryID).WithExpense(expenseID, in.Amount.Cents)
	err = s.mutate(ctx, log.ComponentExpenses, "add expense", fields, func(ctx context.Context, tx storage.Tx) error {
		event, err := storage.GetEvent(ctx, tx, in.OwnerID, in.EventID)
		if err != nil {
			return err
		}
		if in.Currency != "" && in.Currency != event.Currency {
			return core.Invalid("currency", fmt.Sprintf("must match the event currency %s", event.Currency))
		}
		category, err := storage.GetCategory(ctx, tx, in.OwnerID, in.EventID, in.CategoryID)
		if err != nil {
			return err
		}

		exp := core.Expense{
			ID:          expenseID,
			Name:        in.Name,
			Amount:      in.Amount,
			Currency:    event.Currency,
			Category:    category.Snapshot(),
			Vendor:      in.Vendor,
			Date:        in.Date,
			Tags:        in.Tags,
			Attachments: in.Attachments,
		}
		exp.Stamp(now, actor)
		if err := putExpense(ctx, tx, in.OwnerID, in.EventID, exp); err != nil {
			return err
		}
		return s.engine.ApplyPlan(ctx, tx, in.OwnerID, in.EventID, totals.NewPlan().AddScheduled(category.ID, in.Amount))
	})
	if err != nil {
		return "", err
	}

	s.committed(ctx, in.OwnerID, in.EventID, "expense added")
	return expenseID, nil
}

func (s *Service) GetExpense(ctx context.Context, ref ExpenseRef) (core.Expense, error) {
	if err := validateInput(ref); err != nil {
		return core.Expense{}, err
	}
	exp, err := storage.GetExpense(ctx, s.store, ref.OwnerID, ref.EventID, ref.ExpenseID)
	if err != nil {
		fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID).WithExpense(ref.ExpenseID, 0)
		return core.Expense{}, s.read(ctx, "get expense", fields, err)
	}
	return exp, nil
}

// UpdateExpense applies the non-nil fields of in. When the amount or the
// category changes, the scheduled amounts move with the expense; a moved
// expense also takes its paid amount to the new category.
func (s *Service) UpdateExpense(ctx context.Context, in UpdateExpenseInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	now, actor := s.stamp(ctx)

	plan := totals.NewPlan()
	fields := log.NewFields().WithEvent(in.OwnerID, in.EventID).WithExpense(in.ExpenseID, 0)
	err := s.mutate(ctx, log.ComponentExpenses, "update expense", fields, func(ctx context.Context, tx storage.Tx) error {
		exp, err := storage.GetExpense(ctx, tx, in.OwnerID, in.EventID, in.ExpenseID)
		if err != nil {
			return err
		}
		oldCategory, oldAmount := exp.Category.ID, exp.Amount

		if in.Name != nil {
			exp.Name = *in.Name
		}
		if in.Vendor != nil {
			exp.Vendor = *in.Vendor
		}
		if in.Date != nil {
			exp.Date = *in.Date
		}
		if in.Tags != nil {
			exp.Tags = in.Tags
		}
		if in.Attachments != nil {
			exp.Attachments = in.Attachments
		}
		if in.Amount != nil {
			exp.Amount = *in.Amount
		}
		if in.CategoryID != nil && *in.CategoryID != oldCategory {
			category, err := storage.GetCategory(ctx, tx, in.OwnerID, in.EventID, *in.CategoryID)
			if err != nil {
				return err
			}
			exp.Category = category.Snapshot()
		}

		amountChanged := exp.Amount != oldAmount
		categoryChanged := exp.Category.ID != oldCategory
		plan = totals.NewPlan()
		if amountChanged || categoryChanged {
			plan.SubtractScheduled(oldCategory, oldAmount).AddScheduled(exp.Category.ID, exp.Amount)
		}
		if categoryChanged {
			paid := exp.PaidAmount()
			plan.SubtractSpent(oldCategory, paid).AddSpent(exp.Category.ID, paid)
		}

		exp.Touch(now, actor)
		if err := putExpense(ctx, tx, in.OwnerID, in.EventID, exp); err != nil {
			return err
		}
		return s.engine.ApplyPlan(ctx, tx, in.OwnerID, in.EventID, plan)
	})
	if err != nil {
		return err
	}

	if !plan.Empty() {
		s.committed(ctx, in.OwnerID, in.EventID, "expense updated")
	}
	return nil
}

// DeleteExpense deletes an expense and removes its scheduled and paid
// amounts from its category and event. Attachments are deleted afterwards,
// best-effort.
func (s *Service) DeleteExpense(ctx context.Context, ref ExpenseRef) error {
	if err := validateInput(ref); err != nil {
		return err
	}

	var urls []string
	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID).WithExpense(ref.ExpenseID, 0)
	err := s.mutate(ctx, log.ComponentExpenses, "delete expense", fields, func(ctx context.Context, tx storage.Tx) error {
		exp, err := storage.GetExpense(ctx, tx, ref.OwnerID, ref.EventID, ref.ExpenseID)
		if err != nil {
			return err
		}
		urls = expenseAttachments(exp)

		if err := tx.Delete(ctx, storage.ExpensePath(ref.OwnerID, ref.EventID, exp.ID)); err != nil {
			return err
		}

		_, err = storage.GetCategory(ctx, tx, ref.OwnerID, ref.EventID, exp.Category.ID)
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			// Totals never counted an expense without a category.
			s.logger.WarnContext(ctx, "Deleting expense of unknown category",
				log.NewFields().Merge(fields).WithCategory(exp.Category.ID).ToSlice()...)
			return nil
		}
		if err != nil {
			return err
		}

		plan := totals.NewPlan().
			SubtractScheduled(exp.Category.ID, exp.Amount).
			SubtractSpent(exp.Category.ID, exp.PaidAmount())
		return s.engine.ApplyPlan(ctx, tx, ref.OwnerID, ref.EventID, plan)
	})
	if err != nil {
		return err
	}

	s.deleteAttachments(ctx, urls, fields)
	s.committed(ctx, ref.OwnerID, ref.EventID, "expense deleted")
	return nil
}
