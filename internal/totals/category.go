package totals

import (
	"context"
	"errors"
	"strings"

	"eventbudget/internal/core"
	"eventbudget/internal/storage"
)

// AddToCategorySpentAmount increments a category's spent amount. When tx is
// nil the update runs in its own transaction; otherwise it joins tx and is
// committed with it. The event totals are not touched.
func (e *Engine) AddToCategorySpentAmount(ctx context.Context, ownerID, eventID, categoryID string, amount core.Money, tx storage.Tx) error {
	return e.changeCategorySpent(ctx, ownerID, eventID, categoryID, Change{Add: amount}, tx, "add to category spent amount")
}

// SubtractFromCategorySpentAmount decrements a category's spent amount,
// flooring it at zero. tx works as in AddToCategorySpentAmount.
func (e *Engine) SubtractFromCategorySpentAmount(ctx context.Context, ownerID, eventID, categoryID string, amount core.Money, tx storage.Tx) error {
	return e.changeCategorySpent(ctx, ownerID, eventID, categoryID, Change{Subtract: amount}, tx, "subtract from category spent amount")
}

func (e *Engine) changeCategorySpent(ctx context.Context, ownerID, eventID, categoryID string, change Change, tx storage.Tx, op string) error {
	if err := requireIDs(ownerID, eventID); err != nil {
		return err
	}
	if strings.TrimSpace(categoryID) == "" {
		return core.Invalid("categoryId", "Category ID is required")
	}
	if change.negative() {
		return core.Invalid("amount", "Amount must not be negative")
	}

	apply := func(ctx context.Context, tx storage.Tx) error {
		return e.adjustCategory(ctx, tx, ownerID, eventID, categoryID, func(c *core.Category) {
			c.SpentAmount = change.Apply(c.SpentAmount)
		})
	}
	if tx != nil {
		return apply(ctx, tx)
	}
	return core.WrapStoreError(op, e.store.RunTransaction(ctx, apply))
}

// GetCategoryIDFromExpense returns the category id referenced by an expense,
// or an empty string when the expense does not exist.
func GetCategoryIDFromExpense(ctx context.Context, r storage.Reader, ownerID, eventID, expenseID string) (string, error) {
	exp, err := storage.GetExpense(ctx, r, ownerID, eventID, expenseID)
	if err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			return "", nil
		}
		return "", err
	}
	return exp.Category.ID, nil
}
