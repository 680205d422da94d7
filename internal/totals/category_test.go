package totals

import (
	"context"
	"errors"
	"testing"

	"eventbudget/internal/core"
	"eventbudget/internal/storage"
)

func TestEngine_CategorySpentAmount(t *testing.T) {
	engine, store := newTestEngine(t, []core.Category{{ID: "cat-a", SpentAmount: core.Cents(100)}}, nil)
	ctx := context.Background()

	if err := engine.AddToCategorySpentAmount(ctx, testOwner, testEvent, "cat-a", core.Cents(50), nil); err != nil {
		t.Fatalf("AddToCategorySpentAmount() error = %v", err)
	}
	if got := getCategory(t, store, "cat-a").SpentAmount.Cents; got != 150 {
		t.Errorf("spent = %d, want 150", got)
	}

	if err := engine.SubtractFromCategorySpentAmount(ctx, testOwner, testEvent, "cat-a", core.Cents(1000), nil); err != nil {
		t.Fatalf("SubtractFromCategorySpentAmount() error = %v", err)
	}
	if got := getCategory(t, store, "cat-a").SpentAmount.Cents; got != 0 {
		t.Errorf("spent = %d, want 0", got)
	}
	if got := getEvent(t, store).Totals.Spent.Cents; got != 100 {
		t.Errorf("event spent = %d, want untouched 100", got)
	}
}

func TestEngine_CategorySpentAmountJoinsTransaction(t *testing.T) {
	engine, store := newTestEngine(t, []core.Category{{ID: "cat-a", SpentAmount: core.Cents(100)}}, nil)
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := store.RunTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := engine.AddToCategorySpentAmount(ctx, testOwner, testEvent, "cat-a", core.Cents(50), tx); err != nil {
			return err
		}
		c, err := storage.GetCategory(ctx, tx, testOwner, testEvent, "cat-a")
		if err != nil {
			return err
		}
		if c.SpentAmount.Cents != 150 {
			t.Errorf("in-transaction spent = %d, want 150", c.SpentAmount.Cents)
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("RunTransaction() error = %v", err)
	}
	if got := getCategory(t, store, "cat-a").SpentAmount.Cents; got != 100 {
		t.Errorf("spent = %d, want 100 after rollback", got)
	}
}

func TestEngine_CategorySpentAmountValidation(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()
	var ve *core.ValidationError

	if err := engine.AddToCategorySpentAmount(ctx, testOwner, testEvent, "", core.Cents(1), nil); !errors.As(err, &ve) {
		t.Errorf("empty category error = %v", err)
	}
	var nf *core.NotFoundError
	if err := engine.AddToCategorySpentAmount(ctx, testOwner, testEvent, "cat-x", core.Cents(1), nil); !errors.As(err, &nf) {
		t.Errorf("missing category error = %v", err)
	}
}

func TestGetCategoryIDFromExpense(t *testing.T) {
	_, store := newTestEngine(t, []core.Category{{ID: "cat-a"}}, []core.Expense{
		{ID: "exp-1", Name: "Hall", Amount: core.Cents(10), Category: core.CategorySnapshot{ID: "cat-a", Name: "Venue"}},
	})
	ctx := context.Background()

	got, err := GetCategoryIDFromExpense(ctx, store, testOwner, testEvent, "exp-1")
	if err != nil || got != "cat-a" {
		t.Errorf("GetCategoryIDFromExpense(exp-1) = %q, %v", got, err)
	}
	got, err = GetCategoryIDFromExpense(ctx, store, testOwner, testEvent, "exp-missing")
	if err != nil || got != "" {
		t.Errorf("GetCategoryIDFromExpense(missing) = %q, %v", got, err)
	}
}
