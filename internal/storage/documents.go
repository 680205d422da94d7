package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eventbudget/internal/core"
)

const (
	rootCollection       = "workspace"
	eventsCollection     = "events"
	categoriesCollection = "categories"
	expensesCollection   = "expenses"
)

func EventsPath(owner string) string {
	return Join(rootCollection, owner, eventsCollection)
}

func EventPath(owner, eventID string) string {
	return Join(EventsPath(owner), eventID)
}

func CategoriesPath(owner, eventID string) string {
	return Join(EventPath(owner, eventID), categoriesCollection)
}

func CategoryPath(owner, eventID, categoryID string) string {
	return Join(CategoriesPath(owner, eventID), categoryID)
}

func ExpensesPath(owner, eventID string) string {
	return Join(EventPath(owner, eventID), expensesCollection)
}

func ExpensePath(owner, eventID, expenseID string) string {
	return Join(ExpensesPath(owner, eventID), expenseID)
}

func getDoc[T any](ctx context.Context, r Reader, path, kind, id string) (T, error) {
	var v T
	data, err := r.Get(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return v, &core.NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return v, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s %s: %w", kind, id, err)
	}
	return v, nil
}

func listDocs[T any](ctx context.Context, r Reader, collection, kind string) ([]T, error) {
	docs, err := r.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", kind, d.Path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func putDoc(ctx context.Context, tx Tx, path, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := tx.Set(ctx, path, data); err != nil {
		return fmt.Errorf("set %s: %w", kind, err)
	}
	return nil
}

func GetEvent(ctx context.Context, r Reader, owner, eventID string) (core.Event, error) {
	return getDoc[core.Event](ctx, r, EventPath(owner, eventID), "event", eventID)
}

func ListEvents(ctx context.Context, r Reader, owner string) ([]core.Event, error) {
	return listDocs[core.Event](ctx, r, EventsPath(owner), "events")
}

func PutEvent(ctx context.Context, tx Tx, owner string, e core.Event) error {
	return putDoc(ctx, tx, EventPath(owner, e.ID), "event", e)
}

func GetCategory(ctx context.Context, r Reader, owner, eventID, categoryID string) (core.Category, error) {
	return getDoc[core.Category](ctx, r, CategoryPath(owner, eventID, categoryID), "category", categoryID)
}

func ListCategories(ctx context.Context, r Reader, owner, eventID string) ([]core.Category, error) {
	return listDocs[core.Category](ctx, r, CategoriesPath(owner, eventID), "categories")
}

func PutCategory(ctx context.Context, tx Tx, owner, eventID string, c core.Category) error {
	return putDoc(ctx, tx, CategoryPath(owner, eventID, c.ID), "category", c)
}

func GetExpense(ctx context.Context, r Reader, owner, eventID, expenseID string) (core.Expense, error) {
	return getDoc[core.Expense](ctx, r, ExpensePath(owner, eventID, expenseID), "expense", expenseID)
}

func ListExpenses(ctx context.Context, r Reader, owner, eventID string) ([]core.Expense, error) {
	return listDocs[core.Expense](ctx, r, ExpensesPath(owner, eventID), "expenses")
}

// ExpensesByCategory returns the expenses whose category snapshot points at
// categoryID.
func ExpensesByCategory(ctx context.Context, r Reader, owner, eventID, categoryID string) ([]core.Expense, error) {
	all, err := ListExpenses(ctx, r, owner, eventID)
	if err != nil {
		return nil, err
	}
	var out []core.Expense
	for _, e := range all {
		if e.Category.ID == categoryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func PutExpense(ctx context.Context, tx Tx, owner, eventID string, e core.Expense) error {
	return putDoc(ctx, tx, ExpensePath(owner, eventID, e.ID), "expense", e)
}
