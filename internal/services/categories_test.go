package services

import (
	"errors"
	"testing"

	"eventbudget/internal/core"
)

func TestCreateCategoryAddsBudget(t *testing.T) {
	f := newFixture(t)
	eventID, _ := f.seedEvent(t, 1000)

	id, err := f.svc.CreateCategory(f.ctx, CreateCategoryInput{
		EventRef:         EventRef{OwnerID: testOwner, EventID: eventID},
		CategoryTemplate: CategoryTemplate{Name: "Music", Budget: core.Cents(2500), Color: "#ff0000", Icon: "music"},
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	c := f.category(t, eventID, id)
	if c.BudgetedAmount.Cents != 2500 || c.Color != "#ff0000" || c.CreatedBy != "user-1" {
		t.Errorf("category = %+v", c)
	}
	if got := f.event(t, eventID).Budgeted.Cents; got != 3500 {
		t.Errorf("event budgeted = %d, want 3500", got)
	}

	_, err = f.svc.CreateCategory(f.ctx, CreateCategoryInput{
		EventRef:         EventRef{OwnerID: testOwner, EventID: "evt-missing"},
		CategoryTemplate: CategoryTemplate{Name: "Music"},
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("CreateCategory(missing event) error = %v", err)
	}
}

func TestUpdateCategoryBudget(t *testing.T) {
	f := newFixture(t)
	eventID, cats := f.seedEvent(t, 1000, 500)
	ref := CategoryRef{EventRef: EventRef{OwnerID: testOwner, EventID: eventID}, CategoryID: cats[0]}

	tests := []struct {
		budget    int64
		wantEvent int64
	}{
		{1500, 2000},
		{200, 700},
		{0, 500},
	}
	for _, tt := range tests {
		if err := f.svc.UpdateCategoryBudget(f.ctx, UpdateCategoryBudgetInput{CategoryRef: ref, Budget: core.Cents(tt.budget)}); err != nil {
			t.Fatalf("UpdateCategoryBudget(%d) error = %v", tt.budget, err)
		}
		if got := f.category(t, eventID, cats[0]).BudgetedAmount.Cents; got != tt.budget {
			t.Errorf("category budget = %d, want %d", got, tt.budget)
		}
		if got := f.event(t, eventID).Budgeted.Cents; got != tt.wantEvent {
			t.Errorf("event budgeted = %d, want %d", got, tt.wantEvent)
		}
	}
	f.assertMatchesRecompute(t, eventID)
}

func TestDeleteCategory(t *testing.T) {
	f := newFixture(t)
	eventID, cats := f.seedEvent(t, 1000, 500)
	expenseID := f.addExpense(t, eventID, cats[0], 100)
	ref := CategoryRef{EventRef: EventRef{OwnerID: testOwner, EventID: eventID}, CategoryID: cats[0]}

	err := f.svc.DeleteCategory(f.ctx, ref)
	var ce *core.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("DeleteCategory(referenced) error = %v, want ConflictError", err)
	}

	if err := f.svc.DeleteExpense(f.ctx, ExpenseRef{EventRef: ref.EventRef, ExpenseID: expenseID}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteCategory(f.ctx, ref); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if got := f.event(t, eventID).Budgeted.Cents; got != 500 {
		t.Errorf("event budgeted = %d, want 500", got)
	}

	var nf *core.NotFoundError
	if err := f.svc.DeleteCategory(f.ctx, ref); !errors.As(err, &nf) {
		t.Errorf("DeleteCategory(deleted) error = %v, want NotFoundError", err)
	}
	f.assertMatchesRecompute(t, eventID)
}
