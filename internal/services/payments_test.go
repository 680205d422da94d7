package services

import (
	"context"
	"errors"
	"testing"

	"eventbudget/internal/core"
	"eventbudget/internal/storage"
)

type paymentFixture struct {
	*fixture
	eventID    string
	categoryID string
	ref        ExpenseRef
	ids        []string
}

// newPaymentFixture creates an expense of 500.00 with a schedule of 200.00
// and 300.00.
func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := newFixture(t)
	eventID, cats := f.seedEvent(t, 100000)
	expenseID := f.addExpense(t, eventID, cats[0], 50000)
	ref := ExpenseRef{EventRef: EventRef{OwnerID: testOwner, EventID: eventID}, ExpenseID: expenseID}

	ids, err := f.svc.SetPaymentSchedule(f.ctx, SetPaymentScheduleInput{ExpenseRef: ref, Payments: []PaymentInput{
		{Name: "Deposit", Amount: core.Cents(20000), DueDate: core.NewDate(2026, 4, 1)},
		{Name: "Balance", Amount: core.Cents(30000), DueDate: core.NewDate(2026, 9, 1)},
	}})
	if err != nil {
		t.Fatalf("SetPaymentSchedule() error = %v", err)
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatalf("payment ids = %v", ids)
	}
	return &paymentFixture{fixture: f, eventID: eventID, categoryID: cats[0], ref: ref, ids: ids}
}

func (p *paymentFixture) pay(t *testing.T, id string) {
	t.Helper()
	err := p.svc.MarkPaymentPaid(p.ctx, MarkPaymentPaidInput{
		PaymentRef:    PaymentRef{ExpenseRef: p.ref, PaymentID: id},
		PaidDate:      core.NewDate(2026, 4, 2),
		PaymentMethod: "bank transfer",
	})
	if err != nil {
		t.Fatalf("MarkPaymentPaid(%s) error = %v", id, err)
	}
}

func (p *paymentFixture) spent(t *testing.T) (category, event int64) {
	t.Helper()
	return p.category(t, p.eventID, p.categoryID).SpentAmount.Cents, p.event(t, p.eventID).Spent.Cents
}

func TestMarkPaymentPaidAndUnpaid(t *testing.T) {
	p := newPaymentFixture(t)

	p.pay(t, p.ids[0])
	if c, e := p.spent(t); c != 20000 || e != 20000 {
		t.Errorf("spent after paying deposit = %d/%d, want 20000/20000", c, e)
	}
	exp, _ := p.svc.GetExpense(p.ctx, p.ref)
	paid := exp.PaymentSchedule[0]
	if !paid.IsPaid || paid.PaidDate == nil || paid.PaymentMethod != "bank transfer" {
		t.Errorf("payment = %+v", paid)
	}

	err := p.svc.MarkPaymentPaid(p.ctx, MarkPaymentPaidInput{PaymentRef: PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[0]}, PaidDate: core.NewDate(2026, 4, 3)})
	var ce *core.ConflictError
	if !errors.As(err, &ce) {
		t.Errorf("paying twice error = %v, want ConflictError", err)
	}
	if c, e := p.spent(t); c != 20000 || e != 20000 {
		t.Errorf("spent after conflict = %d/%d, want unchanged", c, e)
	}

	if err := p.svc.MarkPaymentUnpaid(p.ctx, PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[0]}); err != nil {
		t.Fatalf("MarkPaymentUnpaid() error = %v", err)
	}
	if c, e := p.spent(t); c != 0 || e != 0 {
		t.Errorf("spent after unpaid = %d/%d, want 0/0", c, e)
	}
	if err := p.svc.MarkPaymentUnpaid(p.ctx, PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[0]}); !errors.As(err, &ce) {
		t.Errorf("unpaying unpaid payment error = %v, want ConflictError", err)
	}
	p.assertMatchesRecompute(t, p.eventID)
}

func TestMarkPaymentPaidNotFound(t *testing.T) {
	p := newPaymentFixture(t)
	err := p.svc.MarkPaymentPaid(p.ctx, MarkPaymentPaidInput{
		PaymentRef: PaymentRef{ExpenseRef: p.ref, PaymentID: "pay-missing"},
		PaidDate:   core.NewDate(2026, 4, 2),
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "payment" {
		t.Fatalf("error = %v, want payment not found", err)
	}
}

func TestPaymentPlanConflicts(t *testing.T) {
	p := newPaymentFixture(t)
	var ce *core.ConflictError

	_, err := p.svc.SetPaymentSchedule(p.ctx, SetPaymentScheduleInput{ExpenseRef: p.ref, Payments: []PaymentInput{
		{Name: "Other", Amount: core.Cents(100), DueDate: core.NewDate(2026, 5, 1)},
	}})
	if !errors.As(err, &ce) {
		t.Errorf("second schedule error = %v, want ConflictError", err)
	}
	_, err = p.svc.CreatePaidPayment(p.ctx, CreatePaidPaymentInput{ExpenseRef: p.ref, Name: "Cash", Amount: core.Cents(100), PaidDate: core.NewDate(2026, 5, 1)})
	if !errors.As(err, &ce) {
		t.Errorf("one-off on scheduled expense error = %v, want ConflictError", err)
	}
}

func TestSetPaymentScheduleValidation(t *testing.T) {
	p := newPaymentFixture(t)
	tests := []struct {
		name     string
		payments []PaymentInput
		field    string
	}{
		{"empty", nil, "payments"},
		{"zero amount", []PaymentInput{{Name: "x", DueDate: core.NewDate(2026, 1, 1)}}, "amount"},
		{"no due date", []PaymentInput{{Name: "x", Amount: core.Cents(1)}}, "dueDate"},
		{"no name", []PaymentInput{{Amount: core.Cents(1), DueDate: core.NewDate(2026, 1, 1)}}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.svc.SetPaymentSchedule(p.ctx, SetPaymentScheduleInput{ExpenseRef: p.ref, Payments: tt.payments})
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestUpdatePaidPaymentAmount(t *testing.T) {
	p := newPaymentFixture(t)
	p.pay(t, p.ids[1])

	amount := core.Cents(25000)
	notes := "discount"
	err := p.svc.UpdatePayment(p.ctx, UpdatePaymentInput{
		PaymentRef: PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[1]},
		Amount:     &amount,
		Notes:      &notes,
	})
	if err != nil {
		t.Fatalf("UpdatePayment() error = %v", err)
	}
	if c, e := p.spent(t); c != 25000 || e != 25000 {
		t.Errorf("spent = %d/%d, want 25000/25000", c, e)
	}

	// Unpaid payments do not count toward spent.
	amount = core.Cents(1000)
	if err := p.svc.UpdatePayment(p.ctx, UpdatePaymentInput{PaymentRef: PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[0]}, Amount: &amount}); err != nil {
		t.Fatalf("UpdatePayment() error = %v", err)
	}
	if c, e := p.spent(t); c != 25000 || e != 25000 {
		t.Errorf("spent = %d/%d, want unchanged", c, e)
	}
	p.assertMatchesRecompute(t, p.eventID)
}

func TestDeletePayment(t *testing.T) {
	p := newPaymentFixture(t)
	p.pay(t, p.ids[0])

	if err := p.svc.DeletePayment(p.ctx, PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[0]}); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if c, e := p.spent(t); c != 0 || e != 0 {
		t.Errorf("spent = %d/%d, want 0/0", c, e)
	}
	exp, _ := p.svc.GetExpense(p.ctx, p.ref)
	if len(exp.PaymentSchedule) != 1 || exp.PaymentSchedule[0].ID != p.ids[1] || !exp.HasPaymentSchedule {
		t.Errorf("schedule = %+v", exp.PaymentSchedule)
	}

	if err := p.svc.DeletePayment(p.ctx, PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[1]}); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	exp, _ = p.svc.GetExpense(p.ctx, p.ref)
	if exp.HasPaymentSchedule || exp.HasPayments() {
		t.Errorf("expense still has a payment plan: %+v", exp)
	}

	var nf *core.NotFoundError
	if err := p.svc.DeletePayment(p.ctx, PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[1]}); !errors.As(err, &nf) {
		t.Errorf("deleting twice error = %v, want NotFoundError", err)
	}
	p.assertMatchesRecompute(t, p.eventID)
}

func TestClearPaymentsAdjustsCategoryAndEvent(t *testing.T) {
	p := newPaymentFixture(t)
	p.pay(t, p.ids[0])
	p.pay(t, p.ids[1])

	if err := p.svc.ClearPayments(p.ctx, p.ref); err != nil {
		t.Fatalf("ClearPayments() error = %v", err)
	}
	if c, e := p.spent(t); c != 0 || e != 0 {
		t.Errorf("spent = %d/%d, want 0/0", c, e)
	}
	exp, _ := p.svc.GetExpense(p.ctx, p.ref)
	if exp.HasPaymentSchedule || exp.PaymentSchedule != nil || exp.OneOffPayment != nil {
		t.Errorf("payments not cleared: %+v", exp)
	}
	if got := p.event(t, p.eventID).Scheduled.Cents; got != 50000 {
		t.Errorf("scheduled = %d, want 50000", got)
	}

	// A cleared expense accepts a new plan.
	if _, err := p.svc.CreatePaidPayment(p.ctx, CreatePaidPaymentInput{ExpenseRef: p.ref, Name: "Cash", Amount: core.Cents(50000), PaidDate: core.NewDate(2026, 5, 1)}); err != nil {
		t.Fatalf("CreatePaidPayment() error = %v", err)
	}
	if c, e := p.spent(t); c != 50000 || e != 50000 {
		t.Errorf("spent = %d/%d, want 50000/50000", c, e)
	}
	p.assertMatchesRecompute(t, p.eventID)
}

func TestDeleteOneOffPaymentRemovesAttachments(t *testing.T) {
	f := newFixture(t)
	eventID, cats := f.seedEvent(t, 1000)
	expenseID := f.addExpense(t, eventID, cats[0], 800)
	ref := ExpenseRef{EventRef: EventRef{OwnerID: testOwner, EventID: eventID}, ExpenseID: expenseID}
	f.files.Put("memory://receipt.jpg", []byte("jpg"))

	id, err := f.svc.CreatePaidPayment(f.ctx, CreatePaidPaymentInput{
		ExpenseRef:  ref,
		Name:        "Card",
		Amount:      core.Cents(800),
		PaidDate:    core.NewDate(2026, 3, 3),
		Attachments: []string{"memory://receipt.jpg"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeletePayment(f.ctx, PaymentRef{ExpenseRef: ref, PaymentID: id}); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if f.files.Has("memory://receipt.jpg") {
		t.Error("receipt should be deleted")
	}
	if got := f.event(t, eventID).Spent.Cents; got != 0 {
		t.Errorf("spent = %d, want 0", got)
	}
}

func TestInconsistentPaymentPlanIsNotWritten(t *testing.T) {
	p := newPaymentFixture(t)
	err := p.store.RunTransaction(p.ctx, func(ctx context.Context, tx storage.Tx) error {
		exp, err := storage.GetExpense(ctx, tx, testOwner, p.eventID, p.ref.ExpenseID)
		if err != nil {
			return err
		}
		exp.OneOffPayment = &core.Payment{ID: "pay_stray", Name: "Stray", Amount: core.Cents(100)}
		return storage.PutExpense(ctx, tx, testOwner, p.eventID, exp)
	})
	if err != nil {
		t.Fatalf("seeding stray payment: %v", err)
	}

	err = p.svc.MarkPaymentPaid(p.ctx, MarkPaymentPaidInput{
		PaymentRef: PaymentRef{ExpenseRef: p.ref, PaymentID: p.ids[1]},
		PaidDate:   core.NewDate(2026, 4, 2),
	})
	var v *core.ValidationError
	if !errors.As(err, &v) || v.Field != "expense" {
		t.Fatalf("MarkPaymentPaid() error = %v, want ValidationError on expense", err)
	}
	if cat, evt := p.spent(t); cat != 0 || evt != 0 {
		t.Errorf("spent = %d/%d, want 0/0 after rejected write", cat, evt)
	}
	exp, err := p.svc.GetExpense(p.ctx, p.ref)
	if err != nil {
		t.Fatal(err)
	}
	if exp.FindPayment(p.ids[1]).IsPaid {
		t.Error("payment was marked paid despite the rejected write")
	}
}
