package services

import (
	"context"
	"slices"

	"eventbudget/internal/core"
	"eventbudget/internal/idgen"
	"eventbudget/internal/log"
	"eventbudget/internal/storage"
	"eventbudget/internal/totals"
)

var errPlanExists = &core.ConflictError{Message: "Expense already has a payment plan; clear it first"}

func paymentFields(ref PaymentRef) log.LogFields {
	return log.NewFields().WithEvent(ref.OwnerID, ref.EventID).
		WithExpense(ref.ExpenseID, 0).WithPayment(ref.PaymentID)
}

func findPayment(exp *core.Expense, paymentID string) (*core.Payment, error) {
	p := exp.FindPayment(paymentID)
	if p == nil {
		return nil, &core.NotFoundError{Kind: "payment", ID: paymentID}
	}
	return p, nil
}

// putExpense writes exp once its fields and payment plan are consistent.
func putExpense(ctx context.Context, tx storage.Tx, ownerID, eventID string, exp core.Expense) error {
	if err := exp.Validate(); err != nil {
		return core.Invalid("expense", err.Error())
	}
	return storage.PutExpense(ctx, tx, ownerID, eventID, exp)
}

// updateExpense loads an expense, lets fn change it and the plan, then
// writes both in the caller's transaction.
func (s *Service) updateExpense(ctx context.Context, tx storage.Tx, ref ExpenseRef, fn func(exp *core.Expense, plan *totals.Plan) error) (*totals.Plan, error) {
	exp, err := storage.GetExpense(ctx, tx, ref.OwnerID, ref.EventID, ref.ExpenseID)
	if err != nil {
		return nil, err
	}
	plan := totals.NewPlan()
	if err := fn(&exp, plan); err != nil {
		return nil, err
	}
	now, actor := s.stamp(ctx)
	exp.Touch(now, actor)
	if err := putExpense(ctx, tx, ref.OwnerID, ref.EventID, exp); err != nil {
		return nil, err
	}
	return plan, s.engine.ApplyPlan(ctx, tx, ref.OwnerID, ref.EventID, plan)
}

// SetPaymentSchedule attaches a schedule of unpaid payments to an expense
// that has no payment plan yet.
func (s *Service) SetPaymentSchedule(ctx context.Context, in SetPaymentScheduleInput) ([]string, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now, actor := s.stamp(ctx)

	schedule := make([]core.Payment, 0, len(in.Payments))
	ids := make([]string, 0, len(in.Payments))
	for _, p := range in.Payments {
		id, err := s.id(idgen.PaymentPrefix)
		if err != nil {
			return nil, err
		}
		payment := core.Payment{
			ID:            id,
			Name:          p.Name,
			Description:   p.Description,
			Amount:        p.Amount,
			PaymentMethod: p.PaymentMethod,
			DueDate:       p.DueDate,
			Notes:         p.Notes,
		}
		payment.Stamp(now, actor)
		schedule = append(schedule, payment)
		ids = append(ids, id)
	}

	fields := log.NewFields().WithEvent(in.OwnerID, in.EventID).WithExpense(in.ExpenseID, 0)
	err := s.mutate(ctx, log.ComponentPayments, "set payment schedule", fields, func(ctx context.Context, tx storage.Tx) error {
		_, err := s.updateExpense(ctx, tx, in.ExpenseRef, func(exp *core.Expense, _ *totals.Plan) error {
			if exp.HasPayments() {
				return errPlanExists
			}
			exp.HasPaymentSchedule = true
			exp.PaymentSchedule = schedule
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CreatePaidPayment records an already-paid one-off payment and adds it to
// the spent totals.
func (s *Service) CreatePaidPayment(ctx context.Context, in CreatePaidPaymentInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	paymentID, err := s.id(idgen.PaymentPrefix)
	if err != nil {
		return "", err
	}
	now, actor := s.stamp(ctx)

	paidDate := in.PaidDate
	payment := core.Payment{
		ID:            paymentID,
		Name:          in.Name,
		Description:   in.Description,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		DueDate:       in.PaidDate,
		IsPaid:        true,
		PaidDate:      &paidDate,
		Notes:         in.Notes,
		Attachments:   in.Attachments,
	}
	payment.Stamp(now, actor)

	fields := paymentFields(PaymentRef{ExpenseRef: in.ExpenseRef, PaymentID: paymentID})
	err = s.mutate(ctx, log.ComponentPayments, "create payment", fields, func(ctx context.Context, tx storage.Tx) error {
		_, err := s.updateExpense(ctx, tx, in.ExpenseRef, func(exp *core.Expense, plan *totals.Plan) error {
			if exp.HasPayments() {
				return errPlanExists
			}
			p := payment
			exp.HasPaymentSchedule = true
			exp.OneOffPayment = &p
			plan.AddSpent(exp.Category.ID, p.Amount)
			return nil
		})
		return err
	})
	if err != nil {
		return "", err
	}

	s.committed(ctx, in.OwnerID, in.EventID, "payment created")
	return paymentID, nil
}

// MarkPaymentPaid marks a scheduled or one-off payment paid and adds it to
// the spent totals.
func (s *Service) MarkPaymentPaid(ctx context.Context, in MarkPaymentPaidInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	now, actor := s.stamp(ctx)

	err := s.mutate(ctx, log.ComponentPayments, "mark payment paid", paymentFields(in.PaymentRef), func(ctx context.Context, tx storage.Tx) error {
		_, err := s.updateExpense(ctx, tx, in.ExpenseRef, func(exp *core.Expense, plan *totals.Plan) error {
			p, err := findPayment(exp, in.PaymentID)
			if err != nil {
				return err
			}
			if p.IsPaid {
				return &core.ConflictError{Message: "Payment is already paid"}
			}
			paidDate := in.PaidDate
			p.IsPaid = true
			p.PaidDate = &paidDate
			p.PaymentMethod = in.PaymentMethod
			p.Notes = in.Notes
			p.Touch(now, actor)
			plan.AddSpent(exp.Category.ID, p.Amount)
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	s.committed(ctx, in.OwnerID, in.EventID, "payment paid")
	return nil
}

// MarkPaymentUnpaid reverts a paid payment and removes it from the spent
// totals.
func (s *Service) MarkPaymentUnpaid(ctx context.Context, ref PaymentRef) error {
	if err := validateInput(ref); err != nil {
		return err
	}
	now, actor := s.stamp(ctx)

	err := s.mutate(ctx, log.ComponentPayments, "mark payment unpaid", paymentFields(ref), func(ctx context.Context, tx storage.Tx) error {
		_, err := s.updateExpense(ctx, tx, ref.ExpenseRef, func(exp *core.Expense, plan *totals.Plan) error {
			p, err := findPayment(exp, ref.PaymentID)
			if err != nil {
				return err
			}
			if !p.IsPaid {
				return &core.ConflictError{Message: "Payment is not paid"}
			}
			p.IsPaid = false
			p.PaidDate = nil
			p.Touch(now, actor)
			plan.SubtractSpent(exp.Category.ID, p.Amount)
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	s.committed(ctx, ref.OwnerID, ref.EventID, "payment unpaid")
	return nil
}

// UpdatePayment applies the non-nil fields of in. Changing the amount of a
// paid payment moves the spent totals by the difference.
func (s *Service) UpdatePayment(ctx context.Context, in UpdatePaymentInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	now, actor := s.stamp(ctx)

	var plan *totals.Plan
	err := s.mutate(ctx, log.ComponentPayments, "update payment", paymentFields(in.PaymentRef), func(ctx context.Context, tx storage.Tx) error {
		var err error
		plan, err = s.updateExpense(ctx, tx, in.ExpenseRef, func(exp *core.Expense, plan *totals.Plan) error {
			p, err := findPayment(exp, in.PaymentID)
			if err != nil {
				return err
			}
			oldAmount := p.Amount
			if in.Name != nil {
				p.Name = *in.Name
			}
			if in.Description != nil {
				p.Description = *in.Description
			}
			if in.Amount != nil {
				p.Amount = *in.Amount
			}
			if in.DueDate != nil {
				p.DueDate = *in.DueDate
			}
			if in.PaymentMethod != nil {
				p.PaymentMethod = *in.PaymentMethod
			}
			if in.Notes != nil {
				p.Notes = *in.Notes
			}
			p.Touch(now, actor)
			if p.IsPaid && p.Amount != oldAmount {
				plan.SubtractSpent(exp.Category.ID, oldAmount).AddSpent(exp.Category.ID, p.Amount)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	if !plan.Empty() {
		s.committed(ctx, in.OwnerID, in.EventID, "payment updated")
	}
	return nil
}

// DeletePayment removes one payment. A paid payment is removed from the
// spent totals; its attachments are deleted afterwards, best-effort.
func (s *Service) DeletePayment(ctx context.Context, ref PaymentRef) error {
	if err := validateInput(ref); err != nil {
		return err
	}

	var (
		urls []string
		plan *totals.Plan
	)
	fields := paymentFields(ref)
	err := s.mutate(ctx, log.ComponentPayments, "delete payment", fields, func(ctx context.Context, tx storage.Tx) error {
		var err error
		plan, err = s.updateExpense(ctx, tx, ref.ExpenseRef, func(exp *core.Expense, plan *totals.Plan) error {
			p, err := findPayment(exp, ref.PaymentID)
			if err != nil {
				return err
			}
			removed := *p
			if exp.OneOffPayment != nil && exp.OneOffPayment.ID == ref.PaymentID {
				exp.OneOffPayment = nil
			} else {
				exp.PaymentSchedule = slices.DeleteFunc(exp.PaymentSchedule, func(q core.Payment) bool {
					return q.ID == ref.PaymentID
				})
			}
			if !exp.HasPayments() {
				exp.ClearPayments()
			}
			if removed.IsPaid {
				plan.SubtractSpent(exp.Category.ID, removed.Amount)
			}
			urls = removed.Attachments
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	s.deleteAttachments(ctx, urls, fields)
	if !plan.Empty() {
		s.committed(ctx, ref.OwnerID, ref.EventID, "payment deleted")
	}
	return nil
}

// ClearPayments removes the whole payment plan of an expense and its paid
// amount from the spent totals of the category and the event.
func (s *Service) ClearPayments(ctx context.Context, ref ExpenseRef) error {
	if err := validateInput(ref); err != nil {
		return err
	}

	var (
		urls []string
		plan *totals.Plan
	)
	fields := log.NewFields().WithEvent(ref.OwnerID, ref.EventID).WithExpense(ref.ExpenseID, 0)
	err := s.mutate(ctx, log.ComponentPayments, "clear payments", fields, func(ctx context.Context, tx storage.Tx) error {
		var err error
		plan, err = s.updateExpense(ctx, tx, ref, func(exp *core.Expense, plan *totals.Plan) error {
			paid := exp.PaidAmount()
			urls = urls[:0]
			for _, p := range exp.PaymentSchedule {
				urls = append(urls, p.Attachments...)
			}
			if exp.OneOffPayment != nil {
				urls = append(urls, exp.OneOffPayment.Attachments...)
			}
			exp.ClearPayments()
			plan.SubtractSpent(exp.Category.ID, paid)
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	s.deleteAttachments(ctx, urls, fields)
	if !plan.Empty() {
		s.committed(ctx, ref.OwnerID, ref.EventID, "payments cleared")
	}
	return nil
}
