package services

import "eventbudget/internal/core"

// EventRef identifies an event of an owner. Ids are document path segments
// and may not contain '/'.
type EventRef struct {
	OwnerID string `json:"ownerId" validate:"notblank,excludesall=/"`
	EventID string `json:"eventId" validate:"notblank,excludesall=/"`
}

type CategoryRef struct {
	EventRef
	CategoryID string `json:"categoryId" validate:"notblank,excludesall=/"`
}

type ExpenseRef struct {
	EventRef
	ExpenseID string `json:"expenseId" validate:"notblank,excludesall=/"`
}

type PaymentRef struct {
	ExpenseRef
	PaymentID string `json:"paymentId" validate:"notblank"`
}

// CategoryTemplate seeds a category when an event is created.
type CategoryTemplate struct {
	Name        string     `json:"name" validate:"notblank,max=100"`
	Description string     `json:"description"`
	Budget      core.Money `json:"budgetedAmount" validate:"gte=0"`
	Color       string     `json:"color"`
	Icon        string     `json:"icon"`
}

type CreateEventInput struct {
	OwnerID     string             `json:"ownerId" validate:"notblank,excludesall=/"`
	Name        string             `json:"name" validate:"notblank,max=200"`
	Type        string             `json:"type" validate:"notblank,max=50"`
	Description string             `json:"description"`
	EventDate   core.Date          `json:"eventDate" validate:"required"`
	Currency    string             `json:"currency" validate:"omitempty,len=3,uppercase"`
	Categories  []CategoryTemplate `json:"categories" validate:"dive"`
}

type CreateCategoryInput struct {
	EventRef
	CategoryTemplate
}

type UpdateCategoryBudgetInput struct {
	CategoryRef
	Budget core.Money `json:"budgetedAmount" validate:"gte=0"`
}

type AddExpenseInput struct {
	EventRef
	Name        string     `json:"name" validate:"notblank,max=200"`
	Amount      core.Money `json:"amount" validate:"gt=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3,uppercase"`
	CategoryID  string     `json:"categoryId" validate:"notblank,excludesall=/"`
	Vendor      string     `json:"vendor"`
	Date        core.Date  `json:"date" validate:"required"`
	Tags        []string   `json:"tags"`
	Attachments []string   `json:"attachments" validate:"dive,notblank"`
}

// UpdateExpenseInput changes the non-nil fields of an expense.
type UpdateExpenseInput struct {
	ExpenseRef
	Name        *string     `json:"name" validate:"omitempty,notblank,max=200"`
	Amount      *core.Money `json:"amount" validate:"omitempty,gt=0"`
	CategoryID  *string     `json:"categoryId" validate:"omitempty,notblank,excludesall=/"`
	Vendor      *string     `json:"vendor"`
	Date        *core.Date  `json:"date" validate:"omitempty,required"`
	Tags        []string    `json:"tags"`
	Attachments []string    `json:"attachments" validate:"omitempty,dive,notblank"`
}

type PaymentInput struct {
	Name          string     `json:"name" validate:"notblank,max=200"`
	Description   string     `json:"description"`
	Amount        core.Money `json:"amount" validate:"gt=0"`
	DueDate       core.Date  `json:"dueDate" validate:"required"`
	PaymentMethod string     `json:"paymentMethod"`
	Notes         string     `json:"notes"`
}

type SetPaymentScheduleInput struct {
	ExpenseRef
	Payments []PaymentInput `json:"payments" validate:"required,min=1,dive"`
}

// CreatePaidPaymentInput records a one-off payment that has already been
// made.
type CreatePaidPaymentInput struct {
	ExpenseRef
	Name          string     `json:"name" validate:"notblank,max=200"`
	Description   string     `json:"description"`
	Amount        core.Money `json:"amount" validate:"gt=0"`
	PaidDate      core.Date  `json:"paidDate" validate:"required"`
	PaymentMethod string     `json:"paymentMethod"`
	Notes         string     `json:"notes"`
	Attachments   []string   `json:"attachments" validate:"dive,notblank"`
}

type MarkPaymentPaidInput struct {
	PaymentRef
	PaidDate      core.Date `json:"paidDate" validate:"required"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes"`
}

// UpdatePaymentInput changes the non-nil fields of a payment.
type UpdatePaymentInput struct {
	PaymentRef
	Name          *string     `json:"name" validate:"omitempty,notblank,max=200"`
	Description   *string     `json:"description"`
	Amount        *core.Money `json:"amount" validate:"omitempty,gt=0"`
	DueDate       *core.Date  `json:"dueDate" validate:"omitempty,required"`
	PaymentMethod *string     `json:"paymentMethod"`
	Notes         *string     `json:"notes"`
}
