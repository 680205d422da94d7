package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusUnderBudget EventStatus = "under-budget"
	StatusOnTrack     EventStatus = "on-track"
	StatusOverBudget  EventStatus = "over-budget"
	StatusCompleted   EventStatus = "completed"
)

type (
	EventStatus string

	Date struct {
		time.Time
	}

	// Audit carries the last-modified stamps every document has.
	Audit struct {
		CreatedAt time.Time `json:"createdAt"`
		CreatedBy string    `json:"createdBy"`
		UpdatedAt time.Time `json:"updatedAt"`
		UpdatedBy string    `json:"updatedBy"`
	}

	// Totals are the denormalized sums an event keeps over its categories.
	Totals struct {
		Budgeted  Money `json:"totalBudgetedAmount"`
		Scheduled Money `json:"totalScheduledAmount"`
		Spent     Money `json:"totalSpentAmount"`
	}

	Event struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description,omitempty"`
		EventDate   Date   `json:"eventDate"`
		Totals
		SpentPercentage int         `json:"spentPercentage"`
		Status          EventStatus `json:"status"`
		Currency        string      `json:"currency"`
		Audit
	}

	Category struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Description     string `json:"description"`
		BudgetedAmount  Money  `json:"budgetedAmount"`
		ScheduledAmount Money  `json:"scheduledAmount"`
		SpentAmount     Money  `json:"spentAmount"`
		Color           string `json:"color"`
		Icon            string `json:"icon"`
		Audit
	}

	// CategorySnapshot is the point-in-time copy of a category stored on an
	// expense. It is refreshed only when the expense is moved to another
	// category; renaming a category does not rewrite existing expenses.
	CategorySnapshot struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	Expense struct {
		ID                 string           `json:"id"`
		Name               string           `json:"name"`
		Amount             Money            `json:"amount"`
		Currency           string           `json:"currency"`
		Category           CategorySnapshot `json:"category"`
		Vendor             string           `json:"vendor"`
		Date               Date             `json:"date"`
		Tags               []string         `json:"tags"`
		Attachments        []string         `json:"attachments"`
		HasPaymentSchedule bool             `json:"hasPaymentSchedule"`
		PaymentSchedule    []Payment        `json:"paymentSchedule,omitempty"`
		OneOffPayment      *Payment         `json:"oneOffPayment,omitempty"`
		Audit
	}

	Payment struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		Amount        Money    `json:"amount"`
		PaymentMethod string   `json:"paymentMethod"`
		DueDate       Date     `json:"dueDate"`
		IsPaid        bool     `json:"isPaid"`
		PaidDate      *Date    `json:"paidDate,omitempty"`
		Notes         string   `json:"notes,omitempty"`
		Attachments   []string `json:"attachments,omitempty"`
		Audit
	}

	// EventSummary is an event together with its categories, as shown on the
	// event overview.
	EventSummary struct {
		Event      Event      `json:"event"`
		Categories []Category `json:"categories"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateLayout is the JSON form of a Date.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Stamp sets the creation and update stamps.
func (a *Audit) Stamp(at time.Time, by string) {
	a.CreatedAt, a.CreatedBy = at, by
	a.UpdatedAt, a.UpdatedBy = at, by
}

// Touch sets the update stamps.
func (a *Audit) Touch(at time.Time, by string) {
	a.UpdatedAt, a.UpdatedBy = at, by
}

// ApplyTotals stores t on the event and recomputes the derived percentage and
// status. A completed event keeps its status.
func (e *Event) ApplyTotals(t Totals) {
	e.Totals = t
	e.SpentPercentage = CalculateSpentPercentage(t.Budgeted, t.Spent)
	if e.Status != StatusCompleted {
		e.Status = CalculateEventStatus(t.Budgeted, t.Spent)
	}
}

// Snapshot returns the denormalized copy stored on expenses.
func (c Category) Snapshot() CategorySnapshot {
	return CategorySnapshot{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
}

// PaidAmount is the part of the expense already paid: the sum of paid
// schedule entries, or the one-off payment when it is paid.
func (e Expense) PaidAmount() Money {
	var total Money
	if len(e.PaymentSchedule) > 0 {
		for _, p := range e.PaymentSchedule {
			if p.IsPaid {
				total = total.Add(p.Amount)
			}
		}
		return total
	}
	if e.OneOffPayment != nil && e.OneOffPayment.IsPaid {
		return e.OneOffPayment.Amount
	}
	return total
}

// FindPayment returns a pointer to the payment with the given id, searching
// the schedule first and then the one-off payment.
func (e *Expense) FindPayment(id string) *Payment {
	for i := range e.PaymentSchedule {
		if e.PaymentSchedule[i].ID == id {
			return &e.PaymentSchedule[i]
		}
	}
	if e.OneOffPayment != nil && e.OneOffPayment.ID == id {
		return e.OneOffPayment
	}
	return nil
}

// HasPayments reports whether a schedule or a one-off payment is attached.
func (e Expense) HasPayments() bool {
	return len(e.PaymentSchedule) > 0 || e.OneOffPayment != nil
}

// ClearPayments removes the schedule and the one-off payment.
func (e *Expense) ClearPayments() {
	e.HasPaymentSchedule = false
	e.PaymentSchedule = nil
	e.OneOffPayment = nil
}

// ValidatePaymentPlan checks that exactly one of the schedule or the one-off
// payment is set when HasPaymentSchedule is true, and neither otherwise.
func (e Expense) ValidatePaymentPlan() error {
	hasSchedule := len(e.PaymentSchedule) > 0
	hasOneOff := e.OneOffPayment != nil
	if !e.HasPaymentSchedule {
		if hasSchedule || hasOneOff {
			return errors.New("payments present but hasPaymentSchedule is false")
		}
		return nil
	}
	if hasSchedule == hasOneOff {
		return errors.New("exactly one of paymentSchedule or oneOffPayment must be set")
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.IsPaid && p.PaidDate == nil {
		return errors.New("paid payment requires a paid date")
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category.ID) == "" {
		return errors.New("empty category")
	}
	if err := e.ValidatePaymentPlan(); err != nil {
		return err
	}
	for _, p := range e.PaymentSchedule {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if e.OneOffPayment != nil {
		return e.OneOffPayment.Validate()
	}
	return nil
}
