package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"eventbudget/internal/core"
	"eventbudget/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so misspelled amounts do not silently become
// zero.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Invalid("", "request body is required")
		case errors.As(err, &maxErr):
			return core.Invalid("", "request body too large")
		default:
			return core.Invalid("", fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	if dec.More() {
		return core.Invalid("", "request body must contain a single JSON object")
	}
	return nil
}

// parseAmount parses a non-negative decimal amount such as "500.00" or
// "12,5". Budgets and totals deltas may be zero.
func parseAmount(field, s string) (core.Money, error) {
	cents, err := core.ParseBudgetToCents(s)
	if err != nil {
		return core.Money{}, core.Invalid(field, "must be a non-negative decimal amount")
	}
	return core.Cents(cents), nil
}

// parsePositiveAmount parses expense and payment amounts, which must be
// greater than zero.
func parsePositiveAmount(field, s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, core.Invalid(field, "must be a positive decimal amount")
	}
	return core.Cents(cents), nil
}

// parseOptionalAmount returns nil for an absent amount.
func parseOptionalAmount(field string, s *string, parse func(field, s string) (core.Money, error)) (*core.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := parse(field, *s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// optionalAmount parses an absent or empty amount as zero.
func optionalAmount(field, s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return parseAmount(field, s)
}

func eventRef(r *http.Request) services.EventRef {
	return services.EventRef{
		OwnerID: chi.URLParam(r, "ownerID"),
		EventID: chi.URLParam(r, "eventID"),
	}
}

func categoryRef(r *http.Request) services.CategoryRef {
	return services.CategoryRef{EventRef: eventRef(r), CategoryID: chi.URLParam(r, "categoryID")}
}

func expenseRef(r *http.Request) services.ExpenseRef {
	return services.ExpenseRef{EventRef: eventRef(r), ExpenseID: chi.URLParam(r, "expenseID")}
}

func paymentRef(r *http.Request) services.PaymentRef {
	return services.PaymentRef{ExpenseRef: expenseRef(r), PaymentID: chi.URLParam(r, "paymentID")}
}
