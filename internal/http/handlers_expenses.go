package http

import (
	"net/http"

	"eventbudget/internal/core"
	"eventbudget/internal/services"
)

type expenseRequest struct {
	Name        string    `json:"name"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	CategoryID  string    `json:"categoryId"`
	Vendor      string    `json:"vendor"`
	Date        core.Date `json:"date"`
	Tags        []string  `json:"tags"`
	Attachments []string  `json:"attachments"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.svc.AddExpense(r.Context(), services.AddExpenseInput{
		EventRef:    eventRef(r),
		Name:        req.Name,
		Amount:      amount,
		Currency:    req.Currency,
		CategoryID:  req.CategoryID,
		Vendor:      req.Vendor,
		Date:        req.Date,
		Tags:        req.Tags,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	exp, err := s.svc.GetExpense(r.Context(), expenseRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

type expensePatchRequest struct {
	Name        *string    `json:"name"`
	Amount      *string    `json:"amount"`
	CategoryID  *string    `json:"categoryId"`
	Vendor      *string    `json:"vendor"`
	Date        *core.Date `json:"date"`
	Tags        []string   `json:"tags"`
	Attachments []string   `json:"attachments"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expensePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseOptionalAmount("amount", req.Amount, parsePositiveAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.svc.UpdateExpense(r.Context(), services.UpdateExpenseInput{
		ExpenseRef:  expenseRef(r),
		Name:        req.Name,
		Amount:      amount,
		CategoryID:  req.CategoryID,
		Vendor:      req.Vendor,
		Date:        req.Date,
		Tags:        req.Tags,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpense(r.Context(), expenseRef(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
