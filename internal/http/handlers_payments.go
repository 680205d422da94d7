package http

import (
	"net/http"

	"eventbudget/internal/core"
	"eventbudget/internal/services"
)

type paymentRequest struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Amount        string    `json:"amount"`
	DueDate       core.Date `json:"dueDate"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes"`
}

type scheduleRequest struct {
	Payments []paymentRequest `json:"payments"`
}

type scheduleResponse struct {
	PaymentIDs []string `json:"paymentIds"`
}

func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := services.SetPaymentScheduleInput{ExpenseRef: expenseRef(r)}
	for _, p := range req.Payments {
		amount, err := parsePositiveAmount("payments.amount", p.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Payments = append(in.Payments, services.PaymentInput{
			Name:          p.Name,
			Description:   p.Description,
			Amount:        amount,
			DueDate:       p.DueDate,
			PaymentMethod: p.PaymentMethod,
			Notes:         p.Notes,
		})
	}

	ids, err := s.svc.SetPaymentSchedule(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{PaymentIDs: ids})
}

type paidPaymentRequest struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Amount        string    `json:"amount"`
	PaidDate      core.Date `json:"paidDate"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes"`
	Attachments   []string  `json:"attachments"`
}

func (s *Server) handleCreatePaidPayment(w http.ResponseWriter, r *http.Request) {
	var req paidPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.svc.CreatePaidPayment(r.Context(), services.CreatePaidPaymentInput{
		ExpenseRef:    expenseRef(r),
		Name:          req.Name,
		Description:   req.Description,
		Amount:        amount,
		PaidDate:      req.PaidDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Attachments:   req.Attachments,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleClearPayments(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearPayments(r.Context(), expenseRef(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

type markPaidRequest struct {
	PaidDate      core.Date `json:"paidDate"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes"`
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := s.svc.MarkPaymentPaid(r.Context(), services.MarkPaymentPaidInput{
		PaymentRef:    paymentRef(r),
		PaidDate:      req.PaidDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleMarkUnpaid(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkPaymentUnpaid(r.Context(), paymentRef(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

type paymentPatchRequest struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	Amount        *string    `json:"amount"`
	DueDate       *core.Date `json:"dueDate"`
	PaymentMethod *string    `json:"paymentMethod"`
	Notes         *string    `json:"notes"`
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseOptionalAmount("amount", req.Amount, parsePositiveAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = s.svc.UpdatePayment(r.Context(), services.UpdatePaymentInput{
		PaymentRef:    paymentRef(r),
		Name:          req.Name,
		Description:   req.Description,
		Amount:        amount,
		DueDate:       req.DueDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePayment(r.Context(), paymentRef(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
