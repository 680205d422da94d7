package http

import (
	"net/http"

	"eventbudget/internal/services"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tpl, err := req.template("budgetedAmount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.svc.CreateCategory(r.Context(), services.CreateCategoryInput{EventRef: eventRef(r), CategoryTemplate: tpl})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type budgetRequest struct {
	BudgetedAmount string `json:"budgetedAmount"`
}

func (s *Server) handleUpdateCategoryBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := parseAmount("budgetedAmount", req.BudgetedAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.UpdateCategoryBudget(r.Context(), services.UpdateCategoryBudgetInput{CategoryRef: categoryRef(r), Budget: budget}); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), categoryRef(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
