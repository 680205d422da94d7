package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventbudget/internal/core"
	"eventbudget/internal/services"
	"eventbudget/internal/totals"
)

type categoryRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	BudgetedAmount string `json:"budgetedAmount"`
	Color          string `json:"color"`
	Icon           string `json:"icon"`
}

func (c categoryRequest) template(field string) (services.CategoryTemplate, error) {
	budget, err := optionalAmount(field, c.BudgetedAmount)
	if err != nil {
		return services.CategoryTemplate{}, err
	}
	return services.CategoryTemplate{
		Name:        c.Name,
		Description: c.Description,
		Budget:      budget,
		Color:       c.Color,
		Icon:        c.Icon,
	}, nil
}

type createEventRequest struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	EventDate   core.Date         `json:"eventDate"`
	Currency    string            `json:"currency"`
	Categories  []categoryRequest `json:"categories"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListEvents(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := services.CreateEventInput{
		OwnerID:     chi.URLParam(r, "ownerID"),
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		EventDate:   req.EventDate,
		Currency:    req.Currency,
	}
	for _, c := range req.Categories {
		tpl, err := c.template("categories.budgetedAmount")
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Categories = append(in.Categories, tpl)
	}

	id, err := s.svc.CreateEvent(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.GetEventSummary(r.Context(), eventRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summary.Categories == nil {
		summary.Categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEvent(r.Context(), eventRef(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

// handleCompleteEvent marks the event completed. A body of
// {"completed": false} reopens it.
func (s *Server) handleCompleteEvent(w http.ResponseWriter, r *http.Request) {
	completed := true
	if r.ContentLength != 0 {
		var req completeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Completed != nil {
			completed = *req.Completed
		}
	}
	if err := s.svc.SetEventCompleted(r.Context(), eventRef(r), completed); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.RecomputeTotals(r.Context(), eventRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type amountsRequest struct {
	BudgetedAmount  *string `json:"budgetedAmount"`
	ScheduledAmount *string `json:"scheduledAmount"`
	SpentAmount     *string `json:"spentAmount"`
}

func (a amountsRequest) amounts() (totals.Amounts, error) {
	var (
		out totals.Amounts
		err error
	)
	if out.Budgeted, err = parseOptionalAmount("budgetedAmount", a.BudgetedAmount, parseAmount); err != nil {
		return out, err
	}
	if out.Scheduled, err = parseOptionalAmount("scheduledAmount", a.ScheduledAmount, parseAmount); err != nil {
		return out, err
	}
	if out.Spent, err = parseOptionalAmount("spentAmount", a.SpentAmount, parseAmount); err != nil {
		return out, err
	}
	return out, nil
}

type totalsFunc func(ctx context.Context, ref services.EventRef, amounts totals.Amounts) (core.Totals, error)

// handleTotals serves the incremental add and subtract modes.
func handleTotals(apply totalsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req amountsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		amounts, err := req.amounts()
		if err != nil {
			writeError(w, r, err)
			return
		}
		t, err := apply(r.Context(), eventRef(r), amounts)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

type changeRequest struct {
	Add      string `json:"add"`
	Subtract string `json:"subtract"`
}

func (c changeRequest) change(field string) (totals.Change, error) {
	add, err := optionalAmount(field+".add", c.Add)
	if err != nil {
		return totals.Change{}, err
	}
	sub, err := optionalAmount(field+".subtract", c.Subtract)
	if err != nil {
		return totals.Change{}, err
	}
	return totals.Change{Add: add, Subtract: sub}, nil
}

type complexRequest struct {
	Budgeted  changeRequest `json:"budgeted"`
	Scheduled changeRequest `json:"scheduled"`
	Spent     changeRequest `json:"spent"`
}

func (s *Server) handleComplexTotals(w http.ResponseWriter, r *http.Request) {
	var req complexRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var (
		changes totals.Changes
		err     error
	)
	if changes.Budgeted, err = req.Budgeted.change("budgeted"); err != nil {
		writeError(w, r, err)
		return
	}
	if changes.Scheduled, err = req.Scheduled.change("scheduled"); err != nil {
		writeError(w, r, err)
		return
	}
	if changes.Spent, err = req.Spent.change("spent"); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.svc.UpdateEventTotalsComplex(r.Context(), eventRef(r), changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
