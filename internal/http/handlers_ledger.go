package http

import (
	"net/http"
	"time"

	"caixa/internal/core"
	"caixa/internal/services"
)

type scheduleRequest struct {
	Kind         string `json:"kind"`
	Installments int    `json:"installments"`
	FirstDueDate string `json:"first_due_date"`
	IntervalDays int    `json:"interval_days"`
}

type createEntryRequest struct {
	ClientID      *int64           `json:"client_id"`
	ItemID        *int64           `json:"item_id"`
	Quantity      int              `json:"quantity"`
	Value         string           `json:"value"`
	PaymentMethod string           `json:"payment_method"`
	Paid          bool             `json:"paid"`
	Date          string           `json:"date"`
	DueDate       *string          `json:"due_date"`
	Schedule      *scheduleRequest `json:"schedule"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	value, err := core.ParseMoney(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return
	}

	in := services.CreateEntryInput{
		AccountID:     accountID(r),
		ClientID:      req.ClientID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		Value:         value,
		PaymentMethod: req.PaymentMethod,
		Paid:          req.Paid,
		Date:          date,
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid due_date, expected YYYY-MM-DD"})
			return
		}
		in.DueDate = &due
	}
	if req.Schedule != nil {
		firstDue, err := parseDate(req.Schedule.FirstDueDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid first_due_date, expected YYYY-MM-DD"})
			return
		}
		in.Schedule = &services.ScheduleRequest{
			Kind:         core.ScheduleKind(req.Schedule.Kind),
			Installments: req.Schedule.Installments,
			FirstDueDate: firstDue,
			IntervalDays: req.Schedule.IntervalDays,
		}
	}

	id, err := s.ledger.CreateEntry(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboardCache.Invalidate()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type createExpenseRequest struct {
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Date     string `json:"date"`
	Paid     bool   `json:"paid"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	value, err := core.ParseMoney(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return
	}

	x := core.Expense{
		AccountID: accountID(r),
		Category:  req.Category,
		Kind:      core.ExpenseKind(req.Kind),
		Value:     value,
		Date:      date,
		Status:    core.StatusPending,
	}
	if req.Paid {
		x.Status = core.StatusPaid
	}

	id, err := s.ledger.CreateExpense(r.Context(), x)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboardCache.Invalidate()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type payRequest struct {
	PaidAt string `json:"paid_at"`
}

// paidAtOrNow parses the optional paid_at timestamp, defaulting to now.
func paidAtOrNow(req payRequest) (time.Time, bool) {
	if req.PaidAt == "" {
		return time.Now(), true
	}
	if t, err := time.Parse(time.RFC3339, req.PaidAt); err == nil {
		return t, true
	}
	if t, err := parseDate(req.PaidAt); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (s *Server) handleMarkSchedulePaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if accountID(r) == "" {
		writeError(w, r, services.ErrNotAuthenticated)
		return
	}

	var req payRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	paidAt, ok := paidAtOrNow(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid paid_at timestamp"})
		return
	}

	if err := s.ledger.MarkSchedulePaid(r.Context(), id, paidAt); err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboardCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (s *Server) handleMarkEntryPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if accountID(r) == "" {
		writeError(w, r, services.ErrNotAuthenticated)
		return
	}

	var req payRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	paidAt, ok := paidAtOrNow(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid paid_at timestamp"})
		return
	}

	if err := s.ledger.MarkEntryPaid(r.Context(), id, paidAt); err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboardCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

type revertRequest struct {
	Actor string `json:"actor"`
}

// handleRevertSchedule is admin-only: the request must carry the
// configured admin token and name the actor performing the revert.
func (s *Server) handleRevertSchedule(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" || r.Header.Get("X-Admin-Token") != s.adminToken {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin token required"})
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req revertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Actor == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "actor is required"})
		return
	}

	if err := s.ledger.RevertSchedule(r.Context(), id, req.Actor); err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboardCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
}
