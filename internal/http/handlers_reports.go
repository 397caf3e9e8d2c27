package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"caixa/internal/core"

	"github.com/shopspring/decimal"
)

type periodSummaryResponse struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Received      decimal.Decimal `json:"received"`
	Pending       decimal.Decimal `json:"pending"`
	Upcoming      decimal.Decimal `json:"upcoming"`
	Overdue       decimal.Decimal `json:"overdue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	PaidCount     int             `json:"paid_count"`
}

type globalSummaryResponse struct {
	Pending    decimal.Decimal `json:"pending"`
	Overdue    decimal.Decimal `json:"overdue"`
	Next30Days decimal.Decimal `json:"next_30_days"`
}

type projectionResponse struct {
	HorizonDays int             `json:"horizon_days"`
	Receivables decimal.Decimal `json:"receivables"`
	Expenses    decimal.Decimal `json:"expenses"`
	Balance     decimal.Decimal `json:"balance"`
}

type criticalDueResponse struct {
	ScheduleID  int64           `json:"schedule_id"`
	EntryID     int64           `json:"entry_id"`
	ClientID    *int64          `json:"client_id,omitempty"`
	DueDate     string          `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"days_overdue"`
}

type riskResponse struct {
	Level             core.RiskLevel        `json:"level"`
	OverduePct        decimal.Decimal       `json:"overdue_pct"`
	DelinquentClients int                   `json:"delinquent_clients"`
	Trend             core.Trend            `json:"trend"`
	CriticalDueDates  []criticalDueResponse `json:"critical_due_dates"`
}

type signalResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type intelligenceResponse struct {
	LearningPhase   int               `json:"learning_phase"`
	TotalActiveDays int               `json:"total_active_days"`
	HealthScore     int               `json:"health_score"`
	HealthStatus    core.HealthStatus `json:"health_status"`
	Alert           *signalResponse   `json:"alert,omitempty"`
	Insight         *signalResponse   `json:"insight,omitempty"`
}

type dashboardResponse struct {
	Period       periodSummaryResponse `json:"period"`
	Global       globalSummaryResponse `json:"global"`
	Projections  []projectionResponse  `json:"projections"`
	Risk         riskResponse          `json:"risk"`
	Intelligence intelligenceResponse  `json:"intelligence"`
}

func toSignalResponse(s *core.Signal) *signalResponse {
	if s == nil {
		return nil
	}
	return &signalResponse{Type: s.Type, Message: s.Message}
}

func toIntelligenceResponse(rep core.IntelligenceReport) intelligenceResponse {
	return intelligenceResponse{
		LearningPhase:   rep.LearningPhase,
		TotalActiveDays: rep.TotalActiveDays,
		HealthScore:     rep.HealthScore,
		HealthStatus:    rep.HealthStatus,
		Alert:           toSignalResponse(rep.Alert),
		Insight:         toSignalResponse(rep.Insight),
	}
}

func toProjectionResponse(p core.Projection) projectionResponse {
	return projectionResponse{
		HorizonDays: p.HorizonDays,
		Receivables: p.Receivables,
		Expenses:    p.Expenses,
		Balance:     p.Balance,
	}
}

func toRiskResponse(risk core.RiskAssessment) riskResponse {
	out := riskResponse{
		Level:             risk.Level,
		OverduePct:        risk.OverduePct,
		DelinquentClients: risk.DelinquentClients,
		Trend:             risk.Trend,
		CriticalDueDates:  []criticalDueResponse{},
	}
	for _, c := range risk.CriticalDueDates {
		out.CriticalDueDates = append(out.CriticalDueDates, criticalDueResponse{
			ScheduleID:  c.ScheduleID,
			EntryID:     c.EntryID,
			ClientID:    c.ClientID,
			DueDate:     c.DueDate.Format(dateLayout),
			Amount:      c.Amount,
			DaysOverdue: c.DaysOverdue,
		})
	}
	return out
}

// periodRange resolves the from/to query params; the default window is
// the current calendar month.
func periodRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %q", v)
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %q", v)
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date precedes from date")
	}
	return from, to, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	account := accountID(r)
	from, to, err := periodRange(r, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	cacheKey := account + "|" + from.Format(dateLayout) + "|" + to.Format(dateLayout)
	if cached, ok := s.dashboardCache.Get(cacheKey); ok && account != "" {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	d, err := s.reports.Dashboard(r.Context(), account, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := dashboardResponse{
		Period: periodSummaryResponse{
			From:          d.Period.From.Format(dateLayout),
			To:            d.Period.To.Format(dateLayout),
			Received:      d.Period.Received,
			Pending:       d.Period.Pending,
			Upcoming:      d.Period.Upcoming,
			Overdue:       d.Period.Overdue,
			AverageTicket: d.Period.AverageTicket,
			PaidCount:     d.Period.PaidCount,
		},
		Global: globalSummaryResponse{
			Pending:    d.Global.Pending,
			Overdue:    d.Global.Overdue,
			Next30Days: d.Global.Next30Days,
		},
		Projections:  []projectionResponse{},
		Risk:         toRiskResponse(d.Risk),
		Intelligence: toIntelligenceResponse(d.Intelligence),
	}
	for _, p := range d.Projections {
		resp.Projections = append(resp.Projections, toProjectionResponse(p))
	}

	s.dashboardCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	horizon := 30
	if v := r.URL.Query().Get("horizon"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid horizon, expected 30, 60 or 90"})
			return
		}
		horizon = parsed
	}

	p, err := s.reports.Projection(r.Context(), accountID(r), horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionResponse(p))
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Insight(r.Context(), accountID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIntelligenceResponse(rep))
}
