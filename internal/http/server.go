// Package http exposes the JSON API. Handlers stay thin: decode,
// delegate to a service, encode. All computation lives in core.
package http

import (
	"context"
	"net/http"
	"time"

	"caixa/internal/cache"
	"caixa/internal/middleware/trace"
	"caixa/internal/services"
)

// Server wires the JSON routes over the service layer.
type Server struct {
	http.Server

	ledger  *services.LedgerService
	reports *services.ReportService
	subs    *services.SubscriptionService

	adminToken string

	dashboardCache *cache.TTLCache[dashboardResponse]

	started time.Time
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, subs *services.SubscriptionService, adminToken string, reportTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		ledger:         ledger,
		reports:        reports,
		subs:           subs,
		adminToken:     adminToken,
		dashboardCache: cache.New[dashboardResponse](100, reportTTL),
		started:        time.Now(),
	}
	s.dashboardCache.StartCleanup(time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("POST /api/entries/{id}/pay", s.handleMarkEntryPaid)
	mux.HandleFunc("POST /api/schedules/{id}/pay", s.handleMarkSchedulePaid)
	mux.HandleFunc("POST /api/schedules/{id}/revert", s.handleRevertSchedule)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/projections", s.handleProjections)
	mux.HandleFunc("GET /api/insight", s.handleInsight)
	mux.HandleFunc("GET /api/subscription", s.handleSubscription)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        trace.Middleware(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// Shutdown stops the cache janitor before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.dashboardCache.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}
