package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"caixa/internal/core"
	"caixa/internal/services"
	"caixa/internal/storage"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	entries    []core.LedgerEntry
	schedules  []core.PaymentSchedule
	expenses   []core.Expense
	profile    core.SubscriptionProfile
	profileErr error
	readErr    error

	createdEntries   int
	createdSchedules int
	paidSchedules    []int64
	reverted         []int64
}

func (f *fakeStore) ListEntries(_ context.Context, _ string) ([]core.LedgerEntry, error) {
	return f.entries, f.readErr
}

func (f *fakeStore) ListSchedules(_ context.Context, _ string) ([]core.PaymentSchedule, error) {
	return f.schedules, f.readErr
}

func (f *fakeStore) ListExpenses(_ context.Context, _ string) ([]core.Expense, error) {
	return f.expenses, f.readErr
}

func (f *fakeStore) CreateEntry(_ context.Context, _ core.LedgerEntry, schedules []core.PaymentSchedule) (int64, error) {
	f.createdEntries++
	f.createdSchedules += len(schedules)
	return 11, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, _ core.Expense) (int64, error) {
	return 21, nil
}

func (f *fakeStore) MarkSchedulePaid(_ context.Context, id int64, _ time.Time) error {
	f.paidSchedules = append(f.paidSchedules, id)
	return nil
}

func (f *fakeStore) RevertSchedule(_ context.Context, id int64, _ string) error {
	f.reverted = append(f.reverted, id)
	return nil
}

func (f *fakeStore) UpdateEntryStatus(_ context.Context, _ int64, _ core.Status, _ *time.Time) error {
	return nil
}

func (f *fakeStore) GetSchedule(_ context.Context, id int64) (core.PaymentSchedule, error) {
	return core.PaymentSchedule{ID: id, EntryID: 1}, nil
}

func (f *fakeStore) GetSubscriptionProfile(_ context.Context, _ string) (core.SubscriptionProfile, error) {
	return f.profile, f.profileErr
}

func newTestServer(store *fakeStore) *Server {
	ledger := services.NewLedgerService(store, nil)
	reports := services.NewReportService(store)
	subs := services.NewSubscriptionService(store)
	return NewServer(":0", ledger, reports, subs, "secret-token", 30*time.Second)
}

func doRequest(t *testing.T, srv *Server, method, path, account, body string, extra map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if account != "" {
		req.Header.Set("X-Account-ID", account)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateEntry_WithSchedule(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	body := `{
		"quantity": 1,
		"value": "100.00",
		"payment_method": "pix",
		"date": "2024-01-15",
		"schedule": {"installments": 3, "first_due_date": "2024-02-14", "interval_days": 30}
	}`
	rec := doRequest(t, srv, http.MethodPost, "/api/entries", "acc-1", body, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.createdEntries != 1 || store.createdSchedules != 3 {
		t.Errorf("created %d entries with %d schedules, want 1 with 3", store.createdEntries, store.createdSchedules)
	}

	var resp createdResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 11 {
		t.Errorf("id = %d, want 11", resp.ID)
	}
}

func TestHandleCreateEntry_RequiresAccount(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	body := `{"quantity": 1, "value": "50.00", "date": "2024-01-15"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/entries", "", body, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCreateEntry_RejectsBadAmount(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	body := `{"quantity": 1, "value": "-5.00", "date": "2024-01-15"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/entries", "acc-1", body, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDashboard(t *testing.T) {
	due := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		schedules: []core.PaymentSchedule{
			{ID: 1, EntryID: 1, InstallmentNumber: 1, InstallmentsTotal: 1, DueDate: due, Amount: decimal.RequireFromString("80.00"), Status: core.StatusPending},
		},
		entries: []core.LedgerEntry{
			{ID: 1, AccountID: "acc-1", Quantity: 1, Value: decimal.RequireFromString("80.00"), Status: core.StatusPending, Date: due},
		},
	}
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard?from=2024-01-01&to=2024-01-31", "acc-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Period.Pending.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("period pending = %s, want 80.00", resp.Period.Pending)
	}
	if len(resp.Projections) != 3 {
		t.Errorf("projections = %d, want the three horizons", len(resp.Projections))
	}
}

func TestHandleDashboard_ReadFailureIs502(t *testing.T) {
	store := &fakeStore{readErr: errors.New("db locked")}
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard", "acc-1", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Retryable {
		t.Error("read failures must be flagged retryable, never served as zeroes")
	}
}

func TestHandleDashboard_RequiresAccount(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleProjections_InvalidHorizon(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rec := doRequest(t, srv, http.MethodGet, "/api/projections?horizon=45", "acc-1", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRevertSchedule_TokenRequired(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	body := `{"actor": "admin@caixa"}`

	rec := doRequest(t, srv, http.MethodPost, "/api/schedules/7/revert", "acc-1", body, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status without token = %d, want 403", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/schedules/7/revert", "acc-1", body,
		map[string]string{"X-Admin-Token": "secret-token"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.reverted) != 1 || store.reverted[0] != 7 {
		t.Errorf("reverted = %v, want [7]", store.reverted)
	}
}

func TestHandleMarkSchedulePaid(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodPost, "/api/schedules/3/pay", "acc-1", `{"paid_at": "2024-02-10"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.paidSchedules) != 1 || store.paidSchedules[0] != 3 {
		t.Errorf("paid = %v, want [3]", store.paidSchedules)
	}
}

func TestHandleSubscription_FailsClosed(t *testing.T) {
	store := &fakeStore{profileErr: storage.ErrNotFound}
	srv := newTestServer(store)

	rec := doRequest(t, srv, http.MethodGet, "/api/subscription", "acc-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp subscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != core.SubExpirado || !resp.Blocked {
		t.Errorf("missing profile must block: got status %s blocked %v", resp.Status, resp.Blocked)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
