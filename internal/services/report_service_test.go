package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"caixa/internal/core"
)

type fakeSnapshotReader struct {
	entries   []core.LedgerEntry
	schedules []core.PaymentSchedule
	expenses  []core.Expense

	entriesErr   error
	schedulesErr error
	expensesErr  error
}

func (f *fakeSnapshotReader) ListEntries(_ context.Context, _ string) ([]core.LedgerEntry, error) {
	return f.entries, f.entriesErr
}

func (f *fakeSnapshotReader) ListSchedules(_ context.Context, _ string) ([]core.PaymentSchedule, error) {
	return f.schedules, f.schedulesErr
}

func (f *fakeSnapshotReader) ListExpenses(_ context.Context, _ string) ([]core.Expense, error) {
	return f.expenses, f.expensesErr
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
}

func TestReportService_RequiresAccountScope(t *testing.T) {
	svc := NewReportService(&fakeSnapshotReader{})

	if _, err := svc.Snapshot(context.Background(), ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Snapshot(empty account) error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := svc.Dashboard(context.Background(), "", fixedNow(), fixedNow()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Dashboard(empty account) error = %v, want ErrNotAuthenticated", err)
	}
}

func TestReportService_ReadFailurePropagates(t *testing.T) {
	readErr := errors.New("store unreachable")
	tests := []struct {
		name  string
		store *fakeSnapshotReader
	}{
		{"entries read fails", &fakeSnapshotReader{entriesErr: readErr}},
		{"schedules read fails", &fakeSnapshotReader{schedulesErr: readErr}},
		{"expenses read fails", &fakeSnapshotReader{expensesErr: readErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewReportService(tt.store)
			// A failed read must surface as an error, never as an
			// empty-ledger dashboard.
			d, err := svc.Dashboard(context.Background(), "acc-1", fixedNow().AddDate(0, -1, 0), fixedNow())
			if !errors.Is(err, readErr) {
				t.Errorf("Dashboard() error = %v, want wrapped %v", err, readErr)
			}
			if d != nil {
				t.Errorf("Dashboard() = %+v, want nil on read failure", d)
			}
		})
	}
}

func TestReportService_Dashboard(t *testing.T) {
	now := fixedNow()
	due := now.AddDate(0, 0, 10)
	store := &fakeSnapshotReader{
		entries: []core.LedgerEntry{
			{ID: 1, AccountID: "acc-1", Value: core.MustMoney("150.00"), Status: core.StatusPaid, Date: now.AddDate(0, 0, -2)},
			{ID: 2, AccountID: "acc-1", Value: core.MustMoney("90.00"), Status: core.StatusPending, Date: now.AddDate(0, 0, -1)},
		},
		schedules: []core.PaymentSchedule{
			{ID: 10, EntryID: 2, Kind: core.KindInstallment, InstallmentNumber: 1, InstallmentsTotal: 2, DueDate: due, Amount: core.MustMoney("45.00"), Status: core.StatusPending},
			{ID: 11, EntryID: 2, Kind: core.KindInstallment, InstallmentNumber: 2, InstallmentsTotal: 2, DueDate: due.AddDate(0, 0, 30), Amount: core.MustMoney("45.00"), Status: core.StatusPending},
		},
		expenses: []core.Expense{
			{ID: 1, AccountID: "acc-1", Kind: core.ExpenseFixed, Category: "aluguel", Value: core.MustMoney("30.00"), Date: now.AddDate(0, 0, -3), Status: core.StatusPaid},
		},
	}
	svc := NewReportService(store)
	svc.now = fixedNow

	d, err := svc.Dashboard(context.Background(), "acc-1", now.AddDate(0, 0, -30), now.AddDate(0, 0, 60))
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	// Entry 2 is governed: its 90.00 value flows only through the two
	// 45.00 installments.
	if got := d.Global.Pending.StringFixed(2); got != "90.00" {
		t.Errorf("Global.Pending = %s, want 90.00", got)
	}
	if got := d.Period.Received.StringFixed(2); got != "150.00" {
		t.Errorf("Period.Received = %s, want 150.00", got)
	}
	if len(d.Projections) != 3 {
		t.Fatalf("len(Projections) = %d, want 3", len(d.Projections))
	}
	for i, horizon := range []int{30, 60, 90} {
		if d.Projections[i].HorizonDays != horizon {
			t.Errorf("Projections[%d].HorizonDays = %d, want %d", i, d.Projections[i].HorizonDays, horizon)
		}
	}
	if d.Intelligence.HealthScore < 0 || d.Intelligence.HealthScore > 100 {
		t.Errorf("HealthScore = %d, out of [0,100]", d.Intelligence.HealthScore)
	}
}

func TestReportService_Projection(t *testing.T) {
	svc := NewReportService(&fakeSnapshotReader{})
	svc.now = fixedNow

	if _, err := svc.Projection(context.Background(), "acc-1", 45); !errors.Is(err, core.ErrInvalidHorizon) {
		t.Errorf("Projection(45) error = %v, want ErrInvalidHorizon", err)
	}
	p, err := svc.Projection(context.Background(), "acc-1", 30)
	if err != nil {
		t.Fatalf("Projection(30) error = %v", err)
	}
	if p.HorizonDays != 30 {
		t.Errorf("HorizonDays = %d, want 30", p.HorizonDays)
	}
}
