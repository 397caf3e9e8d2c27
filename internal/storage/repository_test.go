package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"caixa/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testEntry(account string) core.LedgerEntry {
	return core.LedgerEntry{
		AccountID:     account,
		Quantity:      1,
		Value:         decimal.RequireFromString("100.00"),
		PaymentMethod: "pix",
		Status:        core.StatusPending,
		Date:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func testSchedules(total string, count int) []core.PaymentSchedule {
	plan, err := core.BuildSchedulePlan(core.SchedulePlan{
		Kind:         core.KindInstallment,
		Total:        decimal.RequireFromString(total),
		Count:        count,
		FirstDueDate: time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
		IntervalDays: 30,
	})
	if err != nil {
		panic(err)
	}
	return plan
}

func TestCreateEntry_WithScheduleBatch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	entryID, err := repo.CreateEntry(ctx, testEntry("acc-1"), testSchedules("100.00", 3))
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if entryID == 0 {
		t.Fatal("entry id must be assigned")
	}

	schedules, err := repo.ListSchedules(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(schedules) != 3 {
		t.Fatalf("got %d schedules, want 3", len(schedules))
	}

	sum := decimal.Zero
	for _, s := range schedules {
		if s.EntryID != entryID {
			t.Errorf("schedule %d entry_id = %d, want %d", s.ID, s.EntryID, entryID)
		}
		if s.Status != core.StatusPending {
			t.Errorf("schedule %d status = %s, want pending", s.ID, s.Status)
		}
		sum = sum.Add(s.Amount)
	}
	if !sum.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("schedule amounts sum to %s, want 100.00", sum)
	}
}

func TestCreateEntry_DuplicateInstallmentRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	bad := testSchedules("100.00", 2)
	bad[1].InstallmentNumber = bad[0].InstallmentNumber

	if _, err := repo.CreateEntry(ctx, testEntry("acc-1"), bad); err == nil {
		t.Fatal("duplicate installment number must fail the batch")
	}

	entries, err := repo.ListEntries(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed batch left %d entries behind, want 0", len(entries))
	}
}

func TestListEntries_ScopedByAccount(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateEntry(ctx, testEntry("acc-1"), nil); err != nil {
		t.Fatalf("CreateEntry acc-1: %v", err)
	}
	if _, err := repo.CreateEntry(ctx, testEntry("acc-2"), testSchedules("50.00", 2)); err != nil {
		t.Fatalf("CreateEntry acc-2: %v", err)
	}

	entries, err := repo.ListEntries(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("acc-1 sees %d entries, want 1", len(entries))
	}

	schedules, err := repo.ListSchedules(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	if len(schedules) != 0 {
		t.Errorf("acc-1 sees %d schedules from acc-2, want 0", len(schedules))
	}
}

func TestMarkSchedulePaid_AndRevert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateEntry(ctx, testEntry("acc-1"), testSchedules("100.00", 2)); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	schedules, err := repo.ListSchedules(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	target := schedules[0].ID

	paidAt := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	if err := repo.MarkSchedulePaid(ctx, target, paidAt); err != nil {
		t.Fatalf("MarkSchedulePaid: %v", err)
	}

	sched, err := repo.GetSchedule(ctx, target)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if sched.Status != core.StatusPaid {
		t.Errorf("status = %s, want paid", sched.Status)
	}
	if sched.PaidAt == nil || !sched.PaidAt.Equal(paidAt) {
		t.Errorf("paid_at = %v, want %v", sched.PaidAt, paidAt)
	}

	if err := repo.RevertSchedule(ctx, target, "admin@caixa"); err != nil {
		t.Fatalf("RevertSchedule: %v", err)
	}
	sched, err = repo.GetSchedule(ctx, target)
	if err != nil {
		t.Fatalf("GetSchedule after revert: %v", err)
	}
	if sched.Status != core.StatusPending || sched.PaidAt != nil {
		t.Errorf("after revert status = %s paid_at = %v, want pending and nil", sched.Status, sched.PaidAt)
	}
}

func TestRevertSchedule_RequiresPaid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.CreateEntry(ctx, testEntry("acc-1"), testSchedules("100.00", 1)); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	schedules, _ := repo.ListSchedules(ctx, "acc-1")

	err := repo.RevertSchedule(ctx, schedules[0].ID, "admin@caixa")
	if !errors.Is(err, ErrNotPaid) {
		t.Fatalf("err = %v, want ErrNotPaid", err)
	}
}

func TestMarkSchedulePaid_MissingRow(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.MarkSchedulePaid(context.Background(), 999, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateEntryStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateEntry(ctx, testEntry("acc-1"), nil)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	paidAt := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	if err := repo.UpdateEntryStatus(ctx, id, core.StatusPaid, &paidAt); err != nil {
		t.Fatalf("UpdateEntryStatus: %v", err)
	}

	e, err := repo.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if e.Status != core.StatusPaid {
		t.Errorf("status = %s, want paid", e.Status)
	}
	if e.PaymentDate == nil || !e.PaymentDate.Equal(paidAt) {
		t.Errorf("payment_date = %v, want %v", e.PaymentDate, paidAt)
	}
}

func TestCreateAndListExpenses(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	x := core.Expense{
		AccountID: "acc-1",
		Kind:      core.ExpenseFixed,
		Category:  "aluguel",
		Value:     decimal.RequireFromString("1200.00"),
		Date:      time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Status:    core.StatusPaid,
	}
	if _, err := repo.CreateExpense(ctx, x); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	expenses, err := repo.ListExpenses(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("got %d expenses, want 1", len(expenses))
	}
	got := expenses[0]
	if got.Kind != core.ExpenseFixed || got.Category != "aluguel" || !got.Value.Equal(x.Value) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSubscriptionProfile_UpsertAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	trialStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := core.SubscriptionProfile{
		ID:         "acc-1",
		RawStatus:  "trial",
		TrialStart: &trialStart,
		TrialDays:  14,
	}
	if err := repo.SaveSubscriptionProfile(ctx, p); err != nil {
		t.Fatalf("SaveSubscriptionProfile: %v", err)
	}

	p.RawStatus = "ativo"
	p.Plan = "pro"
	if err := repo.SaveSubscriptionProfile(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.GetSubscriptionProfile(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetSubscriptionProfile: %v", err)
	}
	if got.RawStatus != "ativo" || got.Plan != "pro" || got.TrialDays != 14 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TrialStart == nil || !got.TrialStart.Equal(trialStart) {
		t.Errorf("trial start = %v, want %v", got.TrialStart, trialStart)
	}

	if _, err := repo.GetSubscriptionProfile(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing profile err = %v, want ErrNotFound", err)
	}
}
