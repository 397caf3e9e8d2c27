package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status of an entry, a schedule installment or an expense.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// ScheduleKind classifies how an entry's payment is scheduled.
type ScheduleKind string

const (
	KindSingle         ScheduleKind = "single"
	KindInstallment    ScheduleKind = "installment"
	KindMonthlyPackage ScheduleKind = "monthly_package"
)

// ExpenseKind distinguishes recurring fixed costs from one-off spend.
type ExpenseKind string

const (
	ExpenseFixed    ExpenseKind = "fixed"
	ExpenseVariable ExpenseKind = "variable"
)

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyCategory   = errors.New("empty expense category")
)

type (
	// LedgerEntry is a single sale or service record. An entry with no
	// schedule rows is "bare" and carries its own value and status; an
	// entry with schedule rows is "governed" and delegates both to them.
	LedgerEntry struct {
		ID            int64
		AccountID     string
		ClientID      *int64
		ItemID        *int64
		Quantity      int
		Value         decimal.Decimal
		PaymentMethod string
		Status        Status
		Date          time.Time
		DueDate       *time.Time
		PaymentDate   *time.Time
	}

	// PaymentSchedule is one scheduled installment belonging to an entry.
	// For a given entry the installment amounts sum exactly to the
	// entry's value and installment numbers form a contiguous 1..N run.
	PaymentSchedule struct {
		ID                int64
		EntryID           int64
		Kind              ScheduleKind
		InstallmentNumber int
		InstallmentsTotal int
		DueDate           time.Time
		Amount            decimal.Decimal
		Status            Status
		PaidAt            *time.Time
	}

	// Expense is a cost row, independent of ledger entries.
	Expense struct {
		ID        int64
		AccountID string
		Kind      ExpenseKind
		Category  string
		Value     decimal.Decimal
		Date      time.Time
		Status    Status
	}

	// SubscriptionProfile carries the raw, externally-written billing
	// fields this core only reads. RawStatus is free-form and is
	// normalized by DeriveAccessState.
	SubscriptionProfile struct {
		ID             string
		RawStatus      string
		Plan           string
		SelectedPlan   string
		TrialStart     *time.Time
		TrialEnd       *time.Time
		TrialDays      int
		ExpirationDate *time.Time
		Owner          bool
	}

	// Snapshot is a read-only view of one account's rows, fetched once
	// before any computation runs. The computation layer never mutates
	// it and never reads past it.
	Snapshot struct {
		Entries   []LedgerEntry
		Schedules []PaymentSchedule
		Expenses  []Expense
	}
)

// Validate checks the fields a caller must supply on a new entry.
func (e LedgerEntry) Validate() error {
	if e.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if e.Value.IsNegative() {
		return ErrInvalidAmount
	}
	if e.Status != StatusPending && e.Status != StatusPaid {
		return ErrInvalidStatus
	}
	if e.Date.IsZero() {
		return errors.New("entry date cannot be zero")
	}
	return nil
}

// Validate checks the fields a caller must supply on a new expense.
func (x Expense) Validate() error {
	if x.Category == "" {
		return ErrEmptyCategory
	}
	if x.Kind != ExpenseFixed && x.Kind != ExpenseVariable {
		return ErrInvalidKind
	}
	if x.Value.IsNegative() {
		return ErrInvalidAmount
	}
	if x.Date.IsZero() {
		return errors.New("expense date cannot be zero")
	}
	return nil
}

// DateOnly truncates a timestamp to its calendar day in UTC. All day
// comparisons in the computation layer go through this so a due date at
// 23:59 and one at 00:01 land in the same bucket.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative if
// b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
