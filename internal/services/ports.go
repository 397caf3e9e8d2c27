// Package services orchestrates the computation layer: it fetches
// read-only row snapshots from storage, runs the pure core functions
// over them, and performs the narrow write operations the presentation
// layer asks for.
package services

import (
	"context"
	"errors"
	"time"

	"caixa/internal/amqp"
	"caixa/internal/core"
)

// ErrNotAuthenticated is returned when a computation is requested
// without an account scope. A report must refuse to run unscoped; it
// must never fall back to zero values.
var ErrNotAuthenticated = errors.New("no authenticated account scope")

// SnapshotReader provides the read contract the computation layer
// depends on. All reads are scoped by account.
type SnapshotReader interface {
	ListEntries(ctx context.Context, accountID string) ([]core.LedgerEntry, error)
	ListSchedules(ctx context.Context, accountID string) ([]core.PaymentSchedule, error)
	ListExpenses(ctx context.Context, accountID string) ([]core.Expense, error)
}

// LedgerStore provides the write contract: narrow operations the
// presentation layer invokes, never the computation layer itself.
type LedgerStore interface {
	CreateEntry(ctx context.Context, e core.LedgerEntry, schedules []core.PaymentSchedule) (int64, error)
	CreateExpense(ctx context.Context, x core.Expense) (int64, error)
	MarkSchedulePaid(ctx context.Context, scheduleID int64, paidAt time.Time) error
	RevertSchedule(ctx context.Context, scheduleID int64, actor string) error
	UpdateEntryStatus(ctx context.Context, entryID int64, status core.Status, paymentDate *time.Time) error
	GetSchedule(ctx context.Context, scheduleID int64) (core.PaymentSchedule, error)
}

// ProfileReader reads the externally-written subscription profile.
type ProfileReader interface {
	GetSubscriptionProfile(ctx context.Context, accountID string) (core.SubscriptionProfile, error)
}

// EventPublisher publishes schedule status-change events. Implemented
// by the AMQP client; nil disables publishing.
type EventPublisher interface {
	PublishScheduleEvent(ctx context.Context, msg *amqp.ScheduleEventMessage) error
}
