package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"caixa/internal/amqp"
	"caixa/internal/core"

	"github.com/shopspring/decimal"
)

// LedgerService handles the write side: entries with their schedule
// batches, expenses, and schedule status transitions.
type LedgerService struct {
	store     LedgerStore
	publisher EventPublisher
}

func NewLedgerService(store LedgerStore, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// ScheduleRequest asks for the entry's value to be split into
// installments on a fixed cadence.
type ScheduleRequest struct {
	Kind         core.ScheduleKind
	Installments int
	FirstDueDate time.Time
	IntervalDays int
}

// CreateEntryInput carries everything needed to record a sale.
type CreateEntryInput struct {
	AccountID     string
	ClientID      *int64
	ItemID        *int64
	Quantity      int
	Value         decimal.Decimal
	PaymentMethod string
	Paid          bool
	Date          time.Time
	DueDate       *time.Time
	Schedule      *ScheduleRequest
}

// CreateEntry validates and records an entry. When a schedule is
// requested the whole batch is built up front and inserted atomically
// with the entry; a failure leaves neither behind.
func (s *LedgerService) CreateEntry(ctx context.Context, in CreateEntryInput) (int64, error) {
	if in.AccountID == "" {
		return 0, ErrNotAuthenticated
	}

	entry := core.LedgerEntry{
		AccountID:     in.AccountID,
		ClientID:      in.ClientID,
		ItemID:        in.ItemID,
		Quantity:      in.Quantity,
		Value:         in.Value,
		PaymentMethod: in.PaymentMethod,
		Status:        core.StatusPending,
		Date:          in.Date,
		DueDate:       in.DueDate,
	}
	if in.Paid {
		entry.Status = core.StatusPaid
		now := time.Now()
		entry.PaymentDate = &now
	}
	if err := entry.Validate(); err != nil {
		return 0, fmt.Errorf("validate entry: %w", err)
	}

	var schedules []core.PaymentSchedule
	if in.Schedule != nil {
		plan := core.SchedulePlan{
			Kind:         in.Schedule.Kind,
			Total:        in.Value,
			Count:        in.Schedule.Installments,
			FirstDueDate: in.Schedule.FirstDueDate,
			IntervalDays: in.Schedule.IntervalDays,
		}
		if plan.Kind == "" {
			plan.Kind = core.KindInstallment
		}
		if plan.Count == 1 {
			plan.Kind = core.KindSingle
		}
		if plan.IntervalDays == 0 {
			plan.IntervalDays = 30
		}
		var err error
		schedules, err = core.BuildSchedulePlan(plan)
		if err != nil {
			return 0, fmt.Errorf("build schedule plan: %w", err)
		}
	}

	entryID, err := s.store.CreateEntry(ctx, entry, schedules)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	return entryID, nil
}

// CreateExpense validates and records an expense row.
func (s *LedgerService) CreateExpense(ctx context.Context, x core.Expense) (int64, error) {
	if x.AccountID == "" {
		return 0, ErrNotAuthenticated
	}
	if x.Status == "" {
		x.Status = core.StatusPending
	}
	if err := x.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}
	id, err := s.store.CreateExpense(ctx, x)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	return id, nil
}

// MarkSchedulePaid settles one installment. Storage is updated first;
// the event publish is best-effort and never fails the request.
func (s *LedgerService) MarkSchedulePaid(ctx context.Context, scheduleID int64, paidAt time.Time) error {
	if err := s.store.MarkSchedulePaid(ctx, scheduleID, paidAt); err != nil {
		return fmt.Errorf("mark schedule paid: %w", err)
	}
	s.publishEvent(ctx, amqp.EventSchedulePaid, scheduleID)
	return nil
}

// RevertSchedule is the admin-only paid->pending transition; actor is
// recorded alongside the prior status.
func (s *LedgerService) RevertSchedule(ctx context.Context, scheduleID int64, actor string) error {
	if actor == "" {
		return errors.New("revert requires an actor")
	}
	if err := s.store.RevertSchedule(ctx, scheduleID, actor); err != nil {
		return fmt.Errorf("revert schedule: %w", err)
	}
	s.publishEvent(ctx, amqp.EventScheduleReverted, scheduleID)
	return nil
}

// MarkEntryPaid settles a bare entry.
func (s *LedgerService) MarkEntryPaid(ctx context.Context, entryID int64, paidAt time.Time) error {
	if err := s.store.UpdateEntryStatus(ctx, entryID, core.StatusPaid, &paidAt); err != nil {
		return fmt.Errorf("mark entry paid: %w", err)
	}
	return nil
}

func (s *LedgerService) publishEvent(ctx context.Context, kind string, scheduleID int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping schedule event",
			"kind", kind, "schedule_id", scheduleID)
		return
	}

	entryID := int64(0)
	if sched, err := s.store.GetSchedule(ctx, scheduleID); err == nil {
		entryID = sched.EntryID
	}

	msg := amqp.NewScheduleEventMessage(kind, scheduleID, entryID)
	if err := s.publisher.PublishScheduleEvent(ctx, msg); err != nil {
		// Storage already committed; the export catches up later.
		slog.ErrorContext(ctx, "Failed to publish schedule event",
			"kind", kind, "schedule_id", scheduleID, "error", err)
	}
}
