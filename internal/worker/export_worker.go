// Package worker drains schedule events from the queue and mirrors
// settled installments into the spreadsheet export.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"caixa/internal/amqp"
	"caixa/internal/core"
	"caixa/internal/sheets"
)

// ScheduleSource is the slice of storage the worker needs.
type ScheduleSource interface {
	GetSchedule(ctx context.Context, scheduleID int64) (core.PaymentSchedule, error)
}

// ExportWorker consumes schedule events and appends paid installments
// to the ledger export. The export is append-only: reverted events are
// acknowledged and skipped, they never remove rows.
type ExportWorker struct {
	store  ScheduleSource
	writer sheets.LedgerWriter
}

func NewExportWorker(store ScheduleSource, writer sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{
		store:  store,
		writer: writer,
	}
}

// HandleScheduleEvent processes a single event from the queue.
func (w *ExportWorker) HandleScheduleEvent(ctx context.Context, msg *amqp.ScheduleEventMessage) error {
	if msg.Kind != amqp.EventSchedulePaid {
		slog.InfoContext(ctx, "Skipping non-paid schedule event",
			"event_id", msg.EventID,
			"kind", msg.Kind,
			"schedule_id", msg.ScheduleID)
		return nil
	}

	sched, err := w.store.GetSchedule(ctx, msg.ScheduleID)
	if err != nil {
		return fmt.Errorf("get schedule %d: %w", msg.ScheduleID, err)
	}

	// An admin may have reverted the schedule between publish and
	// consume; the row snapshot wins.
	if sched.Status != core.StatusPaid {
		slog.WarnContext(ctx, "Schedule no longer paid, skipping export",
			"event_id", msg.EventID,
			"schedule_id", msg.ScheduleID,
			"status", sched.Status)
		return nil
	}

	paidAt := msg.OccurredAt
	if sched.PaidAt != nil {
		paidAt = *sched.PaidAt
	}

	row := sheets.ExportRow{
		EntryID:     sched.EntryID,
		ScheduleID:  sched.ID,
		Installment: fmt.Sprintf("%d/%d", sched.InstallmentNumber, sched.InstallmentsTotal),
		Amount:      sched.Amount,
		DueDate:     sched.DueDate,
		PaidAt:      paidAt,
	}

	ref, err := w.writer.AppendPaidInstallment(ctx, row)
	if err != nil {
		return fmt.Errorf("export schedule %d: %w", sched.ID, err)
	}

	slog.InfoContext(ctx, "Exported paid installment",
		"event_id", msg.EventID,
		"schedule_id", sched.ID,
		"entry_id", sched.EntryID,
		"row_ref", ref)
	return nil
}
