package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ExportRow is one paid installment as it appears in the spreadsheet
// export. PaidAt is the timestamp recorded when the installment was
// settled, which is what the export keys on (the period aggregates key
// on due date instead).
type ExportRow struct {
	EntryID     int64
	ScheduleID  int64
	Installment string // "2/3"
	Amount      decimal.Decimal
	DueDate     time.Time
	PaidAt      time.Time
}

// LedgerWriter is the outbound port for the append-only ledger export.
type LedgerWriter interface {
	AppendPaidInstallment(ctx context.Context, row ExportRow) (rowRef string, err error)
}
