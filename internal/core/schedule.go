package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributeAmount splits a 2dp total into count installment amounts.
//
// Every installment gets the floor-cent base (total*100/count, floored,
// back to 2dp); the last installment absorbs the remainder so the
// amounts always sum back to total exactly, even for non-terminating
// divisions such as 100.00 / 3 -> [33.33, 33.33, 33.34].
func DistributeAmount(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if total.IsNegative() {
		return nil, ErrInvalidAmount
	}

	baseCents := Cents(total) / int64(count)
	base := FromCents(baseCents)

	amounts := make([]decimal.Decimal, count)
	for i := range amounts {
		amounts[i] = base
	}
	// last = base + (total - base*count)
	amounts[count-1] = total.Sub(base.Mul(decimal.NewFromInt(int64(count - 1)))).Round(2)
	return amounts, nil
}

// InstallmentDueDate returns firstDue shifted by index*intervalDays.
//
// This is pure day-count addition with no month-length normalization:
// 2024-01-15 with a 30-day interval yields 2024-02-14, then 2024-03-15.
// Index 0 returns firstDue unchanged.
func InstallmentDueDate(firstDue time.Time, index, intervalDays int) time.Time {
	if index == 0 {
		return firstDue
	}
	return firstDue.AddDate(0, 0, index*intervalDays)
}

// SchedulePlan is the request for one atomically-inserted batch of
// schedule rows.
type SchedulePlan struct {
	EntryID      int64
	Kind         ScheduleKind
	Total        decimal.Decimal
	Count        int
	FirstDueDate time.Time
	IntervalDays int
}

// BuildSchedulePlan expands a plan into its 1..N pending schedule rows:
// contiguous installment numbers, strictly increasing due dates on the
// fixed cadence, amounts from DistributeAmount.
func BuildSchedulePlan(p SchedulePlan) ([]PaymentSchedule, error) {
	amounts, err := DistributeAmount(p.Total, p.Count)
	if err != nil {
		return nil, err
	}
	rows := make([]PaymentSchedule, p.Count)
	for i := range rows {
		rows[i] = PaymentSchedule{
			EntryID:           p.EntryID,
			Kind:              p.Kind,
			InstallmentNumber: i + 1,
			InstallmentsTotal: p.Count,
			DueDate:           InstallmentDueDate(p.FirstDueDate, i, p.IntervalDays),
			Amount:            amounts[i],
			Status:            StatusPending,
		}
	}
	return rows, nil
}
