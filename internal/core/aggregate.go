package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodSummary is the bounded-range view of the ledger.
type PeriodSummary struct {
	From          time.Time
	To            time.Time
	Received      decimal.Decimal
	Pending       decimal.Decimal
	Upcoming      decimal.Decimal
	Overdue       decimal.Decimal
	AverageTicket decimal.Decimal
	PaidCount     int
}

// GlobalSummary is the unwindowed view over every pending receivable.
type GlobalSummary struct {
	Pending    decimal.Decimal
	Overdue    decimal.Decimal
	Next30Days decimal.Decimal
}

// GovernedEntryIDs returns the set of entry ids that have at least one
// schedule row. Governed entries contribute to totals only through
// their schedules, never through their own value field.
func GovernedEntryIDs(schedules []PaymentSchedule) map[int64]bool {
	ids := make(map[int64]bool, len(schedules))
	for _, s := range schedules {
		ids[s.EntryID] = true
	}
	return ids
}

// effectiveDueDate is the date a bare entry is collectible on: its due
// date when set, otherwise its entry date.
func effectiveDueDate(e LedgerEntry) time.Time {
	if e.DueDate != nil {
		return *e.DueDate
	}
	return e.Date
}

func inRange(d, from, to time.Time) bool {
	d = DateOnly(d)
	return !d.Before(DateOnly(from)) && !d.After(DateOnly(to))
}

// SummarizePeriod folds a snapshot into received/pending/upcoming/
// overdue totals for the [from, to] range.
//
// Received counts paid bare entries whose entry or payment date falls
// in range, plus paid schedule rows whose due date falls in range. A
// governed entry's raw value is never added alongside its schedule
// amounts; that would double count.
func SummarizePeriod(snap Snapshot, from, to, today time.Time) PeriodSummary {
	governed := GovernedEntryIDs(snap.Schedules)
	sum := PeriodSummary{
		From:          DateOnly(from),
		To:            DateOnly(to),
		Received:      decimal.Zero,
		Pending:       decimal.Zero,
		Upcoming:      decimal.Zero,
		Overdue:       decimal.Zero,
		AverageTicket: decimal.Zero,
	}
	today = DateOnly(today)

	for _, e := range snap.Entries {
		if governed[e.ID] {
			continue
		}
		switch e.Status {
		case StatusPaid:
			paidIn := e.PaymentDate != nil && inRange(*e.PaymentDate, from, to)
			if inRange(e.Date, from, to) || paidIn {
				sum.Received = sum.Received.Add(e.Value)
				sum.PaidCount++
			}
		case StatusPending:
			due := effectiveDueDate(e)
			if !inRange(due, from, to) {
				continue
			}
			sum.Pending = sum.Pending.Add(e.Value)
			if DateOnly(due).Before(today) {
				sum.Overdue = sum.Overdue.Add(e.Value)
			} else {
				sum.Upcoming = sum.Upcoming.Add(e.Value)
			}
		}
	}

	for _, s := range snap.Schedules {
		if !inRange(s.DueDate, from, to) {
			continue
		}
		switch s.Status {
		case StatusPaid:
			sum.Received = sum.Received.Add(s.Amount)
			sum.PaidCount++
		case StatusPending:
			sum.Pending = sum.Pending.Add(s.Amount)
			if DateOnly(s.DueDate).Before(today) {
				sum.Overdue = sum.Overdue.Add(s.Amount)
			} else {
				sum.Upcoming = sum.Upcoming.Add(s.Amount)
			}
		}
	}

	if sum.PaidCount > 0 {
		sum.AverageTicket = sum.Received.Div(decimal.NewFromInt(int64(sum.PaidCount))).Round(2)
	}
	return sum
}

// SummarizeGlobal folds every pending receivable, system-wide, with no
// period window: bare pending entries by effective due date plus
// pending schedule rows by due date.
func SummarizeGlobal(snap Snapshot, today time.Time) GlobalSummary {
	governed := GovernedEntryIDs(snap.Schedules)
	sum := GlobalSummary{
		Pending:    decimal.Zero,
		Overdue:    decimal.Zero,
		Next30Days: decimal.Zero,
	}
	today = DateOnly(today)
	horizon := today.AddDate(0, 0, 30)

	add := func(due time.Time, amount decimal.Decimal) {
		due = DateOnly(due)
		sum.Pending = sum.Pending.Add(amount)
		if due.Before(today) {
			sum.Overdue = sum.Overdue.Add(amount)
		} else if !due.After(horizon) {
			sum.Next30Days = sum.Next30Days.Add(amount)
		}
	}

	for _, e := range snap.Entries {
		if governed[e.ID] || e.Status != StatusPending {
			continue
		}
		add(effectiveDueDate(e), e.Value)
	}
	for _, s := range snap.Schedules {
		if s.Status != StatusPending {
			continue
		}
		add(s.DueDate, s.Amount)
	}
	return sum
}

// GlobalReceived sums everything ever received: paid bare entries plus
// paid schedule rows, unwindowed.
func GlobalReceived(snap Snapshot) decimal.Decimal {
	governed := GovernedEntryIDs(snap.Schedules)
	total := decimal.Zero
	for _, e := range snap.Entries {
		if !governed[e.ID] && e.Status == StatusPaid {
			total = total.Add(e.Value)
		}
	}
	for _, s := range snap.Schedules {
		if s.Status == StatusPaid {
			total = total.Add(s.Amount)
		}
	}
	return total
}

// TotalExpenses sums every expense row regardless of status.
func TotalExpenses(snap Snapshot) decimal.Decimal {
	total := decimal.Zero
	for _, x := range snap.Expenses {
		total = total.Add(x.Value)
	}
	return total
}

// CurrentBalance is received minus all expenses, the signal the cash
// intelligence rules key on.
func CurrentBalance(snap Snapshot) decimal.Decimal {
	return GlobalReceived(snap).Sub(TotalExpenses(snap))
}
