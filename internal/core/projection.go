package core

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel grades the receivables book.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Trend classifies the direction the receivables book is moving in.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNeutral  Trend = "neutral"
	TrendNegative Trend = "negative"
)

var ErrInvalidHorizon = errors.New("projection horizon must be 30, 60 or 90 days")

// Projection is the derived cash outlook at one horizon; it is never
// persisted.
type Projection struct {
	HorizonDays int
	Receivables decimal.Decimal
	Expenses    decimal.Decimal
	Balance     decimal.Decimal
}

// CriticalDue is one pending installment surfaced on the attention
// list. DaysOverdue is positive for overdue rows and zero or negative
// (days until due) otherwise.
type CriticalDue struct {
	ScheduleID  int64
	EntryID     int64
	ClientID    *int64
	DueDate     time.Time
	Amount      decimal.Decimal
	DaysOverdue int
}

// RiskAssessment is the behavioral view over the pending book.
type RiskAssessment struct {
	Level             RiskLevel
	OverduePct        decimal.Decimal
	DelinquentClients int
	Trend             Trend
	CriticalDueDates  []CriticalDue
}

// Project computes receivables due within horizonDays against the
// recurring fixed cost load for the same window.
//
// Expenses use a flat monthly-recurrence assumption: the fixed-expense
// total times ceil(horizon/30), not a calendar-accurate count of month
// boundaries crossed.
func Project(snap Snapshot, horizonDays int, today time.Time) (Projection, error) {
	switch horizonDays {
	case 30, 60, 90:
	default:
		return Projection{}, ErrInvalidHorizon
	}

	today = DateOnly(today)
	limit := today.AddDate(0, 0, horizonDays)

	receivables := decimal.Zero
	for _, s := range snap.Schedules {
		if s.Status != StatusPending {
			continue
		}
		due := DateOnly(s.DueDate)
		if !due.Before(today) && !due.After(limit) {
			receivables = receivables.Add(s.Amount)
		}
	}

	fixed := decimal.Zero
	for _, x := range snap.Expenses {
		if x.Kind == ExpenseFixed {
			fixed = fixed.Add(x.Value)
		}
	}
	months := int64((horizonDays + 29) / 30)
	expenses := fixed.Mul(decimal.NewFromInt(months))

	return Projection{
		HorizonDays: horizonDays,
		Receivables: receivables,
		Expenses:    expenses,
		Balance:     receivables.Sub(expenses),
	}, nil
}

// AssessRisk derives the risk level, delinquency figures, trend and the
// top-5 critical due date list from the pending schedule book.
func AssessRisk(snap Snapshot, today time.Time) RiskAssessment {
	today = DateOnly(today)
	entryClient := make(map[int64]*int64, len(snap.Entries))
	for _, e := range snap.Entries {
		entryClient[e.ID] = e.ClientID
	}

	totalPending := decimal.Zero
	overdueValue := decimal.Zero
	delinquent := make(map[int64]bool)
	var critical []CriticalDue

	for _, s := range snap.Schedules {
		if s.Status != StatusPending {
			continue
		}
		totalPending = totalPending.Add(s.Amount)
		clientID := entryClient[s.EntryID]
		daysOverdue := DaysBetween(s.DueDate, today)
		if daysOverdue > 0 {
			overdueValue = overdueValue.Add(s.Amount)
			if clientID != nil {
				delinquent[*clientID] = true
			}
		}
		critical = append(critical, CriticalDue{
			ScheduleID:  s.ID,
			EntryID:     s.EntryID,
			ClientID:    clientID,
			DueDate:     DateOnly(s.DueDate),
			Amount:      s.Amount,
			DaysOverdue: daysOverdue,
		})
	}

	// Overdue rows first, least overdue leading; then upcoming rows by
	// how soon they fall due.
	sort.SliceStable(critical, func(i, j int) bool {
		oi, oj := critical[i].DaysOverdue > 0, critical[j].DaysOverdue > 0
		if oi != oj {
			return oi
		}
		if oi {
			return critical[i].DaysOverdue < critical[j].DaysOverdue
		}
		return critical[i].DaysOverdue > critical[j].DaysOverdue
	})
	if len(critical) > 5 {
		critical = critical[:5]
	}

	overduePct := decimal.Zero
	if totalPending.IsPositive() {
		overduePct = overdueValue.Div(totalPending).Mul(hundred)
	}

	level := RiskLow
	switch {
	case overduePct.GreaterThan(decimal.NewFromInt(30)) || len(delinquent) > 5:
		level = RiskHigh
	case overduePct.GreaterThan(decimal.NewFromInt(15)) || len(delinquent) > 2:
		level = RiskMedium
	}

	trend := TrendNeutral
	switch {
	case overduePct.GreaterThan(decimal.NewFromInt(20)):
		trend = TrendNegative
	case overduePct.LessThan(decimal.NewFromInt(10)):
		trend = TrendPositive
	}

	return RiskAssessment{
		Level:             level,
		OverduePct:        overduePct.Round(2),
		DelinquentClients: len(delinquent),
		Trend:             trend,
		CriticalDueDates:  critical,
	}
}
