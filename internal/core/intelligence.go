package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// HealthStatus buckets the 0-100 health score.
type HealthStatus string

const (
	HealthStable      HealthStatus = "stable"
	HealthObservation HealthStatus = "observation"
	HealthAttention   HealthStatus = "attention"
)

// Signal is a single alert or insight surfaced to the user. At most one
// signal is active per evaluation; silence is a valid outcome.
type Signal struct {
	Type    string
	Message string
}

// Signal types, in priority order within their group.
const (
	AlertNegativeBalance       = "negative_balance"
	AlertProgressiveDecline    = "progressive_decline"
	AlertSpendingConcentration = "spending_concentration"

	InsightExcessiveSpending  = "excessive_spending"
	InsightInactivity         = "inactivity"
	InsightCategoryRepetition = "category_repetition"
	InsightStability          = "stability"
	InsightEducational        = "educational"
)

// IntelligenceInput is the read-only material the engine evaluates. It
// is built once from a snapshot; the engine itself keeps no state
// between evaluations.
type IntelligenceInput struct {
	Today      time.Time
	Balance    decimal.Decimal
	ActiveDays map[time.Time]bool
	Expenses   []Expense
}

// IntelligenceReport is the engine's full output for one day.
type IntelligenceReport struct {
	LearningPhase   int
	TotalActiveDays int
	HealthScore     int
	HealthStatus    HealthStatus
	Alert           *Signal
	Insight         *Signal
}

// BuildIntelligenceInput derives the engine input from a snapshot:
// current balance plus the set of distinct calendar days that saw any
// recorded activity (an entry or an expense).
func BuildIntelligenceInput(snap Snapshot, today time.Time) IntelligenceInput {
	active := make(map[time.Time]bool)
	for _, e := range snap.Entries {
		active[DateOnly(e.Date)] = true
	}
	for _, x := range snap.Expenses {
		active[DateOnly(x.Date)] = true
	}
	return IntelligenceInput{
		Today:      DateOnly(today),
		Balance:    CurrentBalance(snap),
		ActiveDays: active,
		Expenses:   snap.Expenses,
	}
}

// LearningPhase buckets activity maturity: phase 1 through day 7,
// phase 2 through day 21, phase 3 afterwards. Used to tailor message
// tone, never logic.
func LearningPhase(totalActiveDays int) int {
	switch {
	case totalActiveDays <= 7:
		return 1
	case totalActiveDays <= 21:
		return 2
	default:
		return 3
	}
}

// signalContext carries every derived figure the rule cascades key on,
// computed once per evaluation.
type signalContext struct {
	today           time.Time
	balance         decimal.Decimal
	totalActiveDays int
	phase           int

	dailyTotal   func(daysAgo int) decimal.Decimal
	total7       decimal.Decimal
	avg7Daily    decimal.Decimal
	todayTotal   decimal.Decimal
	topCategory  string
	topCatTotal  decimal.Decimal
	repeatedCat  string
	repeatedHits int

	daysSinceActivity int
	hasActivity       bool
	streak5           bool
	stable7           bool
	stable5           bool
}

type signalRule struct {
	match func(*signalContext) bool
	build func(*signalContext) Signal
}

// Alert rules, evaluated in order; first match wins and suppresses all
// insights for the day.
var alertRules = []signalRule{
	{
		match: func(c *signalContext) bool { return c.balance.IsNegative() },
		build: func(c *signalContext) Signal {
			return Signal{
				Type:    AlertNegativeBalance,
				Message: fmt.Sprintf("Seu saldo atual está negativo em %s. Priorize os recebimentos pendentes.", c.balance.Abs().StringFixed(2)),
			}
		},
	},
	{
		match: func(c *signalContext) bool {
			d0, d1, d2 := c.dailyTotal(0), c.dailyTotal(1), c.dailyTotal(2)
			if !d0.IsPositive() || !d1.IsPositive() || !d2.IsPositive() {
				return false
			}
			return d0.LessThanOrEqual(d1) && d1.LessThanOrEqual(d2)
		},
		build: func(c *signalContext) Signal {
			return Signal{
				Type:    AlertProgressiveDecline,
				Message: "Seus gastos vêm caindo há 3 dias seguidos. Bom sinal, mantenha o ritmo.",
			}
		},
	},
	{
		match: func(c *signalContext) bool { return c.topCategory != "" },
		build: func(c *signalContext) Signal {
			return Signal{
				Type:    AlertSpendingConcentration,
				Message: fmt.Sprintf("Mais de 60%% dos seus gastos da semana estão em %q. Vale revisar essa categoria.", c.topCategory),
			}
		},
	},
}

var excessiveSpendingByPhase = map[int]string{
	1: "Hoje você gastou bem acima da sua média. Ainda estamos aprendendo seu padrão, fique de olho.",
	2: "Gasto de hoje acima de 125% da sua média semanal. Confira se era planejado.",
	3: "Gasto de hoje fora do seu padrão histórico. Revise antes que vire hábito.",
}

// Insight rules, evaluated only when no alert matched.
var insightRules = []signalRule{
	{
		match: func(c *signalContext) bool {
			if !c.avg7Daily.IsPositive() {
				return false
			}
			limit := c.avg7Daily.Mul(decimal.NewFromFloat(1.25))
			return c.todayTotal.GreaterThan(limit)
		},
		build: func(c *signalContext) Signal {
			return Signal{Type: InsightExcessiveSpending, Message: excessiveSpendingByPhase[c.phase]}
		},
	},
	{
		match: func(c *signalContext) bool {
			return c.hasActivity && c.daysSinceActivity >= 1 && c.daysSinceActivity <= 2
		},
		build: func(c *signalContext) Signal {
			return Signal{
				Type:    InsightInactivity,
				Message: "Você não registra nada há mais de um dia. Lançamentos em dia mantêm os números confiáveis.",
			}
		},
	},
	{
		match: func(c *signalContext) bool { return c.repeatedCat != "" },
		build: func(c *signalContext) Signal {
			return Signal{
				Type:    InsightCategoryRepetition,
				Message: fmt.Sprintf("A categoria %q apareceu %d vezes nos últimos 5 dias.", c.repeatedCat, c.repeatedHits),
			}
		},
	},
	{
		match: func(c *signalContext) bool { return c.stable5 },
		build: func(c *signalContext) Signal {
			return Signal{
				Type:    InsightStability,
				Message: "Seus gastos dos últimos 5 dias estão estáveis. Consistência é meio caminho andado.",
			}
		},
	},
}

const educationalMessage = "Registre suas vendas e gastos por alguns dias e o app começa a gerar análises do seu caixa."

// EvaluateIntelligence runs the full daily evaluation: learning phase,
// health score and the prioritized alert/insight cascade.
func EvaluateIntelligence(in IntelligenceInput) IntelligenceReport {
	c := buildSignalContext(in)

	report := IntelligenceReport{
		LearningPhase:   c.phase,
		TotalActiveDays: c.totalActiveDays,
	}
	report.HealthScore, report.HealthStatus = healthScore(c)

	for _, r := range alertRules {
		if r.match(c) {
			s := r.build(c)
			report.Alert = &s
			return report
		}
	}
	for _, r := range insightRules {
		if r.match(c) {
			s := r.build(c)
			report.Insight = &s
			return report
		}
	}
	if c.totalActiveDays < 3 {
		report.Insight = &Signal{Type: InsightEducational, Message: educationalMessage}
	}
	return report
}

// healthScore starts at 100, applies the weighted signals and clamps to
// [0,100].
func healthScore(c *signalContext) (int, HealthStatus) {
	score := 100
	if c.balance.IsNegative() {
		score -= 20
	}
	if c.hasActivity && c.daysSinceActivity > 2 {
		score -= 10
	}
	if c.avg7Daily.IsPositive() && c.todayTotal.GreaterThan(c.avg7Daily.Mul(decimal.NewFromFloat(1.3))) {
		score -= 10
	}
	if c.topCategory != "" {
		score -= 10
	}
	if c.streak5 {
		score += 10
	}
	if c.stable7 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	switch {
	case score >= 80:
		return score, HealthStable
	case score >= 50:
		return score, HealthObservation
	default:
		return score, HealthAttention
	}
}

func buildSignalContext(in IntelligenceInput) *signalContext {
	today := DateOnly(in.Today)

	totalsByDay := make(map[time.Time]decimal.Decimal)
	for _, x := range in.Expenses {
		d := DateOnly(x.Date)
		totalsByDay[d] = totalsByDay[d].Add(x.Value)
	}
	dailyTotal := func(daysAgo int) decimal.Decimal {
		return totalsByDay[today.AddDate(0, 0, -daysAgo)]
	}

	c := &signalContext{
		today:           today,
		balance:         in.Balance,
		totalActiveDays: len(in.ActiveDays),
		phase:           LearningPhase(len(in.ActiveDays)),
		dailyTotal:      dailyTotal,
		todayTotal:      dailyTotal(0),
	}

	// 7-day window figures (today back through today-6).
	total7 := decimal.Zero
	for i := 0; i < 7; i++ {
		total7 = total7.Add(dailyTotal(i))
	}
	c.total7 = total7
	c.avg7Daily = total7.Div(decimal.NewFromInt(7))

	// Category concentration over the same 7 days.
	catTotals := make(map[string]decimal.Decimal)
	windowStart := today.AddDate(0, 0, -6)
	repeatStart := today.AddDate(0, 0, -4)
	catHits := make(map[string]int)
	for _, x := range in.Expenses {
		d := DateOnly(x.Date)
		if !d.Before(windowStart) && !d.After(today) {
			catTotals[x.Category] = catTotals[x.Category].Add(x.Value)
		}
		if !d.Before(repeatStart) && !d.After(today) {
			catHits[x.Category]++
		}
	}
	if total7.IsPositive() {
		threshold := total7.Mul(decimal.NewFromFloat(0.6))
		for cat, sum := range catTotals {
			if sum.GreaterThan(threshold) && sum.GreaterThan(c.topCatTotal) {
				c.topCategory, c.topCatTotal = cat, sum
			}
		}
	}
	for cat, n := range catHits {
		if n >= 3 && n > c.repeatedHits {
			c.repeatedCat, c.repeatedHits = cat, n
		}
	}

	// Activity recency and streak.
	c.daysSinceActivity = daysSinceLast(in.ActiveDays, today)
	c.hasActivity = len(in.ActiveDays) > 0
	c.streak5 = true
	for i := 0; i < 5; i++ {
		if !in.ActiveDays[today.AddDate(0, 0, -i)] {
			c.streak5 = false
			break
		}
	}

	c.stable7 = withinTolerance(dailyTotal, 7)
	c.stable5 = withinTolerance(dailyTotal, 5)
	return c
}

// daysSinceLast returns the calendar-day gap from the most recent
// active day to today; days in the future count as today.
func daysSinceLast(active map[time.Time]bool, today time.Time) int {
	best := -1
	for d := range active {
		gap := DaysBetween(d, today)
		if gap < 0 {
			gap = 0
		}
		if best == -1 || gap < best {
			best = gap
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

// withinTolerance reports whether the last n daily totals all sit
// within 10% of their own average. An all-zero window never counts as
// stable.
func withinTolerance(dailyTotal func(int) decimal.Decimal, n int) bool {
	sum := decimal.Zero
	for i := 0; i < n; i++ {
		sum = sum.Add(dailyTotal(i))
	}
	if !sum.IsPositive() {
		return false
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	tolerance := avg.Mul(decimal.NewFromFloat(0.1))
	for i := 0; i < n; i++ {
		if dailyTotal(i).Sub(avg).Abs().GreaterThan(tolerance) {
			return false
		}
	}
	return true
}
