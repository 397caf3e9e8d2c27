package services

import (
	"context"
	"fmt"
	"time"

	"caixa/internal/core"

	"golang.org/x/sync/errgroup"
)

// Dashboard is the full computed view for one account and period.
type Dashboard struct {
	Period       core.PeriodSummary
	Global       core.GlobalSummary
	Projections  []core.Projection
	Risk         core.RiskAssessment
	Intelligence core.IntelligenceReport
}

// ReportService runs the computation layer over read-only snapshots.
// Every request fetches its rows fresh, fans the reads out in
// parallel, joins on all of them and only then computes; a failed read
// fails the whole request rather than degrading to zeroes.
type ReportService struct {
	store SnapshotReader
	now   func() time.Time
}

func NewReportService(store SnapshotReader) *ReportService {
	return &ReportService{
		store: store,
		now:   time.Now,
	}
}

// Snapshot fetches the account's entries, schedules and expenses in
// parallel and joins before returning. No partial snapshot is ever
// consumed.
func (s *ReportService) Snapshot(ctx context.Context, accountID string) (core.Snapshot, error) {
	if accountID == "" {
		return core.Snapshot{}, ErrNotAuthenticated
	}

	var snap core.Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Entries, err = s.store.ListEntries(ctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Schedules, err = s.store.ListSchedules(ctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Expenses, err = s.store.ListExpenses(ctx, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return snap, nil
}

// Dashboard computes the period and global aggregates, all three
// projection horizons, the risk assessment and the daily intelligence
// report from one snapshot.
func (s *ReportService) Dashboard(ctx context.Context, accountID string, from, to time.Time) (*Dashboard, error) {
	snap, err := s.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	d := &Dashboard{
		Period: core.SummarizePeriod(snap, from, to, today),
		Global: core.SummarizeGlobal(snap, today),
		Risk:   core.AssessRisk(snap, today),
	}
	for _, horizon := range []int{30, 60, 90} {
		p, err := core.Project(snap, horizon, today)
		if err != nil {
			return nil, err
		}
		d.Projections = append(d.Projections, p)
	}
	d.Intelligence = core.EvaluateIntelligence(core.BuildIntelligenceInput(snap, today))
	return d, nil
}

// Projection computes a single horizon.
func (s *ReportService) Projection(ctx context.Context, accountID string, horizonDays int) (core.Projection, error) {
	snap, err := s.Snapshot(ctx, accountID)
	if err != nil {
		return core.Projection{}, err
	}
	return core.Project(snap, horizonDays, s.now())
}

// Insight runs only the intelligence evaluation.
func (s *ReportService) Insight(ctx context.Context, accountID string) (core.IntelligenceReport, error) {
	snap, err := s.Snapshot(ctx, accountID)
	if err != nil {
		return core.IntelligenceReport{}, err
	}
	return core.EvaluateIntelligence(core.BuildIntelligenceInput(snap, s.now())), nil
}
