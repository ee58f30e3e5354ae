package service

import (
	"context"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardQuery narrows what a dashboard aggregates: an optional author,
// a named period or explicit custom range, and an optional override of the
// company's ranking metric.
type DashboardQuery struct {
	UserID      string
	Period      string
	CustomStart string
	CustomEnd   string
	RankingKey  string
}

// DashboardService folds raw entries and proposals into the dashboard
// view-model for one tenant.
type DashboardService struct {
	entries   port.EntryStore
	proposals port.ProposalStore
	funnel    port.FunnelStore
	companies port.CompanyStore
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService creates the dashboard service. now is injectable
// for tests.
func NewDashboardService(
	entries port.EntryStore,
	proposals port.ProposalStore,
	funnelStore port.FunnelStore,
	companies port.CompanyStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		entries:   entries,
		proposals: proposals,
		funnel:    funnelStore,
		companies: companies,
		metrics:   metrics,
		logger:    logger,
		now:       now,
	}
}

// GetDashboard aggregates a company's activity for the queried period.
// Schema, company, entries and proposals are fetched concurrently; the
// fold itself is pure.
func (s *DashboardService) GetDashboard(ctx context.Context, companyID string, q DashboardQuery) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.GetDashboard")
	defer span.End()
	span.SetAttributes(
		attribute.String("company.id", companyID),
		attribute.String("period", q.Period),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	periodStart, periodEnd := funnel.ResolvePeriod(q.Period, q.CustomStart, q.CustomEnd, s.now())

	var (
		stages    []domain.Stage
		company   *domain.Company
		entries   []domain.DailyEntry
		proposals []domain.Proposal
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = s.funnel.ListStages(gCtx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		company, err = s.companies.GetCompany(gCtx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.entries.ListEntries(gCtx, companyID, q.UserID, periodStart, periodEnd)
		return err
	})
	g.Go(func() error {
		var err error
		proposals, err = s.proposals.ListProposals(gCtx, companyID, q.UserID, periodStart, periodEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rankingKey := q.RankingKey
	if rankingKey == "" {
		rankingKey = company.RankingMetricKey
	}

	dash := funnel.BuildDashboard(stages, rankingKey, entries, proposals)
	dash.PeriodStart = periodStart
	dash.PeriodEnd = periodEnd

	s.logger.Debug("dashboard built",
		zap.String("company_id", companyID),
		zap.Int("entries", len(entries)),
		zap.Int("proposals", len(proposals)),
	)
	return &dash, nil
}
