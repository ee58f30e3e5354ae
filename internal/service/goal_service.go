package service

import (
	"context"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GoalService manages monthly targets and their progress against actuals.
type GoalService struct {
	goals    port.GoalStore
	entries  port.EntryStore
	profiles port.ProfileStore
	funnel   port.FunnelStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewGoalService creates the goal service. now is injectable for tests.
func NewGoalService(
	goals port.GoalStore,
	entries port.EntryStore,
	profiles port.ProfileStore,
	funnelStore port.FunnelStore,
	logger *zap.Logger,
	now func() time.Time,
) *GoalService {
	if now == nil {
		now = time.Now
	}
	return &GoalService{
		goals:    goals,
		entries:  entries,
		profiles: profiles,
		funnel:   funnelStore,
		logger:   logger,
		now:      now,
	}
}

// ListGoals returns every goal of a company for one month.
func (s *GoalService) ListGoals(ctx context.Context, companyID string, year, month int) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Goal.ListGoals")
	defer span.End()

	return s.goals.ListGoals(ctx, companyID, year, month)
}

// UpsertGoal sets one user's targets for a month. Admin only; the target
// user must belong to the caller's company.
func (s *GoalService) UpsertGoal(ctx context.Context, caller *domain.Profile, companyID string, goal *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Goal.UpsertGoal")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		return nil, &domain.ErrForbidden{Action: "set goals"}
	}
	if goal.Mes < 1 || goal.Mes > 12 {
		return nil, &domain.ErrValidation{Field: "mes", Message: "deve estar entre 1 e 12"}
	}
	for key, v := range goal.MetricGoals {
		if v < 0 {
			return nil, &domain.ErrValidation{Field: key, Message: "não pode ser negativo"}
		}
	}

	target, err := s.profiles.GetProfile(ctx, goal.UserID)
	if err != nil {
		return nil, err
	}
	if target.CompanyID != companyID {
		return nil, &domain.ErrForbidden{Action: "set goals for another company"}
	}

	goal.CompanyID = companyID
	saved, err := s.goals.UpsertGoal(ctx, goal)
	if err != nil {
		return nil, err
	}

	s.logger.Info("goal saved",
		zap.String("user_id", goal.UserID),
		zap.Int("ano", goal.Ano),
		zap.Int("mes", goal.Mes),
	)
	return saved, nil
}

// GetProgress reports, per user with a goal this month, the monthly and
// weekly actuals next to the monthly targets and their derived weekly
// targets. The week starts on Monday.
func (s *GoalService) GetProgress(ctx context.Context, companyID string) ([]domain.GoalProgress, error) {
	ctx, span := tracer.Start(ctx, "Goal.GetProgress")
	defer span.End()

	now := s.now()
	year, month := now.Year(), int(now.Month())
	monthStart, monthEnd := funnel.MonthBounds(year, month)

	var (
		goals    []domain.Goal
		profiles []domain.Profile
		entries  []domain.DailyEntry
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goals, err = s.goals.ListGoals(gCtx, companyID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = s.profiles.ListProfilesByCompany(gCtx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.entries.ListEntries(gCtx, companyID, "", monthStart, monthEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.FullName
	}

	byUser := make(map[string][]domain.DailyEntry)
	for _, e := range entries {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	out := make([]domain.GoalProgress, 0, len(goals))
	for _, goal := range goals {
		keys := make([]string, 0, len(goal.MetricGoals))
		for key := range goal.MetricGoals {
			keys = append(keys, key)
		}

		rows := byUser[goal.UserID]
		out = append(out, domain.GoalProgress{
			UserID:      goal.UserID,
			Name:        names[goal.UserID],
			Goals:       goal.MetricGoals,
			WeeklyGoals: funnel.WeeklyGoals(goal.MetricGoals),
			Monthly:     funnel.Progress(rows, keys),
			Weekly:      funnel.Progress(funnel.WeekRows(rows, now), keys),
		})
	}
	return out, nil
}
