package service

import (
	"context"
	"strings"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.uber.org/zap"
)

// FunnelService manages a company's funnel schema: the ordered, keyed
// stages every entry, goal and dashboard is shaped by.
type FunnelService struct {
	funnel port.FunnelStore
	logger *zap.Logger
}

// NewFunnelService creates the funnel service.
func NewFunnelService(funnelStore port.FunnelStore, logger *zap.Logger) *FunnelService {
	return &FunnelService{funnel: funnelStore, logger: logger}
}

// GetStages returns the company's schema in display order.
func (s *FunnelService) GetStages(ctx context.Context, companyID string) ([]domain.Stage, error) {
	ctx, span := tracer.Start(ctx, "Funnel.GetStages")
	defer span.End()

	return s.funnel.ListStages(ctx, companyID)
}

// SaveStages replaces a company's schema with the desired one. Admin only.
// Keys are recomputed from names, display order follows array position,
// the protected proposals stage survives rename and deletion attempts, and
// the diff against the persisted rows decides inserts, updates and
// deletes.
func (s *FunnelService) SaveStages(ctx context.Context, caller *domain.Profile, companyID string, desired []domain.Stage) ([]domain.Stage, error) {
	ctx, span := tracer.Start(ctx, "Funnel.SaveStages")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		return nil, &domain.ErrForbidden{Action: "edit funnel"}
	}
	if len(desired) == 0 {
		return nil, &domain.ErrValidation{Field: "stages", Message: "o funil não pode ficar vazio"}
	}
	for _, st := range desired {
		if strings.TrimSpace(st.Name) == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "toda etapa precisa de nome"}
		}
	}

	persisted, err := s.funnel.ListStages(ctx, companyID)
	if err != nil {
		return nil, err
	}

	normalized := funnel.NormalizeStages(desired, persisted)

	seen := make(map[string]bool, len(normalized))
	for _, st := range normalized {
		if seen[st.Key] {
			return nil, &domain.ErrValidation{Field: "name", Message: "nomes de etapas geram chaves duplicadas"}
		}
		seen[st.Key] = true
	}

	existingIDs := make([]string, 0, len(persisted))
	var protectedID string
	for _, p := range persisted {
		existingIDs = append(existingIDs, p.ID)
		if p.Key == funnel.ProtectedKey {
			protectedID = p.ID
		}
	}

	var keep []string
	if protectedID != "" {
		keep = append(keep, protectedID)
	}

	plan := funnel.Reconcile(existingIDs, normalized, keep, func(st domain.Stage) string { return st.ID })

	for _, st := range plan.Update {
		st := st
		if err := s.funnel.UpdateStage(ctx, &st); err != nil {
			return nil, err
		}
	}
	if len(plan.Insert) > 0 {
		rows := make([]domain.Stage, 0, len(plan.Insert))
		for _, st := range plan.Insert {
			st.ID = ""
			st.CompanyID = companyID
			rows = append(rows, st)
		}
		if _, err := s.funnel.InsertStages(ctx, rows); err != nil {
			return nil, err
		}
	}
	if err := s.funnel.DeleteStages(ctx, plan.Delete); err != nil {
		return nil, err
	}

	s.logger.Info("funnel schema saved",
		zap.String("company_id", companyID),
		zap.Int("stages", len(normalized)),
		zap.Int("inserted", len(plan.Insert)),
		zap.Int("deleted", len(plan.Delete)),
	)

	return s.funnel.ListStages(ctx, companyID)
}
