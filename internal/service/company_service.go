package service

import (
	"context"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.uber.org/zap"
)

// CompanyService manages tenant settings and the super-admin company
// switch.
type CompanyService struct {
	companies port.CompanyStore
	funnel    port.FunnelStore
	logger    *zap.Logger
}

// NewCompanyService creates the company service.
func NewCompanyService(companies port.CompanyStore, funnelStore port.FunnelStore, logger *zap.Logger) *CompanyService {
	return &CompanyService{companies: companies, funnel: funnelStore, logger: logger}
}

// GetCompany returns one tenant's settings.
func (s *CompanyService) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Company.GetCompany")
	defer span.End()

	return s.companies.GetCompany(ctx, companyID)
}

// UpdateCompany patches tenant settings. Admin only. A ranking metric key
// must exist in the company's current schema.
func (s *CompanyService) UpdateCompany(ctx context.Context, caller *domain.Profile, companyID string, req *domain.CompanyUpdateRequest) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Company.UpdateCompany")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		return nil, &domain.ErrForbidden{Action: "edit company"}
	}

	updates := map[string]any{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "obrigatório"}
		}
		updates["name"] = *req.Name
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if req.RankingMetricKey != nil {
		stages, err := s.funnel.ListStages(ctx, companyID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, st := range stages {
			if st.Key == *req.RankingMetricKey {
				found = true
				break
			}
		}
		if !found {
			return nil, &domain.ErrValidation{Field: "ranking_metric_key", Message: "não existe no funil"}
		}
		updates["ranking_metric_key"] = *req.RankingMetricKey
	}
	if len(updates) == 0 {
		return s.companies.GetCompany(ctx, companyID)
	}

	company, err := s.companies.UpdateCompany(ctx, companyID, updates)
	if err != nil {
		return nil, err
	}
	s.logger.Info("company updated", zap.String("company_id", companyID))
	return company, nil
}

// ListCompanies returns every tenant. Super admin only; enforced by the
// caller flag, not the profile role, so a tenant admin can never cross.
func (s *CompanyService) ListCompanies(ctx context.Context, superAdmin bool) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Company.ListCompanies")
	defer span.End()

	if !superAdmin {
		return nil, &domain.ErrForbidden{Action: "list companies"}
	}
	return s.companies.ListCompanies(ctx)
}

// SwitchCompany points a super admin's session at another tenant. The
// switch happens server-side via RPC under the caller's own token.
func (s *CompanyService) SwitchCompany(ctx context.Context, superAdmin bool, userToken, companyID string) error {
	ctx, span := tracer.Start(ctx, "Company.SwitchCompany")
	defer span.End()

	if !superAdmin {
		return &domain.ErrForbidden{Action: "switch company"}
	}
	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		return err
	}
	if err := s.companies.SetActiveCompany(ctx, userToken, companyID); err != nil {
		return err
	}
	s.logger.Info("active company switched", zap.String("company_id", companyID))
	return nil
}
