package service_test

import (
	"context"
	"testing"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestUpdateCompany_Success(t *testing.T) {
	companies := &mockCompanyStore{company: &domain.Company{ID: "comp-1", Name: "Acme"}}
	funnelStore := &mockFunnelStore{stages: testStages}
	svc := service.NewCompanyService(companies, funnelStore, zap.NewNop())

	updated, err := svc.UpdateCompany(context.Background(), adminCaller(), "comp-1", &domain.CompanyUpdateRequest{
		Name:             strPtr("Acme Vendas"),
		RankingMetricKey: strPtr("conexoes"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Name != "Acme Vendas" {
		t.Errorf("expected renamed company, got %s", updated.Name)
	}
	if companies.updates["ranking_metric_key"] != "conexoes" {
		t.Errorf("expected ranking key patched, got %v", companies.updates)
	}
}

func TestUpdateCompany_NonAdminForbidden(t *testing.T) {
	svc := service.NewCompanyService(&mockCompanyStore{}, &mockFunnelStore{}, zap.NewNop())

	user := &domain.Profile{ID: "u1", Role: domain.RoleUser}
	_, err := svc.UpdateCompany(context.Background(), user, "comp-1", &domain.CompanyUpdateRequest{Name: strPtr("X")})
	var forbidden *domain.ErrForbidden
	if !asErr(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateCompany_UnknownRankingKeyRejected(t *testing.T) {
	companies := &mockCompanyStore{company: &domain.Company{ID: "comp-1"}}
	svc := service.NewCompanyService(companies, &mockFunnelStore{stages: testStages}, zap.NewNop())

	_, err := svc.UpdateCompany(context.Background(), adminCaller(), "comp-1", &domain.CompanyUpdateRequest{
		RankingMetricKey: strPtr("faturamento"),
	})
	var validation *domain.ErrValidation
	if !asErr(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if companies.updates != nil {
		t.Error("expected nothing persisted")
	}
}

func TestUpdateCompany_EmptyPatchReturnsCurrent(t *testing.T) {
	companies := &mockCompanyStore{company: &domain.Company{ID: "comp-1", Name: "Acme"}}
	svc := service.NewCompanyService(companies, &mockFunnelStore{}, zap.NewNop())

	got, err := svc.UpdateCompany(context.Background(), adminCaller(), "comp-1", &domain.CompanyUpdateRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Name != "Acme" {
		t.Errorf("expected the unchanged company, got %+v", got)
	}
	if companies.updates != nil {
		t.Error("expected no update call for an empty patch")
	}
}

func TestListCompanies_SuperAdminOnly(t *testing.T) {
	companies := &mockCompanyStore{companies: []domain.Company{{ID: "comp-1"}, {ID: "comp-2"}}}
	svc := service.NewCompanyService(companies, &mockFunnelStore{}, zap.NewNop())

	if _, err := svc.ListCompanies(context.Background(), false); err == nil {
		t.Fatal("expected ErrForbidden for a regular tenant admin")
	}

	list, err := svc.ListCompanies(context.Background(), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 companies, got %d", len(list))
	}
}

func TestSwitchCompany_Success(t *testing.T) {
	companies := &mockCompanyStore{company: &domain.Company{ID: "comp-2"}}
	svc := service.NewCompanyService(companies, &mockFunnelStore{}, zap.NewNop())

	if err := svc.SwitchCompany(context.Background(), true, "token", "comp-2"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if companies.setActiveTo != "comp-2" {
		t.Errorf("expected the RPC called with comp-2, got %s", companies.setActiveTo)
	}
}

func TestSwitchCompany_NotSuperAdminForbidden(t *testing.T) {
	companies := &mockCompanyStore{company: &domain.Company{ID: "comp-2"}}
	svc := service.NewCompanyService(companies, &mockFunnelStore{}, zap.NewNop())

	err := svc.SwitchCompany(context.Background(), false, "token", "comp-2")
	var forbidden *domain.ErrForbidden
	if !asErr(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if companies.setActiveTo != "" {
		t.Error("expected no switch")
	}
}

func TestSwitchCompany_UnknownCompany(t *testing.T) {
	svc := service.NewCompanyService(&mockCompanyStore{}, &mockFunnelStore{}, zap.NewNop())

	err := svc.SwitchCompany(context.Background(), true, "token", "ghost")
	var notFound *domain.ErrNotFound
	if !asErr(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
