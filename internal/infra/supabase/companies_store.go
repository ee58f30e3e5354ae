package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// ============================================================
// Companies — CRUD via PostgREST
// ============================================================

func (c *Client) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompany")
	defer span.End()

	path := fmt.Sprintf("companies?id=eq.%s&limit=1", companyID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}

	var rows []domain.Company
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode company: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	return &rows[0], nil
}

func (c *Client) CreateCompany(ctx context.Context, name string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCompany")
	defer span.End()

	body, err := c.doPost(ctx, "companies", map[string]any{"name": name}, "")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}

	var rows []domain.Company
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode created company: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("company insert returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateCompany(ctx context.Context, companyID string, updates map[string]any) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCompany")
	defer span.End()

	body, err := c.doPatch(ctx, fmt.Sprintf("companies?id=eq.%s", companyID), updates)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}

	var rows []domain.Company
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode updated company: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	return &rows[0], nil
}

func (c *Client) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCompanies")
	defer span.End()

	body, err := c.getWithRetry(ctx, "companies?order=name.asc")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}

	rows := []domain.Company{}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode companies: %w", err)
		}
	}
	return rows, nil
}
