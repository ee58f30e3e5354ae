package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// ============================================================
// Funnel schema — CRUD via PostgREST
// ============================================================

func (c *Client) ListStages(ctx context.Context, companyID string) ([]domain.Stage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListStages")
	defer span.End()

	path := fmt.Sprintf("metricas_funil?company_id=eq.%s&order=display_order.asc", companyID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/funnel", Err: err}
	}

	rows := []domain.Stage{}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode stages: %w", err)
		}
	}
	return rows, nil
}

// InsertStages bulk-inserts new stages. Callers strip temporary ids first;
// the database assigns real ones, returned in order.
func (c *Client) InsertStages(ctx context.Context, stages []domain.Stage) ([]domain.Stage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertStages")
	defer span.End()

	if len(stages) == 0 {
		return nil, nil
	}

	payload := make([]map[string]any, 0, len(stages))
	for _, s := range stages {
		payload = append(payload, map[string]any{
			"company_id":    s.CompanyID,
			"name":          s.Name,
			"key":           s.Key,
			"display_order": s.DisplayOrder,
		})
	}

	body, err := c.doPost(ctx, "metricas_funil", payload, "")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/funnel", Err: err}
	}

	var rows []domain.Stage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode inserted stages: %w", err)
	}
	return rows, nil
}

func (c *Client) UpdateStage(ctx context.Context, stage *domain.Stage) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateStage")
	defer span.End()

	_, err := c.doPatch(ctx, fmt.Sprintf("metricas_funil?id=eq.%s", stage.ID), map[string]any{
		"name":          stage.Name,
		"key":           stage.Key,
		"display_order": stage.DisplayOrder,
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/funnel", Err: err}
	}
	return nil
}

func (c *Client) DeleteStages(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteStages")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}
	if err := c.doDelete(ctx, fmt.Sprintf("metricas_funil?id=in.%s", inList(ids))); err != nil {
		return &domain.ErrExternalService{Service: "supabase/funnel", Err: err}
	}
	return nil
}
