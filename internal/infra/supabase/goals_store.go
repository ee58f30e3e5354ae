package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// ============================================================
// Monthly goals — CRUD via PostgREST
// ============================================================

func (c *Client) ListGoals(ctx context.Context, companyID string, year, month int) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGoals")
	defer span.End()

	path := fmt.Sprintf("metas?company_id=eq.%s&ano=eq.%d&mes=eq.%d", companyID, year, month)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}

	rows := []domain.Goal{}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode goals: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) GetGoal(ctx context.Context, userID string, year, month int) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetGoal")
	defer span.End()

	path := fmt.Sprintf("metas?user_id=eq.%s&ano=eq.%d&mes=eq.%d&limit=1", userID, year, month)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: userID}
	}

	var rows []domain.Goal
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode goal: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: userID}
	}
	return &rows[0], nil
}

// UpsertGoal inserts or replaces the (user, year, month) row.
func (c *Client) UpsertGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertGoal")
	defer span.End()

	payload := map[string]any{
		"user_id":      goal.UserID,
		"company_id":   goal.CompanyID,
		"ano":          goal.Ano,
		"mes":          goal.Mes,
		"metric_goals": goal.MetricGoals,
	}

	body, err := c.doUpsert(ctx, "metas", "user_id,ano,mes", payload)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/goals", Err: err}
	}

	var rows []domain.Goal
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode upserted goal: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("goal upsert returned no rows")
	}
	return &rows[0], nil
}
