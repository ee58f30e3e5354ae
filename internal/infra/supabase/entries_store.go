package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// ============================================================
// Daily prospecting entries — CRUD via PostgREST
// ============================================================

// ListEntries returns a company's entries, optionally filtered by author
// and inclusive date range. Empty filters are omitted from the query.
func (c *Client) ListEntries(ctx context.Context, companyID string, userID, start, end string) ([]domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEntries")
	defer span.End()

	path := fmt.Sprintf("prospeccao_diaria?company_id=eq.%s", companyID)
	if userID != "" {
		path += fmt.Sprintf("&user_id=eq.%s", userID)
	}
	if start != "" {
		path += fmt.Sprintf("&data=gte.%s", start)
	}
	if end != "" {
		path += fmt.Sprintf("&data=lte.%s", end)
	}
	path += "&order=data.desc"

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/entries", Err: err}
	}

	rows := []domain.DailyEntry{}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) GetEntry(ctx context.Context, entryID string) (*domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEntry")
	defer span.End()

	path := fmt.Sprintf("prospeccao_diaria?id=eq.%s&limit=1", entryID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/entries", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "entry", ID: entryID}
	}

	var rows []domain.DailyEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "entry", ID: entryID}
	}
	return &rows[0], nil
}

// GetEntryByDate finds a user's entry for one calendar day, if any. One
// entry per (user, date) is the workflow invariant.
func (c *Client) GetEntryByDate(ctx context.Context, companyID, userID, date string) (*domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEntryByDate")
	defer span.End()

	path := fmt.Sprintf("prospeccao_diaria?company_id=eq.%s&user_id=eq.%s&data=eq.%s&limit=1", companyID, userID, date)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/entries", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []domain.DailyEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertEntry inserts or replaces the (user, date) row.
func (c *Client) UpsertEntry(ctx context.Context, entry *domain.DailyEntry) (*domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertEntry")
	defer span.End()

	payload := map[string]any{
		"company_id":  entry.CompanyID,
		"user_id":     entry.UserID,
		"bdr_nome":    entry.BdrNome,
		"data":        entry.Data,
		"metrics":     entry.Metrics,
		"observacoes": entry.Observacoes,
	}
	if entry.ID != "" {
		payload["id"] = entry.ID
	}

	body, err := c.doUpsert(ctx, "prospeccao_diaria", "user_id,data", payload)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/entries", Err: err}
	}

	var rows []domain.DailyEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode upserted entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("entry upsert returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) DeleteEntry(ctx context.Context, entryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteEntry")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("prospeccao_diaria?id=eq.%s", entryID)); err != nil {
		return &domain.ErrExternalService{Service: "supabase/entries", Err: err}
	}
	return nil
}
