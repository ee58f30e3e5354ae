package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// ============================================================
// Proposals — CRUD via PostgREST
// ============================================================

func (c *Client) ListProposals(ctx context.Context, companyID string, userID, start, end string) ([]domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProposals")
	defer span.End()

	path := fmt.Sprintf("propostas?company_id=eq.%s", companyID)
	if userID != "" {
		path += fmt.Sprintf("&user_id=eq.%s", userID)
	}
	if start != "" {
		path += fmt.Sprintf("&data_proposta=gte.%s", start)
	}
	if end != "" {
		path += fmt.Sprintf("&data_proposta=lte.%s", end)
	}
	path += "&order=data_proposta.desc"

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/proposals", Err: err}
	}

	rows := []domain.Proposal{}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode proposals: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) ListProposalsByEntry(ctx context.Context, entryID string) ([]domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProposalsByEntry")
	defer span.End()

	path := fmt.Sprintf("propostas?prospeccao_diaria_id=eq.%s&order=created_at.asc", entryID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/proposals", Err: err}
	}

	rows := []domain.Proposal{}
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode proposals: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) InsertProposals(ctx context.Context, proposals []domain.Proposal) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertProposals")
	defer span.End()

	if len(proposals) == 0 {
		return nil
	}

	payload := make([]map[string]any, 0, len(proposals))
	for _, p := range proposals {
		payload = append(payload, map[string]any{
			"company_id":           p.CompanyID,
			"user_id":              p.UserID,
			"bdr_nome":             p.BdrNome,
			"nome_cliente":         p.NomeCliente,
			"valor":                p.Valor,
			"data_proposta":        p.DataProposta,
			"status":               p.Status,
			"prospeccao_diaria_id": p.DailyEntryID,
		})
	}

	if _, err := c.doPost(ctx, "propostas", payload, ""); err != nil {
		return &domain.ErrExternalService{Service: "supabase/proposals", Err: err}
	}
	return nil
}

// UpdateProposal patches one proposal, scoped to its company so a row id
// from another tenant matches nothing.
func (c *Client) UpdateProposal(ctx context.Context, companyID, proposalID string, updates map[string]any) (*domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProposal")
	defer span.End()

	body, err := c.doPatch(ctx, fmt.Sprintf("propostas?id=eq.%s&company_id=eq.%s", proposalID, companyID), updates)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/proposals", Err: err}
	}

	var rows []domain.Proposal
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode updated proposal: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "proposal", ID: proposalID}
	}
	return &rows[0], nil
}

func (c *Client) DeleteProposals(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProposals")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}
	if err := c.doDelete(ctx, fmt.Sprintf("propostas?id=in.%s", inList(ids))); err != nil {
		return &domain.ErrExternalService{Service: "supabase/proposals", Err: err}
	}
	return nil
}

// DeleteProposalsByEntry removes every proposal tied to an entry. Runs
// before the entry itself is deleted so no orphan rows survive.
func (c *Client) DeleteProposalsByEntry(ctx context.Context, entryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProposalsByEntry")
	defer span.End()

	if err := c.doDelete(ctx, fmt.Sprintf("propostas?prospeccao_diaria_id=eq.%s", entryID)); err != nil {
		return &domain.ErrExternalService{Service: "supabase/proposals", Err: err}
	}
	return nil
}
