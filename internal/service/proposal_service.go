package service

import (
	"context"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.uber.org/zap"
)

// ProposalUpdateRequest patches one proposal. Nil pointers are left alone.
type ProposalUpdateRequest struct {
	NomeCliente *string  `json:"nome_cliente,omitempty"`
	Valor       *float64 `json:"valor,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

// ProposalService manages proposal rows outside the entry form: status
// transitions on the proposals board plus admin deletion.
type ProposalService struct {
	proposals port.ProposalStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewProposalService creates the proposal service. now is injectable for
// tests.
func NewProposalService(proposals port.ProposalStore, logger *zap.Logger, now func() time.Time) *ProposalService {
	if now == nil {
		now = time.Now
	}
	return &ProposalService{proposals: proposals, logger: logger, now: now}
}

// ListProposals returns a company's proposals, optionally narrowed to one
// author and an inclusive date range on the proposal date.
func (s *ProposalService) ListProposals(ctx context.Context, companyID, userID, start, end string) ([]domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "Proposal.ListProposals")
	defer span.End()

	return s.proposals.ListProposals(ctx, companyID, userID, start, end)
}

// UpdateProposal patches name, value or status. Closing a proposal (Ganha
// or Perdida) stamps the closing date; reopening clears it.
func (s *ProposalService) UpdateProposal(ctx context.Context, companyID, proposalID string, req *ProposalUpdateRequest) (*domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "Proposal.UpdateProposal")
	defer span.End()

	updates := map[string]any{}
	if req.NomeCliente != nil {
		if *req.NomeCliente == "" {
			return nil, &domain.ErrValidation{Field: "nome_cliente", Message: "obrigatório"}
		}
		updates["nome_cliente"] = *req.NomeCliente
	}
	if req.Valor != nil {
		if *req.Valor <= 0 {
			return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
		}
		updates["valor"] = *req.Valor
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.ProposalWon, domain.ProposalLost:
			updates["status"] = *req.Status
			updates["data_fechamento"] = s.now().Format("2006-01-02")
		case domain.ProposalOpen:
			updates["status"] = *req.Status
			updates["data_fechamento"] = nil
		default:
			return nil, &domain.ErrValidation{Field: "status", Message: "inválido"}
		}
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "nada para atualizar"}
	}

	updated, err := s.proposals.UpdateProposal(ctx, companyID, proposalID, updates)
	if err != nil {
		return nil, err
	}

	s.logger.Info("proposal updated",
		zap.String("proposal_id", proposalID),
		zap.String("status", updated.Status),
	)
	return updated, nil
}

// DeleteProposal removes a proposal outright. Admin only; the numbers view
// treats this as "never happened", unlike marking it lost.
func (s *ProposalService) DeleteProposal(ctx context.Context, caller *domain.Profile, companyID, proposalID string) error {
	ctx, span := tracer.Start(ctx, "Proposal.DeleteProposal")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		return &domain.ErrForbidden{Action: "delete proposal"}
	}
	if err := s.proposals.DeleteProposals(ctx, []string{proposalID}); err != nil {
		return err
	}
	s.logger.Info("proposal deleted",
		zap.String("proposal_id", proposalID),
		zap.String("deleted_by", caller.ID),
	)
	return nil
}
