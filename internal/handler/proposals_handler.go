package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Proposals — /v1/proposals
// ============================================================

func listProposalsHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/proposals")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		q := r.URL.Query()

		proposals, err := svc.ListProposals(ctx, snap.CompanyID(), q.Get("bdr"), q.Get("start"), q.Get("end"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proposals)
	}
}

func updateProposalHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/proposals/{proposalId}")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		proposalID := chi.URLParam(r, "proposalId")
		if proposalID == "" {
			writeError(w, http.StatusBadRequest, "proposal id is required")
			return
		}

		var req service.ProposalUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.UpdateProposal(ctx, snap.CompanyID(), proposalID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteProposalHandler(svc *service.ProposalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/proposals/{proposalId}")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		proposalID := chi.URLParam(r, "proposalId")
		if proposalID == "" {
			writeError(w, http.StatusBadRequest, "proposal id is required")
			return
		}

		if err := svc.DeleteProposal(ctx, snap.Profile, snap.CompanyID(), proposalID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Proposta removida"})
	}
}
