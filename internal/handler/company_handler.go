package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Company settings — /v1/company
// ============================================================

func getCompanyHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/company")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		company, err := svc.GetCompany(ctx, snap.CompanyID())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func updateCompanyHandler(svc *service.CompanyService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/company")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req domain.CompanyUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		company, err := svc.UpdateCompany(ctx, snap.Profile, snap.CompanyID(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		bootstrap.Invalidate(snap.Profile.ID)
		writeJSON(w, http.StatusOK, company)
	}
}

// listCompaniesHandler serves the super-admin company switcher.
func listCompaniesHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		companies, err := svc.ListCompanies(ctx, snap.SuperAdmin)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, companies)
	}
}

type switchCompanyRequest struct {
	CompanyID string `json:"company_id"`
}

func switchCompanyHandler(svc *service.CompanyService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/company/active")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req switchCompanyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CompanyID == "" {
			writeError(w, http.StatusBadRequest, "company_id is required")
			return
		}

		if err := svc.SwitchCompany(ctx, snap.SuperAdmin, TokenFromContext(ctx), req.CompanyID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		// The next bootstrap must resolve against the new tenant.
		bootstrap.Invalidate(snap.Profile.ID)
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Empresa ativa alterada"})
	}
}
