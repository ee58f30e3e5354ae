package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// User management — /v1/users, /v1/admin/*, /v1/profile
// ============================================================

func listUsersHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		users, err := svc.ListUsers(ctx, snap.CompanyID())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func inviteUserHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/invite-user")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req domain.InviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		profile, err := svc.InviteUser(ctx, snap.Profile, snap.CompanyID(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, profile)
	}
}

func updateUserRoleHandler(svc *service.AdminService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/update-user-role")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req domain.RoleUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.UpdateUserRole(ctx, snap.Profile, snap.CompanyID(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		// The target's cached snapshot still carries the old role.
		bootstrap.Invalidate(updated.ID)
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Papel atualizado"})
	}
}

func deactivateUserHandler(svc *service.AdminService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/deactivate-user")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req domain.DeactivateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.DeactivateUser(ctx, snap.Profile, snap.CompanyID(), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		bootstrap.Invalidate(req.UserIDToDeactivate)
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Usuário desativado"})
	}
}

func updateProfileHandler(svc *service.AdminService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profile")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req domain.ProfileUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		profile, err := svc.CompleteProfile(ctx, snap.Profile, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		bootstrap.Invalidate(profile.ID)
		writeJSON(w, http.StatusOK, profile)
	}
}

// signUpHandler is the one public mutation: tenant onboarding.
func signUpHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/sign-up-with-company")
		defer span.End()

		var req domain.SignUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.SignUpWithCompany(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}
