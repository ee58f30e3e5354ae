package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AdminService implements the privileged user-management operations:
// inviting users, changing roles, deactivating accounts and the public
// company sign-up. Each one mutates both the identity provider and the
// profiles table, and reports which step failed when the pair desyncs.
type AdminService struct {
	auth      port.AuthAdmin
	profiles  port.ProfileStore
	companies port.CompanyStore
	funnel    port.FunnelStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewAdminService creates the admin service with all dependencies injected.
func NewAdminService(
	auth port.AuthAdmin,
	profiles port.ProfileStore,
	companies port.CompanyStore,
	funnelStore port.FunnelStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		auth:      auth,
		profiles:  profiles,
		companies: companies,
		funnel:    funnelStore,
		metrics:   metrics,
		logger:    logger,
	}
}

// ListUsers returns the active and invited members of a company.
// Deactivated profiles are filtered out: they exist only for history.
func (s *AdminService) ListUsers(ctx context.Context, companyID string) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Admin.ListUsers")
	defer span.End()

	all, err := s.profiles.ListProfilesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Profile, 0, len(all))
	for _, p := range all {
		if p.Status == domain.StatusDeactivated {
			continue
		}
		visible = append(visible, p)
	}
	return visible, nil
}

// InviteUser sends a GoTrue invite and creates the matching pending
// profile in the caller's company. Admin only.
func (s *AdminService) InviteUser(ctx context.Context, caller *domain.Profile, companyID string, req *domain.InviteRequest) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Admin.InviteUser")
	defer span.End()
	span.SetAttributes(attribute.String("invite.role", req.Role))

	if caller.Role != domain.RoleAdmin {
		s.metrics.IncrAdminOp("invite_user", "forbidden")
		return nil, &domain.ErrForbidden{Action: "invite user"}
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "inválido"}
	}
	if req.Role != domain.RoleAdmin && req.Role != domain.RoleUser {
		return nil, &domain.ErrValidation{Field: "role", Message: "deve ser admin ou user"}
	}

	identity, err := s.auth.InviteUserByEmail(ctx, email, map[string]any{
		"company_id": companyID,
		"role":       req.Role,
	})
	if err != nil {
		s.metrics.IncrAdminOp("invite_user", "error")
		return nil, &domain.ErrStepFailed{Step: "invite", Err: err}
	}

	profile, err := s.profiles.CreateProfile(ctx, &domain.Profile{
		ID:        identity.UserID,
		Email:     email,
		Role:      req.Role,
		CompanyID: companyID,
		Status:    domain.StatusInvited,
	})
	if err != nil {
		// The identity exists but the profile does not; the caller needs
		// to know which half to repair.
		s.metrics.IncrAdminOp("invite_user", "partial")
		return nil, &domain.ErrStepFailed{Step: "profile", Err: err}
	}

	s.metrics.IncrAdminOp("invite_user", "success")
	s.logger.Info("user invited",
		zap.String("user_id", identity.UserID),
		zap.String("company_id", companyID),
		zap.String("role", req.Role),
		zap.String("invited_by", caller.ID),
	)
	return profile, nil
}

// UpdateUserRole changes a member's role on both the identity metadata and
// the profile row. Admin only; admins cannot demote themselves, so a
// company can never lose its last admin by accident.
func (s *AdminService) UpdateUserRole(ctx context.Context, caller *domain.Profile, companyID string, req *domain.RoleUpdateRequest) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Admin.UpdateUserRole")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		s.metrics.IncrAdminOp("update_role", "forbidden")
		return nil, &domain.ErrForbidden{Action: "update user role"}
	}
	if req.NewRole != domain.RoleAdmin && req.NewRole != domain.RoleUser {
		return nil, &domain.ErrValidation{Field: "newRole", Message: "deve ser admin ou user"}
	}
	if req.UserIDToUpdate == caller.ID {
		return nil, &domain.ErrValidation{Field: "userIdToUpdate", Message: "não é possível alterar o próprio papel"}
	}

	target, err := s.profiles.GetProfile(ctx, req.UserIDToUpdate)
	if err != nil {
		return nil, err
	}
	if target.CompanyID != companyID {
		s.metrics.IncrAdminOp("update_role", "forbidden")
		return nil, &domain.ErrForbidden{Action: "update user in another company"}
	}

	if err := s.auth.UpdateUserMetadata(ctx, target.ID, map[string]any{"role": req.NewRole}); err != nil {
		s.metrics.IncrAdminOp("update_role", "error")
		return nil, &domain.ErrStepFailed{Step: "auth", Err: err}
	}

	updated, err := s.profiles.UpdateProfile(ctx, target.ID, map[string]any{"role": req.NewRole})
	if err != nil {
		s.metrics.IncrAdminOp("update_role", "partial")
		return nil, &domain.ErrStepFailed{Step: "profile", Err: err}
	}

	s.metrics.IncrAdminOp("update_role", "success")
	s.logger.Info("user role updated",
		zap.String("user_id", target.ID),
		zap.String("new_role", req.NewRole),
		zap.String("updated_by", caller.ID),
	)
	return updated, nil
}

// DeactivateUser locks a member out without destroying history: the
// profile is soft-deleted and the identity's credentials are scrambled so
// the email can be reused for a fresh invite. Admin only; never yourself.
func (s *AdminService) DeactivateUser(ctx context.Context, caller *domain.Profile, companyID string, req *domain.DeactivateRequest) error {
	ctx, span := tracer.Start(ctx, "Admin.DeactivateUser")
	defer span.End()

	if caller.Role != domain.RoleAdmin {
		s.metrics.IncrAdminOp("deactivate_user", "forbidden")
		return &domain.ErrForbidden{Action: "deactivate user"}
	}
	if req.UserIDToDeactivate == caller.ID {
		return &domain.ErrValidation{Field: "userIdToDeactivate", Message: "não é possível desativar a própria conta"}
	}

	target, err := s.profiles.GetProfile(ctx, req.UserIDToDeactivate)
	if err != nil {
		return err
	}
	if target.CompanyID != companyID {
		s.metrics.IncrAdminOp("deactivate_user", "forbidden")
		return &domain.ErrForbidden{Action: "deactivate user in another company"}
	}

	tombstoneEmail := fmt.Sprintf("deleted-%s@example.com", target.ID)
	if err := s.auth.ScrambleCredentials(ctx, target.ID, tombstoneEmail, uuid.NewString()); err != nil {
		s.metrics.IncrAdminOp("deactivate_user", "error")
		return &domain.ErrStepFailed{Step: "auth", Err: err}
	}

	if _, err := s.profiles.UpdateProfile(ctx, target.ID, map[string]any{
		"status": domain.StatusDeactivated,
		"email":  tombstoneEmail,
	}); err != nil {
		s.metrics.IncrAdminOp("deactivate_user", "partial")
		return &domain.ErrStepFailed{Step: "profile", Err: err}
	}

	s.metrics.IncrAdminOp("deactivate_user", "success")
	s.logger.Info("user deactivated",
		zap.String("user_id", target.ID),
		zap.String("deactivated_by", caller.ID),
	)
	return nil
}

// SignUpWithCompany is the public onboarding flow: it creates the tenant,
// its first admin identity, the admin's profile and the default funnel, in
// that order. Later steps failing roll the identity back where possible
// and always name the step that broke.
func (s *AdminService) SignUpWithCompany(ctx context.Context, req *domain.SignUpRequest) (*domain.SignUpResponse, error) {
	ctx, span := tracer.Start(ctx, "Admin.SignUpWithCompany")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("sign_up", time.Since(start))
	}()

	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, &domain.ErrValidation{Field: "companyName", Message: "obrigatório"}
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "inválido"}
	}
	if len(req.Password) < 8 {
		return nil, &domain.ErrValidation{Field: "password", Message: "mínimo de 8 caracteres"}
	}

	company, err := s.companies.CreateCompany(ctx, strings.TrimSpace(req.CompanyName))
	if err != nil {
		s.metrics.IncrAdminOp("sign_up", "error")
		return nil, &domain.ErrStepFailed{Step: "company", Err: err}
	}

	identity, err := s.auth.CreateUser(ctx, email, req.Password, map[string]any{
		"company_id": company.ID,
		"role":       domain.RoleAdmin,
		"full_name":  req.FullName,
	})
	if err != nil {
		s.metrics.IncrAdminOp("sign_up", "error")
		return nil, &domain.ErrStepFailed{Step: "user", Err: err}
	}

	if _, err := s.profiles.CreateProfile(ctx, &domain.Profile{
		ID:        identity.UserID,
		FullName:  req.FullName,
		Email:     email,
		Role:      domain.RoleAdmin,
		CompanyID: company.ID,
		Status:    domain.StatusActive,
	}); err != nil {
		// Roll the identity back so the email is not burned; the empty
		// company row is harmless and cheap to clean up offline.
		if delErr := s.auth.DeleteUser(ctx, identity.UserID); delErr != nil {
			s.logger.Error("sign-up rollback failed, identity orphaned",
				zap.String("user_id", identity.UserID),
				zap.Error(delErr),
			)
		}
		s.metrics.IncrAdminOp("sign_up", "partial")
		return nil, &domain.ErrStepFailed{Step: "profile", Err: err}
	}

	stages := funnel.DefaultStages()
	for i := range stages {
		stages[i].CompanyID = company.ID
	}
	if _, err := s.funnel.InsertStages(ctx, stages); err != nil {
		// Account and tenant exist and are usable; the admin can rebuild
		// the funnel in settings, so this is reported but not rolled back.
		s.metrics.IncrAdminOp("sign_up", "partial")
		return nil, &domain.ErrStepFailed{Step: "funnel", Err: err}
	}

	s.metrics.IncrAdminOp("sign_up", "success")
	s.logger.Info("company signed up",
		zap.String("company_id", company.ID),
		zap.String("user_id", identity.UserID),
	)
	return &domain.SignUpResponse{OK: true, CompanyID: company.ID, UserID: identity.UserID}, nil
}

// CompleteProfile fills in the caller's own display name, flipping an
// invited profile to active on first login.
func (s *AdminService) CompleteProfile(ctx context.Context, caller *domain.Profile, req *domain.ProfileUpdateRequest) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Admin.CompleteProfile")
	defer span.End()

	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "full_name", Message: "obrigatório"}
	}

	updates := map[string]any{"full_name": name}
	if caller.Status == domain.StatusInvited {
		updates["status"] = domain.StatusActive
	}
	return s.profiles.UpdateProfile(ctx, caller.ID, updates)
}
