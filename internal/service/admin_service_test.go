package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

func newAdminService(auth *mockAuthAdmin, profiles *mockProfileStore, companies *mockCompanyStore, funnelStore *mockFunnelStore) *service.AdminService {
	return service.NewAdminService(auth, profiles, companies, funnelStore, observability.NewMetrics(), zap.NewNop())
}

func adminCaller() *domain.Profile {
	return &domain.Profile{ID: "boss", Role: domain.RoleAdmin, CompanyID: "comp-1", Status: domain.StatusActive}
}

func TestListUsers_HidesDeactivated(t *testing.T) {
	profiles := &mockProfileStore{byCompany: []domain.Profile{
		{ID: "u1", Status: domain.StatusActive},
		{ID: "u2", Status: domain.StatusDeactivated},
		{ID: "u3", Status: domain.StatusInvited},
	}}
	svc := newAdminService(&mockAuthAdmin{}, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	users, err := svc.ListUsers(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 visible users, got %d", len(users))
	}
	for _, u := range users {
		if u.Status == domain.StatusDeactivated {
			t.Errorf("deactivated user %s leaked into the listing", u.ID)
		}
	}
}

func TestInviteUser_Success(t *testing.T) {
	auth := &mockAuthAdmin{invited: &domain.Session{UserID: "user-new", Email: "nova@acme.com"}}
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{}}
	svc := newAdminService(auth, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	profile, err := svc.InviteUser(context.Background(), adminCaller(), "comp-1", &domain.InviteRequest{
		Email: "  Nova@Acme.com ",
		Role:  domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if auth.invitedEmail != "nova@acme.com" {
		t.Errorf("expected normalized email, got %s", auth.invitedEmail)
	}
	if profile.ID != "user-new" {
		t.Errorf("expected profile id from the identity, got %s", profile.ID)
	}
	if profile.Status != domain.StatusInvited {
		t.Errorf("expected status convidado, got %s", profile.Status)
	}
	if profile.CompanyID != "comp-1" {
		t.Errorf("expected the caller's company, got %s", profile.CompanyID)
	}
}

func TestInviteUser_NonAdminForbidden(t *testing.T) {
	svc := newAdminService(&mockAuthAdmin{}, &mockProfileStore{}, &mockCompanyStore{}, &mockFunnelStore{})

	user := &domain.Profile{ID: "u1", Role: domain.RoleUser, CompanyID: "comp-1"}
	_, err := svc.InviteUser(context.Background(), user, "comp-1", &domain.InviteRequest{Email: "a@b.com", Role: "user"})
	var forbidden *domain.ErrForbidden
	if !asErr(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestInviteUser_InvalidInput(t *testing.T) {
	svc := newAdminService(&mockAuthAdmin{}, &mockProfileStore{}, &mockCompanyStore{}, &mockFunnelStore{})

	cases := []struct {
		name string
		req  domain.InviteRequest
	}{
		{"missing email", domain.InviteRequest{Role: "user"}},
		{"not an email", domain.InviteRequest{Email: "nope", Role: "user"}},
		{"unknown role", domain.InviteRequest{Email: "a@b.com", Role: "root"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.InviteUser(context.Background(), adminCaller(), "comp-1", &tc.req)
			var validation *domain.ErrValidation
			if !asErr(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestInviteUser_ProfileStepFailureIsNamed(t *testing.T) {
	auth := &mockAuthAdmin{invited: &domain.Session{UserID: "user-new"}}
	profiles := &mockProfileStore{createErr: errors.New("insert failed")}
	svc := newAdminService(auth, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	_, err := svc.InviteUser(context.Background(), adminCaller(), "comp-1", &domain.InviteRequest{Email: "a@b.com", Role: "user"})
	var step *domain.ErrStepFailed
	if !asErr(err, &step) {
		t.Fatalf("expected ErrStepFailed, got %v", err)
	}
	if step.Step != "profile" {
		t.Errorf("expected the profile step named, got %s", step.Step)
	}
}

func TestUpdateUserRole_Success(t *testing.T) {
	auth := &mockAuthAdmin{}
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Role: domain.RoleUser, CompanyID: "comp-1"},
	}}
	svc := newAdminService(auth, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	updated, err := svc.UpdateUserRole(context.Background(), adminCaller(), "comp-1", &domain.RoleUpdateRequest{
		UserIDToUpdate: "u1",
		NewRole:        domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Errorf("expected role admin, got %s", updated.Role)
	}
	if auth.metadata["role"] != domain.RoleAdmin {
		t.Error("expected the identity metadata updated too")
	}
}

func TestUpdateUserRole_SelfChangeRejected(t *testing.T) {
	svc := newAdminService(&mockAuthAdmin{}, &mockProfileStore{}, &mockCompanyStore{}, &mockFunnelStore{})

	boss := adminCaller()
	_, err := svc.UpdateUserRole(context.Background(), boss, "comp-1", &domain.RoleUpdateRequest{
		UserIDToUpdate: boss.ID,
		NewRole:        domain.RoleUser,
	})
	var validation *domain.ErrValidation
	if !asErr(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateUserRole_OtherCompanyForbidden(t *testing.T) {
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Role: domain.RoleUser, CompanyID: "comp-2"},
	}}
	svc := newAdminService(&mockAuthAdmin{}, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	_, err := svc.UpdateUserRole(context.Background(), adminCaller(), "comp-1", &domain.RoleUpdateRequest{
		UserIDToUpdate: "u1",
		NewRole:        domain.RoleAdmin,
	})
	var forbidden *domain.ErrForbidden
	if !asErr(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateUserRole_AuthStepFailureIsNamed(t *testing.T) {
	auth := &mockAuthAdmin{metadataErr: errors.New("gotrue down")}
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Role: domain.RoleUser, CompanyID: "comp-1"},
	}}
	svc := newAdminService(auth, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	_, err := svc.UpdateUserRole(context.Background(), adminCaller(), "comp-1", &domain.RoleUpdateRequest{
		UserIDToUpdate: "u1",
		NewRole:        domain.RoleAdmin,
	})
	var step *domain.ErrStepFailed
	if !asErr(err, &step) {
		t.Fatalf("expected ErrStepFailed, got %v", err)
	}
	if step.Step != "auth" {
		t.Errorf("expected the auth step named, got %s", step.Step)
	}
	if profiles.updates != nil {
		t.Error("expected the profile untouched when auth failed first")
	}
}

func TestDeactivateUser_Success(t *testing.T) {
	auth := &mockAuthAdmin{}
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Email: "u1@acme.com", CompanyID: "comp-1", Status: domain.StatusActive},
	}}
	svc := newAdminService(auth, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	if err := svc.DeactivateUser(context.Background(), adminCaller(), "comp-1", &domain.DeactivateRequest{UserIDToDeactivate: "u1"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if auth.scrambledID != "u1" {
		t.Error("expected credentials scrambled")
	}
	if auth.scrambledEmail != "deleted-u1@example.com" {
		t.Errorf("expected tombstone email, got %s", auth.scrambledEmail)
	}
	patch := profiles.updates["u1"]
	if patch["status"] != domain.StatusDeactivated {
		t.Errorf("expected status inativo, got %v", patch["status"])
	}
	if patch["email"] != "deleted-u1@example.com" {
		t.Errorf("expected profile email tombstoned so it can be re-invited, got %v", patch["email"])
	}
}

func TestDeactivateUser_SelfRejected(t *testing.T) {
	svc := newAdminService(&mockAuthAdmin{}, &mockProfileStore{}, &mockCompanyStore{}, &mockFunnelStore{})

	boss := adminCaller()
	err := svc.DeactivateUser(context.Background(), boss, "comp-1", &domain.DeactivateRequest{UserIDToDeactivate: boss.ID})
	var validation *domain.ErrValidation
	if !asErr(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSignUpWithCompany_Success(t *testing.T) {
	auth := &mockAuthAdmin{}
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{}}
	companies := &mockCompanyStore{}
	funnelStore := &mockFunnelStore{}
	svc := newAdminService(auth, profiles, companies, funnelStore)

	resp, err := svc.SignUpWithCompany(context.Background(), &domain.SignUpRequest{
		Email:       "dono@acme.com",
		Password:    "segredo123",
		FullName:    "Dono",
		CompanyName: "  Acme  ",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !resp.OK || resp.CompanyID != "comp-new" || resp.UserID != "user-new" {
		t.Errorf("unexpected response %+v", resp)
	}
	if companies.createdName != "Acme" {
		t.Errorf("expected trimmed company name, got %q", companies.createdName)
	}
	if len(profiles.created) != 1 {
		t.Fatalf("expected 1 profile created, got %d", len(profiles.created))
	}
	p := profiles.created[0]
	if p.Role != domain.RoleAdmin || p.Status != domain.StatusActive || p.CompanyID != "comp-new" {
		t.Errorf("expected an active admin profile on the new tenant, got %+v", p)
	}
	if len(funnelStore.inserted) != len(funnel.DefaultStages()) {
		t.Errorf("expected the default funnel seeded, got %d stages", len(funnelStore.inserted))
	}
	for _, st := range funnelStore.inserted {
		if st.CompanyID != "comp-new" {
			t.Errorf("expected stage bound to the tenant, got %+v", st)
		}
	}
}

func TestSignUpWithCompany_ShortPasswordRejected(t *testing.T) {
	svc := newAdminService(&mockAuthAdmin{}, &mockProfileStore{}, &mockCompanyStore{}, &mockFunnelStore{})

	_, err := svc.SignUpWithCompany(context.Background(), &domain.SignUpRequest{
		Email:       "a@b.com",
		Password:    "curta",
		CompanyName: "Acme",
	})
	var validation *domain.ErrValidation
	if !asErr(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if validation.Field != "password" {
		t.Errorf("expected password flagged, got %s", validation.Field)
	}
}

func TestSignUpWithCompany_ProfileFailureRollsBackIdentity(t *testing.T) {
	auth := &mockAuthAdmin{}
	profiles := &mockProfileStore{createErr: errors.New("insert failed")}
	svc := newAdminService(auth, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	_, err := svc.SignUpWithCompany(context.Background(), &domain.SignUpRequest{
		Email:       "dono@acme.com",
		Password:    "segredo123",
		CompanyName: "Acme",
	})
	var step *domain.ErrStepFailed
	if !asErr(err, &step) {
		t.Fatalf("expected ErrStepFailed, got %v", err)
	}
	if step.Step != "profile" {
		t.Errorf("expected the profile step named, got %s", step.Step)
	}
	if auth.deletedID != "user-new" {
		t.Error("expected the orphaned identity rolled back")
	}
}

func TestSignUpWithCompany_UserStepFailureIsNamed(t *testing.T) {
	auth := &mockAuthAdmin{createErr: errors.New("email taken")}
	svc := newAdminService(auth, &mockProfileStore{}, &mockCompanyStore{}, &mockFunnelStore{})

	_, err := svc.SignUpWithCompany(context.Background(), &domain.SignUpRequest{
		Email:       "dono@acme.com",
		Password:    "segredo123",
		CompanyName: "Acme",
	})
	var step *domain.ErrStepFailed
	if !asErr(err, &step) {
		t.Fatalf("expected ErrStepFailed, got %v", err)
	}
	if step.Step != "user" {
		t.Errorf("expected the user step named, got %s", step.Step)
	}
	if !strings.Contains(err.Error(), "email taken") {
		t.Errorf("expected the cause preserved, got %v", err)
	}
}

func TestCompleteProfile_FlipsInvitedToActive(t *testing.T) {
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Status: domain.StatusInvited},
	}}
	svc := newAdminService(&mockAuthAdmin{}, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	invited := &domain.Profile{ID: "u1", Status: domain.StatusInvited}
	updated, err := svc.CompleteProfile(context.Background(), invited, &domain.ProfileUpdateRequest{FullName: "  Ana Silva  "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.FullName != "Ana Silva" {
		t.Errorf("expected trimmed name, got %q", updated.FullName)
	}
	if updated.Status != domain.StatusActive {
		t.Errorf("expected status flipped to ativo, got %s", updated.Status)
	}
}

func TestCompleteProfile_ActiveKeepsStatus(t *testing.T) {
	profiles := &mockProfileStore{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Status: domain.StatusActive},
	}}
	svc := newAdminService(&mockAuthAdmin{}, profiles, &mockCompanyStore{}, &mockFunnelStore{})

	active := &domain.Profile{ID: "u1", Status: domain.StatusActive}
	if _, err := svc.CompleteProfile(context.Background(), active, &domain.ProfileUpdateRequest{FullName: "Ana"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, touched := profiles.updates["u1"]["status"]; touched {
		t.Error("expected status untouched for an already active profile")
	}
}
