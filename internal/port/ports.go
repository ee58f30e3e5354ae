// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// SessionVerifier turns a bearer token into an authenticated session.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Session, error)
}

// ProfileStore handles profile row operations.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	ListProfilesByCompany(ctx context.Context, companyID string) ([]domain.Profile, error)
	CreateProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, updates map[string]any) (*domain.Profile, error)
}

// CompanyStore handles company row operations plus the two tenant RPCs.
type CompanyStore interface {
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
	CreateCompany(ctx context.Context, name string) (*domain.Company, error)
	UpdateCompany(ctx context.Context, companyID string, updates map[string]any) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)

	// GetActiveCompanyID resolves the caller's effective tenant server-side.
	GetActiveCompanyID(ctx context.Context, userToken string) (string, error)
	// SetActiveCompany switches a super admin's effective tenant.
	SetActiveCompany(ctx context.Context, userToken, companyID string) error
}

// FunnelStore handles funnel schema row operations.
type FunnelStore interface {
	ListStages(ctx context.Context, companyID string) ([]domain.Stage, error)
	InsertStages(ctx context.Context, stages []domain.Stage) ([]domain.Stage, error)
	UpdateStage(ctx context.Context, stage *domain.Stage) error
	DeleteStages(ctx context.Context, ids []string) error
}

// EntryStore handles daily prospecting entry operations.
type EntryStore interface {
	ListEntries(ctx context.Context, companyID string, userID, start, end string) ([]domain.DailyEntry, error)
	GetEntry(ctx context.Context, entryID string) (*domain.DailyEntry, error)
	GetEntryByDate(ctx context.Context, companyID, userID, date string) (*domain.DailyEntry, error)
	UpsertEntry(ctx context.Context, entry *domain.DailyEntry) (*domain.DailyEntry, error)
	DeleteEntry(ctx context.Context, entryID string) error
}

// ProposalStore handles proposal row operations.
type ProposalStore interface {
	ListProposals(ctx context.Context, companyID string, userID, start, end string) ([]domain.Proposal, error)
	ListProposalsByEntry(ctx context.Context, entryID string) ([]domain.Proposal, error)
	InsertProposals(ctx context.Context, proposals []domain.Proposal) error
	UpdateProposal(ctx context.Context, companyID, proposalID string, updates map[string]any) (*domain.Proposal, error)
	DeleteProposals(ctx context.Context, ids []string) error
	DeleteProposalsByEntry(ctx context.Context, entryID string) error
}

// GoalStore handles monthly goal row operations.
type GoalStore interface {
	ListGoals(ctx context.Context, companyID string, year, month int) ([]domain.Goal, error)
	GetGoal(ctx context.Context, userID string, year, month int) (*domain.Goal, error)
	UpsertGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)
}

// AuthAdmin wraps the identity provider's privileged admin API: invites,
// metadata updates, account creation and credential scrambling.
type AuthAdmin interface {
	InviteUserByEmail(ctx context.Context, email string, metadata map[string]any) (*domain.Session, error)
	CreateUser(ctx context.Context, email, password string, metadata map[string]any) (*domain.Session, error)
	UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) error
	ScrambleCredentials(ctx context.Context, userID, newEmail, newPassword string) error
	DeleteUser(ctx context.Context, userID string) error
}

// DraftStore keeps per-user autosaved entry forms. Drafts are volatile:
// losing one costs a user a re-type, never data.
type DraftStore interface {
	Get(userID, date string) (*domain.Draft, bool)
	Put(userID string, draft *domain.Draft)
	Delete(userID, date string)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
