package service_test

import (
	"context"
	"errors"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

func asErr(err error, target any) bool {
	return errors.As(err, target)
}

// --- Mocks ---

type mockProfileStore struct {
	profiles  map[string]*domain.Profile
	byCompany []domain.Profile
	getErr    error
	listErr   error
	createErr error
	updateErr error

	// getHook runs at the start of every GetProfile, letting tests act
	// while a resolution is in flight.
	getHook func()

	created []domain.Profile
	updates map[string]map[string]any
}

func (m *mockProfileStore) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	if m.getHook != nil {
		m.getHook()
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	return p, nil
}

func (m *mockProfileStore) ListProfilesByCompany(_ context.Context, _ string) ([]domain.Profile, error) {
	return m.byCompany, m.listErr
}

func (m *mockProfileStore) CreateProfile(_ context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, *profile)
	return profile, nil
}

func (m *mockProfileStore) UpdateProfile(_ context.Context, userID string, updates map[string]any) (*domain.Profile, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.updates == nil {
		m.updates = make(map[string]map[string]any)
	}
	m.updates[userID] = updates
	p := m.profiles[userID]
	if p == nil {
		p = &domain.Profile{ID: userID}
	}
	out := *p
	if role, ok := updates["role"].(string); ok {
		out.Role = role
	}
	if status, ok := updates["status"].(string); ok {
		out.Status = status
	}
	if name, ok := updates["full_name"].(string); ok {
		out.FullName = name
	}
	return &out, nil
}

type mockCompanyStore struct {
	company   *domain.Company
	companies []domain.Company
	activeID  string

	getErr    error
	createErr error
	activeErr error
	setErr    error

	createdName string
	updates     map[string]any
	setActiveTo string
}

func (m *mockCompanyStore) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.company == nil {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	return m.company, nil
}

func (m *mockCompanyStore) CreateCompany(_ context.Context, name string) (*domain.Company, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdName = name
	return &domain.Company{ID: "comp-new", Name: name}, nil
}

func (m *mockCompanyStore) UpdateCompany(_ context.Context, _ string, updates map[string]any) (*domain.Company, error) {
	m.updates = updates
	out := *m.company
	if name, ok := updates["name"].(string); ok {
		out.Name = name
	}
	if key, ok := updates["ranking_metric_key"].(string); ok {
		out.RankingMetricKey = key
	}
	return &out, nil
}

func (m *mockCompanyStore) ListCompanies(_ context.Context) ([]domain.Company, error) {
	return m.companies, nil
}

func (m *mockCompanyStore) GetActiveCompanyID(_ context.Context, _ string) (string, error) {
	return m.activeID, m.activeErr
}

func (m *mockCompanyStore) SetActiveCompany(_ context.Context, _ string, companyID string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setActiveTo = companyID
	return nil
}

type mockFunnelStore struct {
	stages  []domain.Stage
	listErr error

	inserted []domain.Stage
	updated  []domain.Stage
	deleted  []string
}

func (m *mockFunnelStore) ListStages(_ context.Context, _ string) ([]domain.Stage, error) {
	return m.stages, m.listErr
}

func (m *mockFunnelStore) InsertStages(_ context.Context, stages []domain.Stage) ([]domain.Stage, error) {
	m.inserted = append(m.inserted, stages...)
	return stages, nil
}

func (m *mockFunnelStore) UpdateStage(_ context.Context, stage *domain.Stage) error {
	m.updated = append(m.updated, *stage)
	return nil
}

func (m *mockFunnelStore) DeleteStages(_ context.Context, ids []string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type mockEntryStore struct {
	entries []domain.DailyEntry
	byID    *domain.DailyEntry
	byDate  *domain.DailyEntry
	listErr error

	upserted  *domain.DailyEntry
	deletedID string
}

func (m *mockEntryStore) ListEntries(_ context.Context, _ string, _, _, _ string) ([]domain.DailyEntry, error) {
	return m.entries, m.listErr
}

func (m *mockEntryStore) GetEntry(_ context.Context, entryID string) (*domain.DailyEntry, error) {
	if m.byID == nil {
		return nil, &domain.ErrNotFound{Resource: "entry", ID: entryID}
	}
	return m.byID, nil
}

func (m *mockEntryStore) GetEntryByDate(_ context.Context, _, _, _ string) (*domain.DailyEntry, error) {
	return m.byDate, nil
}

func (m *mockEntryStore) UpsertEntry(_ context.Context, entry *domain.DailyEntry) (*domain.DailyEntry, error) {
	saved := *entry
	if saved.ID == "" {
		saved.ID = "entry-new"
	}
	m.upserted = &saved
	return &saved, nil
}

func (m *mockEntryStore) DeleteEntry(_ context.Context, entryID string) error {
	m.deletedID = entryID
	return nil
}

type mockProposalStore struct {
	proposals []domain.Proposal
	byEntry   []domain.Proposal

	updateResult *domain.Proposal
	updateErr    error

	inserted     []domain.Proposal
	updates      map[string]map[string]any
	deleted      []string
	deletedEntry string
}

func (m *mockProposalStore) ListProposals(_ context.Context, _ string, _, _, _ string) ([]domain.Proposal, error) {
	return m.proposals, nil
}

func (m *mockProposalStore) ListProposalsByEntry(_ context.Context, _ string) ([]domain.Proposal, error) {
	return m.byEntry, nil
}

func (m *mockProposalStore) InsertProposals(_ context.Context, proposals []domain.Proposal) error {
	m.inserted = append(m.inserted, proposals...)
	return nil
}

func (m *mockProposalStore) UpdateProposal(_ context.Context, _, proposalID string, updates map[string]any) (*domain.Proposal, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.updates == nil {
		m.updates = make(map[string]map[string]any)
	}
	m.updates[proposalID] = updates
	if m.updateResult != nil {
		return m.updateResult, nil
	}
	out := domain.Proposal{ID: proposalID}
	if status, ok := updates["status"].(string); ok {
		out.Status = status
	}
	return &out, nil
}

func (m *mockProposalStore) DeleteProposals(_ context.Context, ids []string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *mockProposalStore) DeleteProposalsByEntry(_ context.Context, entryID string) error {
	m.deletedEntry = entryID
	return nil
}

type mockGoalStore struct {
	goals     []domain.Goal
	upsertErr error

	upserted *domain.Goal
}

func (m *mockGoalStore) ListGoals(_ context.Context, _ string, _, _ int) ([]domain.Goal, error) {
	return m.goals, nil
}

func (m *mockGoalStore) GetGoal(_ context.Context, userID string, _, _ int) (*domain.Goal, error) {
	for i := range m.goals {
		if m.goals[i].UserID == userID {
			return &m.goals[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "goal", ID: userID}
}

func (m *mockGoalStore) UpsertGoal(_ context.Context, goal *domain.Goal) (*domain.Goal, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upserted = goal
	return goal, nil
}

type mockAuthAdmin struct {
	invited *domain.Session
	created *domain.Session

	inviteErr   error
	createErr   error
	metadataErr error
	scrambleErr error

	invitedEmail   string
	metadata       map[string]any
	scrambledID    string
	scrambledEmail string
	deletedID      string
}

func (m *mockAuthAdmin) InviteUserByEmail(_ context.Context, email string, _ map[string]any) (*domain.Session, error) {
	if m.inviteErr != nil {
		return nil, m.inviteErr
	}
	m.invitedEmail = email
	return m.invited, nil
}

func (m *mockAuthAdmin) CreateUser(_ context.Context, email, _ string, _ map[string]any) (*domain.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created != nil {
		return m.created, nil
	}
	return &domain.Session{UserID: "user-new", Email: email}, nil
}

func (m *mockAuthAdmin) UpdateUserMetadata(_ context.Context, _ string, metadata map[string]any) error {
	if m.metadataErr != nil {
		return m.metadataErr
	}
	m.metadata = metadata
	return nil
}

func (m *mockAuthAdmin) ScrambleCredentials(_ context.Context, userID, newEmail, _ string) error {
	if m.scrambleErr != nil {
		return m.scrambleErr
	}
	m.scrambledID = userID
	m.scrambledEmail = newEmail
	return nil
}

func (m *mockAuthAdmin) DeleteUser(_ context.Context, userID string) error {
	m.deletedID = userID
	return nil
}
