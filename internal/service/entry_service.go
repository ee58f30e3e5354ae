package service

import (
	"context"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EntryService implements the daily-entry workflow: validation against the
// tenant's funnel schema, one-row-per-day upsert, proposal child rows and
// the autosaved draft.
type EntryService struct {
	entries   port.EntryStore
	proposals port.ProposalStore
	funnel    port.FunnelStore
	drafts    port.DraftStore
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewEntryService creates the entry service. now is injectable for tests.
func NewEntryService(
	entries port.EntryStore,
	proposals port.ProposalStore,
	funnelStore port.FunnelStore,
	drafts port.DraftStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) *EntryService {
	if now == nil {
		now = time.Now
	}
	return &EntryService{
		entries:   entries,
		proposals: proposals,
		funnel:    funnelStore,
		drafts:    drafts,
		metrics:   metrics,
		logger:    logger,
		now:       now,
	}
}

// ListEntries returns the caller's company entries, optionally narrowed to
// one author and an inclusive date range.
func (s *EntryService) ListEntries(ctx context.Context, companyID, userID, start, end string) ([]domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Entry.ListEntries")
	defer span.End()

	return s.entries.ListEntries(ctx, companyID, userID, start, end)
}

// SaveEntry validates and persists one day of prospecting activity for the
// calling profile, replacing any existing row for the same date and
// reconciling the proposal child rows against the submitted details.
func (s *EntryService) SaveEntry(ctx context.Context, profile *domain.Profile, companyID string, req *domain.EntryRequest) (*domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Entry.SaveEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.date", req.Data))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("save_entry", time.Since(start))
	}()

	stages, err := s.funnel.ListStages(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := funnel.ValidateEntry(stages, req, s.now()); err != nil {
		return nil, err
	}

	existing, err := s.entries.GetEntryByDate(ctx, companyID, profile.ID, req.Data)
	if err != nil {
		return nil, err
	}

	entry := &domain.DailyEntry{
		CompanyID:   companyID,
		UserID:      profile.ID,
		BdrNome:     profile.FullName,
		Data:        req.Data,
		Metrics:     req.Metrics,
		Observacoes: req.Observacoes,
	}
	kind := "insert"
	if existing != nil {
		entry.ID = existing.ID
		kind = "update"
	}

	saved, err := s.entries.UpsertEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrEntrySaved(kind)

	if err := s.reconcileProposals(ctx, profile, saved, req.Proposals); err != nil {
		return nil, err
	}

	// The draft served its purpose; a stale one must not resurrect the
	// form after a successful save.
	s.drafts.Delete(profile.ID, req.Data)

	s.logger.Info("entry saved",
		zap.String("entry_id", saved.ID),
		zap.String("user_id", profile.ID),
		zap.String("data", saved.Data),
		zap.String("kind", kind),
	)
	return saved, nil
}

// UpdateEntry rewrites an existing entry's metrics, notes and proposal
// details in place. Regular users can only edit their own rows; admins can
// edit anyone's in their company. The row keeps its author and date.
func (s *EntryService) UpdateEntry(ctx context.Context, profile *domain.Profile, companyID, entryID string, req *domain.EntryRequest) (*domain.DailyEntry, error) {
	ctx, span := tracer.Start(ctx, "Entry.UpdateEntry")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entryID))

	existing, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if existing.CompanyID != companyID {
		return nil, &domain.ErrNotFound{Resource: "entry", ID: entryID}
	}
	if existing.UserID != profile.ID && profile.Role != domain.RoleAdmin {
		return nil, &domain.ErrForbidden{Action: "update entry"}
	}

	// Editing never moves a row to another day; that would collide with the
	// owner's one-row-per-date upsert.
	if req.Data == "" {
		req.Data = existing.Data
	}
	if req.Data != existing.Data {
		return nil, &domain.ErrValidation{Field: "data", Message: "não pode ser alterada"}
	}

	stages, err := s.funnel.ListStages(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := funnel.ValidateEntry(stages, req, s.now()); err != nil {
		return nil, err
	}

	saved, err := s.entries.UpsertEntry(ctx, &domain.DailyEntry{
		ID:          existing.ID,
		CompanyID:   existing.CompanyID,
		UserID:      existing.UserID,
		BdrNome:     existing.BdrNome,
		Data:        existing.Data,
		Metrics:     req.Metrics,
		Observacoes: req.Observacoes,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrEntrySaved("update")

	// New proposals stay attributed to the entry's author, not the editor.
	owner := &domain.Profile{ID: existing.UserID, FullName: existing.BdrNome}
	if err := s.reconcileProposals(ctx, owner, saved, req.Proposals); err != nil {
		return nil, err
	}

	s.drafts.Delete(existing.UserID, existing.Data)

	s.logger.Info("entry updated",
		zap.String("entry_id", entryID),
		zap.String("owner_id", existing.UserID),
		zap.String("updated_by", profile.ID),
	)
	return saved, nil
}

// reconcileProposals diffs the submitted proposal details against the
// entry's persisted children: new details are inserted as open proposals,
// kept ones have name and value patched, removed ones are deleted. Status
// and closing date of kept proposals are untouched, so re-editing an entry
// never reopens a won or lost proposal.
func (s *EntryService) reconcileProposals(ctx context.Context, profile *domain.Profile, entry *domain.DailyEntry, details []domain.ProposalDetail) error {
	persisted, err := s.proposals.ListProposalsByEntry(ctx, entry.ID)
	if err != nil {
		return err
	}
	existingIDs := make([]string, 0, len(persisted))
	for _, p := range persisted {
		existingIDs = append(existingIDs, p.ID)
	}

	plan := funnel.Reconcile(existingIDs, details, nil, func(d domain.ProposalDetail) string { return d.ID })

	if len(plan.Insert) > 0 {
		rows := make([]domain.Proposal, 0, len(plan.Insert))
		for _, d := range plan.Insert {
			rows = append(rows, domain.Proposal{
				CompanyID:    entry.CompanyID,
				UserID:       profile.ID,
				BdrNome:      profile.FullName,
				NomeCliente:  d.NomeCliente,
				Valor:        d.Valor,
				DataProposta: entry.Data,
				Status:       domain.ProposalOpen,
				DailyEntryID: entry.ID,
			})
		}
		if err := s.proposals.InsertProposals(ctx, rows); err != nil {
			return err
		}
		s.metrics.AddProposalsCreated(len(rows))
	}

	for _, d := range plan.Update {
		if _, err := s.proposals.UpdateProposal(ctx, entry.CompanyID, d.ID, map[string]any{
			"nome_cliente": d.NomeCliente,
			"valor":        d.Valor,
		}); err != nil {
			return err
		}
	}

	return s.proposals.DeleteProposals(ctx, plan.Delete)
}

// DeleteEntry removes an entry and its proposals. Regular users can only
// delete their own rows; admins can delete anyone's in their company.
func (s *EntryService) DeleteEntry(ctx context.Context, profile *domain.Profile, companyID, entryID string) error {
	ctx, span := tracer.Start(ctx, "Entry.DeleteEntry")
	defer span.End()

	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.CompanyID != companyID {
		return &domain.ErrNotFound{Resource: "entry", ID: entryID}
	}
	if entry.UserID != profile.ID && profile.Role != domain.RoleAdmin {
		return &domain.ErrForbidden{Action: "delete entry"}
	}

	// Children first, so a failure between the two deletes leaves orphan
	// proposals rather than dangling references.
	if err := s.proposals.DeleteProposalsByEntry(ctx, entryID); err != nil {
		return err
	}
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	s.logger.Info("entry deleted",
		zap.String("entry_id", entryID),
		zap.String("deleted_by", profile.ID),
	)
	return nil
}

// GetDraft returns the caller's autosaved form for a date, if one is live.
func (s *EntryService) GetDraft(userID, date string) (*domain.Draft, bool) {
	return s.drafts.Get(userID, date)
}

// SaveDraft stores an in-progress form. Drafts skip validation: a form
// being typed is allowed to be inconsistent.
func (s *EntryService) SaveDraft(userID string, draft *domain.Draft) error {
	if draft.Data == "" {
		return &domain.ErrValidation{Field: "data", Message: "obrigatória"}
	}
	s.drafts.Put(userID, draft)
	return nil
}
