package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// BootstrapService resolves a verified session into the atomic snapshot
// the frontend boots from: profile, company, funnel schema and the
// super-admin flag, all belonging to the same identity.
//
// Resolutions are guarded by a per-identity epoch: each new resolution for
// a user invalidates any still-running older one, so a slow fetch can
// never publish a snapshot on top of a newer session's result.
type BootstrapService struct {
	profiles  port.ProfileStore
	companies port.CompanyStore
	funnel    port.FunnelStore
	cache     port.Cache[*domain.Snapshot]
	metrics   *observability.Metrics
	logger    *zap.Logger

	superAdminIDs map[string]bool

	mu     sync.Mutex
	epochs map[string]uint64
}

// NewBootstrapService creates the bootstrap service with all dependencies
// injected. superAdminIDs is the configured cross-tenant allow-list.
func NewBootstrapService(
	profiles port.ProfileStore,
	companies port.CompanyStore,
	funnel port.FunnelStore,
	cache port.Cache[*domain.Snapshot],
	superAdminIDs []string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BootstrapService {
	allow := make(map[string]bool, len(superAdminIDs))
	for _, id := range superAdminIDs {
		allow[id] = true
	}
	return &BootstrapService{
		profiles:      profiles,
		companies:     companies,
		funnel:        funnel,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		superAdminIDs: allow,
		epochs:        make(map[string]uint64),
	}
}

// IsSuperAdmin reports whether a user id is on the cross-tenant allow-list.
func (s *BootstrapService) IsSuperAdmin(userID string) bool {
	return s.superAdminIDs[userID]
}

// beginEpoch starts a new resolution for a user, invalidating older ones.
func (s *BootstrapService) beginEpoch(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[userID]++
	return s.epochs[userID]
}

// isCurrent reports whether a resolution is still the latest for its user.
func (s *BootstrapService) isCurrent(userID string, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[userID] == epoch
}

// Invalidate discards the cached snapshot for a user and marks in-flight
// resolutions stale. Mutating handlers call this after changing anything a
// snapshot contains (profile, company, funnel schema, active tenant).
func (s *BootstrapService) Invalidate(userID string) {
	s.mu.Lock()
	s.epochs[userID]++
	s.mu.Unlock()
	s.cache.Delete("bootstrap:" + userID)
}

// AnonymousSnapshot is the terminal state for requests without a session.
func (s *BootstrapService) AnonymousSnapshot() *domain.Snapshot {
	return &domain.Snapshot{State: domain.StateAnonymous}
}

// Resolve builds the bootstrap snapshot for a verified session. userToken
// is the caller's own access token, forwarded to the tenant-resolution RPC
// so super admins land on the company they last switched to.
//
// A missing or deactivated profile resolves to PROFILE_ERROR: the session
// is valid but the account has no usable workspace, and the frontend shows
// the locked-out screen instead of an infinite spinner.
func (s *BootstrapService) Resolve(ctx context.Context, session *domain.Session, userToken string) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Bootstrap.Resolve")
	defer span.End()

	if session == nil {
		return s.AnonymousSnapshot(), nil
	}
	span.SetAttributes(attribute.String("user.id", session.UserID))

	cacheKey := "bootstrap:" + session.UserID
	if snap, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("bootstrap")
		return snap, nil
	}
	s.metrics.IncrCacheMiss("bootstrap")

	epoch := s.beginEpoch(session.UserID)

	snap, degraded, err := s.resolve(ctx, session, userToken)
	if err != nil {
		return nil, err
	}

	// A newer resolution started while this one was fetching: drop this
	// result on the floor and let the newer one publish.
	if !s.isCurrent(session.UserID, epoch) {
		s.logger.Debug("bootstrap: stale resolution discarded",
			zap.String("user_id", session.UserID),
		)
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached, nil
		}
		return snap, nil
	}

	// Degraded snapshots are served but never cached, so the next request
	// retries the failed fetches instead of pinning the fallback for a TTL.
	if snap.State == domain.StateResolved && !degraded {
		s.cache.Set(cacheKey, snap)
	}
	return snap, nil
}

func (s *BootstrapService) resolve(ctx context.Context, session *domain.Session, userToken string) (*domain.Snapshot, bool, error) {
	superAdmin := s.IsSuperAdmin(session.UserID)

	profile, err := s.profiles.GetProfile(ctx, session.UserID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			s.logger.Warn("bootstrap: session without profile",
				zap.String("user_id", session.UserID),
			)
			return &domain.Snapshot{
				State:      domain.StateProfileError,
				Session:    session,
				SuperAdmin: superAdmin,
			}, false, nil
		}
		return nil, false, err
	}

	if profile.Status == domain.StatusDeactivated {
		return &domain.Snapshot{
			State:      domain.StateProfileError,
			Session:    session,
			Profile:    profile,
			SuperAdmin: superAdmin,
		}, false, nil
	}

	companyID := profile.CompanyID
	if superAdmin {
		if active, err := s.companies.GetActiveCompanyID(ctx, userToken); err != nil {
			// The RPC failing must not lock a super admin out; fall back
			// to the profile's own company.
			s.logger.Warn("bootstrap: active company RPC failed, using profile company",
				zap.String("user_id", session.UserID),
				zap.Error(err),
			)
		} else if active != "" {
			companyID = active
		}
	}

	if companyID == "" {
		return &domain.Snapshot{
			State:      domain.StateProfileError,
			Session:    session,
			Profile:    profile,
			SuperAdmin: superAdmin,
		}, false, nil
	}

	// Company and schema are best effort: the session and profile already
	// resolved, so a Supabase hiccup here degrades the snapshot instead of
	// blocking login.
	var (
		company      *domain.Company
		stages       []domain.Stage
		companyDown  bool
		schemaDown bool

		g errgroup.Group
	)
	g.Go(func() error {
		c, err := s.companies.GetCompany(ctx, companyID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			s.logger.Warn("bootstrap: company fetch failed, degrading to nil",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
			companyDown = true
			return nil
		}
		company = c
		return nil
	})
	g.Go(func() error {
		rows, err := s.funnel.ListStages(ctx, companyID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			s.logger.Warn("bootstrap: funnel fetch failed, using default template",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
			schemaDown = true
			return nil
		}
		stages = rows
		return nil
	})
	_ = g.Wait()
	degraded := companyDown || schemaDown

	// A company that never customized its funnel still gets the full
	// template, never an empty dashboard.
	if len(stages) == 0 {
		stages = funnel.DefaultStages()
	}

	return &domain.Snapshot{
		State:      domain.StateResolved,
		Session:    session,
		Profile:    profile,
		Company:    company,
		Stages:     stages,
		SuperAdmin: superAdmin,
	}, degraded, nil
}
