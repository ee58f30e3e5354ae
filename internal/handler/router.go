package handler

import (
	"net/http"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/config"
	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/port"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router depends on.
type Services struct {
	Bootstrap *service.BootstrapService
	Dashboard *service.DashboardService
	Entries   *service.EntryService
	Proposals *service.ProposalService
	Goals     *service.GoalService
	Funnel    *service.FunnelService
	Companies *service.CompanyService
	Admin     *service.AdminService
	Verifier  port.SessionVerifier
}

// NewRouter creates the HTTP router with all routes and middleware.
// Everything under /v1 except bootstrap and sign-up requires a verified
// session and a resolved workspace.
func NewRouter(svcs Services, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Funnel))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Public: bootstrap + tenant onboarding
		// =============================================
		r.Get("/bootstrap", bootstrapHandler(svcs.Bootstrap, cfg.SupabaseJWTSecret, svcs.Verifier, logger))
		r.Post("/auth/sign-up-with-company", signUpHandler(svcs.Admin, logger))

		// Internal counter snapshot for dashboards that do not scrape.
		r.Get("/metrics/ops", opsMetricsHandler(metrics))

		// =============================================
		// Protected: everything else
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.SupabaseJWTSecret, svcs.Verifier, logger))
			r.Use(WorkspaceMiddleware(svcs.Bootstrap, logger))

			// Dashboard
			r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))

			// Daily entries + draft
			r.Get("/entries", listEntriesHandler(svcs.Entries, logger))
			r.Post("/entries", saveEntryHandler(svcs.Entries, svcs.Bootstrap, logger))
			r.Put("/entries/{entryId}", updateEntryHandler(svcs.Entries, svcs.Bootstrap, logger))
			r.Delete("/entries/{entryId}", deleteEntryHandler(svcs.Entries, logger))
			r.Get("/entries/draft", getDraftHandler(svcs.Entries, logger))
			r.Put("/entries/draft", saveDraftHandler(svcs.Entries, logger))

			// Proposals
			r.Get("/proposals", listProposalsHandler(svcs.Proposals, logger))
			r.Put("/proposals/{proposalId}", updateProposalHandler(svcs.Proposals, logger))
			r.Delete("/proposals/{proposalId}", deleteProposalHandler(svcs.Proposals, logger))

			// Goals
			r.Get("/goals", listGoalsHandler(svcs.Goals, logger))
			r.Put("/goals", upsertGoalHandler(svcs.Goals, logger))
			r.Get("/goals/progress", goalProgressHandler(svcs.Goals, logger))

			// Funnel schema
			r.Get("/funnel", getFunnelHandler(svcs.Funnel, logger))
			r.Put("/funnel", saveFunnelHandler(svcs.Funnel, svcs.Bootstrap, logger))

			// Company settings + super-admin switcher
			r.Get("/company", getCompanyHandler(svcs.Companies, logger))
			r.Put("/company", updateCompanyHandler(svcs.Companies, svcs.Bootstrap, logger))
			r.Get("/companies", listCompaniesHandler(svcs.Companies, logger))
			r.Post("/company/active", switchCompanyHandler(svcs.Companies, svcs.Bootstrap, logger))

			// Users + own profile
			r.Get("/users", listUsersHandler(svcs.Admin, logger))
			r.Put("/profile", updateProfileHandler(svcs.Admin, svcs.Bootstrap, logger))

			// Privileged admin operations
			r.Post("/admin/invite-user", inviteUserHandler(svcs.Admin, logger))
			r.Post("/admin/update-user-role", updateUserRoleHandler(svcs.Admin, svcs.Bootstrap, logger))
			r.Post("/admin/deactivate-user", deactivateUserHandler(svcs.Admin, svcs.Bootstrap, logger))
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(funnelSvc *service.FunnelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "funil-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if funnelSvc != nil {
			start := time.Now()
			_, err := funnelSvc.GetStages(ctx, "health-check")
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOpsSnapshot())
	}
}
