package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/config"
	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/handler"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/cache"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/draft"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/resilience"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/supabase"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("draft_ttl", cfg.DraftTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("super_admins", len(cfg.SuperAdminIDs)),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "funil-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	snapshotCache := cache.New[*domain.Snapshot](cfg.CacheTTL)
	draftStore := draft.NewStore(cfg.DraftTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Supabase client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	sb := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	bootstrapSvc := service.NewBootstrapService(sb, sb, sb, snapshotCache, cfg.SuperAdminIDs, metrics, logger)
	dashboardSvc := service.NewDashboardService(sb, sb, sb, sb, metrics, logger, nil)
	entrySvc := service.NewEntryService(sb, sb, sb, draftStore, metrics, logger, nil)
	proposalSvc := service.NewProposalService(sb, logger, nil)
	goalSvc := service.NewGoalService(sb, sb, sb, sb, logger, nil)
	funnelSvc := service.NewFunnelService(sb, logger)
	companySvc := service.NewCompanyService(sb, sb, logger)
	adminSvc := service.NewAdminService(sb, sb, sb, sb, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Bootstrap: bootstrapSvc,
		Dashboard: dashboardSvc,
		Entries:   entrySvc,
		Proposals: proposalSvc,
		Goals:     goalSvc,
		Funnel:    funnelSvc,
		Companies: companySvc,
		Admin:     adminSvc,
		Verifier:  sb,
	}, cfg, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
