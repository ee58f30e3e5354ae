package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Funnel schema — /v1/funnel
// ============================================================

func getFunnelHandler(svc *service.FunnelService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/funnel")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		stages, err := svc.GetStages(ctx, snap.CompanyID())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stages)
	}
}

func saveFunnelHandler(svc *service.FunnelService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/funnel")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var desired []domain.Stage
		if err := json.NewDecoder(r.Body).Decode(&desired); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		stages, err := svc.SaveStages(ctx, snap.Profile, snap.CompanyID(), desired)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		// The snapshot carries the schema; the caller must not boot from
		// the version they just replaced.
		bootstrap.Invalidate(snap.Profile.ID)
		writeJSON(w, http.StatusOK, stages)
	}
}
