package handler

import (
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Dashboard — GET /v1/dashboard
// ============================================================

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		span.SetAttributes(attribute.String("company.id", snap.CompanyID()))

		q := service.DashboardQuery{
			UserID:      r.URL.Query().Get("bdr"),
			Period:      r.URL.Query().Get("period"),
			CustomStart: r.URL.Query().Get("start"),
			CustomEnd:   r.URL.Query().Get("end"),
			RankingKey:  r.URL.Query().Get("metric"),
		}

		dash, err := svc.GetDashboard(ctx, snap.CompanyID(), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}
