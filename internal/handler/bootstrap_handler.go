package handler

import (
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/port"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Bootstrap — GET /v1/bootstrap
// ============================================================

// bootstrapHandler resolves the caller into the atomic snapshot the
// frontend boots from. Unlike every other route, an absent or invalid
// token is not an error here: it resolves to the anonymous state, so the
// frontend always gets a definite answer instead of a 401 loop.
func bootstrapHandler(svc *service.BootstrapService, jwtSecret string, verifier port.SessionVerifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bootstrap")
		defer span.End()

		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, svc.AnonymousSnapshot())
			return
		}

		session, err := verifySession(ctx, token, jwtSecret, verifier)
		if err != nil {
			logger.Debug("bootstrap: token did not verify, anonymous",
				zap.Error(err),
			)
			writeJSON(w, http.StatusOK, svc.AnonymousSnapshot())
			return
		}

		snap, err := svc.Resolve(ctx, session, token)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
