package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Daily entries — /v1/entries
// ============================================================

func listEntriesHandler(svc *service.EntryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/entries")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		q := r.URL.Query()

		entries, err := svc.ListEntries(ctx, snap.CompanyID(), q.Get("bdr"), q.Get("start"), q.Get("end"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func saveEntryHandler(svc *service.EntryService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/entries")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var req domain.EntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		saved, err := svc.SaveEntry(ctx, snap.Profile, snap.CompanyID(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		bootstrap.Invalidate(snap.Profile.ID)
		writeJSON(w, http.StatusCreated, saved)
	}
}

func updateEntryHandler(svc *service.EntryService, bootstrap *service.BootstrapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/entries/{entryId}")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		entryID := chi.URLParam(r, "entryId")
		if entryID == "" {
			writeError(w, http.StatusBadRequest, "entry id is required")
			return
		}

		var req domain.EntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.UpdateEntry(ctx, snap.Profile, snap.CompanyID(), entryID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		bootstrap.Invalidate(snap.Profile.ID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteEntryHandler(svc *service.EntryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/entries/{entryId}")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		entryID := chi.URLParam(r, "entryId")
		if entryID == "" {
			writeError(w, http.StatusBadRequest, "entry id is required")
			return
		}

		if err := svc.DeleteEntry(ctx, snap.Profile, snap.CompanyID(), entryID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Lançamento removido"})
	}
}

// ============================================================
// Entry drafts — /v1/entries/draft
// ============================================================

func getDraftHandler(svc *service.EntryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/entries/draft")
		defer span.End()

		snap := SnapshotFromContext(ctx)
		date := r.URL.Query().Get("data")
		if date == "" {
			writeError(w, http.StatusBadRequest, "data query parameter is required")
			return
		}

		draft, ok := svc.GetDraft(snap.Profile.ID, date)
		if !ok {
			writeError(w, http.StatusNotFound, "no draft for this date")
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

func saveDraftHandler(svc *service.EntryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/entries/draft")
		defer span.End()

		snap := SnapshotFromContext(ctx)

		var draft domain.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.SaveDraft(snap.Profile.ID, &draft); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Rascunho salvo"})
	}
}
