package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/registry"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/scheduler"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

// attachRequest is the optional body of PUT /entities/{id}.
type attachRequest struct {
	Name string `json:"name"`
}

// handleListEntities returns every attached entity with its schedule state.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	statuses := make([]scheduler.Status, 0, len(list))
	for _, sw := range list {
		statuses = append(statuses, sw.Status())
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": statuses, "count": len(statuses)})
}

// handleGetEntity returns one entity's schedule state.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "entity is not attached")
		return
	}
	writeJSON(w, http.StatusOK, sw.Status())
}

// handleAttachEntity attaches an entity. The body may carry a display name;
// an empty body re-attaches under the previously persisted name.
func (s *Server) handleAttachEntity(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if _, err := s.registry.Attach(chi.URLParam(r, "id"), req.Name); err != nil {
		switch {
		case errors.Is(err, registry.ErrEntityExists):
			writeError(w, http.StatusConflict, ErrCodeConflict, "entity is already attached")
		case errors.Is(err, scheduler.ErrMissingEntityID):
			writeBadRequest(w, "entity id is required")
		default:
			writeInternalError(w, "failed to attach entity")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDetachEntity detaches an entity. With ?purge=1 its persisted
// settings are deleted as well.
func (s *Server) handleDetachEntity(w http.ResponseWriter, r *http.Request) {
	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))

	if err := s.registry.Detach(chi.URLParam(r, "id"), purge); err != nil {
		if errors.Is(err, registry.ErrEntityNotFound) {
			writeNotFound(w, "entity is not attached")
			return
		}
		writeInternalError(w, "failed to detach entity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSwitch dispatches the day or night action immediately.
func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "entity is not attached")
		return
	}

	phase, ok := settings.ParsePhase(chi.URLParam(r, "phase"))
	if !ok {
		writeBadRequest(w, "phase must be day or night")
		return
	}

	if err := sw.SwitchNow(r.Context(), phase); err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeDispatchFailed, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshPreview recomputes the preview without touching the schedule
// and returns the refreshed state.
func (s *Server) handleRefreshPreview(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "entity is not attached")
		return
	}

	sw.RefreshPreview()
	writeJSON(w, http.StatusOK, sw.Status())
}
