package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

// handleGetGlobalSettings returns the shared settings as a string map.
func (s *Server) handleGetGlobalSettings(w http.ResponseWriter, _ *http.Request) {
	writeSettings(w, s.registry.Global())
}

// handlePutGlobalSettings stores shared settings and queues the debounced
// reschedule of every attached entity.
func (s *Server) handlePutGlobalSettings(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeSettings(w, r)
	if !ok {
		return
	}
	if !applySettings(w, s.registry.Global(), values) {
		return
	}

	s.registry.NotifyGlobalChange()
	w.WriteHeader(http.StatusNoContent)
}

// handleGetEntitySettings returns one entity's settings as a string map.
func (s *Server) handleGetEntitySettings(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "entity is not attached")
		return
	}
	writeSettings(w, sw.Settings())
}

// handlePutEntitySettings stores entity settings and applies them: an
// entity left disabled is stopped, anything else rebuilds its schedule.
func (s *Server) handlePutEntitySettings(w http.ResponseWriter, r *http.Request) {
	sw, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "entity is not attached")
		return
	}

	values, ok := decodeSettings(w, r)
	if !ok {
		return
	}
	if !applySettings(w, sw.Settings(), values) {
		return
	}

	if enabled, _ := sw.Settings().Bool(settings.KeyEnabled); enabled {
		sw.Reschedule()
	} else {
		sw.Disable()
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSettings(w http.ResponseWriter, store *settings.Store) {
	all, err := store.All()
	if err != nil {
		writeInternalError(w, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func decodeSettings(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeBadRequest(w, "request body must be a JSON object of string values")
		return nil, false
	}
	return values, true
}

func applySettings(w http.ResponseWriter, store *settings.Store, values map[string]string) bool {
	for key, value := range values {
		if err := store.SetStr(key, value); err != nil {
			writeInternalError(w, "failed to store settings")
			return false
		}
	}
	return true
}
