package handlers

import (
	"log"
	"net/http"

	"github.com/deudbot/backend/internal/models"
	"github.com/deudbot/backend/internal/scheduler"
	"github.com/deudbot/backend/internal/store"
)

// SettingsHandler reads and saves the recognized settings. Saving reloads
// the reminder scheduler so calendar changes take effect immediately.
type SettingsHandler struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
}

func NewSettingsHandler(s *store.Store, sched *scheduler.Scheduler) *SettingsHandler {
	return &SettingsHandler{store: s, scheduler: sched}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.LoadSettings(r.Context())
	if err != nil {
		SendErrorResponse(w, "Failed to load settings", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, settings)
}

func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := DecodeJSON(w, r, &settings); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	if settings.SchedulerEnabled {
		if _, err := scheduler.CronSpec(settings); err != nil {
			SendErrorResponse(w, "Invalid scheduler settings: "+err.Error(), http.StatusBadRequest, nil)
			return
		}
	}

	if err := h.store.SaveSettings(r.Context(), settings); err != nil {
		SendErrorResponse(w, "Failed to save settings", http.StatusInternalServerError, nil)
		return
	}
	if err := h.scheduler.Reload(r.Context()); err != nil {
		log.Printf("[SETTINGS] scheduler reload failed: %v", err)
	}
	SendJSON(w, map[string]string{"message": "Settings updated"})
}
