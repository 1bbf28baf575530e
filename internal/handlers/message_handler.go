package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/deudbot/backend/internal/models"
	"github.com/deudbot/backend/internal/notify"
	"github.com/deudbot/backend/internal/store"
)

// MessageHandler triggers reminders and serves the delivery log.
type MessageHandler struct {
	store    *store.Store
	notifier *notify.Notifier
}

func NewMessageHandler(s *store.Store, n *notify.Notifier) *MessageHandler {
	return &MessageHandler{store: s, notifier: n}
}

// SendSingle sends the reminder template to one debtor.
func (h *MessageHandler) SendSingle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DebtorID int64 `json:"debtorId"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	debtor, err := h.store.GetDebtor(r.Context(), req.DebtorID)
	if errors.Is(err, store.ErrNotFound) {
		SendErrorResponse(w, "Debtor not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to load debtor", http.StatusInternalServerError, nil)
		return
	}

	if err := h.notifier.SendReminder(r.Context(), debtor, models.MessageManual); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadGateway, nil)
		return
	}
	SendJSON(w, map[string]string{"message": "Reminder sent"})
}

// SendAll runs the bulk reminder workflow.
func (h *MessageHandler) SendAll(w http.ResponseWriter, r *http.Request) {
	sent, failed, err := h.notifier.SendBulkReminders(r.Context())
	if errors.Is(err, notify.ErrBulkInProgress) {
		SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, map[string]any{
		"message": fmt.Sprintf("Reminders: %d sent, %d failed", sent, failed),
		"sent":    sent,
		"failed":  failed,
	})
}

// Log returns the most recent message-log entries.
func (h *MessageHandler) Log(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.RecentMessages(r.Context(), 50)
	if err != nil {
		SendErrorResponse(w, "Failed to load message log", http.StatusInternalServerError, nil)
		return
	}
	if entries == nil {
		entries = []models.MessageLogEntry{}
	}
	SendJSON(w, entries)
}
