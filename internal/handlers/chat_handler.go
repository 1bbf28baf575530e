package handlers

import (
	"net/http"

	"github.com/deudbot/backend/internal/chat"
)

// ChatHandler exposes the command interpreter to the web panel.
type ChatHandler struct {
	dispatcher *chat.Dispatcher
}

func NewChatHandler(dispatcher *chat.Dispatcher) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher}
}

// Command accepts one line of free text and returns the structured result.
func (h *ChatHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	SendJSON(w, h.dispatcher.Handle(r.Context(), req.Command))
}
