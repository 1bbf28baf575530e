package handlers

import (
	"log"
	"net/http"

	"github.com/deudbot/backend/internal/gateway"
)

// GatewayHandler exposes the WhatsApp connection lifecycle to the web panel.
type GatewayHandler struct {
	gateway *gateway.Gateway
}

func NewGatewayHandler(g *gateway.Gateway) *GatewayHandler {
	return &GatewayHandler{gateway: g}
}

// Status reports the connection state plus the pairing QR while one is
// pending and the linked client identity once ready.
func (h *GatewayHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, qrImage, info := h.gateway.Snapshot()

	resp := map[string]any{"status": status}
	if qrImage != "" {
		resp["qr"] = qrImage
	}
	if status == gateway.StatusReady {
		resp["client"] = info
	}
	SendJSON(w, resp)
}

func (h *GatewayHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Connect(r.Context()); err != nil {
		log.Printf("[GATEWAY] connect failed: %v", err)
		SendErrorResponse(w, "Failed to start WhatsApp session", http.StatusBadGateway, nil)
		return
	}
	SendJSON(w, map[string]string{"message": "Connecting"})
}

func (h *GatewayHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Disconnect(r.Context()); err != nil {
		log.Printf("[GATEWAY] disconnect failed: %v", err)
	}
	SendJSON(w, map[string]string{"message": "Disconnected"})
}
