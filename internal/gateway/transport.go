package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/deudbot/backend/internal/config"
	"github.com/google/uuid"
)

// BridgeTransport speaks to the WhatsApp bridge sidecar over HTTP. The
// sidecar owns the actual WhatsApp Web session; this adapter translates its
// responses into the gateway's error taxonomy and relays its event stream.
type BridgeTransport struct {
	baseURL string
	client  *http.Client
	cfg     *config.MessagingConfig

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewBridgeTransport(cfg *config.MessagingConfig) *BridgeTransport {
	return &BridgeTransport{
		baseURL: cfg.BridgeURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		cfg:     cfg,
	}
}

type bridgeEvent struct {
	Type     string `json:"type"` // qr | authenticated | ready | disconnected | message
	QR       string `json:"qr,omitempty"`
	PushName string `json:"pushname,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Reason   string `json:"reason,omitempty"`
	From     string `json:"from,omitempty"`
	Body     string `json:"body,omitempty"`
}

func (t *BridgeTransport) Start(ctx context.Context, h EventHandler) error {
	if err := t.post(ctx, "/session/start", nil); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	go t.eventLoop(loopCtx, h)
	return nil
}

func (t *BridgeTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return t.post(ctx, "/session/logout", nil)
}

// eventLoop long-polls the bridge event queue until cancelled. Poll errors
// count against ConnectRetries; recovery resets the counter.
func (t *BridgeTransport) eventLoop(ctx context.Context, h EventHandler) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		events, err := t.pollEvents(ctx)
		if err != nil {
			failures++
			if failures > t.cfg.ConnectRetries {
				log.Printf("[GATEWAY] bridge unreachable after %d attempts, giving up", failures-1)
				h.OnDisconnected("bridge unreachable")
				return
			}
			log.Printf("[GATEWAY] event poll failed (attempt %d/%d): %v", failures, t.cfg.ConnectRetries, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.cfg.RetryInterval):
			}
			continue
		}
		failures = 0

		for _, ev := range events {
			switch ev.Type {
			case "qr":
				h.OnQR(ev.QR)
			case "authenticated":
				h.OnAuthenticated()
			case "ready":
				h.OnReady(ClientInfo{PushName: ev.PushName, Phone: ev.Phone})
			case "disconnected":
				h.OnDisconnected(ev.Reason)
			case "message":
				h.OnMessage(ev.From, ev.Body)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.cfg.PollInterval):
		}
	}
}

func (t *BridgeTransport) pollEvents(ctx context.Context) ([]bridgeEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/events", nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge events: status %d", resp.StatusCode)
	}
	var events []bridgeEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, err
	}
	return events, nil
}

func (t *BridgeTransport) IsRegistered(ctx context.Context, address string) (bool, error) {
	path := "/contacts/" + url.PathEscape(address) + "/registered"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("probe %s: status %d", address, resp.StatusCode)
	}
	var result struct {
		Registered bool `json:"registered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.Registered, nil
}

func (t *BridgeTransport) Send(ctx context.Context, address, text string) error {
	payload := map[string]string{
		"id":   uuid.NewString(),
		"to":   address + "@c.us",
		"body": text,
	}
	return t.post(ctx, "/messages", payload)
}

func (t *BridgeTransport) post(ctx context.Context, path string, payload any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", path, ErrTransportDown)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrTransportDown
	default:
		return fmt.Errorf("bridge %s: status %d", path, resp.StatusCode)
	}
}
