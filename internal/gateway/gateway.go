// Package gateway manages the WhatsApp connection lifecycle and outbound
// delivery. The concrete wire client lives behind the Transport interface;
// the Gateway owns the explicit connection state machine
// (disconnected → qr → connecting → ready) and the candidate-probing send
// path.
package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/deudbot/backend/internal/phone"
	qrcode "github.com/skip2/go-qrcode"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusPairing      Status = "qr"
	StatusConnecting   Status = "connecting"
	StatusReady        Status = "ready"
)

var (
	// ErrNotReachable: every candidate address was probed and none is
	// registered on the channel.
	ErrNotReachable = errors.New("gateway: number not on WhatsApp")
	// ErrTransportDown: the gateway is not connected at all.
	ErrTransportDown = errors.New("gateway: WhatsApp not connected")
	// ErrRateLimited: the channel is refusing sends for now.
	ErrRateLimited = errors.New("gateway: too many messages, wait a moment")
)

type ClientInfo struct {
	PushName string `json:"pushname"`
	Phone    string `json:"phone"`
}

// EventHandler receives connection lifecycle and inbound-message events from
// a Transport. The Gateway itself implements it.
type EventHandler interface {
	OnQR(code string)
	OnAuthenticated()
	OnReady(info ClientInfo)
	OnDisconnected(reason string)
	OnMessage(from, body string)
}

// Transport is the wire client. Start is expected to deliver lifecycle
// events to the handler until Stop or context cancellation.
type Transport interface {
	Start(ctx context.Context, h EventHandler) error
	Stop(ctx context.Context) error
	IsRegistered(ctx context.Context, address string) (bool, error)
	Send(ctx context.Context, address, text string) error
}

// Gateway is the process-wide connection handle. It is injected into every
// workflow that sends; there is no package-level singleton.
type Gateway struct {
	transport Transport

	mu      sync.Mutex
	status  Status
	qrImage string // data URL with the pairing QR as PNG
	info    ClientInfo

	incoming func(from, body string)
}

func New(t Transport) *Gateway {
	return &Gateway{transport: t, status: StatusDisconnected}
}

// OnIncoming registers the inbound-message callback (the auto-responder).
func (g *Gateway) OnIncoming(fn func(from, body string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.incoming = fn
}

// Snapshot returns the current status, pairing QR image and client info.
func (g *Gateway) Snapshot() (Status, string, ClientInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, g.qrImage, g.info
}

// Connect starts the transport. A gateway that is already pairing,
// connecting or ready is left alone.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	if g.status != StatusDisconnected {
		g.mu.Unlock()
		return nil
	}
	g.status = StatusConnecting
	g.mu.Unlock()

	if err := g.transport.Start(ctx, g); err != nil {
		g.mu.Lock()
		g.status = StatusDisconnected
		g.mu.Unlock()
		return fmt.Errorf("start transport: %w", err)
	}
	return nil
}

func (g *Gateway) Disconnect(ctx context.Context) error {
	err := g.transport.Stop(ctx)
	g.mu.Lock()
	g.status = StatusDisconnected
	g.qrImage = ""
	g.info = ClientInfo{}
	g.mu.Unlock()
	return err
}

// SendText delivers text to the first candidate address confirmed reachable.
// Probe failures are logged and the next candidate is tried; exhausting all
// candidates is ErrNotReachable. Returns the address that accepted delivery.
func (g *Gateway) SendText(ctx context.Context, rawPhone, text string) (string, error) {
	g.mu.Lock()
	ready := g.status == StatusReady
	g.mu.Unlock()
	if !ready {
		return "", ErrTransportDown
	}

	candidates, err := phone.Candidates(rawPhone)
	if err != nil {
		return "", err
	}

	var target string
	for _, candidate := range candidates {
		ok, err := g.transport.IsRegistered(ctx, candidate)
		if err != nil {
			log.Printf("[GATEWAY] probe %s failed: %v", candidate, err)
			continue
		}
		if ok {
			target = candidate
			break
		}
	}
	if target == "" {
		return "", fmt.Errorf("%s: %w", rawPhone, ErrNotReachable)
	}

	if err := g.transport.Send(ctx, target, text); err != nil {
		return "", err
	}
	return target, nil
}

// EventHandler implementation; the transport calls these from its own
// goroutine.

func (g *Gateway) OnQR(code string) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		log.Printf("[GATEWAY] QR encode failed: %v", err)
		return
	}
	g.mu.Lock()
	g.status = StatusPairing
	g.qrImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	g.mu.Unlock()
	log.Printf("[GATEWAY] QR code ready, scan with WhatsApp")
}

func (g *Gateway) OnAuthenticated() {
	g.mu.Lock()
	g.status = StatusConnecting
	g.qrImage = ""
	g.mu.Unlock()
	log.Printf("[GATEWAY] authenticated")
}

func (g *Gateway) OnReady(info ClientInfo) {
	g.mu.Lock()
	g.status = StatusReady
	g.qrImage = ""
	g.info = info
	g.mu.Unlock()
	log.Printf("[GATEWAY] connected as %s (%s)", info.PushName, info.Phone)
}

func (g *Gateway) OnDisconnected(reason string) {
	g.mu.Lock()
	g.status = StatusDisconnected
	g.qrImage = ""
	g.info = ClientInfo{}
	g.mu.Unlock()
	log.Printf("[GATEWAY] disconnected: %s", reason)
}

func (g *Gateway) OnMessage(from, body string) {
	g.mu.Lock()
	fn := g.incoming
	g.mu.Unlock()
	if fn != nil {
		fn(from, body)
	}
}
