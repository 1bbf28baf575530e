package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	started    bool
	stopped    bool
	registered map[string]bool
	probeErr   map[string]error
	sendErr    error

	probes []string
	sends  []string
}

func (f *fakeTransport) Start(ctx context.Context, h EventHandler) error {
	f.started = true
	return nil
}

func (f *fakeTransport) Stop(ctx context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeTransport) IsRegistered(ctx context.Context, address string) (bool, error) {
	f.probes = append(f.probes, address)
	if err, ok := f.probeErr[address]; ok {
		return false, err
	}
	return f.registered[address], nil
}

func (f *fakeTransport) Send(ctx context.Context, address, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, address)
	return nil
}

func readyGateway(t *fakeTransport) *Gateway {
	g := New(t)
	g.OnReady(ClientInfo{PushName: "Deudbot", Phone: "5215550000000"})
	return g
}

func TestSendTextProbesCandidatesInOrder(t *testing.T) {
	tr := &fakeTransport{registered: map[string]bool{"5219811034910": true}}
	g := readyGateway(tr)

	addr, err := g.SendText(context.Background(), "9811034910", "hola")

	require.NoError(t, err)
	assert.Equal(t, "5219811034910", addr)
	// The 52-prefixed candidate is probed first, then the 521 one.
	assert.Equal(t, []string{"529811034910", "5219811034910"}, tr.probes)
	assert.Equal(t, []string{"5219811034910"}, tr.sends)
}

func TestSendTextFirstRegisteredWins(t *testing.T) {
	tr := &fakeTransport{registered: map[string]bool{
		"529811034910":  true,
		"5219811034910": true,
	}}
	g := readyGateway(tr)

	addr, err := g.SendText(context.Background(), "9811034910", "hola")

	require.NoError(t, err)
	assert.Equal(t, "529811034910", addr)
	assert.Equal(t, []string{"529811034910"}, tr.probes)
}

func TestSendTextExhaustedCandidates(t *testing.T) {
	tr := &fakeTransport{registered: map[string]bool{}}
	g := readyGateway(tr)

	_, err := g.SendText(context.Background(), "9811034910", "hola")

	assert.ErrorIs(t, err, ErrNotReachable)
	assert.Len(t, tr.probes, 2)
	assert.Empty(t, tr.sends)
}

func TestSendTextProbeFailureContinues(t *testing.T) {
	tr := &fakeTransport{
		registered: map[string]bool{"5219811034910": true},
		probeErr:   map[string]error{"529811034910": errors.New("timeout")},
	}
	g := readyGateway(tr)

	addr, err := g.SendText(context.Background(), "9811034910", "hola")

	require.NoError(t, err)
	assert.Equal(t, "5219811034910", addr)
}

func TestSendTextRequiresReadyStatus(t *testing.T) {
	g := New(&fakeTransport{})

	_, err := g.SendText(context.Background(), "9811034910", "hola")

	assert.ErrorIs(t, err, ErrTransportDown)
}

func TestSendTextRejectsInvalidPhone(t *testing.T) {
	g := readyGateway(&fakeTransport{})

	_, err := g.SendText(context.Background(), "12345", "hola")

	assert.Error(t, err)
}

func TestConnectionLifecycle(t *testing.T) {
	tr := &fakeTransport{}
	g := New(tr)

	status, qr, _ := g.Snapshot()
	assert.Equal(t, StatusDisconnected, status)
	assert.Empty(t, qr)

	require.NoError(t, g.Connect(context.Background()))
	assert.True(t, tr.started)

	status, _, _ = g.Snapshot()
	assert.Equal(t, StatusConnecting, status)

	// A second Connect while not disconnected is a no-op.
	tr.started = false
	require.NoError(t, g.Connect(context.Background()))
	assert.False(t, tr.started)

	g.OnQR("pairing-payload")
	status, qr, _ = g.Snapshot()
	assert.Equal(t, StatusPairing, status)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))

	g.OnAuthenticated()
	status, qr, _ = g.Snapshot()
	assert.Equal(t, StatusConnecting, status)
	assert.Empty(t, qr)

	g.OnReady(ClientInfo{PushName: "Deudbot", Phone: "5215550000000"})
	status, _, info := g.Snapshot()
	assert.Equal(t, StatusReady, status)
	assert.Equal(t, "Deudbot", info.PushName)

	g.OnDisconnected("logout")
	status, _, info = g.Snapshot()
	assert.Equal(t, StatusDisconnected, status)
	assert.Empty(t, info.PushName)
}

func TestDisconnectStopsTransport(t *testing.T) {
	tr := &fakeTransport{}
	g := readyGateway(tr)

	require.NoError(t, g.Disconnect(context.Background()))

	assert.True(t, tr.stopped)
	status, _, _ := g.Snapshot()
	assert.Equal(t, StatusDisconnected, status)
}

func TestOnMessageForwardsToCallback(t *testing.T) {
	g := New(&fakeTransport{})

	var gotFrom, gotBody string
	g.OnIncoming(func(from, body string) {
		gotFrom, gotBody = from, body
	})

	g.OnMessage("5219811034910@c.us", "/consultar")

	assert.Equal(t, "5219811034910@c.us", gotFrom)
	assert.Equal(t, "/consultar", gotBody)
}
