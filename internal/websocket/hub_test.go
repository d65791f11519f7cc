package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/pkg/contracts/domain"
)

type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	closed   bool
	readErr  chan error
	pongFunc func(string) error
}

func newFakeConn() *fakeConn {
	return &fakeConn{readErr: make(chan error, 1)}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	err := <-f.readErr
	return 0, nil, err
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(limit int64)           {}
func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.pongFunc = h
}
func (f *fakeConn) RemoteAddr() string { return "127.0.0.1:54321" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func registerTestClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClientWithConnection(hub, newFakeConn(), testLogger())
	hub.Register(client)

	// The welcome message confirms registration completed.
	select {
	case msg := <-client.send:
		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		require.Equal(t, TypeConnection, envelope["type"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for welcome message")
	}
	return client
}

func TestHub_RegisterSendsWelcome(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	client := registerTestClient(t, hub)
	assert.Equal(t, 1, hub.ClientCount())
	assert.NotEmpty(t, client.id)
}

func TestHub_BroadcastAlert(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	client := registerTestClient(t, hub)

	event := domain.AlertEvent{
		Symbol:    "2330",
		Name:      "台積電",
		Kind:      domain.AlertKindHigh,
		Price:     605,
		Bound:     600,
		Timestamp: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
	hub.BroadcastAlert(event)

	select {
	case msg := <-client.send:
		var envelope struct {
			Type string            `json:"type"`
			Data domain.AlertEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		assert.Equal(t, TypeAlert, envelope.Type)
		assert.Equal(t, "2330", envelope.Data.Symbol)
		assert.Equal(t, domain.AlertKindHigh, envelope.Data.Kind)
		assert.Equal(t, 605.0, envelope.Data.Price)
		assert.Equal(t, 600.0, envelope.Data.Bound)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for alert broadcast")
	}
}

func TestHub_BroadcastQuote(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	client := registerTestClient(t, hub)

	hub.BroadcastQuote(domain.Quote{Symbol: "2603", Close: 151.5})

	select {
	case msg := <-client.send:
		var envelope struct {
			Type string       `json:"type"`
			Data domain.Quote `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		assert.Equal(t, TypeQuote, envelope.Type)
		assert.Equal(t, "2603", envelope.Data.Symbol)
		assert.Equal(t, 151.5, envelope.Data.Close)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for quote broadcast")
	}
}

func TestHub_BroadcastRefresh(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	client := registerTestClient(t, hub)

	hub.BroadcastRefresh("extract", []string{"holdings"})

	select {
	case msg := <-client.send:
		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		assert.Equal(t, TypeRefresh, envelope["type"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refresh broadcast")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	first := registerTestClient(t, hub)
	second := registerTestClient(t, hub)
	assert.Equal(t, 2, hub.ClientCount())

	hub.BroadcastError("OCR_FAILED", "text detection failed")

	for _, client := range []*Client{first, second} {
		select {
		case msg := <-client.send:
			assert.Contains(t, string(msg), "OCR_FAILED")
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	client := NewClientWithConnection(hub, newFakeConn(), testLogger())
	// An unbuffered channel with no reader makes every delivery fail.
	client.send = make(chan []byte)
	hub.Register(client)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastRefresh("watchlist", []string{"watchlist"})

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()

	client := registerTestClient(t, hub)
	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client send channel not closed")
	}

	// Stop is idempotent.
	hub.Stop()
}

func TestHub_Stats(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	registerTestClient(t, hub)
	stats := hub.Stats()

	assert.Equal(t, 1, stats["active_clients"])
	assert.Equal(t, int64(1), stats["total_connections"])
}

func TestClient_ReadPumpUnregistersOnError(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	conn := newFakeConn()
	client := NewClientWithConnection(hub, conn, testLogger())
	hub.Register(client)
	<-client.send // welcome

	done := make(chan struct{})
	go func() {
		client.ReadPump()
		close(done)
	}()

	conn.readErr <- io.EOF

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not exit")
	}

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.True(t, conn.closed)
}
