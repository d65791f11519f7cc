package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/config"
)

func testApp(port int) *Application {
	return &Application{
		Config: &config.Config{
			Server: config.ServerConfig{Port: port},
		},
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

func TestWaitUntilReady_ServerUp(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	t.Cleanup(func() { server.Close() })

	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	app := testApp(port)
	assert.NoError(t, app.WaitUntilReady(context.Background(), 5*time.Second))
}

func TestWaitUntilReady_Timeout(t *testing.T) {
	// A port nothing listens on.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	listener.Close()
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	app := testApp(port)
	err = app.WaitUntilReady(context.Background(), 500*time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestWaitUntilReady_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := testApp(1)
	err := app.WaitUntilReady(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
