// ABOUTME: Shared fixtures for gateway handler tests.
// ABOUTME: Builds gateways over a temp server dir and an in-memory store.

package gateway

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pocket-mcp/pocket-gateway/internal/config"
	"github.com/pocket-mcp/pocket-gateway/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGateway builds a gateway over a fresh temp directory and an
// in-memory store. PythonBin is set to sh so fake server files can be
// plain shell scripts with a .py extension.
func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	return newTestGatewayWithSecret(t, "")
}

func newTestGatewayWithSecret(t *testing.T, secret string) *Gateway {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Servers.Dir = t.TempDir()
	cfg.Servers.PythonBin = "sh"
	cfg.Database.Path = ":memory:"
	cfg.Auth.JWTSecret = secret
	cfg.MCP.RequestTimeout = 5 * time.Second
	cfg.MCP.TerminateGrace = time.Second

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gw, err := New(cfg, st, testLogger())
	require.NoError(t, err)
	return gw
}

// writeFakeServer drops a shell script into the gateway's server
// directory under the given .py name.
func writeFakeServer(t *testing.T, gw *Gateway, name, body string) {
	t.Helper()
	path := filepath.Join(gw.dir.Root(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

const initReply = `echo '{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2024-11-05","serverInfo":{"name":"fake","version":"1.0"}}}'`

// toolServerBody reads the initialize request, the initialized
// notification, and one more request, then replies with the given
// result payload under id 2.
func toolServerBody(result string) string {
	return strings.Join([]string{
		"read line",
		initReply,
		"read line",
		"read line",
		`echo '{"jsonrpc":"2.0","id":2,"result":` + result + `}'`,
	}, "\n") + "\n"
}

// doJSON runs one request through the gateway mux and returns the
// recorder.
func doJSON(t *testing.T, gw *Gateway, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	gw.routes().ServeHTTP(rec, req)
	return rec
}
