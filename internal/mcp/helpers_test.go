// ABOUTME: Shared test helpers for the mcp package.
// ABOUTME: Provides a quiet logger and on-disk fake tool server scripts.

package mcp

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// testLogger returns a logger that discards output so tests stay quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeToolServer writes an executable shell script into a temp dir and
// returns its path. Scripts stand in for tool server processes in
// end-to-end tests.
func writeToolServer(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing fake tool server: %v", err)
	}
	return path
}

// initReply is the canned line a fake server sends in response to the
// initialize request (always id 1: a fresh session per operation).
const initReply = `echo '{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2024-11-05","serverInfo":{"name":"fake","version":"1.0"}}}'`
