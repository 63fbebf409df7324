// ABOUTME: Error taxonomy for tool server sessions.
// ABOUTME: Distinguishes spawn, handshake, transport, RPC, and lookup failures.

package mcp

import (
	"errors"
	"fmt"
)

// Session errors
var (
	// ErrNoResponse means the tool server closed its output stream (or
	// never wrote a line) before replying to an in-flight request.
	ErrNoResponse = errors.New("no response from tool server")

	// ErrSessionClosed means the session has been torn down or failed and
	// can accept no further requests.
	ErrSessionClosed = errors.New("session is closed")

	// ErrToolNotFound means the tool server is healthy but does not
	// declare a tool with the requested name.
	ErrToolNotFound = errors.New("tool not found")
)

// SpawnError reports a failure to start a tool server process. The
// process was never started; there is nothing to terminate.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning tool server %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// HandshakeError reports a failure during the mandatory
// initialize/initialized sequence. The session is unusable.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tool server handshake failed: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// ParseError reports a response line that was not valid JSON. Raw holds
// the offending line for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response from tool server: %v (raw: %q)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }
