// ABOUTME: Per-operation JSON-RPC session bound to one tool server process.
// ABOUTME: Serializes write-then-read exchanges and drives the initialize handshake.

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultRequestTimeout bounds the wait for a single response line. A
// hung tool server fails the exchange instead of stalling the caller
// indefinitely.
const DefaultRequestTimeout = 30 * time.Second

// SessionState tracks the lifecycle of a Session.
type SessionState int

const (
	StateCreated SessionState = iota
	StateStarted
	StateInitialized
	StateInUse
	StateClosed
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateInitialized:
		return "initialized"
	case StateInUse:
		return "in-use"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session owns one tool server's stdio streams for the duration of one
// gateway operation. Request ids are allocated monotonically starting at
// 1; the mutex enforces strict one-at-a-time write-then-read exchanges
// against incidental concurrent use of the same instance. Sessions are
// never shared between operations and never reused after Close.
type Session struct {
	proc *ChildProcess
	in   *bufio.Writer
	out  *bufio.Reader

	mu      sync.Mutex
	nextID  int64
	state   SessionState
	timeout time.Duration
	logger  *slog.Logger
}

// NewSession wraps a freshly spawned child process. The session takes
// ownership of the process; Close terminates it.
func NewSession(proc *ChildProcess, timeout time.Duration, logger *slog.Logger) *Session {
	s := newSession(proc.Stdin, proc.Stdout, timeout, logger)
	s.proc = proc
	s.state = StateStarted
	return s
}

// newSession builds a session over arbitrary streams. Tests use this to
// exercise the protocol without a real process.
func newSession(in io.Writer, out io.Reader, timeout time.Duration, logger *slog.Logger) *Session {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		in:      bufio.NewWriter(in),
		out:     bufio.NewReader(out),
		state:   StateCreated,
		timeout: timeout,
		logger:  logger.With("component", "session"),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize drives the mandatory two-phase handshake: an initialize
// request, then a notifications/initialized notification. It must
// complete before any tools/* request. Any failure marks the session
// failed and is reported as a *HandshakeError; the caller is responsible
// for teardown.
func (s *Session) Initialize(ctx context.Context) error {
	if _, err := s.Request(ctx, "initialize", newInitializeParams()); err != nil {
		return &HandshakeError{Err: err}
	}

	if err := s.Notify("notifications/initialized"); err != nil {
		return &HandshakeError{Err: err}
	}

	s.mu.Lock()
	s.state = StateInitialized
	s.mu.Unlock()

	return nil
}

// Request performs one correlated request/response exchange. No second
// request is written until the prior response has been fully read. The
// read is bounded by the session timeout; expiry or stream closure fails
// the session. Remote error objects are returned as *RPCError with the
// child's code and message intact.
func (s *Session) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || s.state == StateFailed {
		return nil, ErrSessionClosed
	}

	prev := s.state
	s.state = StateInUse
	s.nextID++
	id := s.nextID

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	if err := writeMessage(s.in, req); err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("sending %s request: %w", method, err)
	}

	resp, err := s.readResponse(ctx)
	if err != nil {
		s.state = StateFailed
		return nil, err
	}

	if resp.Error != nil {
		// The exchange completed; the child chose to report an error.
		s.state = prev
		return nil, resp.Error
	}

	if resp.ID != id {
		s.state = StateFailed
		return nil, &ParseError{
			Raw: fmt.Sprintf("id=%d", resp.ID),
			Err: fmt.Errorf("response id %d does not correlate to request id %d", resp.ID, id),
		}
	}

	s.state = prev
	return resp.Result, nil
}

// readResponse reads one framed response, bounded by the session timeout
// and the caller's context. Pipes have no read deadlines, so the read
// runs in a goroutine; on timeout the process is torn down, which
// unblocks the reader.
func (s *Session) readResponse(ctx context.Context) (*Response, error) {
	type result struct {
		resp *Response
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		resp, err := readMessage(s.out)
		ch <- result{resp, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w: no reply within %s", ErrNoResponse, s.timeout)
	}
}

// Notify sends a notification. Notifications carry no id and expect no
// response.
func (s *Session) Notify(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || s.state == StateFailed {
		return ErrSessionClosed
	}

	notif := Notification{
		JSONRPC: "2.0",
		Method:  method,
	}

	if err := writeMessage(s.in, notif); err != nil {
		s.state = StateFailed
		return fmt.Errorf("sending %s notification: %w", method, err)
	}

	return nil
}

// Close tears down the session and its process. It is idempotent and
// never fails; teardown errors are logged inside the supervisor.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state != StateFailed {
		s.state = StateClosed
	}
	proc := s.proc
	s.mu.Unlock()

	if proc != nil {
		proc.Terminate()
	}
}
