// ABOUTME: Gateway operations against tool servers: list, call, describe.
// ABOUTME: Each operation spawns a fresh process, handshakes, exchanges once, tears down.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Client runs gateway operations against tool server executables. Every
// operation binds a fresh session to a fresh process for exactly one
// application-level exchange; processes are never pooled or reused.
type Client struct {
	sup     *Supervisor
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Client using the given supervisor. timeout bounds
// each response read; zero means DefaultRequestTimeout.
func NewClient(sup *Supervisor, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		sup:     sup,
		timeout: timeout,
		logger:  logger.With("component", "mcp"),
	}
}

// ListTools spawns the tool server at path and returns the tools it
// declares via tools/list.
func (c *Client) ListTools(ctx context.Context, path string) ([]Tool, error) {
	var tools []Tool
	err := c.withSession(ctx, path, func(s *Session) error {
		raw, err := s.Request(ctx, "tools/list", map[string]any{})
		if err != nil {
			return err
		}

		var result ListToolsResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return &ParseError{Raw: string(raw), Err: err}
		}

		tools = result.Tools
		return nil
	})
	return tools, err
}

// CallTool spawns the tool server at path and invokes the named tool via
// tools/call. Content parts of type "text" are concatenated in order;
// other part types are skipped.
func (c *Client) CallTool(ctx context.Context, path, name string, args map[string]any) (string, error) {
	var out string
	err := c.withSession(ctx, path, func(s *Session) error {
		params := CallToolParams{Name: name, Arguments: args}
		raw, err := s.Request(ctx, "tools/call", params)
		if err != nil {
			return err
		}

		var result CallToolResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return &ParseError{Raw: string(raw), Err: err}
		}

		var sb strings.Builder
		for _, part := range result.Content {
			if part.Type == "text" {
				sb.WriteString(part.Text)
			}
		}
		out = sb.String()
		return nil
	})
	return out, err
}

// DescribeTool returns the declaration of one named tool, found by a
// linear search over the tools/list result. An unknown name is reported
// as ErrToolNotFound, distinct from process or transport faults.
func (c *Client) DescribeTool(ctx context.Context, path, name string) (*Tool, error) {
	tools, err := c.ListTools(ctx, path)
	if err != nil {
		return nil, err
	}

	for i := range tools {
		if tools[i].Name == name {
			return &tools[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
}

// withSession runs fn against a freshly spawned, initialized session.
// Teardown is unconditional: the process is terminated on every exit
// path, including handshake and exchange failures. A spawn failure means
// no process exists and nothing is terminated.
func (c *Client) withSession(ctx context.Context, path string, fn func(*Session) error) error {
	proc, err := c.sup.Spawn(path)
	if err != nil {
		return err
	}

	session := NewSession(proc, c.timeout, c.logger)
	defer session.Close()

	start := time.Now()
	if err := session.Initialize(ctx); err != nil {
		c.logger.Error("tool server handshake failed", "path", path, "error", err)
		return err
	}

	if err := fn(session); err != nil {
		return err
	}

	c.logger.Debug("tool server operation complete", "path", path, "elapsed", time.Since(start))
	return nil
}
