// ABOUTME: JSON-RPC 2.0 and MCP wire types exchanged with tool server processes.
// ABOUTME: Messages travel one per line over the child's stdin/stdout pipes.

package mcp

import (
	"encoding/json"
	"fmt"
)

// protocolVersion is the MCP protocol revision advertised during the
// initialize handshake.
const protocolVersion = "2024-11-05"

// clientName and clientVersion identify the gateway in clientInfo.
const (
	clientName    = "pocket-gateway"
	clientVersion = "1.0.0"
)

// Request is a JSON-RPC 2.0 request that expects a correlated response.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Notification is a JSON-RPC 2.0 notification. It carries no id and the
// peer must not reply to it.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response correlated to a prior request by id.
// Exactly one of Result or Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by a tool server. The code and
// message are carried upward verbatim.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("tool server error (code %d): %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// InitializeParams is the params object for the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// ClientCapabilities advertises what the gateway supports. The gateway
// declares dynamic tool-root change notifications and sampling.
type ClientCapabilities struct {
	Roots    RootsCapability `json:"roots"`
	Sampling map[string]any  `json:"sampling"`
}

// RootsCapability signals support for roots/list_changed notifications.
type RootsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ClientInfo identifies the connecting client to the tool server.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Tool describes one tool declared by a tool server: name, human-readable
// description, and a JSON Schema for its parameters. The schema is kept
// raw; the gateway never interprets it.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult is the result object of a tools/list response.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is the params object for a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ContentPart is one typed fragment of a tool call result. Only parts of
// type "text" are surfaced to callers.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is the result object of a tools/call response.
type CallToolResult struct {
	Content []ContentPart `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// newInitializeParams builds the fixed initialize payload sent during the
// handshake.
func newInitializeParams() InitializeParams {
	return InitializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities: ClientCapabilities{
			Roots:    RootsCapability{ListChanged: true},
			Sampling: map[string]any{},
		},
		ClientInfo: ClientInfo{
			Name:    clientName,
			Version: clientVersion,
		},
	}
}
