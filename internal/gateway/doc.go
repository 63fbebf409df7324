// Package gateway orchestrates the pocket-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the pocket-gateway
// server. It owns and manages the major components: HTTP server, MCP
// client, server file directory, registry store, and token verifier.
//
// # Gateway Struct
//
// The Gateway struct is the main entry point:
//
//	type Gateway struct {
//	    config     *config.Config
//	    store      store.Store
//	    dir        *servers.Dir
//	    client     *mcp.Client
//	    verifier   auth.TokenVerifier
//	    httpServer *http.Server
//	    logger     *slog.Logger
//	}
//
// # HTTP API
//
// Tool execution endpoints in api.go:
//
//   - GET /health - Liveness check
//   - GET /servers - List available tool server files
//   - GET /{server}/tools - List a server's tools
//   - POST /{server}/tools/call - Invoke one tool
//   - GET /{server}/tools/{tool} - Describe one tool
//   - POST /upload - Upload a tool server file (authenticated)
//   - DELETE /servers/{server} - Remove a tool server file (authenticated)
//
// Registry endpoints in registry.go:
//
//   - GET/POST /api/registry - List or create registry records
//   - GET/PUT/DELETE /api/registry/{id} - Read, update, or delete a record
//   - POST/DELETE /api/registry/{id}/like - Like or unlike a record
//   - GET /api/likes - List likes
//   - GET /api/activity - List activity log entries
//
// Every tool invocation spawns a fresh child process, performs the
// initialize handshake, runs exactly one operation, and terminates the
// child. Nothing is pooled or reused between requests.
//
// # Lifecycle
//
// Run starts the HTTP listener and blocks until the context is
// cancelled, then shuts the listener down with a bounded grace period.
package gateway
