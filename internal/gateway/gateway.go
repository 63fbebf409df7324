// ABOUTME: Gateway orchestrator that wires the HTTP server to its collaborators.
// ABOUTME: Owns the store, tool server directory, MCP client, and lifecycle.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pocket-mcp/pocket-gateway/internal/auth"
	"github.com/pocket-mcp/pocket-gateway/internal/config"
	"github.com/pocket-mcp/pocket-gateway/internal/mcp"
	"github.com/pocket-mcp/pocket-gateway/internal/servers"
	"github.com/pocket-mcp/pocket-gateway/internal/store"
)

// MaxUploadSize is the maximum allowed size for uploaded server files (10MB).
const MaxUploadSize = 10 << 20

// Gateway coordinates the pocket-gateway server components: the tool
// server directory, the MCP client that talks to spawned processes, the
// registry store, and the HTTP surface.
type Gateway struct {
	config     *config.Config
	store      store.Store
	dir        *servers.Dir
	client     *mcp.Client
	verifier   auth.TokenVerifier
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Gateway from configuration. The store is passed in so
// callers control its lifetime (and tests can use :memory:).
func New(cfg *config.Config, st store.Store, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sup := mcp.NewSupervisor(logger)
	if cfg.Servers.PythonBin != "" {
		sup.PythonBin = cfg.Servers.PythonBin
	}
	if cfg.MCP.TerminateGrace > 0 {
		sup.Grace = cfg.MCP.TerminateGrace
	}

	g := &Gateway{
		config: cfg,
		store:  st,
		dir:    servers.NewDir(cfg.Servers.Dir),
		client: mcp.NewClient(sup, cfg.MCP.RequestTimeout, logger),
		logger: logger.With("component", "gateway"),
	}

	if cfg.Auth.JWTSecret != "" {
		g.verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// routes builds the HTTP mux. Literal routes take precedence over the
// {server} wildcards, so /servers and /health never reach the tool
// operation handlers.
func (g *Gateway) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Core tool server operations
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /servers", g.handleListServers)
	mux.HandleFunc("GET /{server}/tools", g.handleListTools)
	mux.HandleFunc("POST /{server}/tools/call", g.handleCallTool)
	mux.HandleFunc("GET /{server}/tools/{tool}", g.handleDescribeTool)

	// Server file management
	mux.HandleFunc("POST /upload", g.handleUpload)
	mux.HandleFunc("DELETE /servers/{server}", g.handleDeleteServer)

	// Registry metadata, likes, activity log
	mux.HandleFunc("GET /api/registry", g.handleListRegistry)
	mux.HandleFunc("POST /api/registry", g.handleCreateRegistry)
	mux.HandleFunc("GET /api/registry/{id}", g.handleGetRegistry)
	mux.HandleFunc("PUT /api/registry/{id}", g.handleUpdateRegistry)
	mux.HandleFunc("DELETE /api/registry/{id}", g.handleDeleteRegistry)
	mux.HandleFunc("POST /api/registry/{id}/like", g.handleCreateLike)
	mux.HandleFunc("DELETE /api/registry/{id}/like", g.handleDeleteLike)
	mux.HandleFunc("GET /api/likes", g.handleListLikes)
	mux.HandleFunc("GET /api/activity", g.handleListActivity)

	return mux
}

// Run serves HTTP until the context is canceled, then shuts down
// gracefully. Blocking tool server I/O happens on per-request handler
// goroutines, so a slow child never stalls unrelated requests.
func (g *Gateway) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		g.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return g.httpServer.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// authenticate resolves the acting user for a mutating request. With no
// verifier configured, requests act as "anonymous".
func (g *Gateway) authenticate(r *http.Request) (string, error) {
	if g.verifier == nil {
		return "anonymous", nil
	}
	return auth.FromRequest(g.verifier, r)
}
