// ABOUTME: HTTP handlers for tool server operations and file management.
// ABOUTME: Each tool operation spawns a fresh process for exactly one exchange.

package gateway

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/pocket-mcp/pocket-gateway/internal/mcp"
	"github.com/pocket-mcp/pocket-gateway/internal/servers"
	"github.com/pocket-mcp/pocket-gateway/internal/store"
)

// ToolCallRequest is the JSON request body for POST /{server}/tools/call.
type ToolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCallResponse is the JSON response for a successful tool call.
type ToolCallResponse struct {
	Success    bool           `json:"success"`
	Result     string         `json:"result"`
	ServerFile string         `json:"server_file"`
	ToolName   string         `json:"tool_name"`
	Arguments  map[string]any `json:"arguments"`
}

// ToolsListResponse is the JSON response for GET /{server}/tools.
type ToolsListResponse struct {
	Tools []mcp.Tool `json:"tools"`
}

// ServerInfo describes one available server definition, enriched with
// manifest metadata when a sidecar exists.
type ServerInfo struct {
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListServersResponse is the JSON response for GET /servers.
type ListServersResponse struct {
	Servers   []ServerInfo `json:"servers"`
	Count     int          `json:"count"`
	Directory string       `json:"directory"`
}

// UploadResponse is the JSON response for POST /upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

// handleHealth handles GET /health requests.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := os.Stat(g.dir.Root())

	g.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"servers_dir":        g.dir.Root(),
		"servers_dir_exists": err == nil,
	})
}

// handleListServers handles GET /servers requests. Manifest sidecars are
// merged in when present; a broken sidecar hides its metadata but never
// the server itself.
func (g *Gateway) handleListServers(w http.ResponseWriter, r *http.Request) {
	names, err := g.dir.List()
	if err != nil {
		g.sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	infos := make([]ServerInfo, 0, len(names))
	for _, name := range names {
		info := ServerInfo{Name: name}
		if m, err := g.dir.LoadManifest(name); err == nil && m != nil {
			info.Title = m.Title
			info.Description = m.Description
			info.Tags = m.Tags
		} else if err != nil {
			g.logger.Warn("loading server manifest", "server", name, "error", err)
		}
		infos = append(infos, info)
	}

	g.writeJSON(w, http.StatusOK, ListServersResponse{
		Servers:   infos,
		Count:     len(infos),
		Directory: g.dir.Root(),
	})
}

// handleListTools handles GET /{server}/tools requests. The full
// lifecycle runs inside: resolve, spawn, handshake, tools/list, teardown.
func (g *Gateway) handleListTools(w http.ResponseWriter, r *http.Request) {
	desc, err := g.dir.Resolve(r.PathValue("server"))
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	tools, err := g.client.ListTools(r.Context(), desc.Path)
	if err != nil {
		g.logger.Error("listing tools failed", "server", desc.Name, "error", err)
		g.sendOperationError(w, err)
		return
	}

	if tools == nil {
		tools = []mcp.Tool{}
	}
	g.writeJSON(w, http.StatusOK, ToolsListResponse{Tools: tools})
}

// handleCallTool handles POST /{server}/tools/call requests.
func (g *Gateway) handleCallTool(w http.ResponseWriter, r *http.Request) {
	desc, err := g.dir.Resolve(r.PathValue("server"))
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	var req ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" {
		g.sendJSONError(w, http.StatusBadRequest, "tool name is required")
		return
	}

	result, err := g.client.CallTool(r.Context(), desc.Path, req.Name, req.Arguments)
	if err != nil {
		g.logger.Error("tool call failed", "server", desc.Name, "tool", req.Name, "error", err)
		g.sendOperationError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, ToolCallResponse{
		Success:    true,
		Result:     result,
		ServerFile: desc.Name,
		ToolName:   req.Name,
		Arguments:  req.Arguments,
	})
}

// handleDescribeTool handles GET /{server}/tools/{tool} requests.
func (g *Gateway) handleDescribeTool(w http.ResponseWriter, r *http.Request) {
	desc, err := g.dir.Resolve(r.PathValue("server"))
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	tool, err := g.client.DescribeTool(r.Context(), desc.Path, r.PathValue("tool"))
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, tool)
}

// handleUpload handles POST /upload requests with a multipart "file"
// field. Only .py definitions are accepted.
func (g *Gateway) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		g.sendJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "parsing upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".py") {
		g.sendJSONError(w, http.StatusBadRequest, "only .py server files can be uploaded")
		return
	}

	size, err := g.dir.Save(header.Filename, file)
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.logActivity(r, userID, store.ActivityCreate, header.Filename)
	g.logger.Info("server file uploaded", "filename", header.Filename, "size", size, "user", userID)

	g.writeJSON(w, http.StatusOK, UploadResponse{
		Success:  true,
		Filename: header.Filename,
		Size:     size,
		Message:  "file uploaded successfully",
	})
}

// handleDeleteServer handles DELETE /servers/{server} requests.
func (g *Gateway) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		g.sendJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	name := r.PathValue("server")
	if err := g.dir.Remove(name); err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.logActivity(r, userID, store.ActivityDelete, name)
	g.logger.Info("server file deleted", "filename", name, "user", userID)

	g.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": name,
		"message":  "file deleted",
	})
}

// logActivity records a file-management action against the activity log.
// Failures are logged, never propagated into the response.
func (g *Gateway) logActivity(r *http.Request, userID, activity, target string) {
	entry := &store.ActivityEntry{
		UserID:     userID,
		Activity:   activity,
		TargetID:   target,
		TargetType: store.TargetMCPServer,
		IPAddress:  clientIP(r),
	}
	if err := g.store.AppendActivity(r.Context(), entry); err != nil {
		g.logger.Error("recording activity", "activity", activity, "error", err)
	}
}

// clientIP extracts the remote host from the request.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sendOperationError translates the error taxonomy into an HTTP status:
// invalid names are client errors, missing descriptors/tools are 404s,
// and process/communication faults surface as 500s with a descriptive
// message. Nothing is silently swallowed.
func (g *Gateway) sendOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, servers.ErrInvalidName):
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, servers.ErrNotFound), errors.Is(err, mcp.ErrToolNotFound):
		g.sendJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		g.sendJSONError(w, http.StatusNotFound, err.Error())
	default:
		g.sendJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// sendJSONError writes a JSON error response with the given status code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response body with the given status code.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("encoding response", "error", err)
	}
}
