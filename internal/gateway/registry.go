// ABOUTME: HTTP handlers for registry metadata, likes, and the activity log.
// ABOUTME: Registry mutations append a correlated activity log entry.

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pocket-mcp/pocket-gateway/internal/store"
)

// RegistryRequest is the JSON body for creating or updating a registry
// record.
type RegistryRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IOType      string   `json:"io_type,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	CompanyCode int      `json:"company_code,omitempty"`
	Device      string   `json:"device,omitempty"`
}

// RegistryResponse is the JSON shape of one registry record.
type RegistryResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Owner       string   `json:"owner,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IOType      string   `json:"io_type,omitempty"`
	UsageCount  int      `json:"usage_count"`
	Visibility  string   `json:"visibility"`
	CompanyCode int      `json:"company_code,omitempty"`
	LikeCount   int      `json:"like_count"`
	CreatedAt   string   `json:"created_at"`
}

// LikeRequest is the JSON body for like creation/removal.
type LikeRequest struct {
	UserID string `json:"user_id"`
}

// ActivityResponse is the JSON shape of one activity log entry.
type ActivityResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Activity    string `json:"activity"`
	TargetID    string `json:"target_id,omitempty"`
	TargetType  string `json:"target_type,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	Device      string `json:"device,omitempty"`
	CompanyCode int    `json:"company_code,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func registryResponse(rec *store.ServerRecord, likeCount int) RegistryResponse {
	return RegistryResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      rec.Status,
		Owner:       rec.Owner,
		Tags:        rec.Tags,
		IOType:      rec.IOType,
		UsageCount:  rec.UsageCount,
		Visibility:  rec.Visibility,
		CompanyCode: rec.CompanyCode,
		LikeCount:   likeCount,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
}

// handleCreateRegistry handles POST /api/registry requests.
func (g *Gateway) handleCreateRegistry(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		g.sendJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req RegistryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Description == "" {
		g.sendJSONError(w, http.StatusBadRequest, "description is required")
		return
	}

	rec := &store.ServerRecord{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Owner:       userID,
		Tags:        req.Tags,
		IOType:      req.IOType,
		Visibility:  req.Visibility,
		CompanyCode: req.CompanyCode,
	}
	if err := g.store.CreateServer(r.Context(), rec); err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.appendRegistryActivity(r, userID, store.ActivityCreate, rec.ID, req.Device, req.CompanyCode)
	g.writeJSON(w, http.StatusCreated, registryResponse(rec, 0))
}

// handleListRegistry handles GET /api/registry requests. Supports
// status, visibility, owner, and limit query parameters.
func (g *Gateway) handleListRegistry(w http.ResponseWriter, r *http.Request) {
	filter := store.ServerFilter{
		Status:     r.URL.Query().Get("status"),
		Visibility: r.URL.Query().Get("visibility"),
		Owner:      r.URL.Query().Get("owner"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			g.sendJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	records, err := g.store.ListServers(r.Context(), filter)
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	out := make([]RegistryResponse, 0, len(records))
	for _, rec := range records {
		count, err := g.store.CountLikes(r.Context(), rec.ID, store.TargetMCPServer)
		if err != nil {
			g.sendOperationError(w, err)
			return
		}
		out = append(out, registryResponse(rec, count))
	}

	g.writeJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

// handleGetRegistry handles GET /api/registry/{id} requests.
func (g *Gateway) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := g.store.GetServer(r.Context(), id)
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	count, err := g.store.CountLikes(r.Context(), id, store.TargetMCPServer)
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, registryResponse(rec, count))
}

// handleUpdateRegistry handles PUT /api/registry/{id} requests.
func (g *Gateway) handleUpdateRegistry(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		g.sendJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req RegistryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	rec, err := g.store.GetServer(r.Context(), r.PathValue("id"))
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	if req.Title != "" {
		rec.Title = req.Title
	}
	if req.Description != "" {
		rec.Description = req.Description
	}
	if req.Status != "" {
		rec.Status = req.Status
	}
	if req.Tags != nil {
		rec.Tags = req.Tags
	}
	if req.IOType != "" {
		rec.IOType = req.IOType
	}
	if req.Visibility != "" {
		rec.Visibility = req.Visibility
	}
	if req.CompanyCode != 0 {
		rec.CompanyCode = req.CompanyCode
	}

	if err := g.store.UpdateServer(r.Context(), rec); err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.appendRegistryActivity(r, userID, store.ActivityUpdate, rec.ID, req.Device, rec.CompanyCode)

	count, _ := g.store.CountLikes(r.Context(), rec.ID, store.TargetMCPServer)
	g.writeJSON(w, http.StatusOK, registryResponse(rec, count))
}

// handleDeleteRegistry handles DELETE /api/registry/{id} requests.
func (g *Gateway) handleDeleteRegistry(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		g.sendJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := g.store.DeleteServer(r.Context(), id); err != nil {
		g.sendOperationError(w, err)
		return
	}

	g.appendRegistryActivity(r, userID, store.ActivityDelete, id, "", 0)
	g.writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// handleCreateLike handles POST /api/registry/{id}/like requests.
func (g *Gateway) handleCreateLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		g.sendJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	id := r.PathValue("id")
	if _, err := g.store.GetServer(r.Context(), id); err != nil {
		g.sendOperationError(w, err)
		return
	}

	like := &store.Like{
		UserID:     req.UserID,
		TargetID:   id,
		TargetType: store.TargetMCPServer,
	}
	if err := g.store.CreateLike(r.Context(), like); err != nil {
		if errors.Is(err, store.ErrDuplicateLike) {
			g.sendJSONError(w, http.StatusConflict, "already liked")
			return
		}
		g.sendOperationError(w, err)
		return
	}

	count, _ := g.store.CountLikes(r.Context(), id, store.TargetMCPServer)
	g.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "like_count": count})
}

// handleDeleteLike handles DELETE /api/registry/{id}/like requests.
func (g *Gateway) handleDeleteLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		g.sendJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	id := r.PathValue("id")
	if err := g.store.DeleteLike(r.Context(), req.UserID, id, store.TargetMCPServer); err != nil {
		g.sendOperationError(w, err)
		return
	}

	count, _ := g.store.CountLikes(r.Context(), id, store.TargetMCPServer)
	g.writeJSON(w, http.StatusOK, map[string]any{"success": true, "like_count": count})
}

// handleListLikes handles GET /api/likes requests with optional user_id
// and target_id filters.
func (g *Gateway) handleListLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := g.store.ListLikes(r.Context(), store.LikeFilter{
		UserID:   r.URL.Query().Get("user_id"),
		TargetID: r.URL.Query().Get("target_id"),
	})
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(likes))
	for _, l := range likes {
		out = append(out, map[string]any{
			"id":          l.ID,
			"user_id":     l.UserID,
			"target_id":   l.TargetID,
			"target_type": l.TargetType,
			"created_at":  l.CreatedAt,
		})
	}
	g.writeJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

// handleListActivity handles GET /api/activity requests with optional
// user_id and target_id filters.
func (g *Gateway) handleListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := g.store.ListActivity(r.Context(), store.ActivityFilter{
		UserID:   r.URL.Query().Get("user_id"),
		TargetID: r.URL.Query().Get("target_id"),
	})
	if err != nil {
		g.sendOperationError(w, err)
		return
	}

	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			ID:          e.ID,
			UserID:      e.UserID,
			Activity:    e.Activity,
			TargetID:    e.TargetID,
			TargetType:  e.TargetType,
			IPAddress:   e.IPAddress,
			Device:      e.Device,
			CompanyCode: e.CompanyCode,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}
	g.writeJSON(w, http.StatusOK, map[string]any{"data": out, "count": len(out)})
}

// appendRegistryActivity records a registry mutation in the activity log.
func (g *Gateway) appendRegistryActivity(r *http.Request, userID, activity, targetID, device string, companyCode int) {
	entry := &store.ActivityEntry{
		UserID:      userID,
		Activity:    activity,
		TargetID:    targetID,
		TargetType:  store.TargetMCPServer,
		IPAddress:   clientIP(r),
		Device:      device,
		CompanyCode: companyCode,
	}
	if err := g.store.AppendActivity(r.Context(), entry); err != nil {
		g.logger.Error("recording registry activity", "activity", activity, "error", err)
	}
}
