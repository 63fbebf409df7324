// ABOUTME: Store interface and data types for pocket-gateway persistence.
// ABOUTME: Defines the registry record, like, and activity log models.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateLike is returned when a user likes the same target twice
var ErrDuplicateLike = errors.New("like already exists")

// ServerStatus values for registry records
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusDeleted  = "DELETED"
	StatusReview   = "REVIEW"
	StatusRejected = "REJECTED"
	StatusAccept   = "ACCEPT"
)

// Visibility scopes for registry records
const (
	VisibilityAll        = "ALL"
	VisibilityAuthorized = "AUTHORIZED"
	VisibilityPrivate    = "PRIVATE"
)

// IO direction of a registered tool server
const (
	IOIn  = "IN"
	IOOut = "OUT"
)

// Activity types for the activity log
const (
	ActivityLogin  = "LOGIN"
	ActivityCreate = "CREATE"
	ActivityRead   = "READ"
	ActivityUpdate = "UPDATE"
	ActivityDelete = "DELETE"
)

// Target types for likes and activity entries
const (
	TargetUser      = "USER"
	TargetMCPServer = "MCP_SERVER"
	TargetAgent     = "AGENT"
)

// Device types recorded with activity entries
const (
	DevicePC     = "PC"
	DeviceMobile = "MOBILE"
)

// ServerRecord is registry metadata for one tool server definition.
// The record describes the server; the executable itself lives in the
// servers directory and is managed separately.
type ServerRecord struct {
	ID          string
	Title       string
	Description string
	Status      string
	Owner       string
	Tags        []string
	IOType      string
	UsageCount  int
	Visibility  string
	CompanyCode int
	CreatedAt   time.Time
}

// Like records one user's like of a target entity.
type Like struct {
	ID         string
	UserID     string
	TargetID   string
	TargetType string
	CreatedAt  time.Time
}

// ActivityEntry is one row of the activity log.
type ActivityEntry struct {
	ID          string
	UserID      string
	Activity    string
	TargetID    string
	TargetType  string
	IPAddress   string
	Device      string
	CompanyCode int
	CreatedAt   time.Time
}

// ServerFilter narrows ListServers results.
type ServerFilter struct {
	Status     string
	Visibility string
	Owner      string
	Limit      int
}

// LikeFilter narrows ListLikes results.
type LikeFilter struct {
	UserID     string
	TargetID   string
	TargetType string
}

// ActivityFilter narrows ListActivity results.
type ActivityFilter struct {
	UserID     string
	TargetID   string
	TargetType string
	Since      *time.Time
	Limit      int
}

// Store defines the interface for registry, like, and activity
// persistence
type Store interface {
	// Registry records
	CreateServer(ctx context.Context, rec *ServerRecord) error
	GetServer(ctx context.Context, id string) (*ServerRecord, error)
	ListServers(ctx context.Context, filter ServerFilter) ([]*ServerRecord, error)
	UpdateServer(ctx context.Context, rec *ServerRecord) error
	DeleteServer(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error

	// Likes
	CreateLike(ctx context.Context, like *Like) error
	DeleteLike(ctx context.Context, userID, targetID, targetType string) error
	ListLikes(ctx context.Context, filter LikeFilter) ([]*Like, error)
	CountLikes(ctx context.Context, targetID, targetType string) (int, error)

	// Activity log
	AppendActivity(ctx context.Context, entry *ActivityEntry) error
	ListActivity(ctx context.Context, filter ActivityFilter) ([]*ActivityEntry, error)

	Close() error
}
