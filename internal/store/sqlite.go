// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite.
// ABOUTME: Provides registry/like/activity persistence with automatic schema creation.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS servers (
			id TEXT PRIMARY KEY,
			title TEXT,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'REVIEW',
			owner TEXT,
			tags TEXT,
			io_type TEXT,
			usage_count INTEGER NOT NULL DEFAULT 0,
			visibility TEXT NOT NULL DEFAULT 'ALL',
			company_code INTEGER,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_servers_status
			ON servers(status);

		CREATE TABLE IF NOT EXISTS likes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			target_type TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_user_target
			ON likes(user_id, target_id, target_type);

		CREATE TABLE IF NOT EXISTS activity_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			activity TEXT NOT NULL,
			target_id TEXT,
			target_type TEXT,
			ip_address TEXT,
			device TEXT,
			company_code INTEGER,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_activity_user
			ON activity_log(user_id);

		CREATE INDEX IF NOT EXISTS idx_activity_created
			ON activity_log(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateServer inserts a new registry record, generating an ID and
// timestamp if missing.
func (s *SQLiteStore) CreateServer(ctx context.Context, rec *ServerRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusReview
	}
	if rec.Visibility == "" {
		rec.Visibility = VisibilityAll
	}

	tagsJSON, err := marshalTags(rec.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO servers (id, title, description, status, owner, tags, io_type, usage_count, visibility, company_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, rec.Description, rec.Status, rec.Owner, tagsJSON, rec.IOType,
		rec.UsageCount, rec.Visibility, rec.CompanyCode, rec.CreatedAt.Format(time.RFC3339))

	return err
}

// GetServer fetches one registry record by id.
func (s *SQLiteStore) GetServer(ctx context.Context, id string) (*ServerRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, owner, tags, io_type, usage_count, visibility, company_code, created_at
		FROM servers WHERE id = ?
	`, id)

	rec, err := scanServer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning server record: %w", err)
	}
	return rec, nil
}

// ListServers returns registry records, newest first, honoring the filter.
func (s *SQLiteStore) ListServers(ctx context.Context, filter ServerFilter) ([]*ServerRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var args []any
	query := `SELECT id, title, description, status, owner, tags, io_type, usage_count, visibility, company_code, created_at
		FROM servers WHERE 1=1`

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Visibility != "" {
		query += ` AND visibility = ?`
		args = append(args, filter.Visibility)
	}
	if filter.Owner != "" {
		query += ` AND owner = ?`
		args = append(args, filter.Owner)
	}

	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*ServerRecord
	for rows.Next() {
		rec, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning server record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateServer rewrites the mutable fields of a registry record.
func (s *SQLiteStore) UpdateServer(ctx context.Context, rec *ServerRecord) error {
	tagsJSON, err := marshalTags(rec.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE servers
		SET title = ?, description = ?, status = ?, tags = ?, io_type = ?, visibility = ?, company_code = ?
		WHERE id = ?
	`, rec.Title, rec.Description, rec.Status, tagsJSON, rec.IOType, rec.Visibility, rec.CompanyCode, rec.ID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteServer removes a registry record.
func (s *SQLiteStore) DeleteServer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps a record's usage counter by one.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE servers SET usage_count = usage_count + 1 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLike inserts a like, rejecting duplicates per user and target.
func (s *SQLiteStore) CreateLike(ctx context.Context, like *Like) error {
	if like.ID == "" {
		like.ID = uuid.New().String()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (id, user_id, target_id, target_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, like.ID, like.UserID, like.TargetID, like.TargetType, like.CreatedAt.Format(time.RFC3339))

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateLike
	}
	return err
}

// DeleteLike removes a user's like of a target.
func (s *SQLiteStore) DeleteLike(ctx context.Context, userID, targetID, targetType string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM likes WHERE user_id = ? AND target_id = ? AND target_type = ?
	`, userID, targetID, targetType)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLikes returns likes matching the filter, newest first.
func (s *SQLiteStore) ListLikes(ctx context.Context, filter LikeFilter) ([]*Like, error) {
	var args []any
	query := `SELECT id, user_id, target_id, target_type, created_at FROM likes WHERE 1=1`

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, filter.TargetID)
	}
	if filter.TargetType != "" {
		query += ` AND target_type = ?`
		args = append(args, filter.TargetType)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var likes []*Like
	for rows.Next() {
		var l Like
		var createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &l.TargetID, &l.TargetType, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning like: %w", err)
		}
		l.CreatedAt = parseTime(createdAt)
		likes = append(likes, &l)
	}
	return likes, rows.Err()
}

// CountLikes returns the number of likes for a target.
func (s *SQLiteStore) CountLikes(ctx context.Context, targetID, targetType string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM likes WHERE target_id = ? AND target_type = ?
	`, targetID, targetType).Scan(&count)
	return count, err
}

// AppendActivity inserts an activity log entry, generating an ID and
// timestamp if missing.
func (s *SQLiteStore) AppendActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, activity, target_id, target_type, ip_address, device, company_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Activity, entry.TargetID, entry.TargetType,
		entry.IPAddress, entry.Device, entry.CompanyCode, entry.CreatedAt.Format(time.RFC3339))

	return err
}

// ListActivity returns activity entries matching the filter, newest first.
func (s *SQLiteStore) ListActivity(ctx context.Context, filter ActivityFilter) ([]*ActivityEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var args []any
	query := `SELECT id, user_id, activity, target_id, target_type, ip_address, device, company_code, created_at
		FROM activity_log WHERE 1=1`

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, filter.TargetID)
	}
	if filter.TargetType != "" {
		query += ` AND target_type = ?`
		args = append(args, filter.TargetType)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.Format(time.RFC3339))
	}

	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Activity, &e.TargetID, &e.TargetType,
			&e.IPAddress, &e.Device, &e.CompanyCode, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanServer(row scanner) (*ServerRecord, error) {
	var rec ServerRecord
	var tagsJSON sql.NullString
	var createdAt string

	if err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Status, &rec.Owner,
		&tagsJSON, &rec.IOType, &rec.UsageCount, &rec.Visibility, &rec.CompanyCode, &createdAt); err != nil {
		return nil, err
	}

	if tagsJSON.Valid {
		_ = json.Unmarshal([]byte(tagsJSON.String), &rec.Tags) // Best effort: invalid JSON leaves tags empty
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

func marshalTags(tags []string) (*string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshaling tags: %w", err)
	}
	str := string(b)
	return &str, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
