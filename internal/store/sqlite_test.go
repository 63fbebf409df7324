// ABOUTME: Tests for the SQLite store covering registry, likes, and activity log.
// ABOUTME: Runs against an in-memory database created fresh per test.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServerRecord_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := &ServerRecord{
		Title:       "Math Calculator",
		Description: "Four-function arithmetic over MCP",
		Owner:       "user-1",
		Tags:        []string{"math", "demo"},
		IOType:      IOIn,
		Visibility:  VisibilityAll,
		CompanyCode: 42,
	}

	require.NoError(t, s.CreateServer(ctx, rec))

	// Should have generated ID, timestamp, and default status
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, StatusReview, rec.Status)

	got, err := s.GetServer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math Calculator", got.Title)
	assert.Equal(t, []string{"math", "demo"}, got.Tags)
	assert.Equal(t, 42, got.CompanyCode)
	assert.Equal(t, 0, got.UsageCount)
}

func TestServerRecord_GetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetServer(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerRecord_ListFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i, status := range []string{StatusActive, StatusActive, StatusInactive} {
		rec := &ServerRecord{
			Description: "server",
			Status:      status,
			Owner:       "user-1",
			CreatedAt:   time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateServer(ctx, rec))
	}

	all, err := s.ListServers(ctx, ServerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := s.ListServers(ctx, ServerFilter{Status: StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// Newest first
	assert.True(t, !all[0].CreatedAt.Before(all[1].CreatedAt))
}

func TestServerRecord_Update(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := &ServerRecord{Description: "before"}
	require.NoError(t, s.CreateServer(ctx, rec))

	rec.Description = "after"
	rec.Status = StatusActive
	rec.Tags = []string{"updated"}
	require.NoError(t, s.UpdateServer(ctx, rec))

	got, err := s.GetServer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Description)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, []string{"updated"}, got.Tags)
}

func TestServerRecord_UpdateMissing(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpdateServer(context.Background(), &ServerRecord{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerRecord_Delete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := &ServerRecord{Description: "doomed"}
	require.NoError(t, s.CreateServer(ctx, rec))
	require.NoError(t, s.DeleteServer(ctx, rec.ID))

	_, err := s.GetServer(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteServer(ctx, rec.ID), ErrNotFound)
}

func TestServerRecord_IncrementUsage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := &ServerRecord{Description: "counted"}
	require.NoError(t, s.CreateServer(ctx, rec))

	require.NoError(t, s.IncrementUsage(ctx, rec.ID))
	require.NoError(t, s.IncrementUsage(ctx, rec.ID))

	got, err := s.GetServer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
}

func TestLike_CreateAndCount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	like := &Like{UserID: "user-1", TargetID: "srv-1", TargetType: TargetMCPServer}
	require.NoError(t, s.CreateLike(ctx, like))
	assert.NotEmpty(t, like.ID)

	require.NoError(t, s.CreateLike(ctx, &Like{UserID: "user-2", TargetID: "srv-1", TargetType: TargetMCPServer}))

	count, err := s.CountLikes(ctx, "srv-1", TargetMCPServer)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLike_DuplicateRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	like := &Like{UserID: "user-1", TargetID: "srv-1", TargetType: TargetMCPServer}
	require.NoError(t, s.CreateLike(ctx, like))

	err := s.CreateLike(ctx, &Like{UserID: "user-1", TargetID: "srv-1", TargetType: TargetMCPServer})
	assert.ErrorIs(t, err, ErrDuplicateLike)
}

func TestLike_Delete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateLike(ctx, &Like{UserID: "user-1", TargetID: "srv-1", TargetType: TargetMCPServer}))
	require.NoError(t, s.DeleteLike(ctx, "user-1", "srv-1", TargetMCPServer))

	count, err := s.CountLikes(ctx, "srv-1", TargetMCPServer)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, s.DeleteLike(ctx, "user-1", "srv-1", TargetMCPServer), ErrNotFound)
}

func TestLike_ListByUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateLike(ctx, &Like{UserID: "user-1", TargetID: "srv-1", TargetType: TargetMCPServer}))
	require.NoError(t, s.CreateLike(ctx, &Like{UserID: "user-1", TargetID: "srv-2", TargetType: TargetMCPServer}))
	require.NoError(t, s.CreateLike(ctx, &Like{UserID: "user-2", TargetID: "srv-1", TargetType: TargetMCPServer}))

	likes, err := s.ListLikes(ctx, LikeFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, likes, 2)
}

func TestActivity_AppendAndList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := &ActivityEntry{
		UserID:     "user-1",
		Activity:   ActivityCreate,
		TargetID:   "srv-1",
		TargetType: TargetMCPServer,
		IPAddress:  "10.0.0.1",
		Device:     DevicePC,
	}
	require.NoError(t, s.AppendActivity(ctx, entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	entries, err := s.ListActivity(ctx, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActivityCreate, entries[0].Activity)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
}

func TestActivity_NewestFirstAndSince(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, activity := range []string{ActivityCreate, ActivityUpdate, ActivityDelete} {
		entry := &ActivityEntry{
			UserID:    "user-1",
			Activity:  activity,
			CreatedAt: base.Add(time.Duration(i) * 10 * time.Minute),
		}
		require.NoError(t, s.AppendActivity(ctx, entry))
	}

	entries, err := s.ListActivity(ctx, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ActivityDelete, entries[0].Activity)

	since := base.Add(15 * time.Minute)
	recent, err := s.ListActivity(ctx, ActivityFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestActivity_FilterByTarget(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendActivity(ctx, &ActivityEntry{UserID: "u", Activity: ActivityRead, TargetID: "srv-1", TargetType: TargetMCPServer}))
	require.NoError(t, s.AppendActivity(ctx, &ActivityEntry{UserID: "u", Activity: ActivityRead, TargetID: "srv-2", TargetType: TargetMCPServer}))

	entries, err := s.ListActivity(ctx, ActivityFilter{TargetID: "srv-1"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
