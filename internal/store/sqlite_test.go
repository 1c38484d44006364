package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testRoom(name string) *Room {
	now := time.Now().UTC().Truncate(time.Second)
	return &Room{
		Name:          name,
		OwnerID:       "user-1",
		OwnerName:     "alice",
		PresetName:    "none",
		PresetContent: "You are a helpful assistant.",
		Visibility:    VisibilityPublic,
		MemberIDs:     []string{"user-1"},
		MemberNames:   []string{"alice"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestStore_CreateRoom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.CreateRoom(ctx, testRoom("lounge"))
	require.NoError(t, err)

	retrieved, err := store.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.Equal(t, "lounge", retrieved.Name)
	assert.Equal(t, "user-1", retrieved.OwnerID)
	assert.Equal(t, []string{"user-1"}, retrieved.MemberIDs)
	assert.Equal(t, []string{"alice"}, retrieved.MemberNames)
	assert.Empty(t, retrieved.Messages)
	assert.False(t, retrieved.Busy)
}

func TestStore_CreateRoom_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("lounge")))

	err := store.CreateRoom(ctx, testRoom("lounge"))
	assert.ErrorIs(t, err, ErrDuplicateRoom)
}

func TestStore_GetRoom_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRoom(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateRoom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	room := testRoom("lounge")
	require.NoError(t, store.CreateRoom(ctx, room))

	room.Visibility = VisibilityPrivate
	room.MemberIDs = append(room.MemberIDs, "user-2")
	room.MemberNames = append(room.MemberNames, "bob")
	room.Messages = []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	}
	require.NoError(t, store.UpdateRoom(ctx, room))

	retrieved, err := store.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, retrieved.Visibility)
	assert.Equal(t, []string{"user-1", "user-2"}, retrieved.MemberIDs)
	assert.Equal(t, []string{"alice", "bob"}, retrieved.MemberNames)
	require.Len(t, retrieved.Messages, 2)
	assert.Equal(t, RoleUser, retrieved.Messages[0].Role)
	assert.Equal(t, "hi there", retrieved.Messages[1].Content)
}

func TestStore_UpdateRoom_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateRoom(context.Background(), testRoom("ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RenameRoom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("lounge")))
	require.NoError(t, store.RenameRoom(ctx, "lounge", "parlor"))

	_, err := store.GetRoom(ctx, "lounge")
	assert.ErrorIs(t, err, ErrNotFound)

	retrieved, err := store.GetRoom(ctx, "parlor")
	require.NoError(t, err)
	assert.Equal(t, "parlor", retrieved.Name)
}

func TestStore_RenameRoom_Conflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("lounge")))
	require.NoError(t, store.CreateRoom(ctx, testRoom("parlor")))

	err := store.RenameRoom(ctx, "lounge", "parlor")
	assert.ErrorIs(t, err, ErrDuplicateRoom)
}

func TestStore_DeleteRoom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("lounge")))
	require.NoError(t, store.DeleteRoom(ctx, "lounge"))

	_, err := store.GetRoom(ctx, "lounge")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteRoom(ctx, "lounge")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListRooms(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("alpha")))
	require.NoError(t, store.CreateRoom(ctx, testRoom("beta")))

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "alpha", rooms[0].Name)
	assert.Equal(t, "beta", rooms[1].Name)
}

func TestStore_DeleteAllRooms(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("alpha")))
	require.NoError(t, store.CreateRoom(ctx, testRoom("beta")))
	require.NoError(t, store.DeleteAllRooms(ctx))

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestStore_AcquireRoom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRoom(ctx, testRoom("lounge")))

	acquired, err := store.AcquireRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.True(t, acquired)

	// Second acquire must lose
	acquired, err = store.AcquireRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.False(t, acquired)

	retrieved, err := store.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.True(t, retrieved.Busy)

	require.NoError(t, store.ReleaseRoom(ctx, "lounge"))

	acquired, err = store.AcquireRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestStore_AcquireRoom_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.AcquireRoom(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReleaseRoom_Missing(t *testing.T) {
	store := setupTestStore(t)

	// Releasing a deleted room must not error; turns release after failures
	assert.NoError(t, store.ReleaseRoom(context.Background(), "nonexistent"))
}

func TestStore_PresetCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	preset := &Preset{Name: "pirate", Content: "Talk like a pirate.", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreatePreset(ctx, preset))

	err := store.CreatePreset(ctx, preset)
	assert.ErrorIs(t, err, ErrDuplicatePreset)

	retrieved, err := store.GetPreset(ctx, "pirate")
	require.NoError(t, err)
	assert.Equal(t, "Talk like a pirate.", retrieved.Content)

	retrieved.Content = "Talk like a polite pirate."
	require.NoError(t, store.UpdatePreset(ctx, retrieved))

	retrieved, err = store.GetPreset(ctx, "pirate")
	require.NoError(t, err)
	assert.Equal(t, "Talk like a polite pirate.", retrieved.Content)

	presets, err := store.ListPresets(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)

	require.NoError(t, store.DeletePreset(ctx, "pirate"))
	_, err = store.GetPreset(ctx, "pirate")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeletePreset(ctx, "pirate")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdatePreset_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdatePreset(context.Background(), &Preset{Name: "ghost", Content: "boo"})
	assert.ErrorIs(t, err, ErrNotFound)
}
