// ABOUTME: Tests verifying MockStore matches SQLiteStore semantics
// ABOUTME: Covers duplicate detection, busy-flag atomicity, and copy isolation

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_DuplicateRoom(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, testRoom("lounge")))
	assert.ErrorIs(t, m.CreateRoom(ctx, testRoom("lounge")), ErrDuplicateRoom)
}

func TestMockStore_AcquireRelease(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, testRoom("lounge")))

	acquired, err := m.AcquireRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = m.AcquireRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, m.ReleaseRoom(ctx, "lounge"))

	acquired, err = m.AcquireRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.True(t, acquired)

	_, err = m.AcquireRoom(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_GetRoom_ReturnsCopy(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, testRoom("lounge")))

	first, err := m.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	first.Messages = append(first.Messages, Message{Role: RoleUser, Content: "mutated"})
	first.MemberIDs[0] = "intruder"

	second, err := m.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.Empty(t, second.Messages)
	assert.Equal(t, []string{"user-1"}, second.MemberIDs)
}

func TestMockStore_Rename(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, testRoom("lounge")))
	require.NoError(t, m.CreateRoom(ctx, testRoom("study")))

	assert.ErrorIs(t, m.RenameRoom(ctx, "lounge", "study"), ErrDuplicateRoom)
	assert.ErrorIs(t, m.RenameRoom(ctx, "ghost", "anything"), ErrNotFound)

	require.NoError(t, m.RenameRoom(ctx, "lounge", "parlor"))
	rooms, err := m.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "parlor", rooms[0].Name)
}
