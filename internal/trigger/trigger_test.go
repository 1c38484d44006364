package trigger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor-bot/parlor/internal/conversation"
	"github.com/parlor-bot/parlor/internal/preset"
	"github.com/parlor-bot/parlor/internal/provider"
	"github.com/parlor-bot/parlor/internal/room"
	"github.com/parlor-bot/parlor/internal/store"
)

// fakeConverser scripts turn outcomes.
type fakeConverser struct {
	turn  *conversation.Turn
	err   error
	calls []struct{ Room, Actor, Text string }
}

func (f *fakeConverser) Converse(ctx context.Context, roomName, actorID, text string) (*conversation.Turn, error) {
	f.calls = append(f.calls, struct{ Room, Actor, Text string }{roomName, actorID, text})
	if f.err != nil {
		return nil, f.err
	}
	return f.turn, nil
}

func setupHandler(t *testing.T, c Converser) (*Handler, *store.MockStore) {
	t.Helper()
	mock := store.NewMockStore()
	presets := preset.NewRegistry(mock, nil)
	kindFor := func(modelID string) provider.Kind {
		return provider.KindForModel(modelID, provider.Config{})
	}
	rooms := room.NewRegistry(mock, presets, kindFor, nil)

	_, err := rooms.Create(context.Background(), "lounge", "p",
		room.Mention{UserID: "user-1", DisplayName: "alice"}, "")
	require.NoError(t, err)

	return NewHandler(rooms, mock, c, nil), mock
}

func TestSplit(t *testing.T) {
	tests := []struct {
		content string
		token   string
		rest    string
	}{
		{"lounge hello there", "lounge", "hello there"},
		{"  lounge   spaced out  ", "lounge", "spaced out"},
		{"lounge", "lounge", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		token, rest := Split(tt.content)
		assert.Equal(t, tt.token, token, "content %q", tt.content)
		assert.Equal(t, tt.rest, rest, "content %q", tt.content)
	}
}

func TestHandle_RunsTurn(t *testing.T) {
	fake := &fakeConverser{turn: &conversation.Turn{Reply: "the reply", Sequence: 2}}
	h, _ := setupHandler(t, fake)

	reply, handled := h.Handle(context.Background(), &Message{
		UserID:    "user-1",
		Username:  "alice",
		MessageID: "msg-42",
		Content:   "lounge what's the weather",
	})

	assert.True(t, handled)
	assert.Equal(t, "the reply", reply)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "lounge", fake.calls[0].Room)
	assert.Equal(t, "user-1", fake.calls[0].Actor)
	assert.Equal(t, "what's the weather", fake.calls[0].Text)
}

func TestHandle_RecordsQuotedMessage(t *testing.T) {
	fake := &fakeConverser{turn: &conversation.Turn{Reply: "ok", Sequence: 2}}
	h, mock := setupHandler(t, fake)
	ctx := context.Background()

	_, handled := h.Handle(ctx, &Message{
		UserID: "user-1", MessageID: "msg-42", Content: "lounge hi",
	})
	require.True(t, handled)

	r, err := mock.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	assert.Equal(t, "msg-42", r.LastQuotedMessageID)
}

func TestHandle_UnknownRoomFallsThrough(t *testing.T) {
	fake := &fakeConverser{turn: &conversation.Turn{Reply: "ok"}}
	h, _ := setupHandler(t, fake)

	_, handled := h.Handle(context.Background(), &Message{
		UserID: "user-1", Content: "weather is nice today",
	})
	assert.False(t, handled)
	assert.Empty(t, fake.calls)
}

func TestHandle_BareRoomNameFallsThrough(t *testing.T) {
	fake := &fakeConverser{turn: &conversation.Turn{Reply: "ok"}}
	h, _ := setupHandler(t, fake)

	_, handled := h.Handle(context.Background(), &Message{
		UserID: "user-1", Content: "lounge",
	})
	assert.False(t, handled, "room name with no text is not a turn")
	assert.Empty(t, fake.calls)
}

func TestHandle_PrivateRoomNonMember(t *testing.T) {
	fake := &fakeConverser{turn: &conversation.Turn{Reply: "ok"}}
	h, mock := setupHandler(t, fake)
	ctx := context.Background()

	r, err := mock.GetRoom(ctx, "lounge")
	require.NoError(t, err)
	r.Visibility = store.VisibilityPrivate
	require.NoError(t, mock.UpdateRoom(ctx, r))

	reply, handled := h.Handle(ctx, &Message{
		UserID: "stranger", Content: "lounge let me in",
	})
	assert.True(t, handled)
	assert.Contains(t, reply, "private")
	assert.Contains(t, reply, "alice", "status names the owner")
	assert.Empty(t, fake.calls, "no turn for a rejected user")
}

func TestHandle_BusyStatus(t *testing.T) {
	fake := &fakeConverser{err: conversation.ErrBusy}
	h, _ := setupHandler(t, fake)

	reply, handled := h.Handle(context.Background(), &Message{
		UserID: "user-1", Content: "lounge hello",
	})
	assert.True(t, handled)
	assert.Contains(t, reply, "still replying")
}

func TestHandle_ProviderFailureStatus(t *testing.T) {
	fake := &fakeConverser{err: provider.ErrFailure}
	h, _ := setupHandler(t, fake)

	reply, handled := h.Handle(context.Background(), &Message{
		UserID: "user-1", Content: "lounge hello",
	})
	assert.True(t, handled)
	assert.Equal(t, provider.FailureMessage, reply)
}
