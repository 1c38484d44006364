// ABOUTME: Inbound-message trigger: leading-token room resolution for implicit turns
// ABOUTME: Messages whose first token names a room run a turn without an explicit command

package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parlor-bot/parlor/internal/conversation"
	"github.com/parlor-bot/parlor/internal/provider"
	"github.com/parlor-bot/parlor/internal/room"
	"github.com/parlor-bot/parlor/internal/store"
)

// Message is one inbound platform message.
type Message struct {
	UserID    string
	Username  string
	MessageID string
	Content   string
}

// Rooms is the room surface the trigger reads and annotates.
type Rooms interface {
	Get(ctx context.Context, name string) (*store.Room, error)
}

// Store persists the quoted-message annotation.
type Store interface {
	UpdateRoom(ctx context.Context, room *store.Room) error
}

// Converser runs a conversation turn. Satisfied by *conversation.Service.
type Converser interface {
	Converse(ctx context.Context, roomName, actorID, text string) (*conversation.Turn, error)
}

// Handler watches inbound messages for a leading room name.
type Handler struct {
	rooms    Rooms
	store    Store
	converse Converser
	logger   *slog.Logger
}

// NewHandler creates a trigger Handler.
func NewHandler(rooms Rooms, s Store, c Converser, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{rooms: rooms, store: s, converse: c, logger: logger.With("component", "trigger")}
}

// Split divides content into its first whitespace-delimited token and the
// remaining text, both trimmed.
func Split(content string) (token, rest string) {
	content = strings.TrimSpace(content)
	token, rest, _ = strings.Cut(content, " ")
	return token, strings.TrimSpace(rest)
}

// Handle inspects one message. If its first token names a room and text
// follows, the rest runs as a turn in that room and Handle returns the reply
// (or a status string) with handled=true. Otherwise handled is false and the
// message belongs to whatever processes it next.
func (h *Handler) Handle(ctx context.Context, msg *Message) (reply string, handled bool) {
	token, rest := Split(msg.Content)
	if token == "" || rest == "" {
		return "", false
	}

	r, err := h.rooms.Get(ctx, token)
	if errors.Is(err, room.ErrNotExists) {
		return "", false
	}
	if err != nil {
		h.logger.Error("resolving room", "room", token, "error", err)
		return "", false
	}

	if r.Visibility == store.VisibilityPrivate && !r.IsMember(msg.UserID) {
		return fmt.Sprintf("Room %s is private. Ask %s for an invitation.", r.Name, r.OwnerName), true
	}

	// Remember which platform message started this turn so the reply can
	// quote it.
	r.LastQuotedMessageID = msg.MessageID
	if err := h.store.UpdateRoom(ctx, r); err != nil {
		h.logger.Error("recording quoted message", "room", r.Name, "error", err)
	}

	turn, err := h.converse.Converse(ctx, r.Name, msg.UserID, rest)
	switch {
	case errors.Is(err, conversation.ErrBusy):
		return fmt.Sprintf("Room %s is still replying to the previous message.", r.Name), true
	case errors.Is(err, provider.ErrFailure):
		return provider.FailureMessage, true
	case err != nil:
		h.logger.Error("turn failed", "room", r.Name, "error", err)
		return provider.FailureMessage, true
	}

	return turn.Reply, true
}
