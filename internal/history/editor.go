// ABOUTME: Message history editor: view, edit, and delete entries in a room's history
// ABOUTME: Deletion is paired to preserve the user/assistant alternation invariant

package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parlor-bot/parlor/internal/preset"
	"github.com/parlor-bot/parlor/internal/room"
	"github.com/parlor-bot/parlor/internal/store"
)

// ErrInvalidArgument indicates a non-positive index or a deletion that would
// break the history's user/assistant alternation.
var ErrInvalidArgument = errors.New("invalid history index")

// ErrOutOfRange indicates an index past the end of the history.
var ErrOutOfRange = errors.New("history index out of range")

// viewLimit caps per-entry content in the View listing.
const viewLimit = 50

// Store defines what the editor needs from storage
type Store interface {
	GetRoom(ctx context.Context, name string) (*store.Room, error)
	UpdateRoom(ctx context.Context, room *store.Room) error
}

// Editor reads and mutates a room's message history. Indices are 1-based,
// matching the numbering shown by View.
type Editor struct {
	store  Store
	logger *slog.Logger
}

// NewEditor creates a new history Editor.
func NewEditor(s Store, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{store: s, logger: logger.With("component", "history")}
}

// accessible fetches a room and verifies the actor may touch its history.
// Private rooms require membership.
func (e *Editor) accessible(ctx context.Context, name, actorID string) (*store.Room, error) {
	r, err := e.store.GetRoom(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, room.ErrNotExists
	}
	if err != nil {
		return nil, fmt.Errorf("getting room: %w", err)
	}
	if r.Visibility == store.VisibilityPrivate && !r.IsMember(actorID) {
		return nil, room.ErrForbidden
	}
	return r, nil
}

// View returns a numbered listing of the room's history, one entry per line,
// with content truncated for display.
func (e *Editor) View(ctx context.Context, name, actorID string) (string, error) {
	r, err := e.accessible(ctx, name, actorID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, m := range r.Messages {
		fmt.Fprintf(&b, "%d. [%s]: %s\n", i+1, m.Role, preset.Truncate(m.Content, viewLimit))
	}
	return b.String(), nil
}

// ViewEntry returns the full content of one history entry.
func (e *Editor) ViewEntry(ctx context.Context, name, actorID string, index int) (string, error) {
	r, err := e.accessible(ctx, name, actorID)
	if err != nil {
		return "", err
	}
	if index < 1 {
		return "", ErrInvalidArgument
	}
	if index > len(r.Messages) {
		return "", ErrOutOfRange
	}
	return r.Messages[index-1].Content, nil
}

// Edit replaces the content of one history entry, keeping its role.
func (e *Editor) Edit(ctx context.Context, name, actorID string, index int, content string) error {
	r, err := e.accessible(ctx, name, actorID)
	if err != nil {
		return err
	}
	if index < 1 {
		return ErrInvalidArgument
	}
	if index > len(r.Messages) {
		return ErrOutOfRange
	}

	r.Messages[index-1].Content = content
	if err := e.store.UpdateRoom(ctx, r); err != nil {
		return err
	}

	e.logger.Info("history entry edited", "room", name, "index", index, "actor", actorID)
	return nil
}

// Delete removes one history entry along with its pair. Deleting a user
// entry also removes the assistant reply that follows it, if any. Deleting
// an assistant entry also removes the user entry before it; an assistant
// entry with nothing before it cannot be deleted.
func (e *Editor) Delete(ctx context.Context, name, actorID string, index int) error {
	r, err := e.accessible(ctx, name, actorID)
	if err != nil {
		return err
	}

	messages, err := DeletePair(r.Messages, index)
	if err != nil {
		return err
	}

	r.Messages = messages
	if err := e.store.UpdateRoom(ctx, r); err != nil {
		return err
	}

	e.logger.Info("history entry deleted", "room", name, "index", index, "actor", actorID)
	return nil
}

// DeletePair removes the 1-based entry at index from messages together with
// its conversational pair and returns the shortened slice. The conversation
// service uses it to roll back a user message whose backend call failed.
func DeletePair(messages []store.Message, index int) ([]store.Message, error) {
	if index < 1 {
		return nil, ErrInvalidArgument
	}
	if index > len(messages) {
		return nil, ErrOutOfRange
	}

	i := index - 1
	lo, hi := i, i+1
	switch messages[i].Role {
	case store.RoleAssistant:
		if i == 0 {
			return nil, ErrInvalidArgument
		}
		lo = i - 1
	case store.RoleUser:
		if hi < len(messages) && messages[hi].Role == store.RoleAssistant {
			hi = i + 2
		}
	}

	out := make([]store.Message, 0, len(messages)-(hi-lo))
	out = append(out, messages[:lo]...)
	out = append(out, messages[hi:]...)
	return out, nil
}
