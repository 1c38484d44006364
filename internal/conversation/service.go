// ABOUTME: Conversation orchestrator: the busy-flag turn state machine per room
// ABOUTME: Acquires the room, appends the user message, dispatches, and rolls back on failure

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parlor-bot/parlor/internal/history"
	"github.com/parlor-bot/parlor/internal/provider"
	"github.com/parlor-bot/parlor/internal/room"
	"github.com/parlor-bot/parlor/internal/store"
)

// ErrBusy indicates the room is already processing a turn. The rejected
// turn mutates nothing; the caller simply retries later.
var ErrBusy = errors.New("room is busy with another request")

// Turn is the result of one completed conversation turn.
type Turn struct {
	// Reply is the assistant's text.
	Reply string
	// Sequence is the 1-based position of the reply in the room's history.
	Sequence int
}

// Store defines what the orchestrator needs from storage
type Store interface {
	GetRoom(ctx context.Context, name string) (*store.Room, error)
	UpdateRoom(ctx context.Context, room *store.Room) error
	AcquireRoom(ctx context.Context, name string) (bool, error)
	ReleaseRoom(ctx context.Context, name string) error
}

// Dispatcher is the provider surface the orchestrator drives. Satisfied by
// *provider.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind provider.Kind, req *provider.Request) (string, error)
	KindFor(modelID string) provider.Kind
	DefaultModel() string
}

// Service runs conversation turns against rooms.
type Service struct {
	store      Store
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewService creates a conversation Service.
func NewService(s Store, d Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, dispatcher: d, logger: logger.With("component", "conversation")}
}

// Converse runs one turn: append the user's message, call the room's model
// with the preset as system prompt and the full history, and append the
// reply. At most one turn runs per room at a time; a second caller gets
// ErrBusy without side effects. On backend failure the pending user message
// is rolled back so the history keeps alternating, and the caller gets an
// error wrapping provider.ErrFailure.
func (s *Service) Converse(ctx context.Context, roomName, actorID, text string) (*Turn, error) {
	r, err := s.store.GetRoom(ctx, roomName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, room.ErrNotExists
	}
	if err != nil {
		return nil, fmt.Errorf("getting room: %w", err)
	}
	if r.Visibility == store.VisibilityPrivate && !r.IsMember(actorID) {
		return nil, room.ErrForbidden
	}

	acquired, err := s.store.AcquireRoom(ctx, roomName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, room.ErrNotExists
		}
		return nil, fmt.Errorf("acquiring room: %w", err)
	}
	if !acquired {
		return nil, ErrBusy
	}
	// Release must run even when ctx was cancelled mid-turn, or the room
	// stays stuck until someone refreshes it.
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		if err := s.store.ReleaseRoom(releaseCtx, roomName); err != nil {
			s.logger.Error("releasing room", "room", roomName, "error", err)
		}
	}()

	turnID := uuid.NewString()
	logger := s.logger.With("turn_id", turnID, "room", roomName, "actor", actorID)

	// Re-read under the flag: the pre-acquisition copy may be stale.
	r, err = s.store.GetRoom(ctx, roomName)
	if err != nil {
		return nil, fmt.Errorf("getting room: %w", err)
	}

	r.Messages = append(r.Messages, store.Message{Role: store.RoleUser, Content: text})

	if r.ModelID == "" {
		r.ModelID = s.dispatcher.DefaultModel()
		r.Provider = string(s.dispatcher.KindFor(r.ModelID))
		logger.Info("room model defaulted", "model", r.ModelID, "provider", r.Provider)
	}

	if err := s.store.UpdateRoom(ctx, r); err != nil {
		return nil, fmt.Errorf("saving user message: %w", err)
	}

	logger.Info("turn started", "model", r.ModelID, "history_len", len(r.Messages))

	reply, err := s.dispatcher.Dispatch(ctx, provider.Kind(r.Provider), &provider.Request{
		Model:    r.ModelID,
		System:   r.PresetContent,
		Messages: r.Messages,
	})
	if err != nil {
		s.rollback(ctx, r, logger)
		return nil, err
	}

	r.Messages = append(r.Messages, store.Message{Role: store.RoleAssistant, Content: reply})
	if err := s.store.UpdateRoom(ctx, r); err != nil {
		return nil, fmt.Errorf("saving reply: %w", err)
	}

	seq := len(r.Messages)
	logger.Info("turn completed", "sequence", seq)
	return &Turn{Reply: reply, Sequence: seq}, nil
}

// rollback removes the pending user message after a failed backend call so
// the stored history ends on a completed pair.
func (s *Service) rollback(ctx context.Context, r *store.Room, logger *slog.Logger) {
	messages, err := history.DeletePair(r.Messages, len(r.Messages))
	if err != nil {
		logger.Error("rolling back user message", "error", err)
		return
	}
	r.Messages = messages

	saveCtx := context.WithoutCancel(ctx)
	if err := s.store.UpdateRoom(saveCtx, r); err != nil {
		logger.Error("saving rollback", "error", err)
	}
}
