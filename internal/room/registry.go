// ABOUTME: Room registry providing entity CRUD, owner authorization, and membership
// ABOUTME: Copies preset content at creation/modification time; rooms never link to presets

package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parlor-bot/parlor/internal/preset"
	"github.com/parlor-bot/parlor/internal/provider"
	"github.com/parlor-bot/parlor/internal/store"
)

// ErrNotExists indicates the named room was not found.
var ErrNotExists = errors.New("room does not exist")

// ErrConflict indicates a room with the same name already exists.
var ErrConflict = errors.New("room already exists")

// ErrForbidden indicates a non-owner attempted an owner-gated mutation or a
// non-member accessed a private room.
var ErrForbidden = errors.New("not permitted")

// ErrInvalidState indicates the operation doesn't apply to the room's
// current state, e.g. membership edits on a public room. Informative, not
// a hard failure.
var ErrInvalidState = errors.New("operation does not apply to the room's current state")

// ErrNotMember indicates the target user is not in the room's member list.
var ErrNotMember = errors.New("user is not a room member")

// ErrAlreadyMember indicates the target user is already in the member list.
var ErrAlreadyMember = errors.New("user is already a room member")

// LiteralPresetName marks a room whose preset content was given literally
// rather than copied from a named preset.
const LiteralPresetName = "none"

// presetPreviewLimit caps the preset preview in Describe output.
const presetPreviewLimit = 50

// Mention is a structured reference to a platform user, produced by the
// command-parsing layer. No at-syntax parsing happens here.
type Mention struct {
	UserID      string
	DisplayName string
}

// Store defines what the registry needs from storage
type Store interface {
	CreateRoom(ctx context.Context, room *store.Room) error
	GetRoom(ctx context.Context, name string) (*store.Room, error)
	UpdateRoom(ctx context.Context, room *store.Room) error
	RenameRoom(ctx context.Context, name, newName string) error
	DeleteRoom(ctx context.Context, name string) error
	ListRooms(ctx context.Context) ([]*store.Room, error)
	DeleteAllRooms(ctx context.Context) error
}

// PresetSource resolves preset names to their content for copying.
type PresetSource interface {
	Get(ctx context.Context, name string) (*store.Preset, error)
}

// Registry manages room lifecycle, authorization, and membership.
type Registry struct {
	store   Store
	presets PresetSource
	kindFor func(modelID string) provider.Kind
	logger  *slog.Logger
}

// NewRegistry creates a new room Registry. kindFor resolves a model
// identifier to its provider kind; the result is persisted on the room at
// model-assignment time.
func NewRegistry(s Store, presets PresetSource, kindFor func(string) provider.Kind, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:   s,
		presets: presets,
		kindFor: kindFor,
		logger:  logger.With("component", "room"),
	}
}

// Create makes a new public room owned by the given user, who becomes its
// sole member. presetArg is either the name of an existing preset (whose
// content is copied) or literal preset content. modelID may be empty; the
// orchestrator assigns the default on the first turn.
// Returns ErrConflict if the name is taken.
func (r *Registry) Create(ctx context.Context, name, presetArg string, owner Mention, modelID string) (*store.Room, error) {
	presetName := LiteralPresetName
	presetContent := presetArg
	if p, err := r.presets.Get(ctx, presetArg); err == nil {
		presetName = presetArg
		presetContent = p.Content
	}

	now := time.Now()
	room := &store.Room{
		Name:          name,
		OwnerID:       owner.UserID,
		OwnerName:     owner.DisplayName,
		PresetName:    presetName,
		PresetContent: presetContent,
		Visibility:    store.VisibilityPublic,
		MemberIDs:     []string{owner.UserID},
		MemberNames:   []string{owner.DisplayName},
		ModelID:       modelID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if modelID != "" {
		room.Provider = string(r.kindFor(modelID))
	}

	err := r.store.CreateRoom(ctx, room)
	if errors.Is(err, store.ErrDuplicateRoom) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}

	r.logger.Info("room created", "name", name, "owner", owner.UserID, "preset", presetName)
	return room, nil
}

// Get retrieves a room by name. Returns ErrNotExists if absent.
func (r *Registry) Get(ctx context.Context, name string) (*store.Room, error) {
	room, err := r.store.GetRoom(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotExists
	}
	if err != nil {
		return nil, fmt.Errorf("getting room: %w", err)
	}
	return room, nil
}

// owned fetches a room and verifies the actor owns it.
func (r *Registry) owned(ctx context.Context, name, actorID string) (*store.Room, error) {
	room, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return room, nil
}

// Rename changes a room's name. Owner-gated.
func (r *Registry) Rename(ctx context.Context, actorID, name, newName string) error {
	if _, err := r.owned(ctx, name, actorID); err != nil {
		return err
	}

	err := r.store.RenameRoom(ctx, name, newName)
	if errors.Is(err, store.ErrDuplicateRoom) {
		return ErrConflict
	}
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotExists
	}
	return err
}

// SetVisibility switches a room between public and private. Owner-gated.
// Returns ErrInvalidState when the room is already in the requested state.
func (r *Registry) SetVisibility(ctx context.Context, actorID, name, visibility string) error {
	if visibility != store.VisibilityPublic && visibility != store.VisibilityPrivate {
		return fmt.Errorf("unknown visibility %q", visibility)
	}

	room, err := r.owned(ctx, name, actorID)
	if err != nil {
		return err
	}
	if room.Visibility == visibility {
		return ErrInvalidState
	}

	room.Visibility = visibility
	return r.store.UpdateRoom(ctx, room)
}

// SetModel assigns a model to the room and persists the provider kind
// resolved from it. Owner-gated.
func (r *Registry) SetModel(ctx context.Context, actorID, name, modelID string) error {
	room, err := r.owned(ctx, name, actorID)
	if err != nil {
		return err
	}

	room.ModelID = modelID
	room.Provider = string(r.kindFor(modelID))
	if err := r.store.UpdateRoom(ctx, room); err != nil {
		return err
	}

	r.logger.Info("room model set", "name", name, "model", modelID, "provider", room.Provider)
	return nil
}

// SetPreset replaces the room's preset content. Like Create, presetArg
// is either a preset name to copy or literal content. Owner-gated.
func (r *Registry) SetPreset(ctx context.Context, actorID, name, presetArg string) error {
	room, err := r.owned(ctx, name, actorID)
	if err != nil {
		return err
	}

	room.PresetName = LiteralPresetName
	room.PresetContent = presetArg
	if p, err := r.presets.Get(ctx, presetArg); err == nil {
		room.PresetName = presetArg
		room.PresetContent = p.Content
	}

	return r.store.UpdateRoom(ctx, room)
}

// TransferOwnership hands the room to another user. Owner-gated.
func (r *Registry) TransferOwnership(ctx context.Context, actorID, name string, newOwner Mention) error {
	room, err := r.owned(ctx, name, actorID)
	if err != nil {
		return err
	}

	room.OwnerID = newOwner.UserID
	room.OwnerName = newOwner.DisplayName
	if !room.IsMember(newOwner.UserID) {
		room.MemberIDs = append(room.MemberIDs, newOwner.UserID)
		room.MemberNames = append(room.MemberNames, newOwner.DisplayName)
	}

	if err := r.store.UpdateRoom(ctx, room); err != nil {
		return err
	}

	r.logger.Info("room ownership transferred", "name", name, "from", actorID, "to", newOwner.UserID)
	return nil
}

// AddMember invites a user into a private room. Owner-gated.
// Returns ErrInvalidState for public rooms, where membership has no effect.
func (r *Registry) AddMember(ctx context.Context, actorID, name string, member Mention) error {
	room, err := r.owned(ctx, name, actorID)
	if err != nil {
		return err
	}
	if room.Visibility != store.VisibilityPrivate {
		return ErrInvalidState
	}
	if room.IsMember(member.UserID) {
		return ErrAlreadyMember
	}

	room.MemberIDs = append(room.MemberIDs, member.UserID)
	room.MemberNames = append(room.MemberNames, member.DisplayName)
	return r.store.UpdateRoom(ctx, room)
}

// RemoveMember kicks a user out of a private room. Owner-gated.
// Returns ErrInvalidState for public rooms and ErrNotMember when the user
// isn't in the room.
func (r *Registry) RemoveMember(ctx context.Context, actorID, name, memberID string) error {
	room, err := r.owned(ctx, name, actorID)
	if err != nil {
		return err
	}
	if room.Visibility != store.VisibilityPrivate {
		return ErrInvalidState
	}

	idx := -1
	for i, id := range room.MemberIDs {
		if id == memberID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotMember
	}

	// Both lists shrink together to keep them index-aligned
	room.MemberIDs = append(room.MemberIDs[:idx], room.MemberIDs[idx+1:]...)
	room.MemberNames = append(room.MemberNames[:idx], room.MemberNames[idx+1:]...)
	return r.store.UpdateRoom(ctx, room)
}

// Delete removes a room. Owner-gated.
func (r *Registry) Delete(ctx context.Context, actorID, name string) error {
	if _, err := r.owned(ctx, name, actorID); err != nil {
		return err
	}

	if err := r.store.DeleteRoom(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotExists
		}
		return err
	}

	r.logger.Info("room deleted", "name", name, "actor", actorID)
	return nil
}

// List returns all rooms.
func (r *Registry) List(ctx context.Context) ([]*store.Room, error) {
	return r.store.ListRooms(ctx)
}

// ListNames returns a numbered listing of all room names, one per line.
func (r *Registry) ListNames(ctx context.Context) (string, error) {
	rooms, err := r.store.ListRooms(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, room := range rooms {
		fmt.Fprintf(&b, "%d. %s\n", i+1, room.Name)
	}
	return b.String(), nil
}

// ClearAll removes every room. Administrative bulk clear; no owner gate.
func (r *Registry) ClearAll(ctx context.Context) error {
	return r.store.DeleteAllRooms(ctx)
}

// Refresh empties a room's history and clears the busy flag. This is the
// recovery path for a room stuck Busy by a backend call that never
// resolved. Private rooms require the actor to be a member.
func (r *Registry) Refresh(ctx context.Context, actorID, name string) error {
	room, err := r.Get(ctx, name)
	if err != nil {
		return err
	}
	if room.Visibility == store.VisibilityPrivate && !room.IsMember(actorID) {
		return ErrForbidden
	}

	room.Messages = nil
	room.Busy = false
	if err := r.store.UpdateRoom(ctx, room); err != nil {
		return err
	}

	r.logger.Info("room refreshed", "name", name, "actor", actorID)
	return nil
}

// Describe returns a human-readable summary of the room: owner, state,
// preset name, a 50-rune preset preview, and the member list for private
// rooms.
func (r *Registry) Describe(ctx context.Context, name string) (string, error) {
	room, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\n", room.Name)
	fmt.Fprintf(&b, "Owner: %s\n", room.OwnerName)
	fmt.Fprintf(&b, "State: %s\n", room.Visibility)
	if room.ModelID != "" {
		fmt.Fprintf(&b, "Model: %s\n", room.ModelID)
	}
	fmt.Fprintf(&b, "Preset: %s\n", room.PresetName)
	fmt.Fprintf(&b, "Preset preview: %s", preset.Truncate(room.PresetContent, presetPreviewLimit))
	if room.Visibility == store.VisibilityPrivate {
		fmt.Fprintf(&b, "\nMembers: %s", strings.Join(room.MemberNames, ", "))
	}
	return b.String(), nil
}
