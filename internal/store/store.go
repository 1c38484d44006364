// ABOUTME: Store interface and data types for parlor persistence
// ABOUTME: Defines Room, Message, Preset structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateRoom is returned when trying to create a room whose name is taken
var ErrDuplicateRoom = errors.New("room already exists")

// ErrDuplicatePreset is returned when trying to create a preset whose name is taken
var ErrDuplicatePreset = errors.New("preset already exists")

// Visibility values for a room
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Message roles. RoleSystem is synthesized at dispatch time for the
// OpenAI-style backend and is never persisted.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single entry in a room's conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Room is a named, persistent conversation context. Messages alternate
// user/assistant; a trailing user entry with no reply only exists while
// Busy is set.
type Room struct {
	Name                string
	OwnerID             string
	OwnerName           string
	PresetName          string
	PresetContent       string
	Visibility          string
	MemberIDs           []string // index-aligned with MemberNames
	MemberNames         []string
	ModelID             string
	Provider            string // provider kind resolved at model assignment
	Busy                bool
	LastQuotedMessageID string
	Messages            []Message
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsMember reports whether the given user ID is in the room's member list.
func (r *Room) IsMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Preset is a reusable, named system-prompt template. Rooms copy its
// content at creation or modification time; they never hold a reference.
type Preset struct {
	Name      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines the interface for room and preset persistence
type Store interface {
	// Rooms
	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, name string) (*Room, error)
	UpdateRoom(ctx context.Context, room *Room) error
	RenameRoom(ctx context.Context, name, newName string) error
	DeleteRoom(ctx context.Context, name string) error
	ListRooms(ctx context.Context) ([]*Room, error)
	DeleteAllRooms(ctx context.Context) error

	// Busy flag. AcquireRoom flips busy from false to true in a single
	// conditional update and reports whether it won; ReleaseRoom clears it.
	AcquireRoom(ctx context.Context, name string) (bool, error)
	ReleaseRoom(ctx context.Context, name string) error

	// Presets
	CreatePreset(ctx context.Context, preset *Preset) error
	GetPreset(ctx context.Context, name string) (*Preset, error)
	UpdatePreset(ctx context.Context, preset *Preset) error
	DeletePreset(ctx context.Context, name string) error
	ListPresets(ctx context.Context) ([]*Preset, error)

	// Close releases any resources held by the store
	Close() error
}
