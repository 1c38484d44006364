// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	rooms   map[string]*Room   // keyed by room name
	presets map[string]*Preset // keyed by preset name
	order   []string           // room names in creation order
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		rooms:   make(map[string]*Room),
		presets: make(map[string]*Preset),
	}
}

// copyRoom clones a room so callers can't mutate stored state directly.
func copyRoom(r *Room) *Room {
	c := *r
	c.MemberIDs = append([]string(nil), r.MemberIDs...)
	c.MemberNames = append([]string(nil), r.MemberNames...)
	c.Messages = append([]Message(nil), r.Messages...)
	return &c
}

// CreateRoom stores a new room.
func (m *MockStore) CreateRoom(ctx context.Context, room *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[room.Name]; exists {
		return ErrDuplicateRoom
	}
	m.rooms[room.Name] = copyRoom(room)
	m.order = append(m.order, room.Name)
	return nil
}

// GetRoom retrieves a room by name.
func (m *MockStore) GetRoom(ctx context.Context, name string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[name]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRoom(room), nil
}

// UpdateRoom overwrites a stored room's fields.
func (m *MockStore) UpdateRoom(ctx context.Context, room *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[room.Name]; !ok {
		return ErrNotFound
	}
	m.rooms[room.Name] = copyRoom(room)
	return nil
}

// RenameRoom changes a room's key.
func (m *MockStore) RenameRoom(ctx context.Context, name, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[name]
	if !ok {
		return ErrNotFound
	}
	if _, taken := m.rooms[newName]; taken {
		return ErrDuplicateRoom
	}
	delete(m.rooms, name)
	room.Name = newName
	m.rooms[newName] = room
	for i, n := range m.order {
		if n == name {
			m.order[i] = newName
		}
	}
	return nil
}

// DeleteRoom removes a room.
func (m *MockStore) DeleteRoom(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[name]; !ok {
		return ErrNotFound
	}
	delete(m.rooms, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListRooms returns all rooms in creation order.
func (m *MockStore) ListRooms(ctx context.Context) ([]*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, name := range m.order {
		if room, ok := m.rooms[name]; ok {
			rooms = append(rooms, copyRoom(room))
		}
	}
	return rooms, nil
}

// DeleteAllRooms removes every room.
func (m *MockStore) DeleteAllRooms(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms = make(map[string]*Room)
	m.order = nil
	return nil
}

// AcquireRoom atomically flips busy from false to true under the store lock.
func (m *MockStore) AcquireRoom(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[name]
	if !ok {
		return false, ErrNotFound
	}
	if room.Busy {
		return false, nil
	}
	room.Busy = true
	return true, nil
}

// ReleaseRoom clears the busy flag. No-op for missing rooms.
func (m *MockStore) ReleaseRoom(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[name]; ok {
		room.Busy = false
	}
	return nil
}

// CreatePreset stores a new preset.
func (m *MockStore) CreatePreset(ctx context.Context, preset *Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.presets[preset.Name]; exists {
		return ErrDuplicatePreset
	}
	p := *preset
	m.presets[preset.Name] = &p
	return nil
}

// GetPreset retrieves a preset by name.
func (m *MockStore) GetPreset(ctx context.Context, name string) (*Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	preset, ok := m.presets[name]
	if !ok {
		return nil, ErrNotFound
	}
	p := *preset
	return &p, nil
}

// UpdatePreset replaces a preset's content.
func (m *MockStore) UpdatePreset(ctx context.Context, preset *Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.presets[preset.Name]
	if !ok {
		return ErrNotFound
	}
	existing.Content = preset.Content
	return nil
}

// DeletePreset removes a preset.
func (m *MockStore) DeletePreset(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.presets[name]; !ok {
		return ErrNotFound
	}
	delete(m.presets, name)
	return nil
}

// ListPresets returns all presets.
func (m *MockStore) ListPresets(ctx context.Context) ([]*Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	presets := make([]*Preset, 0, len(m.presets))
	for _, preset := range m.presets {
		p := *preset
		presets = append(presets, &p)
	}
	return presets, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
