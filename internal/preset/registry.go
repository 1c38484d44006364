// ABOUTME: Preset registry for named system-prompt templates
// ABOUTME: Pure key-value CRUD; rooms copy preset content, they never link to it

package preset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parlor-bot/parlor/internal/store"
)

// ErrNotExists indicates the named preset was not found.
var ErrNotExists = errors.New("preset does not exist")

// ErrConflict indicates a preset with the same name already exists.
var ErrConflict = errors.New("preset already exists")

// previewLimit caps Describe output, matching the room preset preview.
const previewLimit = 200

// Store defines what the registry needs from storage
type Store interface {
	CreatePreset(ctx context.Context, preset *store.Preset) error
	GetPreset(ctx context.Context, name string) (*store.Preset, error)
	UpdatePreset(ctx context.Context, preset *store.Preset) error
	DeletePreset(ctx context.Context, name string) error
	ListPresets(ctx context.Context) ([]*store.Preset, error)
}

// Registry manages named presets.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// NewRegistry creates a new preset Registry.
func NewRegistry(s Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  s,
		logger: logger.With("component", "preset"),
	}
}

// Create adds a new preset. Returns ErrConflict if the name is taken.
func (r *Registry) Create(ctx context.Context, name, content string) error {
	now := time.Now()
	err := r.store.CreatePreset(ctx, &store.Preset{
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, store.ErrDuplicatePreset) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("creating preset: %w", err)
	}

	r.logger.Debug("preset created", "name", name)
	return nil
}

// Update replaces a preset's content. Returns ErrNotExists if absent.
// Rooms that copied the old content are unaffected.
func (r *Registry) Update(ctx context.Context, name, content string) error {
	err := r.store.UpdatePreset(ctx, &store.Preset{Name: name, Content: content})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotExists
	}
	if err != nil {
		return fmt.Errorf("updating preset: %w", err)
	}
	return nil
}

// Delete removes a preset. Returns ErrNotExists if absent.
func (r *Registry) Delete(ctx context.Context, name string) error {
	err := r.store.DeletePreset(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotExists
	}
	if err != nil {
		return fmt.Errorf("deleting preset: %w", err)
	}

	r.logger.Debug("preset deleted", "name", name)
	return nil
}

// Get retrieves a preset by name. Returns ErrNotExists if absent.
func (r *Registry) Get(ctx context.Context, name string) (*store.Preset, error) {
	preset, err := r.store.GetPreset(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotExists
	}
	if err != nil {
		return nil, fmt.Errorf("getting preset: %w", err)
	}
	return preset, nil
}

// List returns all presets.
func (r *Registry) List(ctx context.Context) ([]*store.Preset, error) {
	return r.store.ListPresets(ctx)
}

// Describe returns the preset content truncated to 200 runes for display.
func (r *Registry) Describe(ctx context.Context, name string) (string, error) {
	preset, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return Truncate(preset.Content, previewLimit), nil
}

// ListNames returns a numbered listing of all preset names, one per line.
func (r *Registry) ListNames(ctx context.Context) (string, error) {
	presets, err := r.store.ListPresets(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, preset := range presets {
		fmt.Fprintf(&b, "%d. %s\n", i+1, preset.Name)
	}
	return b.String(), nil
}

// Truncate shortens s to at most limit runes, appending "..." when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
