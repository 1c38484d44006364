// Package preset manages named system-prompt templates.
//
// Presets are pure key-value records: create, update, delete, get, list.
// The room registry copies a preset's content into a room at creation or
// modification time, so deleting or editing a preset never changes rooms
// that already used it.
package preset
