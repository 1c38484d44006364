// Package room manages room lifecycle, ownership, and membership.
//
// # Authorization
//
// Every mutating operation except Create verifies the acting user owns the
// room and fails with ErrForbidden otherwise. Membership edits additionally
// require the room to be private; on a public room they return
// ErrInvalidState so the caller can report why nothing happened.
//
// # Preset Copying
//
// Create and SetPreset accept either the name of an existing preset or
// literal content. Named presets have their current content copied into the
// room; the room records the preset name. Literal content is stored with the
// "none" marker. Either way the room owns its copy: later edits to the
// preset never reach it.
//
// # Batches
//
// RenameBatch, DeleteBatch, and RefreshBatch process each name
// independently and aggregate succeeded and failed names; one failure never
// aborts the rest.
package room
