// Package store provides persistent storage for parlor using SQLite.
//
// # Architecture
//
// The Store interface covers room and preset persistence. SQLiteStore
// implements it on modernc.org/sqlite; MockStore implements it in memory
// for tests. Service packages declare their own narrow interfaces over the
// subset of Store they use.
//
// # Data Models
//
//   - Room: named conversation context with owner, preset copy, visibility,
//     aligned member ID/name lists, model binding, busy flag, and message
//     history
//   - Message: one history entry, role "user" or "assistant"
//   - Preset: named system-prompt template; rooms copy its content
//
// Member lists and message history persist as JSON columns, matching the
// document-store shape the service was designed against.
//
// # Busy Flag
//
// AcquireRoom flips a room's busy flag from false to true in one conditional
// UPDATE, so the check and the set cannot interleave with another turn's.
// ReleaseRoom clears it unconditionally; the room refresh operation also
// clears it as the recovery path for a hung backend call.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateRoom: Room name already taken
//   - ErrDuplicatePreset: Preset name already taken
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests, or NewSQLiteStore(":memory:") for
// integration tests with real SQLite.
package store
