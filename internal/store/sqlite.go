// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides room/preset persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rooms (
			name TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			owner_name TEXT NOT NULL,
			preset_name TEXT NOT NULL,
			preset_content TEXT NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'public',
			member_ids TEXT NOT NULL DEFAULT '[]',
			member_names TEXT NOT NULL DEFAULT '[]',
			model_id TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL DEFAULT '',
			busy INTEGER NOT NULL DEFAULT 0,
			last_quoted_message_id TEXT NOT NULL DEFAULT '',
			messages TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,

			CHECK (visibility IN ('public', 'private'))
		);

		CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateRoom creates a new room.
// Returns ErrDuplicateRoom if a room with the same name already exists.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *Room) error {
	memberIDs, memberNames, messages, err := encodeRoomLists(room)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rooms (name, owner_id, owner_name, preset_name, preset_content,
			visibility, member_ids, member_names, model_id, provider, busy,
			last_quoted_message_id, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		room.Name,
		room.OwnerID,
		room.OwnerName,
		room.PresetName,
		room.PresetContent,
		room.Visibility,
		memberIDs,
		memberNames,
		room.ModelID,
		room.Provider,
		boolToInt(room.Busy),
		room.LastQuotedMessageID,
		messages,
		room.CreatedAt.UTC().Format(time.RFC3339),
		room.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateRoom
		}
		return fmt.Errorf("inserting room: %w", err)
	}

	s.logger.Debug("created room", "name", room.Name, "owner", room.OwnerID)
	return nil
}

// GetRoom retrieves a room by name.
// Returns ErrNotFound if the room doesn't exist.
func (s *SQLiteStore) GetRoom(ctx context.Context, name string) (*Room, error) {
	query := `
		SELECT name, owner_id, owner_name, preset_name, preset_content,
			visibility, member_ids, member_names, model_id, provider, busy,
			last_quoted_message_id, messages, created_at, updated_at
		FROM rooms WHERE name = ?
	`

	return s.scanRoom(s.db.QueryRowContext(ctx, query, name))
}

// UpdateRoom overwrites all mutable fields of a room identified by name.
// Returns ErrNotFound if the room doesn't exist.
func (s *SQLiteStore) UpdateRoom(ctx context.Context, room *Room) error {
	memberIDs, memberNames, messages, err := encodeRoomLists(room)
	if err != nil {
		return err
	}

	query := `
		UPDATE rooms
		SET owner_id = ?, owner_name = ?, preset_name = ?, preset_content = ?,
			visibility = ?, member_ids = ?, member_names = ?, model_id = ?,
			provider = ?, busy = ?, last_quoted_message_id = ?, messages = ?,
			updated_at = ?
		WHERE name = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		room.OwnerID,
		room.OwnerName,
		room.PresetName,
		room.PresetContent,
		room.Visibility,
		memberIDs,
		memberNames,
		room.ModelID,
		room.Provider,
		boolToInt(room.Busy),
		room.LastQuotedMessageID,
		messages,
		time.Now().UTC().Format(time.RFC3339),
		room.Name,
	)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// RenameRoom changes a room's unique name.
// Returns ErrNotFound if the room doesn't exist and ErrDuplicateRoom if the
// new name is already taken.
func (s *SQLiteStore) RenameRoom(ctx context.Context, name, newName string) error {
	query := `UPDATE rooms SET name = ?, updated_at = ? WHERE name = ?`

	result, err := s.db.ExecContext(ctx, query, newName, time.Now().UTC().Format(time.RFC3339), name)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateRoom
		}
		return fmt.Errorf("renaming room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rename result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("renamed room", "from", name, "to", newName)
	return nil
}

// DeleteRoom removes a room by name.
// Returns ErrNotFound if the room doesn't exist.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListRooms returns all rooms ordered by creation time.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*Room, error) {
	query := `
		SELECT name, owner_id, owner_name, preset_name, preset_content,
			visibility, member_ids, member_names, model_id, provider, busy,
			last_quoted_message_id, messages, created_at, updated_at
		FROM rooms ORDER BY created_at, name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room, err := s.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// DeleteAllRooms removes every room. Used by the administrative bulk clear.
func (s *SQLiteStore) DeleteAllRooms(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("clearing rooms: %w", err)
	}
	s.logger.Info("cleared all rooms")
	return nil
}

// AcquireRoom atomically flips the busy flag from false to true.
// The conditional update is a single statement, so two concurrent turns for
// the same room cannot both observe an idle room.
// Returns false when the room is already busy, ErrNotFound if it doesn't exist.
func (s *SQLiteStore) AcquireRoom(ctx context.Context, name string) (bool, error) {
	query := `UPDATE rooms SET busy = 1, updated_at = ? WHERE name = ? AND busy = 0`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), name)
	if err != nil {
		return false, fmt.Errorf("acquiring room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking acquire result: %w", err)
	}
	if rows == 1 {
		return true, nil
	}

	// Lost the race or the room is gone; find out which.
	var busy int
	err = s.db.QueryRowContext(ctx, `SELECT busy FROM rooms WHERE name = ?`, name).Scan(&busy)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("checking room busy state: %w", err)
	}

	return false, nil
}

// ReleaseRoom clears the busy flag. Releasing an idle or deleted room is a no-op.
func (s *SQLiteStore) ReleaseRoom(ctx context.Context, name string) error {
	query := `UPDATE rooms SET busy = 0, updated_at = ? WHERE name = ?`

	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), name); err != nil {
		return fmt.Errorf("releasing room: %w", err)
	}
	return nil
}

// CreatePreset creates a new preset.
// Returns ErrDuplicatePreset if a preset with the same name already exists.
func (s *SQLiteStore) CreatePreset(ctx context.Context, preset *Preset) error {
	query := `INSERT INTO presets (name, content, created_at, updated_at) VALUES (?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		preset.Name,
		preset.Content,
		preset.CreatedAt.UTC().Format(time.RFC3339),
		preset.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicatePreset
		}
		return fmt.Errorf("inserting preset: %w", err)
	}

	s.logger.Debug("created preset", "name", preset.Name)
	return nil
}

// GetPreset retrieves a preset by name.
// Returns ErrNotFound if the preset doesn't exist.
func (s *SQLiteStore) GetPreset(ctx context.Context, name string) (*Preset, error) {
	query := `SELECT name, content, created_at, updated_at FROM presets WHERE name = ?`

	var preset Preset
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, query, name).Scan(&preset.Name, &preset.Content, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying preset: %w", err)
	}

	preset.CreatedAt = parseTime(createdAt)
	preset.UpdatedAt = parseTime(updatedAt)
	return &preset, nil
}

// UpdatePreset replaces a preset's content.
// Returns ErrNotFound if the preset doesn't exist.
func (s *SQLiteStore) UpdatePreset(ctx context.Context, preset *Preset) error {
	query := `UPDATE presets SET content = ?, updated_at = ? WHERE name = ?`

	result, err := s.db.ExecContext(ctx, query, preset.Content, time.Now().UTC().Format(time.RFC3339), preset.Name)
	if err != nil {
		return fmt.Errorf("updating preset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeletePreset removes a preset by name.
// Returns ErrNotFound if the preset doesn't exist.
func (s *SQLiteStore) DeletePreset(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting preset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListPresets returns all presets ordered by creation time.
func (s *SQLiteStore) ListPresets(ctx context.Context) ([]*Preset, error) {
	query := `SELECT name, content, created_at, updated_at FROM presets ORDER BY created_at, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		var preset Preset
		var createdAt, updatedAt string
		if err := rows.Scan(&preset.Name, &preset.Content, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		preset.CreatedAt = parseTime(createdAt)
		preset.UpdatedAt = parseTime(updatedAt)
		presets = append(presets, &preset)
	}

	return presets, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for scanRoom
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanRoom(row scanner) (*Room, error) {
	var room Room
	var memberIDs, memberNames, messages string
	var busy int
	var createdAt, updatedAt string

	err := row.Scan(
		&room.Name,
		&room.OwnerID,
		&room.OwnerName,
		&room.PresetName,
		&room.PresetContent,
		&room.Visibility,
		&memberIDs,
		&memberNames,
		&room.ModelID,
		&room.Provider,
		&busy,
		&room.LastQuotedMessageID,
		&messages,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning room: %w", err)
	}

	if err := json.Unmarshal([]byte(memberIDs), &room.MemberIDs); err != nil {
		return nil, fmt.Errorf("decoding member ids: %w", err)
	}
	if err := json.Unmarshal([]byte(memberNames), &room.MemberNames); err != nil {
		return nil, fmt.Errorf("decoding member names: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &room.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}

	room.Busy = busy != 0
	room.CreatedAt = parseTime(createdAt)
	room.UpdatedAt = parseTime(updatedAt)
	return &room, nil
}

// encodeRoomLists marshals the room's slice fields into JSON columns.
// nil slices are stored as empty lists so decoding always round-trips.
func encodeRoomLists(room *Room) (memberIDs, memberNames, messages string, err error) {
	ids, err := json.Marshal(emptyIfNil(room.MemberIDs))
	if err != nil {
		return "", "", "", fmt.Errorf("encoding member ids: %w", err)
	}
	names, err := json.Marshal(emptyIfNil(room.MemberNames))
	if err != nil {
		return "", "", "", fmt.Errorf("encoding member names: %w", err)
	}
	msgs := room.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return "", "", "", fmt.Errorf("encoding messages: %w", err)
	}
	return string(ids), string(names), string(encoded), nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
