package state

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// GlobalScope is the sync scope of application-wide commands.
const GlobalScope = "global"

// GuildScope names the sync scope of a guild's commands.
func GuildScope(guildID string) string {
	return "guild:" + guildID
}

// SyncRecord is the last successful command sync for a scope.
type SyncRecord struct {
	Scope         string
	ApplicationID string
	SchemaHash    string
	CommandCount  int
	SyncedAt      time.Time
}

// Store persists command sync records so unchanged schemas are not re-uploaded.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the record for scope; ok is false when the scope never synced.
func (s *Store) Get(ctx context.Context, scope string) (rec SyncRecord, ok bool, err error) {
	if scope == "" {
		return SyncRecord{}, false, fmt.Errorf("scope is empty")
	}

	var syncedAt string
	err = s.db.QueryRowContext(ctx,
		"SELECT scope, application_id, schema_hash, command_count, synced_at FROM command_sync WHERE scope = ?;",
		scope,
	).Scan(&rec.Scope, &rec.ApplicationID, &rec.SchemaHash, &rec.CommandCount, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncRecord{}, false, nil
	}
	if err != nil {
		return SyncRecord{}, false, fmt.Errorf("read command sync: %w", err)
	}

	rec.SyncedAt, err = time.Parse(time.RFC3339Nano, syncedAt)
	if err != nil {
		return SyncRecord{}, false, fmt.Errorf("stored synced_at for scope=%q: %w", scope, err)
	}
	return rec, true, nil
}

// Put upserts rec. A zero SyncedAt is stamped with the current time.
func (s *Store) Put(ctx context.Context, rec SyncRecord) error {
	if rec.Scope == "" {
		return fmt.Errorf("scope is empty")
	}
	if rec.SyncedAt.IsZero() {
		rec.SyncedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO command_sync(scope, application_id, schema_hash, command_count, synced_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(scope) DO UPDATE SET
  application_id = excluded.application_id,
  schema_hash = excluded.schema_hash,
  command_count = excluded.command_count,
  synced_at = excluded.synced_at;
`, rec.Scope, rec.ApplicationID, rec.SchemaHash, rec.CommandCount, rec.SyncedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert command sync: %w", err)
	}
	return nil
}

// Unchanged reports whether scope was last synced with the same application
// and schema hash.
func (s *Store) Unchanged(ctx context.Context, scope, applicationID, hash string) (bool, error) {
	rec, ok, err := s.Get(ctx, scope)
	if err != nil || !ok {
		return false, err
	}
	return rec.ApplicationID == applicationID && rec.SchemaHash == hash, nil
}

// SchemaHash returns the hex BLAKE3 digest of v's JSON encoding.
func SchemaHash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
