/*
Package store holds the in-memory user records and cosmetic catalog shared by
every component of the hub.

This file implements the whole-table snapshot persistence contract: load once
at boot, save on a fixed interval and on shutdown. A missing or unparseable
snapshot means "no prior history", never a startup failure.
*/
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"prismhub/internal/pkg/logx"
)

// Snapshot is the on-disk representation of the store.
type Snapshot struct {
	Cosmetics []Cosmetic               `json:"cosmetics"`
	Users     map[uuid.UUID]UserRecord `json:"users"`
}

// Export captures the current store contents. The transient connected flag
// is excluded from serialization by its JSON tag.
func (s *Store) Export() Snapshot {
	return Snapshot{
		Cosmetics: s.Cosmetics(),
		Users:     s.Users(),
	}
}

// Restore replaces the store contents with snap. Restored records always
// start disconnected.
func (s *Store) Restore(snap Snapshot) {
	s.usersMu.Lock()
	s.users = make(map[uuid.UUID]*UserRecord, len(snap.Users))
	for id, u := range snap.Users {
		record := u
		record.Connected = false
		s.users[id] = &record
	}
	s.usersMu.Unlock()

	s.cosmeticsMu.Lock()
	s.cosmetics = make([]Cosmetic, len(snap.Cosmetics))
	copy(s.cosmetics, snap.Cosmetics)
	s.cosmeticsMu.Unlock()
}

// LoadSnapshot reads the snapshot file at path. Absent or corrupt files
// yield an empty snapshot and a log entry, not an error.
func LoadSnapshot(path string) Snapshot {
	empty := Snapshot{Users: make(map[uuid.UUID]UserRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logx.Warn("Snapshot file unreadable, starting empty", "path", path, "error", err.Error())
		}
		return empty
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logx.Warn("Snapshot file unparseable, starting empty", "path", path, "error", err.Error())
		return empty
	}

	if snap.Users == nil {
		snap.Users = make(map[uuid.UUID]UserRecord)
	}
	return snap
}

// SaveSnapshot writes snap to path atomically (temp file + rename).
func SaveSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// RunSnapshotter persists the store every interval until ctx is cancelled,
// then writes one final snapshot. A failed final write is logged and
// abandoned; shutdown must not hang on persistence.
func (s *Store) RunSnapshotter(ctx context.Context, path string, interval time.Duration) {
	logger := logx.Logger().With().Str("component", "snapshotter").Str("path", path).Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := SaveSnapshot(path, s.Export()); err != nil {
				logger.Error().Err(err).Msg("Periodic snapshot failed")
			}

		case <-ctx.Done():
			if err := SaveSnapshot(path, s.Export()); err != nil {
				logger.Error().Err(err).Msg("Final snapshot failed")
			} else {
				logger.Info().Msg("Final snapshot written")
			}
			return
		}
	}
}
