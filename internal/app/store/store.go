/*
Package store holds the in-memory user records and cosmetic catalog shared by
every component of the hub.

This file defines the Store struct: one mutex per logical table, pure
in-memory critical sections, and the cosmetic assignment transaction. No
external I/O ever happens while a store lock is held.
*/
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Errors returned by the cosmetic assignment transaction. Callers translate
// these into self-addressed protocol errors; the connection stays open.
var (
	ErrNoCosmetics      = errors.New("user has no cosmetics record")
	ErrCosmeticNotFound = errors.New("cosmetic not found")
	ErrNotEntitled      = errors.New("user lacks required flags for cosmetic")
)

// UserRecord is the per-identity state tracked by the hub. Connected is
// transient session state and is never persisted.
type UserRecord struct {
	Flags          Flags   `json:"flags"`
	EnabledPrefix  *uint8  `json:"enabled_prefix,omitempty"`
	Connected      bool    `json:"-"`
	LinkedDiscord  *string `json:"linked_discord,omitempty"`
	IrcBlacklisted bool    `json:"irc_blacklisted,omitempty"`
}

// Cosmetic is one catalog entry. IDs are unique within the catalog;
// inserting a duplicate id replaces the existing entry in place.
type Cosmetic struct {
	ID            uint8  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Data          string `json:"data"`
	Type          string `json:"type"`
	RequiredFlags Flags  `json:"required_flags"`
}

// Store guards the user table and the cosmetic catalog with one mutex each.
// When both are needed the users lock is always taken first.
type Store struct {
	usersMu sync.Mutex
	users   map[uuid.UUID]*UserRecord

	cosmeticsMu sync.Mutex
	cosmetics   []Cosmetic
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users: make(map[uuid.UUID]*UserRecord),
	}
}

// GetUser returns a copy of the record for id, if one exists.
func (s *Store) GetUser(id uuid.UUID) (UserRecord, bool) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return UserRecord{}, false
	}
	return *u, true
}

// MutateUser applies fn to the record for id, creating a default record
// first if none exists.
func (s *Store) MutateUser(id uuid.UUID, fn func(*UserRecord)) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	fn(s.getOrInsert(id))
}

// getOrInsert must be called with usersMu held.
func (s *Store) getOrInsert(id uuid.UUID) *UserRecord {
	u, ok := s.users[id]
	if !ok {
		u = &UserRecord{}
		s.users[id] = u
	}
	return u
}

// SetConnected flips the transient connected flag for id, creating the
// record on first reference.
func (s *Store) SetConnected(id uuid.UUID, connected bool) {
	s.MutateUser(id, func(u *UserRecord) {
		u.Connected = connected
	})
}

// IsConnected reports whether id currently has a live session.
func (s *Store) IsConnected(id uuid.UUID) bool {
	u, ok := s.GetUser(id)
	return ok && u.Connected
}

// IsBlacklisted reports whether id is barred from the chat relay.
func (s *Store) IsBlacklisted(id uuid.UUID) bool {
	u, ok := s.GetUser(id)
	return ok && u.IrcBlacklisted
}

// ConnectedCount returns the number of records with a live session.
func (s *Store) ConnectedCount() int {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	count := 0
	for _, u := range s.users {
		if u.Connected {
			count++
		}
	}
	return count
}

// BlacklistedCount returns the number of relay-blacklisted records.
func (s *Store) BlacklistedCount() int {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	count := 0
	for _, u := range s.users {
		if u.IrcBlacklisted {
			count++
		}
	}
	return count
}

// UserCount returns the number of known user records.
func (s *Store) UserCount() int {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return len(s.users)
}

// Users returns a copy of the user table.
func (s *Store) Users() map[uuid.UUID]UserRecord {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	out := make(map[uuid.UUID]UserRecord, len(s.users))
	for id, u := range s.users {
		out[id] = *u
	}
	return out
}

// Blacklist returns the identities currently barred from the chat relay.
func (s *Store) Blacklist() []uuid.UUID {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	var out []uuid.UUID
	for id, u := range s.users {
		if u.IrcBlacklisted {
			out = append(out, id)
		}
	}
	return out
}

// ApplyCosmetic runs the cosmetic assignment transaction for userID as a
// single critical section: validate the request against the record and the
// catalog, then mutate EnabledPrefix. A nil cosmeticID clears the prefix
// unconditionally. This path never creates a user record.
func (s *Store) ApplyCosmetic(userID uuid.UUID, cosmeticID *uint8) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNoCosmetics
	}

	if cosmeticID == nil {
		u.EnabledPrefix = nil
		return nil
	}

	cosmetic, ok := s.findCosmetic(*cosmeticID)
	if !ok {
		return ErrCosmeticNotFound
	}

	if !u.Flags.Contains(cosmetic.RequiredFlags) {
		return ErrNotEntitled
	}

	id := *cosmeticID
	u.EnabledPrefix = &id
	return nil
}

// findCosmetic looks up a catalog entry by id under the catalog lock.
func (s *Store) findCosmetic(id uint8) (Cosmetic, bool) {
	s.cosmeticsMu.Lock()
	defer s.cosmeticsMu.Unlock()

	for _, c := range s.cosmetics {
		if c.ID == id {
			return c, true
		}
	}
	return Cosmetic{}, false
}

// Cosmetics returns a copy of the catalog in insertion order.
func (s *Store) Cosmetics() []Cosmetic {
	s.cosmeticsMu.Lock()
	defer s.cosmeticsMu.Unlock()

	out := make([]Cosmetic, len(s.cosmetics))
	copy(out, s.cosmetics)
	return out
}

// CosmeticCount returns the catalog size.
func (s *Store) CosmeticCount() int {
	s.cosmeticsMu.Lock()
	defer s.cosmeticsMu.Unlock()
	return len(s.cosmetics)
}

// PutCosmetic inserts c into the catalog. An existing entry with the same id
// is replaced in place, keeping catalog order stable.
func (s *Store) PutCosmetic(c Cosmetic) {
	s.cosmeticsMu.Lock()
	defer s.cosmeticsMu.Unlock()

	for i := range s.cosmetics {
		if s.cosmetics[i].ID == c.ID {
			s.cosmetics[i] = c
			return
		}
	}
	s.cosmetics = append(s.cosmetics, c)
}

// RemoveCosmetic deletes the catalog entry with the given id, reporting
// whether one was present.
func (s *Store) RemoveCosmetic(id uint8) bool {
	s.cosmeticsMu.Lock()
	defer s.cosmeticsMu.Unlock()

	for i := range s.cosmetics {
		if s.cosmetics[i].ID == id {
			s.cosmetics = append(s.cosmetics[:i], s.cosmetics[i+1:]...)
			return true
		}
	}
	return false
}
