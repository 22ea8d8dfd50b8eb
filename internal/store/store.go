// Package store provides the key-value persistence layer. Every entity
// collection is one JSON-encoded array stored under a fixed key, exactly
// mirroring the layout the original browser client persisted, so a backend
// pointed at existing data keeps working without migration.
package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Storage key namespace. The prefix and key names are part of the external
// contract and must not change.
const (
	Prefix = "autonow_db_"

	KeyUsers          = Prefix + "users"
	KeySessions       = Prefix + "sessions"
	KeyPasswordResets = Prefix + "password_resets"
	KeyConfig         = Prefix + "config"
	KeyDrivers        = Prefix + "drivers"
	KeyDriverSessions = Prefix + "driver_sessions"
	KeyRides          = Prefix + "rides"

	// Identity mirror keys live outside the prefixed namespace. They hold a
	// password-stripped copy of the currently authenticated identity.
	KeyAuthUser   = "auth_user"
	KeyAuthDriver = "auth_driver"
	KeyAdminUser  = "admin_user"
)

// KV is the raw backend contract: opaque string values under string keys.
// Get reports found=false for absent keys rather than an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store wraps a KV backend and serializes all read-modify-write cycles.
// The original client ran on a single-threaded host and needed no locking;
// a server does, and the lock here is the only thing standing between two
// concurrent creates and a clobbered collection.
type Store struct {
	mu sync.Mutex
	kv KV
}

func New(kv KV) *Store { return &Store{kv: kv} }

// Lock acquires the store-wide mutex. Callers performing a read-modify-write
// cycle must hold it across the whole cycle, not just the write.
func (s *Store) Lock()   { s.mu.Lock() }
func (s *Store) Unlock() { s.mu.Unlock() }

// ReadJSON decodes the value under key into out. An absent or empty key
// leaves out untouched, so callers that pass a pointer to an empty slice
// get the "empty collection" default.
func (s *Store) ReadJSON(ctx context.Context, key string, out any) error {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found || raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

// WriteJSON encodes v and stores it under key.
func (s *Store) WriteJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, string(raw))
}

// ReadRaw returns the stored bytes untouched. Used by maintenance code that
// needs to compare persisted state byte for byte.
func (s *Store) ReadRaw(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, key)
}

// Remove deletes the value under key.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.kv.Remove(ctx, key)
}
