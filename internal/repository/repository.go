package repository

import (
	"errors"
	"time"

	"linkdrop/internal/model"
)

// ErrNotFound is returned when a code has no entry.
var ErrNotFound = errors.New("entry not found")

// Repository is the mapping store: a concurrency-safe table of entries
// shared by the HTTP handlers and the expiry reaper. Every operation is
// atomic at the granularity of a single entry; no cross-entry
// transactions are offered or needed.
type Repository interface {
	// Upsert inserts a new entry with created_at = now and hits = 0, or
	// replaces an existing entry with the same code. Replacing discards
	// the prior hit count on purpose.
	Upsert(code, target string, now time.Time) error

	// Get returns the entry for a code regardless of TTL status.
	// TTL evaluation belongs to the caller.
	Get(code string) (*model.Entry, error)

	// IncrementHits atomically adds 1 to the entry's hit counter.
	// Returns ErrNotFound if the code is absent.
	IncrementHits(code string) error

	// FindExpired returns all entries with now - created_at > ttl,
	// in no particular order.
	FindExpired(now time.Time, ttl time.Duration) ([]model.Entry, error)

	// Delete removes the entry. Deleting an absent code is not an error.
	Delete(code string) error

	// List returns all entries ordered by created_at descending,
	// optionally filtered by substring match on code or target.
	List(filter string) ([]model.Entry, error)

	Close() error
}
