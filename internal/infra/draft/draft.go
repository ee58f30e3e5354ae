// Package draft stores autosaved entry-form drafts in memory. Drafts are
// per (user, date), disposable, and never reach the database: losing one
// costs a user a re-type, not data.
package draft

import (
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/cache"
)

// Store keeps drafts keyed by user and entry date, expiring them after a
// TTL so abandoned forms do not accumulate.
type Store struct {
	cache *cache.InMemory[*domain.Draft]
}

// NewStore creates a draft store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: cache.New[*domain.Draft](ttl)}
}

func key(userID, date string) string {
	return userID + ":" + date
}

// Get returns the draft for a user and date, if one is still live.
func (s *Store) Get(userID, date string) (*domain.Draft, bool) {
	return s.cache.Get(key(userID, date))
}

// Put saves or replaces a draft, resetting its TTL.
func (s *Store) Put(userID string, d *domain.Draft) {
	s.cache.Set(key(userID, d.Data), d)
}

// Delete discards the draft for a user and date. Called after a successful
// submit so a stale draft never resurrects an already-saved form.
func (s *Store) Delete(userID, date string) {
	s.cache.Delete(key(userID, date))
}
