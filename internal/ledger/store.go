// Package ledger owns the per-user billing records. State is process-lifetime
// only: a restart starts from an empty ledger.
package ledger

import (
	"sync"

	"inbox-cleaner-api/internal/domain/billing"
)

// Store is an in-memory keyed store with per-key write serialization.
// Operations on distinct user ids never block each other; read-modify-writes
// on the same user id are serialized so no update is lost.
type Store struct {
	mu    sync.RWMutex
	data  map[string]billing.UserBillingRecord
	locks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		data:  make(map[string]billing.UserBillingRecord),
		locks: make(map[string]*sync.Mutex),
	}
}

// Get returns a copy of the user's record, or a fresh default record if the
// user has never been written. Synthesizing the default does not create a
// stored entry.
func (s *Store) Get(userID string) billing.UserBillingRecord {
	s.mu.RLock()
	rec, ok := s.data[userID]
	s.mu.RUnlock()
	if !ok {
		return billing.NewUserBillingRecord()
	}
	return rec.Clone()
}

// Upsert applies a pure mutation over the current record (default if absent)
// and atomically replaces it. The mutation must not perform I/O: it runs while
// the user's key lock is held.
func (s *Store) Upsert(userID string, mutate func(billing.UserBillingRecord) billing.UserBillingRecord) billing.UserBillingRecord {
	lock := s.keyLock(userID)
	lock.Lock()
	defer lock.Unlock()

	updated := mutate(s.Get(userID))

	s.mu.Lock()
	s.data[userID] = updated
	s.mu.Unlock()

	return updated.Clone()
}

func (s *Store) keyLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
