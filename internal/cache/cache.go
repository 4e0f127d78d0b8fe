// Package cache holds derived ledger values (balances, card usage, monthly
// summaries) between writes. Entries never expire on a timer; they are removed
// explicitly when a mutation touches the data they were derived from.
package cache

import (
	"fmt"
	"sync"
)

// Aggregate names a kind of derived value
type Aggregate string

const (
	AggregateAccountBalance Aggregate = "account_balance"
	AggregateCardUsage      Aggregate = "card_usage"
	AggregateMonthlySummary Aggregate = "monthly_summary"
)

// Key identifies one cached derived value. EntityID is the account or card id,
// or year*100+month for monthly summaries.
type Key struct {
	Aggregate Aggregate
	UserID    int32
	EntityID  int32
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%d", k.Aggregate, k.UserID, k.EntityID)
}

// MonthEntity encodes a year and month as a Key EntityID
func MonthEntity(year, month int) int32 {
	return int32(year*100 + month)
}

// Target is a store the Invalidator can evict from
type Target interface {
	Bump(userID int32, aggregate Aggregate)
	Delete(key Key) bool
	DeleteUser(userID int32, aggregate Aggregate) []Key
}

// Generation counts the invalidations applied to one user's aggregate.
// A value computed from a ledger read is stored only if the generation
// observed before the read is still current.
type Generation uint64

type generationKey struct {
	userID    int32
	aggregate Aggregate
}

// Store is a concurrency-safe map of derived values of one type
type Store[T any] struct {
	mu          sync.RWMutex
	items       map[Key]T
	generations map[generationKey]Generation
	hits        uint64
	misses      uint64
	rejected    uint64
}

// NewStore creates an empty Store
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		items:       make(map[Key]T),
		generations: make(map[generationKey]Generation),
	}
}

// Generation returns the current generation of the user's aggregate.
// A nil store always reports zero.
func (s *Store[T]) Generation(userID int32, aggregate Aggregate) Generation {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[generationKey{userID, aggregate}]
}

// Bump advances the generation of the user's aggregate so values computed
// from reads that started earlier are no longer stored
func (s *Store[T]) Bump(userID int32, aggregate Aggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[generationKey{userID, aggregate}]++
}

// SetIfCurrent stores a value only when no invalidation of its aggregate for
// the user happened since gen was taken. It reports whether the value was stored.
func (s *Store[T]) SetIfCurrent(key Key, value T, gen Generation) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[generationKey{key.UserID, key.Aggregate}] != gen {
		s.rejected++
		return false
	}
	s.items[key] = value
	return true
}

// Get retrieves a value from the store
func (s *Store[T]) Get(key Key) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[key]
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return v, ok
}

// Set stores a value
func (s *Store[T]) Set(key Key, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Delete removes a key and reports whether it was present
func (s *Store[T]) Delete(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// DeleteUser removes every entry of the aggregate owned by the user
func (s *Store[T]) DeleteUser(userID int32, aggregate Aggregate) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Key
	for k := range s.items {
		if k.UserID == userID && k.Aggregate == aggregate {
			delete(s.items, k)
			removed = append(removed, k)
		}
	}
	return removed
}

// Len returns the number of cached entries
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Stats returns hit and miss counters
func (s *Store[T]) Stats() (hits, misses uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits, s.misses
}

// Rejected returns how many stale values SetIfCurrent refused
func (s *Store[T]) Rejected() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rejected
}
