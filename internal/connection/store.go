package connection

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// #region errors
// ErrNotFound is returned when a connection ID is not in the store.
var ErrNotFound = fmt.Errorf("connection not found")

// #endregion errors

// #region store
// Store holds the resident connection population. Reads take the shared lock
// and touch only in-memory data, so the fast path never waits on I/O.
// Mutations go through Mutate, which holds the exclusive lock for the whole
// copy-validate-commit cycle, giving a single-writer discipline per entity.
type Store struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{conns: make(map[uuid.UUID]*Connection)}
}

// #endregion store

// #region get
// Get returns a copy of the connection, so callers never observe torn writes.
func (s *Store) Get(id uuid.UUID) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// #endregion get

// #region put
// Put inserts or replaces a connection.
func (s *Store) Put(c Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc := c
	s.conns[c.ID] = &cc
}

// #endregion put

// #region delete
// Delete removes a connection. Returns ErrNotFound if absent.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return ErrNotFound
	}
	delete(s.conns, id)
	return nil
}

// #endregion delete

// #region mutate
// Mutate runs fn against a scratch copy of the connection under the write
// lock. The copy replaces the stored value only when fn returns nil, so a
// failed mutation leaves the stored connection bit-for-bit unchanged.
func (s *Store) Mutate(id uuid.UUID, fn func(c *Connection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.conns[id]
	if !ok {
		return ErrNotFound
	}
	scratch := *cur
	if err := fn(&scratch); err != nil {
		return err
	}
	s.conns[id] = &scratch
	return nil
}

// #endregion mutate

// #region iterate
// ForEach visits a copy of every connection under the read lock. fn must not
// call back into the store's write methods.
func (s *Store) ForEach(fn func(c Connection)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		fn(*c)
	}
}

// FindByEndpoints returns the first connection matching (source, target,
// kind), if any.
func (s *Store) FindByEndpoints(source, target string, kind Kind) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		if c.Source == source && c.Target == target && c.Kind == kind {
			return *c, true
		}
	}
	return Connection{}, false
}

// Len returns the population size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// IDs returns all connection IDs in unspecified order.
func (s *Store) IDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	return ids
}

// #endregion iterate

// #region decay-all
// ApplyDecayAll runs one decay tick over the whole population and returns
// how many connections actually changed.
func (s *Store) ApplyDecayAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, c := range s.conns {
		before := c.Confidence
		c.ApplyDecay()
		if c.Confidence != before {
			changed++
		}
	}
	return changed
}

// #endregion decay-all
