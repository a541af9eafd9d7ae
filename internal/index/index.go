package index

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dchrnv/neurograph-core/internal/connection"
)

// #region index
// Index is the bootstrap reflex lookup: a quantized state key mapped to a
// connection ID, resolved against the resident store. Deterministic for a
// given state encoding and backed by nothing but memory, so the fast path
// never waits.
type Index struct {
	mu    sync.RWMutex
	codec VectorCodec
	store *connection.Store
	byKey map[string]uuid.UUID
}

// New creates an empty index over the store.
func New(store *connection.Store, codec VectorCodec) *Index {
	return &Index{
		codec: codec,
		store: store,
		byKey: make(map[string]uuid.UUID),
	}
}

// Bind associates a state region (via its quantized key) with a connection.
func (ix *Index) Bind(state []float32, connID uuid.UUID) {
	key := ix.codec.StateKey(state)
	ix.mu.Lock()
	ix.byKey[key] = connID
	ix.mu.Unlock()
}

// Unbind removes the binding for a state region.
func (ix *Index) Unbind(state []float32) {
	key := ix.codec.StateKey(state)
	ix.mu.Lock()
	delete(ix.byKey, key)
	ix.mu.Unlock()
}

// Len returns the number of bound regions.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byKey)
}

// #endregion index

// #region find-reflex
// FindReflex resolves a candidate connection for the state, if any binding
// exists and the connection is still resident.
func (ix *Index) FindReflex(state []float32) (connection.Connection, bool) {
	key := ix.codec.StateKey(state)
	ix.mu.RLock()
	id, ok := ix.byKey[key]
	ix.mu.RUnlock()
	if !ok {
		return connection.Connection{}, false
	}
	return ix.store.Get(id)
}

// #endregion find-reflex
