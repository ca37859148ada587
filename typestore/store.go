// Package typestore holds the fully-qualified-name keyed dictionary of
// message descriptors that the hash generators read from. Lookups and
// mutations are safe for concurrent use.
package typestore

import (
	"sync"

	"github.com/ternaris-go/typesys/diag"
	"github.com/ternaris-go/typesys/msgdef"
)

// Store is an in-memory FQN -> Message dictionary, guarded by a read-write
// mutex so readers (the hash generators) never block each other.
type Store struct {
	mu    sync.RWMutex
	types map[string]msgdef.Message
}

// New returns an empty Store.
func New() *Store {
	return &Store{types: make(map[string]msgdef.Message)}
}

// Insert adds or replaces every entry of dict, overwriting any existing
// descriptor with the same typename.
func (s *Store) Insert(dict msgdef.Dictionary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, msg := range dict {
		s.types[name] = msg
	}
}

// Get returns the descriptor for typename, or an UnknownType error.
func (s *Store) Get(typename string) (msgdef.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.types[typename]
	if !ok {
		return msgdef.Message{}, diag.NewUnknownType(typename)
	}
	return msg, nil
}

// Names returns every typename currently registered, in no particular
// order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	return names
}

// Len reports how many types are registered.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.types)
}
