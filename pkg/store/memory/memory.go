// Package memory provides a map backed store.Store for tests, the terminal
// editor and single process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-userfields/pkg/store"
)

type metaKey struct {
	entityID int64
	key      string
}

// Store is safe for concurrent use. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	options map[string]string
	meta    map[metaKey]string
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		options: make(map[string]string),
		meta:    make(map[metaKey]string),
	}
}

func (s *Store) Option(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.options[name]
	return value, ok, nil
}

func (s *Store) SetOption(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.options[name] = value
	return nil
}

func (s *Store) Meta(_ context.Context, entityID int64, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.meta[metaKey{entityID: entityID, key: key}]
	return value, ok, nil
}

func (s *Store) SetMeta(_ context.Context, entityID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[metaKey{entityID: entityID, key: key}] = value
	return nil
}
