package memory

import (
	"context"
	"sync"

	"github.com/tendant/admin-columns/pkg/admincolumns"
)

// Store implements admincolumns.OptionStore using in-memory storage
type Store struct {
	mu      sync.RWMutex
	options map[string][]byte
}

// New creates a new in-memory option store
func New() *Store {
	return &Store{
		options: make(map[string][]byte),
	}
}

func (s *Store) GetOption(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.options[name]
	if !exists {
		return nil, admincolumns.ErrOptionNotFound
	}

	// Return a copy to prevent external modifications
	return append([]byte(nil), value...), nil
}

func (s *Store) SetOption(ctx context.Context, name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid external modifications
	s.options[name] = append([]byte(nil), value...)
	return nil
}
