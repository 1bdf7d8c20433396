// Package memory implements an in-process key/value storage.
package memory

import (
	"context"
	"sync"
)

type Storage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewStorage() *Storage {
	return &Storage{items: make(map[string]string)}
}

func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
