package memory

import (
	"context"
	"sync"

	"cerdas-quiz-service/internal/domain"
)

// HandoffStore is an in-memory implementation of app.HandoffStore.
type HandoffStore struct {
	mu      sync.RWMutex
	results map[string]domain.QuizResult
	saved   map[string]bool
}

func NewHandoffStore() *HandoffStore {
	return &HandoffStore{
		results: make(map[string]domain.QuizResult),
		saved:   make(map[string]bool),
	}
}

func (s *HandoffStore) SaveResult(_ context.Context, key string, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[key] = result
	return nil
}

func (s *HandoffStore) Result(_ context.Context, key string) (domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[key]
	if !ok {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (s *HandoffStore) MarkSaved(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[key] = true
	return nil
}

func (s *HandoffStore) Saved(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saved[key], nil
}

func (s *HandoffStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, key)
	delete(s.saved, key)
	return nil
}
