package rules

import (
	"context"
	"sync"
)

// MemoryStore keeps rules in a map. It backs the alert manager when no
// database is configured; rules then live only for the process lifetime.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]*AlertRule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[string]*AlertRule)}
}

func (s *MemoryStore) UpsertRule(_ context.Context, r *AlertRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rules[r.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRule(_ context.Context, id string) (*AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rules[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, ErrRuleNotFound
}

func (s *MemoryStore) ListRules(_ context.Context) ([]*AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}
