// Package rules holds the ordered keyword rule list and mirrors it to storage.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"keyword_notify/internal/model"
	"keyword_notify/internal/storage"
)

// StorageKey is the key the rule list is persisted under.
const StorageKey = "keyword_notify.rules"

// ErrNotFound is returned for an index outside the rule list.
var ErrNotFound = errors.New("rule not found")

// ErrChanged is returned by RemoveIf when the rule at the index no longer
// satisfies the caller's check.
var ErrChanged = errors.New("rule changed")

// Store is the in-memory rule list. Every mutation persists the whole list.
type Store struct {
	mu    sync.Mutex
	kv    storage.Storage
	rules []model.Rule
}

// NewStore creates an empty Store backed by kv.
func NewStore(kv storage.Storage) *Store {
	return &Store{kv: kv}
}

// Load replaces the in-memory list with the persisted one.
// A missing key yields an empty list.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.mu.Lock()
		s.rules = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	var loaded []model.Rule
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}
	for i := range loaded {
		if loaded[i].ScopeMode == "" {
			loaded[i].ScopeMode = model.ScopeDeny
		}
	}

	s.mu.Lock()
	s.rules = loaded
	s.mu.Unlock()
	return nil
}

// List returns a copy of the rules in order.
func (s *Store) List() []model.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Rule, len(s.rules))
	for i, r := range s.rules {
		r.ScopeIDs = slices.Clone(r.ScopeIDs)
		out[i] = r
	}
	return out
}

// Patterns returns the pattern of every rule, including empty ones.
func (s *Store) Patterns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Pattern
	}
	return out
}

// Add appends a rule and returns its index.
func (s *Store) Add(ctx context.Context, r model.Rule) (int, error) {
	if r.ScopeMode == "" {
		r.ScopeMode = model.ScopeDeny
	}
	if r.ScopeIDs == nil {
		r.ScopeIDs = []string{}
	}
	var idx int
	err := s.mutate(ctx, func(rules []model.Rule) ([]model.Rule, error) {
		idx = len(rules)
		return append(rules, r), nil
	})
	return idx, err
}

// SetPattern replaces the pattern of the rule at idx.
func (s *Store) SetPattern(ctx context.Context, idx int, pattern string) error {
	return s.mutate(ctx, func(rules []model.Rule) ([]model.Rule, error) {
		if idx < 0 || idx >= len(rules) {
			return nil, ErrNotFound
		}
		rules[idx].Pattern = pattern
		return rules, nil
	})
}

// SetScope replaces the scope mode and ID list of the rule at idx.
func (s *Store) SetScope(ctx context.Context, idx int, mode model.ScopeMode, ids []string) error {
	if mode != model.ScopeAllow && mode != model.ScopeDeny {
		return fmt.Errorf("invalid scope mode %q", mode)
	}
	return s.mutate(ctx, func(rules []model.Rule) ([]model.Rule, error) {
		if idx < 0 || idx >= len(rules) {
			return nil, ErrNotFound
		}
		rules[idx].ScopeMode = mode
		rules[idx].ScopeIDs = append([]string{}, ids...)
		return rules, nil
	})
}

// Remove deletes the rule at idx and returns it.
func (s *Store) Remove(ctx context.Context, idx int) (model.Rule, error) {
	var removed model.Rule
	err := s.mutate(ctx, func(rules []model.Rule) ([]model.Rule, error) {
		if idx < 0 || idx >= len(rules) {
			return nil, ErrNotFound
		}
		removed = rules[idx]
		return slices.Delete(rules, idx, idx+1), nil
	})
	return removed, err
}

// RemoveIf deletes the rule at idx only if expected reports it is still the
// rule the caller expects.
func (s *Store) RemoveIf(ctx context.Context, idx int, expected func(model.Rule) bool) (model.Rule, error) {
	var removed model.Rule
	err := s.mutate(ctx, func(rules []model.Rule) ([]model.Rule, error) {
		if idx < 0 || idx >= len(rules) {
			return nil, ErrNotFound
		}
		if !expected(rules[idx]) {
			return nil, ErrChanged
		}
		removed = rules[idx]
		return slices.Delete(rules, idx, idx+1), nil
	})
	return removed, err
}

// mutate applies fn to a copy of the list and swaps it in once persisted.
func (s *Store) mutate(ctx context.Context, fn func([]model.Rule) ([]model.Rule, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(slices.Clone(s.rules))
	if err != nil {
		return err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	s.rules = next
	return nil
}
