package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ugaemi/bubblewars-server/internal/account"
)

// MemoryStore implements AccountStore and MatchStore in process memory. It is
// used when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
	matches  []Match
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]account.Account)}
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (s *MemoryStore) Create(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.ID]; ok {
		return ErrDuplicate
	}
	s.accounts[acc.ID] = *acc
	return nil
}

func (s *MemoryStore) UpdateLastLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		acc.LastLoginAt = time.Now()
		s.accounts[id] = acc
	}
	return nil
}

func (s *MemoryStore) UpdateNickname(_ context.Context, id string, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		acc.Nickname = nickname
		s.accounts[id] = acc
	}
	return nil
}

func (s *MemoryStore) SaveMatch(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.matches {
		if existing.ID == m.ID {
			return ErrDuplicate
		}
	}
	s.matches = append(s.matches, *m)
	return nil
}

func (s *MemoryStore) FindMatch(_ context.Context, id string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.matches {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) RecentMatches(_ context.Context, limit int) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Match, 0, len(s.matches))
	for i := range s.matches {
		m := s.matches[i]
		out = append(out, &m)
	}
	slices.SortStableFunc(out, func(a, b *Match) int {
		return b.EndedAt.Compare(a.EndedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
