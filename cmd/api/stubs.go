package main

import (
	"context"
	"sort"
	"sync"

	"designkit/internal/types"
)

// memProjectStore is the in-memory project store used when no database is
// configured (local mode). It mirrors the repository semantics: direct
// counts, not-found on missing deletes.
type memProjectStore struct {
	mu       sync.RWMutex
	projects map[string]types.Project
}

func newMemProjectStore() *memProjectStore {
	return &memProjectStore{projects: make(map[string]types.Project)}
}

func (s *memProjectStore) CountByUser(_ context.Context, userID string) (int, error) {
	if userID == "" {
		userID = types.AnonymousUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.projects {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *memProjectStore) Create(_ context.Context, p *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = *p
	return nil
}

func (s *memProjectStore) Delete(_ context.Context, userID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return types.NewAppError(types.ErrCodeNotFoundProject, "project not found", nil)
	}
	delete(s.projects, projectID)
	return nil
}

func (s *memProjectStore) ListByUser(_ context.Context, userID string) ([]types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Project, 0)
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
