package store

import (
	"context"
	"slices"
	"sync"

	"github.com/tatianab/langquest/internal/models"
)

type memoryKey struct{ profile, language string }

// MemoryStore keeps deep copies of saves in memory.
type MemoryStore struct {
	mu    sync.Mutex
	saves map[memoryKey]*models.GameState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saves: make(map[memoryKey]*models.GameState)}
}

func (s *MemoryStore) Load(ctx context.Context, profile, language string) (*models.GameState, bool, error) {
	if err := checkKey(profile, language); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.saves[memoryKey{profile, language}]
	if !ok {
		return nil, false, nil
	}
	out := state.Clone()
	out.Upgrade()
	return out, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, profile, language, module string, state *models.GameState) error {
	if err := checkKey(profile, language); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c := state.Clone()
	c.Module = module
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves[memoryKey{profile, language}] = c
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]SaveRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]SaveRef, 0, len(s.saves))
	for k, st := range s.saves {
		refs = append(refs, SaveRef{Profile: k.profile, Language: k.language, Module: st.Module, UpdatedAt: st.UpdatedAt})
	}
	slices.SortFunc(refs, compareRefs)
	return refs, nil
}

func (s *MemoryStore) Close() error { return nil }
