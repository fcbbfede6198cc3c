// Package conversation keeps per-conversation turn history in memory.
package conversation

import (
	"context"
	"slices"
	"sync"

	"github.com/cloo-solutions/grootai/internal/domain"
)

// Store maps conversation IDs to their turns. It is process-local and safe
// for concurrent use.
type Store struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

func NewStore() *Store {
	return &Store{turns: make(map[string][]domain.Turn)}
}

// Set replaces the history of id.
func (s *Store) Set(id string, turns []domain.Turn) error {
	if id == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "conversation id is required")
	}
	if err := domain.ValidateTurns(turns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[id] = slices.Clone(turns)
	return nil
}

// Append adds turns to the end of the history of id, creating it if needed.
func (s *Store) Append(id string, turns ...domain.Turn) error {
	if id == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "conversation id is required")
	}
	if err := domain.ValidateTurns(turns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[id] = append(s.turns[id], turns...)
	return nil
}

// Get returns a copy of the history of id.
func (s *Store) Get(id string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.turns[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return slices.Clone(turns), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(s.turns, id)
	return nil
}

// Handle returns a handle reading the live history of id.
func (s *Store) Handle(id string) *Handle {
	return &Handle{id: id, store: s}
}

// Handle is what a tool call receives in place of global conversation state.
type Handle struct {
	id    string
	store *Store
	fixed []domain.Turn
}

// Static returns a handle over a fixed history that is not stored anywhere.
func Static(turns []domain.Turn) *Handle {
	if turns == nil {
		turns = []domain.Turn{}
	}
	return &Handle{fixed: slices.Clone(turns)}
}

func (h *Handle) ID() string {
	return h.id
}

// Turns returns the conversation so far. A handle for an unknown
// conversation yields NOT_FOUND.
func (h *Handle) Turns(ctx context.Context) ([]domain.Turn, error) {
	if h.store == nil {
		return slices.Clone(h.fixed), nil
	}
	return h.store.Get(h.id)
}
