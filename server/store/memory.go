package store

import (
	"context"
	"sync"

	"ahadchat/server/model"
)

// MemoryStore holds the list in process memory. It backs sessions whose
// remote store has no credentials, so its contents die with the session.
type MemoryStore struct {
	mu   sync.Mutex
	msgs []model.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, len(s.msgs))
	copy(out, s.msgs)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, msgs []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = make([]model.Message, len(msgs))
	copy(s.msgs, msgs)
	return nil
}
