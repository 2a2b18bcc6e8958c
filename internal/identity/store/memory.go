package store

import (
	"context"
	"sync"

	"veriledger/internal/identity/models"
	"veriledger/pkg/domain"
	"veriledger/pkg/platform/sentinel"
)

// InMemory implements Store with process-local maps. The default for tests
// and single-node deployments; use PostgresStore for durability.
type InMemory struct {
	mu         sync.RWMutex
	bindings   map[domain.WalletID]models.Binding
	registries []string
}

func NewInMemory() *InMemory {
	return &InMemory{
		bindings: make(map[domain.WalletID]models.Binding),
	}
}

func (s *InMemory) Binding(ctx context.Context, wallet domain.WalletID) (*models.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bindings[wallet]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (s *InMemory) Create(ctx context.Context, binding *models.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bindings[binding.Wallet]; ok {
		return sentinel.ErrConflict
	}
	s.bindings[binding.Wallet] = *binding
	return nil
}

func (s *InMemory) Update(ctx context.Context, binding *models.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bindings[binding.Wallet]; !ok {
		return sentinel.ErrNotFound
	}
	s.bindings[binding.Wallet] = *binding
	return nil
}

func (s *InMemory) Delete(ctx context.Context, wallet domain.WalletID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bindings[wallet]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bindings, wallet)
	return nil
}

func (s *InMemory) BindRegistry(ctx context.Context, registryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.registries {
		if id == registryID {
			return sentinel.ErrConflict
		}
	}
	s.registries = append(s.registries, registryID)
	return nil
}

func (s *InMemory) UnbindRegistry(ctx context.Context, registryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range s.registries {
		if id == registryID {
			s.registries = append(s.registries[:i], s.registries[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemory) BoundRegistries(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.registries))
	copy(out, s.registries)
	return out, nil
}
