// Package memory provides an in-memory event store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"veriledger/pkg/domain"
	events "veriledger/pkg/platform/events"
)

// InMemoryStore keeps events in insertion order, indexed by wallet.
type InMemoryStore struct {
	mu       sync.RWMutex
	all      []events.Event
	byWallet map[domain.WalletID][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byWallet: make(map[domain.WalletID][]int),
	}
}

func (s *InMemoryStore) Append(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.all)
	s.all = append(s.all, event)
	if !event.Wallet.IsNil() {
		s.byWallet[event.Wallet] = append(s.byWallet[event.Wallet], idx)
	}
	if !event.CounterWallet.IsNil() && event.CounterWallet != event.Wallet {
		s.byWallet[event.CounterWallet] = append(s.byWallet[event.CounterWallet], idx)
	}
	return nil
}

func (s *InMemoryStore) ListByWallet(ctx context.Context, wallet domain.WalletID) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indexes := s.byWallet[wallet]
	out := make([]events.Event, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, s.all[idx])
	}
	return out, nil
}

// All returns every stored event in commit order. Test helper.
func (s *InMemoryStore) All() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]events.Event, len(s.all))
	copy(out, s.all)
	return out
}
