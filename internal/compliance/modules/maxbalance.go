// Package modules provides the built-in compliance rule implementations.
// Modules that mirror ledger state are seeded from a snapshot at bind time
// and kept current by the post-commit hooks; activity counters start empty.
package modules

import (
	"context"
	"sync"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// MaxBalance caps any single holder's balance.
type MaxBalance struct {
	mu       sync.RWMutex
	max      uint64
	balances map[domain.WalletID]uint64
}

func NewMaxBalance(max uint64) *MaxBalance {
	return &MaxBalance{
		max:      max,
		balances: make(map[domain.WalletID]uint64),
	}
}

func (m *MaxBalance) Name() string { return "max-balance" }

// Seed replaces the tracked balances with a ledger snapshot.
func (m *MaxBalance) Seed(balances map[domain.WalletID]uint64, totalSupply uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = make(map[domain.WalletID]uint64, len(balances))
	for wallet, balance := range balances {
		m.balances[wallet] = balance
	}
}

func (m *MaxBalance) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[to]+amount <= m.max, nil
}

func (m *MaxBalance) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < amount {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tracked balance of %s below transfer amount", from)
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *MaxBalance) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[to] += amount
	return nil
}

func (m *MaxBalance) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < amount {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tracked balance of %s below burn amount", from)
	}
	m.balances[from] -= amount
	return nil
}
