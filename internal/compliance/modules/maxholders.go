package modules

import (
	"context"
	"sync"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// MaxHolders caps the number of wallets with a non-zero balance. A transfer
// to a wallet that already holds tokens never changes the count, so only
// first-time recipients are gated.
type MaxHolders struct {
	mu       sync.RWMutex
	max      int
	balances map[domain.WalletID]uint64
	holders  int
}

func NewMaxHolders(max int) *MaxHolders {
	return &MaxHolders{
		max:      max,
		balances: make(map[domain.WalletID]uint64),
	}
}

func (m *MaxHolders) Name() string { return "max-holders" }

// Seed replaces the tracked balances and holder count with a ledger snapshot.
func (m *MaxHolders) Seed(balances map[domain.WalletID]uint64, totalSupply uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = make(map[domain.WalletID]uint64, len(balances))
	m.holders = 0
	for wallet, balance := range balances {
		if balance == 0 {
			continue
		}
		m.balances[wallet] = balance
		m.holders++
	}
}

func (m *MaxHolders) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	if amount == 0 {
		return true, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.balances[to] > 0 {
		return true, nil
	}
	return m.holders < m.max, nil
}

// HolderCount returns the current number of non-zero holders.
func (m *MaxHolders) HolderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holders
}

func (m *MaxHolders) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < amount {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tracked balance of %s below transfer amount", from)
	}
	m.credit(to, amount)
	m.debit(from, amount)
	return nil
}

func (m *MaxHolders) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(to, amount)
	return nil
}

func (m *MaxHolders) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < amount {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tracked balance of %s below burn amount", from)
	}
	m.debit(from, amount)
	return nil
}

// credit and debit must be called with the lock held.
func (m *MaxHolders) credit(wallet domain.WalletID, amount uint64) {
	if amount == 0 {
		return
	}
	if m.balances[wallet] == 0 {
		m.holders++
	}
	m.balances[wallet] += amount
}

func (m *MaxHolders) debit(wallet domain.WalletID, amount uint64) {
	if amount == 0 {
		return
	}
	m.balances[wallet] -= amount
	if m.balances[wallet] == 0 {
		m.holders--
	}
}
