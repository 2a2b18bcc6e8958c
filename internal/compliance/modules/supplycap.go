package modules

import (
	"context"
	"sync"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// SupplyCap bounds total supply. Only mints can grow supply, and mints reach
// CanTransfer as transfers from the zero wallet, so the gate lives there;
// holder-to-holder transfers never change supply and always pass.
type SupplyCap struct {
	mu     sync.RWMutex
	cap    uint64
	supply uint64
}

func NewSupplyCap(cap uint64) *SupplyCap {
	return &SupplyCap{cap: cap}
}

func (m *SupplyCap) Name() string { return "supply-cap" }

// Seed replaces the tracked supply with the ledger's total supply.
func (m *SupplyCap) Seed(balances map[domain.WalletID]uint64, totalSupply uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supply = totalSupply
}

// Supply returns the module's tracked total supply.
func (m *SupplyCap) Supply() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supply
}

func (m *SupplyCap) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	if !from.IsNil() {
		return true, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supply+amount <= m.cap, nil
}

func (m *SupplyCap) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	return nil
}

func (m *SupplyCap) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supply += amount
	return nil
}

func (m *SupplyCap) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.supply < amount {
		return dErrors.New(dErrors.CodeInvariantViolation, "tracked supply below burn amount")
	}
	m.supply -= amount
	return nil
}
