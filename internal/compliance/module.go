// Package compliance orchestrates the pluggable transfer-rule modules. Every
// balance-changing operation consults the bound modules before committing and
// notifies all of them afterwards so derived counters track the ledger.
package compliance

import (
	"context"

	"veriledger/pkg/domain"
)

// Module is one pluggable compliance rule.
//
// CanTransfer is a pure predicate: ordinary business-rule failures return
// false, never an error. A returned error means unrecoverable internal
// inconsistency (module fault) and aborts the surrounding mutation.
//
// The state hooks run after the ledger mutation commits, in binding order,
// for every bound module. Hooks receive every ledger event exactly once per
// logical operation. Modules whose counters mirror ledger state (balances,
// holder counts, supply) additionally implement Seeder; counters that only
// track activity since binding (per-day totals) do not.
//
// A mint is presented to CanTransfer as a transfer from the zero wallet
// (empty from), so supply-style rules can gate token creation.
type Module interface {
	// Name uniquely identifies the module on a compliance instance.
	Name() string
	CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error)
	Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error
	Created(ctx context.Context, to domain.WalletID, amount uint64) error
	Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error
}

// Seeder is implemented by modules that mirror ledger state. BindModule
// seeds them from a ledger snapshot, so a module bound while supply already
// exists starts from ledger truth instead of empty counters. Seed replaces
// any prior state; rebinding a module re-seeds it.
type Seeder interface {
	Seed(balances map[domain.WalletID]uint64, totalSupply uint64)
}
