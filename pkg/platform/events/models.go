// Package events defines the ledger event model and the sinks it fans out to.
// Events are emitted from domain logic after a mutation commits. Keep the
// model transport-agnostic so stores and sinks can fan out.
package events

import (
	"context"
	"time"

	"veriledger/pkg/domain"
)

// Event captures a committed state change on the ledger or one of its
// registries.
type Event struct {
	ID        string
	Action    Action
	Timestamp time.Time
	// Wallet is the primary subject of the event (sender, minted-to, frozen
	// wallet, registered wallet).
	Wallet domain.WalletID
	// CounterWallet is the secondary party when one exists (transfer
	// recipient, recovery target).
	CounterWallet domain.WalletID
	// ActorID tracks who performed the action. For agent operations this is
	// the agent, not the affected holder.
	ActorID domain.ActorID
	Amount  uint64
	Reason  string
	// RequestID is the correlation ID from the request context.
	RequestID string
}

// Action names a committed state change.
type Action string

const (
	// Ledger events.
	ActionTransferCompleted Action = "transfer_completed"
	ActionForcedTransfer    Action = "forced_transfer"
	ActionTokensMinted      Action = "tokens_minted"
	ActionTokensBurned      Action = "tokens_burned"
	ActionAddressFrozen     Action = "address_frozen"
	ActionAddressUnfrozen   Action = "address_unfrozen"
	ActionTokensFrozen      Action = "tokens_frozen"
	ActionTokensUnfrozen    Action = "tokens_unfrozen"
	ActionLedgerPaused      Action = "ledger_paused"
	ActionLedgerUnpaused    Action = "ledger_unpaused"
	ActionRecoverySuccess   Action = "recovery_success"

	// Identity registry events.
	ActionIdentityRegistered Action = "identity_registered"
	ActionIdentityUpdated    Action = "identity_updated"
	ActionIdentityRemoved    Action = "identity_removed"
	ActionCountryUpdated     Action = "country_updated"

	// Trust model events.
	ActionClaimTopicAdded     Action = "claim_topic_added"
	ActionClaimTopicRemoved   Action = "claim_topic_removed"
	ActionTrustedIssuerAdded   Action = "trusted_issuer_added"
	ActionTrustedIssuerRemoved Action = "trusted_issuer_removed"
	ActionTrustedIssuerUpdated Action = "trusted_issuer_updated"

	// Compliance events.
	ActionModuleBound   Action = "module_bound"
	ActionModuleUnbound Action = "module_unbound"
)

// Store is a sink for committed events. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByWallet(ctx context.Context, wallet domain.WalletID) ([]Event, error)
}
