// Package service implements the token ledger state machine: balances,
// supply, freezes, pause, and the transfer decision pipeline that consults
// the identity registry and the compliance engine.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"veriledger/internal/accesscontrol"
	"veriledger/internal/platform/metrics"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	events "veriledger/pkg/platform/events"
	"veriledger/pkg/platform/events/publisher"
	"veriledger/pkg/requestcontext"
)

// IdentityRegistry is the ledger's view of the identity subsystem. The
// ledger holds a non-owning reference; binding storage lives behind the
// registry.
type IdentityRegistry interface {
	IsVerified(ctx context.Context, wallet domain.WalletID) (bool, error)
	Register(ctx context.Context, wallet domain.WalletID, identity domain.IdentityID, country domain.CountryCode) error
	Delete(ctx context.Context, wallet domain.WalletID) error
	InvestorCountry(ctx context.Context, wallet domain.WalletID) (domain.CountryCode, error)
}

// ComplianceEngine is the ledger's view of the modular compliance pipeline.
type ComplianceEngine interface {
	CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, string, error)
	Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error
	Created(ctx context.Context, to domain.WalletID, amount uint64) error
	Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error
}

// TokenInfo is the token's published metadata.
type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Deps carries the ledger's collaborators. Events and Metrics are optional.
type Deps struct {
	Token      TokenInfo
	Identity   IdentityRegistry
	Compliance ComplianceEngine
	Roles      *accesscontrol.Roles
	Events     *publisher.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Service is the ledger. A single mutation lock serializes every
// balance-changing operation: validation, mutation, and compliance hooks run
// without interleaving, so no reader ever observes a half-applied transfer.
type Service struct {
	mu sync.RWMutex

	token        TokenInfo
	balances     map[domain.WalletID]uint64
	frozen       map[domain.WalletID]bool
	frozenTokens map[domain.WalletID]uint64
	totalSupply  uint64
	paused       bool

	identity   IdentityRegistry
	compliance ComplianceEngine
	roles      *accesscontrol.Roles
	events     *publisher.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		token:        deps.Token,
		balances:     make(map[domain.WalletID]uint64),
		frozen:       make(map[domain.WalletID]bool),
		frozenTokens: make(map[domain.WalletID]uint64),
		identity:     deps.Identity,
		compliance:   deps.Compliance,
		roles:        deps.Roles,
		events:       deps.Events,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
	}
}

// Roles exposes the component's role set for admin wiring.
func (s *Service) Roles() *accesscontrol.Roles {
	return s.roles
}

// Token returns the token metadata.
func (s *Service) Token() TokenInfo {
	return s.token
}

// BalanceOf returns the wallet's full balance, frozen portion included.
func (s *Service) BalanceOf(wallet domain.WalletID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[wallet]
}

// TotalSupply returns the current total supply.
func (s *Service) TotalSupply() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSupply
}

// Holdings returns a copy of every non-zero balance. The compliance engine
// snapshots it to seed stateful modules bound while supply exists.
func (s *Service) Holdings() map[domain.WalletID]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.WalletID]uint64, len(s.balances))
	for wallet, balance := range s.balances {
		if balance > 0 {
			out[wallet] = balance
		}
	}
	return out
}

// FrozenTokens returns the partially frozen amount for wallet.
func (s *Service) FrozenTokens(wallet domain.WalletID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozenTokens[wallet]
}

// IsFrozen reports whether the wallet is fully frozen.
func (s *Service) IsFrozen(wallet domain.WalletID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen[wallet]
}

// Paused reports whether the ledger is paused.
func (s *Service) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// Pause halts all holder-initiated transfers. Agent-gated; pausing an
// already paused ledger fails.
func (s *Service) Pause(ctx context.Context) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "ledger is already paused")
	}
	s.paused = true
	s.mu.Unlock()

	s.emit(ctx, events.Event{Action: events.ActionLedgerPaused})
	return nil
}

// Unpause resumes transfers. Agent-gated; symmetric guard to Pause.
func (s *Service) Unpause(ctx context.Context) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidState, "ledger is not paused")
	}
	s.paused = false
	s.mu.Unlock()

	s.emit(ctx, events.Event{Action: events.ActionLedgerUnpaused})
	return nil
}

// Transfer moves tokens between holders. The caller must be the sender.
// Validation order: pause, transferable balance, full freezes, recipient
// verification, compliance. Validation strictly precedes mutation; the
// compliance hooks fire only after both balance mutations committed.
func (s *Service) Transfer(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	actor := requestcontext.Actor(ctx)
	if actor.String() != from.String() {
		return dErrors.New(dErrors.CodeUnauthorized, "transfer caller must be the sending wallet")
	}
	if err := validateParties(from, to); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transferLocked(ctx, from, to, amount)
}

// BatchTransfer sends to several recipients from the calling wallet. Items
// apply in order, each one atomically; the first failure stops the batch and
// reports the index.
func (s *Service) BatchTransfer(ctx context.Context, from domain.WalletID, items []TransferItem) error {
	actor := requestcontext.Actor(ctx)
	if actor.String() != from.String() {
		return dErrors.New(dErrors.CodeUnauthorized, "transfer caller must be the sending wallet")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range items {
		if err := validateParties(from, item.To); err != nil {
			return dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("batch item %d", i))
		}
		if err := s.transferLocked(ctx, from, item.To, item.Amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("batch item %d", i))
		}
	}
	return nil
}

// transferLocked must be called with the mutation lock held.
func (s *Service) transferLocked(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	if s.paused {
		s.reject(metrics.ReasonPaused)
		return dErrors.New(dErrors.CodeInvalidState, "ledger is paused")
	}
	if free := s.balances[from] - s.frozenTokens[from]; amount > free {
		s.reject(metrics.ReasonInsufficient)
		return dErrors.Newf(dErrors.CodeInsufficientBalance, "transferable balance %d below amount %d", free, amount)
	}
	if s.frozen[from] || s.frozen[to] {
		s.reject(metrics.ReasonFrozen)
		return dErrors.New(dErrors.CodeInvalidState, "wallet is frozen")
	}
	if err := s.requireVerified(ctx, to); err != nil {
		return err
	}
	if err := s.requireCompliant(ctx, from, to, amount); err != nil {
		return err
	}

	s.balances[from] -= amount
	s.balances[to] += amount

	if err := s.compliance.Transferred(ctx, from, to, amount); err != nil {
		// Module fault: revert so the ledger state does not advance.
		s.balances[from] += amount
		s.balances[to] -= amount
		return err
	}

	if s.metrics != nil {
		s.metrics.TransfersCompleted.Inc()
	}
	s.emit(ctx, events.Event{
		Action:        events.ActionTransferCompleted,
		Wallet:        from,
		CounterWallet: to,
		Amount:        amount,
	})
	return nil
}

// ForcedTransfer moves tokens out of a holder by agent action. It bypasses
// the pause flag, full freezes, and sender checks; recipient verification and
// compliance still apply. A shortfall against the unfrozen balance is taken
// from the frozen portion, which is unfrozen first.
func (s *Service) ForcedTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if err := validateParties(from, to); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > s.balances[from] {
		s.reject(metrics.ReasonInsufficient)
		return dErrors.Newf(dErrors.CodeInsufficientBalance, "balance %d below amount %d", s.balances[from], amount)
	}
	if err := s.requireVerified(ctx, to); err != nil {
		return err
	}
	if err := s.requireCompliant(ctx, from, to, amount); err != nil {
		return err
	}

	var unfrozen uint64
	if free := s.balances[from] - s.frozenTokens[from]; amount > free {
		unfrozen = amount - free
		s.frozenTokens[from] -= unfrozen
	}
	s.balances[from] -= amount
	s.balances[to] += amount

	if err := s.compliance.Transferred(ctx, from, to, amount); err != nil {
		s.balances[from] += amount
		s.balances[to] -= amount
		s.frozenTokens[from] += unfrozen
		return err
	}

	if unfrozen > 0 {
		s.emit(ctx, events.Event{Action: events.ActionTokensUnfrozen, Wallet: from, Amount: unfrozen})
	}
	if s.metrics != nil {
		s.metrics.TransfersCompleted.Inc()
	}
	s.emit(ctx, events.Event{
		Action:        events.ActionForcedTransfer,
		Wallet:        from,
		CounterWallet: to,
		Amount:        amount,
	})
	return nil
}

// Mint creates tokens for a verified wallet. Agent-gated. The compliance
// pipeline sees the mint as a transfer from the zero wallet, so supply rules
// can gate it.
func (s *Service) Mint(ctx context.Context, to domain.WalletID, amount uint64) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if to.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "recipient wallet is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mintLocked(ctx, to, amount)
}

// mintLocked must be called with the mutation lock held.
func (s *Service) mintLocked(ctx context.Context, to domain.WalletID, amount uint64) error {
	if err := s.requireVerified(ctx, to); err != nil {
		return err
	}
	if err := s.requireCompliant(ctx, "", to, amount); err != nil {
		return err
	}

	s.balances[to] += amount
	s.totalSupply += amount

	if err := s.compliance.Created(ctx, to, amount); err != nil {
		s.balances[to] -= amount
		s.totalSupply -= amount
		return err
	}

	if s.metrics != nil {
		s.metrics.TokensMinted.Add(float64(amount))
	}
	s.emit(ctx, events.Event{Action: events.ActionTokensMinted, Wallet: to, Amount: amount})
	return nil
}

// Burn destroys tokens from a wallet. Agent-gated. Burn may consume the
// frozen portion: it is a supply correction, not holder-initiated movement,
// so the partial freeze does not protect against it. Any frozen amount above
// the remaining balance is unfrozen.
func (s *Service) Burn(ctx context.Context, from domain.WalletID, amount uint64) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > s.balances[from] {
		return dErrors.Newf(dErrors.CodeInsufficientBalance, "balance %d below burn amount %d", s.balances[from], amount)
	}

	prevFrozen := s.frozenTokens[from]
	s.balances[from] -= amount
	s.totalSupply -= amount
	var unfrozen uint64
	if s.frozenTokens[from] > s.balances[from] {
		unfrozen = s.frozenTokens[from] - s.balances[from]
		s.frozenTokens[from] = s.balances[from]
	}

	if err := s.compliance.Destroyed(ctx, from, amount); err != nil {
		s.balances[from] += amount
		s.totalSupply += amount
		s.frozenTokens[from] = prevFrozen
		return err
	}

	if unfrozen > 0 {
		s.emit(ctx, events.Event{Action: events.ActionTokensUnfrozen, Wallet: from, Amount: unfrozen})
	}
	if s.metrics != nil {
		s.metrics.TokensBurned.Add(float64(amount))
	}
	s.emit(ctx, events.Event{Action: events.ActionTokensBurned, Wallet: from, Amount: amount})
	return nil
}

// FreezeAddress sets or clears the full freeze on a wallet. Agent-gated.
func (s *Service) FreezeAddress(ctx context.Context, wallet domain.WalletID, frozen bool) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	s.mu.Lock()
	s.frozen[wallet] = frozen
	s.mu.Unlock()

	action := events.ActionAddressFrozen
	if !frozen {
		action = events.ActionAddressUnfrozen
	}
	s.emit(ctx, events.Event{Action: action, Wallet: wallet})
	return nil
}

// FreezePartialTokens excludes an additional amount from the wallet's
// transferable balance. Agent-gated.
func (s *Service) FreezePartialTokens(ctx context.Context, wallet domain.WalletID, amount uint64) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	s.mu.Lock()
	if s.frozenTokens[wallet]+amount > s.balances[wallet] {
		s.mu.Unlock()
		return dErrors.Newf(dErrors.CodeExceedsBalance, "freeze amount exceeds balance of %d", s.balances[wallet])
	}
	s.frozenTokens[wallet] += amount
	s.mu.Unlock()

	s.emit(ctx, events.Event{Action: events.ActionTokensFrozen, Wallet: wallet, Amount: amount})
	return nil
}

// UnfreezePartialTokens releases part of the frozen amount. Agent-gated.
func (s *Service) UnfreezePartialTokens(ctx context.Context, wallet domain.WalletID, amount uint64) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	s.mu.Lock()
	if amount > s.frozenTokens[wallet] {
		s.mu.Unlock()
		return dErrors.Newf(dErrors.CodeExceedsBalance, "unfreeze amount exceeds frozen amount of %d", s.frozenTokens[wallet])
	}
	s.frozenTokens[wallet] -= amount
	s.mu.Unlock()

	s.emit(ctx, events.Event{Action: events.ActionTokensUnfrozen, Wallet: wallet, Amount: amount})
	return nil
}

// RecoveryAddress moves a lost wallet's entire balance and frozen state to a
// replacement wallet, rebinds the identity, and removes the lost binding.
// Agent-gated. Fails when the lost wallet holds nothing, or when the new
// wallet would not verify after binding.
func (s *Service) RecoveryAddress(ctx context.Context, lostWallet, newWallet domain.WalletID, identity domain.IdentityID) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if err := validateParties(lostWallet, newWallet); err != nil {
		return err
	}
	if identity.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balances[lostWallet]
	if balance == 0 {
		return dErrors.Newf(dErrors.CodeInvalidState, "wallet %s holds no tokens to recover", lostWallet)
	}

	// Carry the country on file forward; the lost wallet must have a binding
	// for its holdings to have been legal in the first place.
	country, err := s.identity.InvestorCountry(ctx, lostWallet)
	if err != nil {
		return err
	}

	if err := s.identity.Register(ctx, newWallet, identity, country); err != nil {
		return err
	}
	verified, err := s.identity.IsVerified(ctx, newWallet)
	if err == nil && !verified {
		err = dErrors.Newf(dErrors.CodeNotVerified, "wallet %s is not verified after binding", newWallet)
	}
	if err != nil {
		// Leave no half-applied recovery behind.
		if delErr := s.identity.Delete(ctx, newWallet); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back recovery binding",
				"wallet", newWallet.String(),
				"error", delErr.Error(),
			)
		}
		return err
	}

	frozenAmount := s.frozenTokens[lostWallet]
	wasFrozen := s.frozen[lostWallet]

	s.balances[newWallet] += balance
	s.balances[lostWallet] = 0
	s.frozenTokens[newWallet] += frozenAmount
	s.frozenTokens[lostWallet] = 0
	if wasFrozen {
		s.frozen[newWallet] = true
	}
	delete(s.frozen, lostWallet)

	if err := s.compliance.Transferred(ctx, lostWallet, newWallet, balance); err != nil {
		s.balances[lostWallet] = balance
		s.balances[newWallet] -= balance
		s.frozenTokens[lostWallet] = frozenAmount
		s.frozenTokens[newWallet] -= frozenAmount
		if wasFrozen {
			s.frozen[lostWallet] = true
			delete(s.frozen, newWallet)
		}
		if delErr := s.identity.Delete(ctx, newWallet); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back recovery binding",
				"wallet", newWallet.String(),
				"error", delErr.Error(),
			)
		}
		return err
	}

	if err := s.identity.Delete(ctx, lostWallet); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove lost wallet binding",
			"wallet", lostWallet.String(),
			"error", err.Error(),
		)
	}

	s.emit(ctx, events.Event{
		Action:        events.ActionRecoverySuccess,
		Wallet:        lostWallet,
		CounterWallet: newWallet,
		Amount:        balance,
	})
	return nil
}

// TransferItem is one entry of a batch operation.
type TransferItem struct {
	From   domain.WalletID
	To     domain.WalletID
	Amount uint64
}

// BatchMint mints to several wallets. Items apply in order, each one
// atomically; the first failure stops the batch and reports the index.
func (s *Service) BatchMint(ctx context.Context, items []TransferItem) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range items {
		if item.To.IsNil() {
			return dErrors.Newf(dErrors.CodeValidation, "batch item %d: recipient wallet is required", i)
		}
		if err := s.mintLocked(ctx, item.To, item.Amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("batch item %d", i))
		}
	}
	return nil
}

// CheckInvariants verifies the conservation and freeze invariants. Used by
// tests and the readiness probe; a violation is a defect, never a business
// outcome.
func (s *Service) CheckInvariants() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum uint64
	for wallet, balance := range s.balances {
		sum += balance
		if s.frozenTokens[wallet] > balance {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "frozen amount of %s exceeds its balance", wallet)
		}
	}
	if sum != s.totalSupply {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "sum of balances %d diverges from total supply %d", sum, s.totalSupply)
	}
	return nil
}

// requireVerified and requireCompliant must be called with the lock held.
func (s *Service) requireVerified(ctx context.Context, wallet domain.WalletID) error {
	verified, err := s.identity.IsVerified(ctx, wallet)
	if err != nil {
		return err
	}
	if !verified {
		s.reject(metrics.ReasonNotVerified)
		return dErrors.Newf(dErrors.CodeNotVerified, "wallet %s is not verified", wallet)
	}
	return nil
}

func (s *Service) requireCompliant(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	ok, rejectedBy, err := s.compliance.CanTransfer(ctx, from, to, amount)
	if err != nil {
		return err
	}
	if !ok {
		s.reject(metrics.ReasonCompliance)
		return dErrors.Newf(dErrors.CodeComplianceRejected, "transfer rejected by module %s", rejectedBy)
	}
	return nil
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.TransfersRejected.WithLabelValues(reason).Inc()
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	event.ActorID = requestcontext.Actor(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	_ = s.events.Emit(ctx, event)
}

func validateParties(from, to domain.WalletID) error {
	if from.IsNil() || to.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "both wallets are required")
	}
	if from == to {
		return dErrors.New(dErrors.CodeValidation, "sender and recipient must differ")
	}
	return nil
}
