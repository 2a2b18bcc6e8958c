// Package service implements the identity registry: the mapping from wallets
// to identity records, and the verification decision gating every transfer.
package service

import (
	"context"
	"errors"
	"log/slog"

	"veriledger/internal/accesscontrol"
	"veriledger/internal/identity/cache"
	"veriledger/internal/identity/models"
	"veriledger/internal/identity/store"
	"veriledger/internal/platform/metrics"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	events "veriledger/pkg/platform/events"
	"veriledger/pkg/platform/events/publisher"
	"veriledger/pkg/platform/sentinel"
	"veriledger/pkg/requestcontext"
)

// TopicsRegistry is the required-claim-topics source.
type TopicsRegistry interface {
	Topics() []domain.ClaimTopic
}

// IssuersRegistry answers which issuers are trusted for a topic.
type IssuersRegistry interface {
	ForTopic(topic domain.ClaimTopic) []domain.IssuerID
}

// ClaimVerifier is the external claim-lookup capability. Signature
// verification itself happens outside this system; the port answers whether
// a valid claim from issuer on the given topic is present on the identity.
type ClaimVerifier interface {
	HasValidClaim(ctx context.Context, identity domain.IdentityID, issuer domain.IssuerID, topic domain.ClaimTopic) (bool, error)
}

// Deps carries the service's collaborators. Store, Topics, Issuers, Verifier
// and Roles are required; Cache, Events, Metrics are optional.
type Deps struct {
	RegistryID string
	Store      store.Store
	Topics     TopicsRegistry
	Issuers    IssuersRegistry
	Verifier   ClaimVerifier
	Roles      *accesscontrol.Roles
	Cache      cache.Cache
	Events     *publisher.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Service is one identity registry instance bound to a shared binding store.
type Service struct {
	registryID string
	store      store.Store
	topics     TopicsRegistry
	issuers    IssuersRegistry
	verifier   ClaimVerifier
	roles      *accesscontrol.Roles
	cache      cache.Cache
	events     *publisher.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates the registry service and binds it to the store.
func New(ctx context.Context, deps Deps) (*Service, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Service{
		registryID: deps.RegistryID,
		store:      deps.Store,
		topics:     deps.Topics,
		issuers:    deps.Issuers,
		verifier:   deps.Verifier,
		roles:      deps.Roles,
		cache:      deps.Cache,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if err := deps.Store.BindRegistry(ctx, deps.RegistryID); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind registry to storage")
	}
	return s, nil
}

// Roles exposes the component's role set for admin wiring.
func (s *Service) Roles() *accesscontrol.Roles {
	return s.roles
}

// Register binds wallet to an identity record. Agent-gated.
func (s *Service) Register(ctx context.Context, wallet domain.WalletID, identity domain.IdentityID, country domain.CountryCode) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if wallet.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "wallet is required")
	}
	if identity.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}

	now := requestcontext.Now(ctx)
	binding := &models.Binding{
		Wallet:       wallet,
		Identity:     identity,
		Country:      country,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, binding); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Newf(dErrors.CodeConflict, "wallet %s is already registered", wallet)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create binding")
	}

	s.invalidate(ctx, wallet)
	if s.metrics != nil {
		s.metrics.IdentitiesRegistered.Inc()
	}
	s.emit(ctx, events.ActionIdentityRegistered, wallet, "")
	return nil
}

// UpdateIdentity rebinds wallet to a different identity record. Agent-gated.
func (s *Service) UpdateIdentity(ctx context.Context, wallet domain.WalletID, identity domain.IdentityID) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if identity.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}

	return s.mutateBinding(ctx, wallet, events.ActionIdentityUpdated, func(b *models.Binding) {
		b.Identity = identity
	})
}

// UpdateCountry changes the investor country on file. Agent-gated.
func (s *Service) UpdateCountry(ctx context.Context, wallet domain.WalletID, country domain.CountryCode) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	return s.mutateBinding(ctx, wallet, events.ActionCountryUpdated, func(b *models.Binding) {
		b.Country = country
	})
}

// Delete removes the wallet's binding. Agent-gated.
func (s *Service) Delete(ctx context.Context, wallet domain.WalletID) error {
	if err := s.roles.RequireAgent(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, wallet); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "wallet %s is not registered", wallet)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete binding")
	}

	s.invalidate(ctx, wallet)
	s.emit(ctx, events.ActionIdentityRemoved, wallet, "")
	return nil
}

// Contains reports whether a binding exists for wallet.
func (s *Service) Contains(ctx context.Context, wallet domain.WalletID) (bool, error) {
	_, err := s.store.Binding(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
	}
	return true, nil
}

// InvestorCountry returns the country code on file for wallet.
func (s *Service) InvestorCountry(ctx context.Context, wallet domain.WalletID) (domain.CountryCode, error) {
	b, err := s.store.Binding(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.CountryUnset, dErrors.Newf(dErrors.CodeNotFound, "wallet %s is not registered", wallet)
	}
	if err != nil {
		return domain.CountryUnset, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
	}
	return b.Country, nil
}

// Binding returns the full binding for wallet.
func (s *Service) Binding(ctx context.Context, wallet domain.WalletID) (models.Binding, error) {
	b, err := s.store.Binding(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Binding{}, dErrors.Newf(dErrors.CodeNotFound, "wallet %s is not registered", wallet)
	}
	if err != nil {
		return models.Binding{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
	}
	return *b, nil
}

// Identity returns the identity reference bound to wallet.
func (s *Service) Identity(ctx context.Context, wallet domain.WalletID) (domain.IdentityID, error) {
	b, err := s.store.Binding(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.Newf(dErrors.CodeNotFound, "wallet %s is not registered", wallet)
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
	}
	return b.Identity, nil
}

// IsVerified reports whether wallet may hold the asset: a binding exists and,
// for every required claim topic, at least one trusted issuer has a valid
// claim on the bound identity. No binding is an ordinary false, not an error.
// With an empty required-topic set every bound wallet is verified.
func (s *Service) IsVerified(ctx context.Context, wallet domain.WalletID) (bool, error) {
	if s.metrics != nil {
		s.metrics.VerificationChecks.Inc()
	}
	if s.cache != nil {
		if verified, ok := s.cache.Get(ctx, wallet); ok {
			if s.metrics != nil {
				s.metrics.VerificationHits.Inc()
			}
			return verified, nil
		}
	}

	binding, err := s.store.Binding(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
	}

	verified, err := s.hasRequiredClaims(ctx, binding.Identity)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, wallet, verified)
	}
	return verified, nil
}

// hasRequiredClaims walks the required topics in registration order and
// short-circuits per topic on the first trusted issuer with a valid claim.
func (s *Service) hasRequiredClaims(ctx context.Context, identity domain.IdentityID) (bool, error) {
	for _, topic := range s.topics.Topics() {
		trusted := s.issuers.ForTopic(topic)
		if len(trusted) == 0 {
			return false, nil
		}
		found := false
		for _, issuer := range trusted {
			ok, err := s.verifier.HasValidClaim(ctx, identity, issuer, topic)
			if err != nil {
				return false, dErrors.Wrap(err, dErrors.CodeInternal, "claim lookup failed")
			}
			if ok {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// InvalidateAll drops every cached verification result. Wired to trust-model
// mutation hooks.
func (s *Service) InvalidateAll(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}

func (s *Service) mutateBinding(ctx context.Context, wallet domain.WalletID, action events.Action, apply func(*models.Binding)) error {
	binding, err := s.store.Binding(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "wallet %s is not registered", wallet)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load binding")
	}

	apply(binding)
	binding.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, binding); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "wallet %s is not registered", wallet)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update binding")
	}

	s.invalidate(ctx, wallet)
	s.emit(ctx, action, wallet, "")
	return nil
}

func (s *Service) invalidate(ctx context.Context, wallet domain.WalletID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, wallet)
	}
}

func (s *Service) emit(ctx context.Context, action events.Action, wallet domain.WalletID, reason string) {
	if s.events == nil {
		return
	}
	_ = s.events.Emit(ctx, events.Event{
		Action:    action,
		Wallet:    wallet,
		ActorID:   requestcontext.Actor(ctx),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}
