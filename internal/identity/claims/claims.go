// Package claims holds issuer attestations about identities. The registry's
// verification walk asks this store whether a given issuer has a live claim
// on an identity for a topic.
package claims

import (
	"context"
	"sync"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

type claimKey struct {
	identity domain.IdentityID
	issuer   domain.IssuerID
	topic    domain.ClaimTopic
}

// Store is an in-memory claim store. Only the issuer itself may attest or
// revoke its claims; the actor from the request context must match.
type Store struct {
	mu       sync.RWMutex
	claims   map[claimKey]struct{}
	onChange func(ctx context.Context)
}

func NewStore() *Store {
	return &Store{claims: make(map[claimKey]struct{})}
}

// OnChange registers a hook invoked after every mutation. Wired to
// verification cache invalidation.
func (s *Store) OnChange(fn func(ctx context.Context)) {
	s.onChange = fn
}

// Attest records a claim by the calling issuer on identity for topic.
func (s *Store) Attest(ctx context.Context, identity domain.IdentityID, issuer domain.IssuerID, topic domain.ClaimTopic) error {
	if err := s.requireIssuer(ctx, issuer); err != nil {
		return err
	}
	s.mu.Lock()
	s.claims[claimKey{identity, issuer, topic}] = struct{}{}
	s.mu.Unlock()

	s.changed(ctx)
	return nil
}

// Revoke removes a claim by the calling issuer.
func (s *Store) Revoke(ctx context.Context, identity domain.IdentityID, issuer domain.IssuerID, topic domain.ClaimTopic) error {
	if err := s.requireIssuer(ctx, issuer); err != nil {
		return err
	}
	key := claimKey{identity, issuer, topic}

	s.mu.Lock()
	_, ok := s.claims[key]
	delete(s.claims, key)
	s.mu.Unlock()

	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "no claim by %s on topic %s", issuer, topic)
	}
	s.changed(ctx)
	return nil
}

// HasValidClaim reports whether issuer has a live claim on identity for topic.
func (s *Store) HasValidClaim(ctx context.Context, identity domain.IdentityID, issuer domain.IssuerID, topic domain.ClaimTopic) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.claims[claimKey{identity, issuer, topic}]
	return ok, nil
}

func (s *Store) requireIssuer(ctx context.Context, issuer domain.IssuerID) error {
	actor := requestcontext.Actor(ctx)
	if actor.String() != issuer.String() {
		return dErrors.New(dErrors.CodeUnauthorized, "only the issuer may manage its claims")
	}
	return nil
}

func (s *Store) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}
