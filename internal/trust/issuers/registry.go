// Package issuers implements the trusted issuers registry: which attestors
// are trusted, and for which claim topics.
package issuers

import (
	"context"
	"sync"

	"veriledger/internal/accesscontrol"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	events "veriledger/pkg/platform/events"
	"veriledger/pkg/platform/events/publisher"
	"veriledger/pkg/requestcontext"
)

// TrustedIssuer pairs an issuer reference with the topics it may attest to.
// An issuer with an empty topic set is never stored; it would be untrusted
// for all purposes, so registration rejects it and removal is the way out.
type TrustedIssuer struct {
	Issuer domain.IssuerID
	Topics []domain.ClaimTopic
}

// Registry holds the trusted issuer set in insertion order. Caps bound both
// the issuer count and the per-issuer topic count, keeping verification cost
// fixed.
type Registry struct {
	mu       sync.RWMutex
	order    []domain.IssuerID
	byIssuer map[domain.IssuerID][]domain.ClaimTopic

	maxIssuers      int
	maxIssuerTopics int

	roles    *accesscontrol.Roles
	events   *publisher.Publisher
	onChange func(ctx context.Context)
}

func New(roles *accesscontrol.Roles, maxIssuers, maxIssuerTopics int) *Registry {
	return &Registry{
		byIssuer:        make(map[domain.IssuerID][]domain.ClaimTopic),
		maxIssuers:      maxIssuers,
		maxIssuerTopics: maxIssuerTopics,
		roles:           roles,
	}
}

// WithEvents attaches the event publisher. Chainable at wiring time.
func (r *Registry) WithEvents(p *publisher.Publisher) *Registry {
	r.events = p
	return r
}

// OnChange registers a hook invoked after every successful mutation.
func (r *Registry) OnChange(fn func(ctx context.Context)) {
	r.onChange = fn
}

// Roles exposes the component's role set for admin wiring.
func (r *Registry) Roles() *accesscontrol.Roles {
	return r.roles
}

// Add registers an issuer as trusted for the given topics. Owner-gated.
func (r *Registry) Add(ctx context.Context, issuer domain.IssuerID, topics []domain.ClaimTopic) error {
	if err := r.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if err := validateTopicSet(topics, r.maxIssuerTopics); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.byIssuer[issuer]; ok {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeConflict, "issuer %s is already trusted", issuer)
	}
	if len(r.order) >= r.maxIssuers {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeLimitExceeded, "cannot trust more than %d issuers", r.maxIssuers)
	}
	r.order = append(r.order, issuer)
	r.byIssuer[issuer] = copyTopics(topics)
	r.mu.Unlock()

	r.changed(ctx, events.ActionTrustedIssuerAdded, issuer)
	return nil
}

// UpdateTopics atomically replaces the issuer's trusted-topic set.
func (r *Registry) UpdateTopics(ctx context.Context, issuer domain.IssuerID, topics []domain.ClaimTopic) error {
	if err := r.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if err := validateTopicSet(topics, r.maxIssuerTopics); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.byIssuer[issuer]; !ok {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeNotFound, "issuer %s is not trusted", issuer)
	}
	r.byIssuer[issuer] = copyTopics(topics)
	r.mu.Unlock()

	r.changed(ctx, events.ActionTrustedIssuerUpdated, issuer)
	return nil
}

// Remove withdraws trust from an issuer entirely.
func (r *Registry) Remove(ctx context.Context, issuer domain.IssuerID) error {
	if err := r.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.byIssuer[issuer]; !ok {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeNotFound, "issuer %s is not trusted", issuer)
	}
	delete(r.byIssuer, issuer)
	for i, id := range r.order {
		if id == issuer {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.changed(ctx, events.ActionTrustedIssuerRemoved, issuer)
	return nil
}

// IsTrusted reports whether issuer is trusted for at least one topic.
func (r *Registry) IsTrusted(issuer domain.IssuerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byIssuer[issuer]
	return ok
}

// TrustedFor reports whether issuer is trusted for the given topic.
func (r *Registry) TrustedFor(issuer domain.IssuerID, topic domain.ClaimTopic) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byIssuer[issuer] {
		if t == topic {
			return true
		}
	}
	return false
}

// ForTopic returns the issuers trusted for topic, in registration order.
func (r *Registry) ForTopic(topic domain.ClaimTopic) []domain.IssuerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.IssuerID
	for _, issuer := range r.order {
		for _, t := range r.byIssuer[issuer] {
			if t == topic {
				out = append(out, issuer)
				break
			}
		}
	}
	return out
}

// Issuers returns every trusted issuer with its topics, in registration order.
func (r *Registry) Issuers() []TrustedIssuer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TrustedIssuer, 0, len(r.order))
	for _, issuer := range r.order {
		out = append(out, TrustedIssuer{
			Issuer: issuer,
			Topics: copyTopics(r.byIssuer[issuer]),
		})
	}
	return out
}

func validateTopicSet(topics []domain.ClaimTopic, max int) error {
	if len(topics) == 0 {
		return dErrors.New(dErrors.CodeValidation, "issuer topic set cannot be empty")
	}
	if len(topics) > max {
		return dErrors.Newf(dErrors.CodeLimitExceeded, "issuer cannot be trusted for more than %d topics", max)
	}
	seen := make(map[domain.ClaimTopic]struct{}, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok {
			return dErrors.Newf(dErrors.CodeValidation, "duplicate topic %s in issuer topic set", t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

func copyTopics(topics []domain.ClaimTopic) []domain.ClaimTopic {
	out := make([]domain.ClaimTopic, len(topics))
	copy(out, topics)
	return out
}

func (r *Registry) changed(ctx context.Context, action events.Action, issuer domain.IssuerID) {
	if r.events != nil {
		_ = r.events.Emit(ctx, events.Event{
			Action:    action,
			ActorID:   requestcontext.Actor(ctx),
			Reason:    "issuer " + issuer.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	if r.onChange != nil {
		r.onChange(ctx)
	}
}
