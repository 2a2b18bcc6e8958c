// Package topics implements the claim topics registry: the ordered set of
// claim topics a wallet's identity must carry to count as verified.
package topics

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

// Registry holds the required-topic set. Insertion order is evaluation order
// for verification, so topics live in a slice, not a map. The cap bounds
// per-verification iteration cost.
type Registry struct {
	mu        sync.RWMutex
	topics    []domain.ClaimTopic
	maxTopics int

	roles    *accesscontrol.Roles
	events   *publisher.Publisher
	onChange func(ctx context.Context)
}

// New creates a registry with the given cap and role set.
func New(roles *accesscontrol.Roles, maxTopics int) *Registry {
	return &Registry{
		roles:     roles,
		maxTopics: maxTopics,
	}
}

// WithEvents attaches the event publisher. Chainable at wiring time.
func (r *Registry) WithEvents(p *publisher.Publisher) *Registry {
	r.events = p
	return r
}

// OnChange registers a hook invoked after every successful mutation.
// Used to invalidate cached verification results.
func (r *Registry) OnChange(fn func(ctx context.Context)) {
	r.onChange = fn
}

// Roles exposes the component's role set for admin wiring.
func (r *Registry) Roles() *accesscontrol.Roles {
	return r.roles
}

// Add appends a required claim topic. Owner-gated.
func (r *Registry) Add(ctx context.Context, topic domain.ClaimTopic) error {
	if err := r.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	r.mu.Lock()
	if r.has(topic) {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeConflict, "claim topic %s already required", topic)
	}
	if len(r.topics) >= r.maxTopics {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeLimitExceeded, "cannot require more than %d claim topics", r.maxTopics)
	}
	r.topics = append(r.topics, topic)
	r.mu.Unlock()

	r.changed(ctx, events.ActionClaimTopicAdded, topic)
	return nil
}

// Remove deletes a required claim topic. Removing an absent topic fails with
// CodeNotFound; callers must check existence rather than rely on silent
// success.
func (r *Registry) Remove(ctx context.Context, topic domain.ClaimTopic) error {
	if err := r.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	r.mu.Lock()
	idx := -1
	for i, t := range r.topics {
		if t == topic {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return dErrors.Newf(dErrors.CodeNotFound, "claim topic %s is not required", topic)
	}
	r.topics = append(r.topics[:idx], r.topics[idx+1:]...)
	r.mu.Unlock()

	r.changed(ctx, events.ActionClaimTopicRemoved, topic)
	return nil
}

// Topics returns the required topics in insertion order.
func (r *Registry) Topics() []domain.ClaimTopic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ClaimTopic, len(r.topics))
	copy(out, r.topics)
	return out
}

// Has reports whether topic is required.
func (r *Registry) Has(topic domain.ClaimTopic) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.has(topic)
}

// has must be called with the lock held.
func (r *Registry) has(topic domain.ClaimTopic) bool {
	for _, t := range r.topics {
		if t == topic {
			return true
		}
	}
	return false
}

func (r *Registry) changed(ctx context.Context, action events.Action, topic domain.ClaimTopic) {
	if r.events != nil {
		_ = r.events.Emit(ctx, events.Event{
			Action:    action,
			ActorID:   requestcontext.Actor(ctx),
			Reason:    "topic " + topic.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	if r.onChange != nil {
		r.onChange(ctx)
	}
}
