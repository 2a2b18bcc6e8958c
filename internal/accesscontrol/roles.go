// Package accesscontrol implements the per-component role model. Each
// stateful component owns its own Roles set; there is no process-wide role
// singleton.
package accesscontrol

import (
	"sync"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// Roles tracks Owner and Agent membership for one component.
//
// Owners configure the component (caps, module bindings, role membership);
// Agents perform identity and ledger lifecycle operations. Role mutations
// are themselves owner-gated and atomic under the internal lock.
type Roles struct {
	mu     sync.RWMutex
	owners map[domain.ActorID]struct{}
	agents map[domain.ActorID]struct{}
}

// New creates a role set with a single initial owner.
func New(owner domain.ActorID) *Roles {
	r := &Roles{
		owners: make(map[domain.ActorID]struct{}),
		agents: make(map[domain.ActorID]struct{}),
	}
	if !owner.IsNil() {
		r.owners[owner] = struct{}{}
	}
	return r
}

// IsOwner reports whether actor holds the Owner role.
func (r *Roles) IsOwner(actor domain.ActorID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[actor]
	return ok
}

// IsAgent reports whether actor holds the Agent role.
func (r *Roles) IsAgent(actor domain.ActorID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[actor]
	return ok
}

// RequireOwner fails with CodeUnauthorized unless actor is an owner.
func (r *Roles) RequireOwner(actor domain.ActorID) error {
	if !r.IsOwner(actor) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the owner role")
	}
	return nil
}

// RequireAgent fails with CodeUnauthorized unless actor is an agent or owner.
// Owners implicitly hold agent privileges so a fresh deployment is operable
// before any agent is appointed.
func (r *Roles) RequireAgent(actor domain.ActorID) error {
	if !r.IsAgent(actor) && !r.IsOwner(actor) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the agent role")
	}
	return nil
}

// AddAgent grants the Agent role to target. Owner-gated.
func (r *Roles) AddAgent(actor, target domain.ActorID) error {
	if err := r.RequireOwner(actor); err != nil {
		return err
	}
	if target.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "agent id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[target]; ok {
		return dErrors.New(dErrors.CodeConflict, "actor already holds the agent role")
	}
	r.agents[target] = struct{}{}
	return nil
}

// RemoveAgent revokes the Agent role from target. Owner-gated.
func (r *Roles) RemoveAgent(actor, target domain.ActorID) error {
	if err := r.RequireOwner(actor); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[target]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "actor does not hold the agent role")
	}
	delete(r.agents, target)
	return nil
}

// AddOwner grants the Owner role to target. Owner-gated.
func (r *Roles) AddOwner(actor, target domain.ActorID) error {
	if err := r.RequireOwner(actor); err != nil {
		return err
	}
	if target.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[target]; ok {
		return dErrors.New(dErrors.CodeConflict, "actor already holds the owner role")
	}
	r.owners[target] = struct{}{}
	return nil
}

// RemoveOwner revokes the Owner role from target. Owner-gated. The last
// owner cannot be removed; an ownerless component would be unconfigurable.
func (r *Roles) RemoveOwner(actor, target domain.ActorID) error {
	if err := r.RequireOwner(actor); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[target]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "actor does not hold the owner role")
	}
	if len(r.owners) == 1 {
		return dErrors.New(dErrors.CodeInvalidState, "cannot remove the last owner")
	}
	delete(r.owners, target)
	return nil
}

// Agents returns the current agent set. Test and admin-surface helper.
func (r *Roles) Agents() []domain.ActorID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ActorID, 0, len(r.agents))
	for a := range r.agents {
		out = append(out, a)
	}
	return out
}
