package compliance

import (
	"context"
	"log/slog"
	"sync"

	"veriledger/internal/accesscontrol"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	events "veriledger/pkg/platform/events"
	"veriledger/pkg/platform/events/publisher"
	"veriledger/pkg/requestcontext"
)

// StateSource supplies the ledger snapshot used to seed stateful modules at
// bind time. Implemented by the token ledger.
type StateSource interface {
	Holdings() map[domain.WalletID]uint64
	TotalSupply() uint64
}

// Compliance aggregates an ordered list of bound modules. Binding order is
// evaluation order: CanTransfer short-circuits on the first rejection, while
// the state hooks always reach every module.
type Compliance struct {
	mu         sync.RWMutex
	modules    []Module
	maxModules int

	state  StateSource
	roles  *accesscontrol.Roles
	events *publisher.Publisher
	logger *slog.Logger
}

func New(roles *accesscontrol.Roles, maxModules int, logger *slog.Logger) *Compliance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compliance{
		maxModules: maxModules,
		roles:      roles,
		logger:     logger,
	}
}

// WithEvents attaches the event publisher. Chainable at wiring time.
func (c *Compliance) WithEvents(p *publisher.Publisher) *Compliance {
	c.events = p
	return c
}

// WithState attaches the ledger snapshot source used to seed stateful
// modules. Chainable at wiring time.
func (c *Compliance) WithState(src StateSource) *Compliance {
	c.state = src
	return c
}

// Roles exposes the component's role set for admin wiring.
func (c *Compliance) Roles() *accesscontrol.Roles {
	return c.roles
}

// BindModule appends a module to the evaluation pipeline. Owner-gated.
// A module that mirrors ledger state (implements Seeder) is seeded from the
// attached StateSource, so binding after supply exists starts it from ledger
// truth rather than empty counters.
func (c *Compliance) BindModule(ctx context.Context, module Module) error {
	if err := c.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}
	if module == nil {
		return dErrors.New(dErrors.CodeValidation, "module is required")
	}

	// The snapshot is read before taking the module-list lock: the ledger
	// holds its own lock when it calls into the engine, so the two locks must
	// never nest in the opposite order.
	var balances map[domain.WalletID]uint64
	var supply uint64
	seeder, stateful := module.(Seeder)
	if stateful && c.state != nil {
		balances = c.state.Holdings()
		supply = c.state.TotalSupply()
	}

	c.mu.Lock()
	for _, m := range c.modules {
		if m.Name() == module.Name() {
			c.mu.Unlock()
			return dErrors.Newf(dErrors.CodeConflict, "module %s is already bound", module.Name())
		}
	}
	if len(c.modules) >= c.maxModules {
		c.mu.Unlock()
		return dErrors.Newf(dErrors.CodeLimitExceeded, "cannot bind more than %d modules", c.maxModules)
	}
	if stateful && c.state != nil {
		seeder.Seed(balances, supply)
	}
	c.modules = append(c.modules, module)
	c.mu.Unlock()

	c.emit(ctx, events.ActionModuleBound, module.Name())
	return nil
}

// UnbindModule removes a module from the pipeline by name. Owner-gated.
func (c *Compliance) UnbindModule(ctx context.Context, name string) error {
	if err := c.roles.RequireOwner(requestcontext.Actor(ctx)); err != nil {
		return err
	}

	c.mu.Lock()
	idx := -1
	for i, m := range c.modules {
		if m.Name() == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return dErrors.Newf(dErrors.CodeNotFound, "module %s is not bound", name)
	}
	c.modules = append(c.modules[:idx], c.modules[idx+1:]...)
	c.mu.Unlock()

	c.emit(ctx, events.ActionModuleUnbound, name)
	return nil
}

// ModuleNames returns the bound module names in evaluation order.
func (c *Compliance) ModuleNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.modules))
	for _, m := range c.modules {
		out = append(out, m.Name())
	}
	return out
}

// CanTransfer is the AND-aggregate over all bound modules, in binding order,
// short-circuiting on the first rejection. The rejecting module's name is
// returned for diagnostics. A module error is a fault and aborts evaluation.
func (c *Compliance) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, string, error) {
	c.mu.RLock()
	modules := c.modules
	c.mu.RUnlock()

	for _, m := range modules {
		ok, err := m.CanTransfer(ctx, from, to, amount)
		if err != nil {
			return false, m.Name(), dErrors.Wrap(err, dErrors.CodeModuleFault, "module "+m.Name()+" failed")
		}
		if !ok {
			return false, m.Name(), nil
		}
	}
	return true, "", nil
}

// Transferred broadcasts a committed transfer to every module. All modules
// are notified even if one faults; a fault is then reported so the caller
// can abort the encompassing mutation.
func (c *Compliance) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	return c.broadcast(ctx, func(m Module) error {
		return m.Transferred(ctx, from, to, amount)
	})
}

// Created broadcasts a committed mint to every module.
func (c *Compliance) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	return c.broadcast(ctx, func(m Module) error {
		return m.Created(ctx, to, amount)
	})
}

// Destroyed broadcasts a committed burn to every module.
func (c *Compliance) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	return c.broadcast(ctx, func(m Module) error {
		return m.Destroyed(ctx, from, amount)
	})
}

// broadcast notifies every module, even after one faults. Hooks already
// applied are not compensated: when the caller reverts the ledger mutation on
// a fault, every module's counters sit one event ahead of the ledger. Unbind
// and rebind the affected modules to re-seed them from ledger truth.
func (c *Compliance) broadcast(ctx context.Context, notify func(Module) error) error {
	c.mu.RLock()
	modules := c.modules
	c.mu.RUnlock()

	var fault error
	for _, m := range modules {
		if err := notify(m); err != nil {
			c.logger.ErrorContext(ctx, "compliance module hook failed",
				"module", m.Name(),
				"error", err.Error(),
			)
			if fault == nil {
				fault = dErrors.Wrap(err, dErrors.CodeModuleFault, "module "+m.Name()+" failed")
			}
		}
	}
	return fault
}

func (c *Compliance) emit(ctx context.Context, action events.Action, moduleName string) {
	if c.events == nil {
		return
	}
	_ = c.events.Emit(ctx, events.Event{
		Action:    action,
		ActorID:   requestcontext.Actor(ctx),
		Reason:    "module " + moduleName,
		RequestID: requestcontext.RequestID(ctx),
	})
}
