// Package store persists identity bindings. The storage is shared
// infrastructure: several identity registry instances may bind to one store
// without owning it.
package store

import (
	"context"

	"veriledger/internal/identity/models"
	"veriledger/pkg/domain"
)

// Store is the identity-binding storage contract. Implementations return
// pkg/platform/sentinel errors for factual failures (not found, conflict);
// the identity service translates them into domain errors.
type Store interface {
	// Binding returns the binding for wallet, or sentinel.ErrNotFound.
	Binding(ctx context.Context, wallet domain.WalletID) (*models.Binding, error)
	// Create stores a new binding; sentinel.ErrConflict if one exists.
	Create(ctx context.Context, binding *models.Binding) error
	// Update replaces an existing binding; sentinel.ErrNotFound if none.
	Update(ctx context.Context, binding *models.Binding) error
	// Delete removes the binding; sentinel.ErrNotFound if none.
	Delete(ctx context.Context, wallet domain.WalletID) error

	// BindRegistry records that a registry instance reads from this store.
	// Many registries may bind to one store; the relation is non-owning.
	BindRegistry(ctx context.Context, registryID string) error
	// UnbindRegistry removes the relation; sentinel.ErrNotFound if absent.
	UnbindRegistry(ctx context.Context, registryID string) error
	// BoundRegistries lists bound registry IDs in binding order.
	BoundRegistries(ctx context.Context) ([]string, error)
}
