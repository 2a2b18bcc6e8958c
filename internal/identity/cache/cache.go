// Package cache caches verification outcomes. Verification walks every
// required topic and every trusted issuer, so hot wallets benefit from a
// short-TTL cache. Any trust-model or binding mutation invalidates.
package cache

import (
	"context"

	"veriledger/pkg/domain"
)

// Cache stores recent verification results. Implementations are best-effort:
// a miss or a failed set never fails the verification itself.
type Cache interface {
	// Get returns the cached result and whether one was present.
	Get(ctx context.Context, wallet domain.WalletID) (verified bool, ok bool)
	Set(ctx context.Context, wallet domain.WalletID, verified bool)
	// Invalidate drops the entry for one wallet (binding changed).
	Invalidate(ctx context.Context, wallet domain.WalletID)
	// InvalidateAll drops every entry (trust model changed).
	InvalidateAll(ctx context.Context)
}
