// Package models holds the identity registry's domain types.
package models

import (
	"time"

	"veriledger/pkg/domain"
)

// Binding links a wallet to an externally owned identity record and an
// investor country code.
//
// Invariants:
//   - Wallet and Identity are non-empty
//   - A wallet has at most one binding at a time
//   - Country may be unset (zero); compliance modules that key on country
//     treat unset as "no country on file"
type Binding struct {
	Wallet       domain.WalletID
	Identity     domain.IdentityID
	Country      domain.CountryCode
	RegisteredAt time.Time
	UpdatedAt    time.Time
}
