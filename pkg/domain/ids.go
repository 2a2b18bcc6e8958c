package domain

import (
	"fmt"
	"strconv"
)

// WalletID identifies an account on the ledger. A wallet is not itself an
// identity; it may be linked to at most one identity record at a time.
type WalletID string

// ParseWalletID validates and returns a WalletID.
// Construct at trust boundaries; direct casting bypasses validation.
func ParseWalletID(s string) (WalletID, error) {
	if s == "" {
		return "", fmt.Errorf("wallet id cannot be empty")
	}
	if len(s) > 128 {
		return "", fmt.Errorf("wallet id must be 128 characters or less")
	}
	return WalletID(s), nil
}

func (w WalletID) String() string {
	return string(w)
}

// IsNil returns true if the wallet ID is empty.
func (w WalletID) IsNil() bool {
	return w == ""
}

// IdentityID is an opaque reference to an externally owned identity record.
// The ledger never inspects identity internals, only the reference.
type IdentityID string

func ParseIdentityID(s string) (IdentityID, error) {
	if s == "" {
		return "", fmt.Errorf("identity id cannot be empty")
	}
	return IdentityID(s), nil
}

func (i IdentityID) String() string {
	return string(i)
}

func (i IdentityID) IsNil() bool {
	return i == ""
}

// IssuerID is an opaque reference to a claim issuer identity.
type IssuerID string

func ParseIssuerID(s string) (IssuerID, error) {
	if s == "" {
		return "", fmt.Errorf("issuer id cannot be empty")
	}
	return IssuerID(s), nil
}

func (i IssuerID) String() string {
	return string(i)
}

// ActorID identifies the caller of an operation, as established by the
// authentication layer. Role membership is keyed by actor.
type ActorID string

func (a ActorID) String() string {
	return string(a)
}

func (a ActorID) IsNil() bool {
	return a == ""
}

// ClaimTopic is a category of attestation (e.g. "KYC verified").
// Topics are opaque unsigned integers by convention with the claim scheme.
type ClaimTopic uint64

func ParseClaimTopic(s string) (ClaimTopic, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid claim topic %q: must be an unsigned integer", s)
	}
	return ClaimTopic(v), nil
}

func (t ClaimTopic) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// CountryCode is an ISO-3166 numeric country code. Zero means unset.
type CountryCode uint16

// CountryUnset is the zero value for a wallet with no recorded country.
const CountryUnset CountryCode = 0

func ParseCountryCode(s string) (CountryCode, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid country code %q: must fit in 16 bits", s)
	}
	return CountryCode(v), nil
}

func (c CountryCode) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

func (c CountryCode) IsSet() bool {
	return c != CountryUnset
}
