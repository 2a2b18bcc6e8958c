package handler

import (
	"strings"
	"time"

	"veriledger/internal/identity/models"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /identities.
type RegisterRequest struct {
	Wallet   string `json:"wallet"`
	Identity string `json:"identity"`
	Country  uint16 `json:"country"`

	// Parsed values (populated by Validate)
	wallet   domain.WalletID
	identity domain.IdentityID
	country  domain.CountryCode
}

// Validate validates and parses the request.
func (r *RegisterRequest) Validate() error {
	r.Wallet = strings.TrimSpace(r.Wallet)
	if r.Wallet == "" {
		return dErrors.New(dErrors.CodeValidation, "wallet is required")
	}
	wallet, err := domain.ParseWalletID(r.Wallet)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid wallet")
	}
	r.wallet = wallet

	r.Identity = strings.TrimSpace(r.Identity)
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	identity, err := domain.ParseIdentityID(r.Identity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid identity")
	}
	r.identity = identity

	r.country = domain.CountryCode(r.Country)
	return nil
}

// UpdateIdentityRequest is the body for PUT /identities/{wallet}/identity.
type UpdateIdentityRequest struct {
	Identity string `json:"identity"`

	identity domain.IdentityID
}

func (r *UpdateIdentityRequest) Validate() error {
	r.Identity = strings.TrimSpace(r.Identity)
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	identity, err := domain.ParseIdentityID(r.Identity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid identity")
	}
	r.identity = identity
	return nil
}

// UpdateCountryRequest is the body for PUT /identities/{wallet}/country.
type UpdateCountryRequest struct {
	Country uint16 `json:"country"`

	country domain.CountryCode
}

func (r *UpdateCountryRequest) Validate() error {
	r.country = domain.CountryCode(r.Country)
	return nil
}

// BindingResponse is the representation of a wallet binding.
type BindingResponse struct {
	Wallet       string    `json:"wallet"`
	Identity     string    `json:"identity"`
	Country      uint16    `json:"country"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromBinding maps a domain binding to its response form.
func FromBinding(b models.Binding) BindingResponse {
	return BindingResponse{
		Wallet:       b.Wallet.String(),
		Identity:     b.Identity.String(),
		Country:      uint16(b.Country),
		RegisteredAt: b.RegisteredAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// ClaimRequest is the body for POST /claims and DELETE /claims.
type ClaimRequest struct {
	Identity string `json:"identity"`
	Issuer   string `json:"issuer"`
	Topic    uint64 `json:"topic"`

	identity domain.IdentityID
	issuer   domain.IssuerID
}

func (r *ClaimRequest) Validate() error {
	r.Identity = strings.TrimSpace(r.Identity)
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	identity, err := domain.ParseIdentityID(r.Identity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid identity")
	}
	r.identity = identity

	r.Issuer = strings.TrimSpace(r.Issuer)
	if r.Issuer == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	issuer, err := domain.ParseIssuerID(r.Issuer)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid issuer")
	}
	r.issuer = issuer
	return nil
}

// VerifiedResponse is the body for GET /identities/{wallet}/verified.
type VerifiedResponse struct {
	Wallet   string `json:"wallet"`
	Verified bool   `json:"verified"`
}
