package modules

import (
	"context"
	"sync"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// CountrySource resolves a wallet's investor country. Wired to the identity
// registry; the module holds a read-only relation, not ownership.
type CountrySource interface {
	InvestorCountry(ctx context.Context, wallet domain.WalletID) (domain.CountryCode, error)
}

// CountryAllowList permits receiving only in allowed jurisdictions.
// Mints are subject to the same gate: a newly credited wallet must sit in an
// allowed country.
type CountryAllowList struct {
	mu        sync.RWMutex
	allowed   map[domain.CountryCode]struct{}
	countries CountrySource
}

func NewCountryAllowList(countries CountrySource, allowed []domain.CountryCode) *CountryAllowList {
	m := &CountryAllowList{
		allowed:   make(map[domain.CountryCode]struct{}, len(allowed)),
		countries: countries,
	}
	for _, c := range allowed {
		m.allowed[c] = struct{}{}
	}
	return m
}

func (m *CountryAllowList) Name() string { return "country-allow-list" }

// Allow adds a country to the allow list.
func (m *CountryAllowList) Allow(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowed[country] = struct{}{}
}

// Disallow removes a country from the allow list.
func (m *CountryAllowList) Disallow(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.allowed, country)
}

func (m *CountryAllowList) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	country, err := m.countries.InvestorCountry(ctx, to)
	if err != nil {
		// Recipient verification happens before compliance, so a missing
		// binding here is internal inconsistency, not a business rejection.
		return false, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "country lookup failed")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.allowed[country]
	return ok, nil
}

func (m *CountryAllowList) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	return nil
}

func (m *CountryAllowList) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	return nil
}

func (m *CountryAllowList) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	return nil
}

// CountryDenyList blocks receiving in restricted jurisdictions.
type CountryDenyList struct {
	mu        sync.RWMutex
	denied    map[domain.CountryCode]struct{}
	countries CountrySource
}

func NewCountryDenyList(countries CountrySource, denied []domain.CountryCode) *CountryDenyList {
	m := &CountryDenyList{
		denied:    make(map[domain.CountryCode]struct{}, len(denied)),
		countries: countries,
	}
	for _, c := range denied {
		m.denied[c] = struct{}{}
	}
	return m
}

func (m *CountryDenyList) Name() string { return "country-deny-list" }

// Deny adds a country to the deny list.
func (m *CountryDenyList) Deny(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[country] = struct{}{}
}

// Undeny removes a country from the deny list.
func (m *CountryDenyList) Undeny(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.denied, country)
}

func (m *CountryDenyList) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	country, err := m.countries.InvestorCountry(ctx, to)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "country lookup failed")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, denied := m.denied[country]
	return !denied, nil
}

func (m *CountryDenyList) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	return nil
}

func (m *CountryDenyList) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	return nil
}

func (m *CountryDenyList) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	return nil
}
