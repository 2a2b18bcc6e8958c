package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriledger/internal/accesscontrol"
	"veriledger/internal/identity/cache"
	"veriledger/internal/identity/claims"
	"veriledger/internal/identity/store"
	"veriledger/internal/trust/issuers"
	"veriledger/internal/trust/topics"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

const (
	testOwner = domain.ActorID("owner-1")

	walletA = domain.WalletID("wallet-a")
	walletB = domain.WalletID("wallet-b")

	identityA = domain.IdentityID("identity-a")

	kycIssuer = domain.IssuerID("issuer-kyc")
	kycTopic  = domain.ClaimTopic(1)
)

type fixture struct {
	svc     *Service
	topics  *topics.Registry
	issuers *issuers.Registry
	claims  *claims.Store
	cache   *cache.InMemory
}

func ownerCtx() context.Context {
	return requestcontext.WithActor(context.Background(), testOwner)
}

func issuerCtx(issuer domain.IssuerID) context.Context {
	return requestcontext.WithActor(context.Background(), domain.ActorID(issuer.String()))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	trustRoles := accesscontrol.New(testOwner)
	topicsReg := topics.New(trustRoles, 15)
	issuersReg := issuers.New(trustRoles, 50, 15)
	claimStore := claims.NewStore()
	verificationCache := cache.NewInMemory(time.Minute)

	svc, err := New(context.Background(), Deps{
		RegistryID: "test",
		Store:      store.NewInMemory(),
		Topics:     topicsReg,
		Issuers:    issuersReg,
		Verifier:   claimStore,
		Roles:      accesscontrol.New(testOwner),
		Cache:      verificationCache,
	})
	require.NoError(t, err)

	topicsReg.OnChange(svc.InvalidateAll)
	issuersReg.OnChange(svc.InvalidateAll)
	claimStore.OnChange(svc.InvalidateAll)

	return &fixture{svc: svc, topics: topicsReg, issuers: issuersReg, claims: claimStore, cache: verificationCache}
}

// trustKYC requires the KYC topic and trusts kycIssuer for it.
func (f *fixture) trustKYC(t *testing.T) {
	t.Helper()
	require.NoError(t, f.topics.Add(ownerCtx(), kycTopic))
	require.NoError(t, f.issuers.Add(ownerCtx(), kycIssuer, []domain.ClaimTopic{kycTopic}))
}

func TestRegisterLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()

	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))

	ok, err := f.svc.Contains(ctx, walletA)
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := f.svc.Binding(ctx, walletA)
	require.NoError(t, err)
	assert.Equal(t, identityA, b.Identity)
	assert.Equal(t, domain.CountryCode(840), b.Country)

	err = f.svc.Register(ctx, walletA, identityA, 840)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	require.NoError(t, f.svc.Delete(ctx, walletA))
	ok, err = f.svc.Contains(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, ok)

	// A removed wallet can be registered again.
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))
}

func TestDelete_NotRegistered(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(ownerCtx(), walletA)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateCountry(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))

	require.NoError(t, f.svc.UpdateCountry(ctx, walletA, 276))
	country, err := f.svc.InvestorCountry(ctx, walletA)
	require.NoError(t, err)
	assert.Equal(t, domain.CountryCode(276), country)

	err = f.svc.UpdateCountry(ctx, walletB, 276)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))

	require.NoError(t, f.svc.UpdateIdentity(ctx, walletA, "identity-b"))
	got, err := f.svc.Identity(ctx, walletA)
	require.NoError(t, err)
	assert.Equal(t, domain.IdentityID("identity-b"), got)
}

func TestAgentGate(t *testing.T) {
	f := newFixture(t)
	stranger := requestcontext.WithActor(context.Background(), domain.ActorID("stranger"))

	assert.True(t, dErrors.HasCode(f.svc.Register(stranger, walletA, identityA, 0), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(f.svc.Delete(stranger, walletA), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(f.svc.UpdateCountry(stranger, walletA, 1), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(f.svc.UpdateIdentity(stranger, walletA, identityA), dErrors.CodeUnauthorized))
}

func TestIsVerified_FullPath(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	f.trustKYC(t)
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))

	// No claim yet.
	verified, err := f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, verified)

	require.NoError(t, f.claims.Attest(issuerCtx(kycIssuer), identityA, kycIssuer, kycTopic))
	verified, err = f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.True(t, verified)

	// Calling twice is stable and served from cache.
	verified, err = f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestIsVerified_NoBindingIsFalseNotError(t *testing.T) {
	f := newFixture(t)
	verified, err := f.svc.IsVerified(ownerCtx(), walletA)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestIsVerified_EmptyTopicSet(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))

	// With no required topics every bound wallet verifies.
	verified, err := f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestIsVerified_TopicWithoutTrustedIssuers(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	require.NoError(t, f.topics.Add(ctx, kycTopic))
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))

	verified, err := f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, verified, "a required topic nobody can attest to blocks everyone")
}

func TestIsVerified_RevocationInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	f.trustKYC(t)
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))
	require.NoError(t, f.claims.Attest(issuerCtx(kycIssuer), identityA, kycIssuer, kycTopic))

	verified, err := f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	require.True(t, verified)

	// Withdrawing trust from the issuer flips the cached result.
	require.NoError(t, f.issuers.Remove(ctx, kycIssuer))
	verified, err = f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestIsVerified_ClaimRevocationInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	f.trustKYC(t)
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))
	require.NoError(t, f.claims.Attest(issuerCtx(kycIssuer), identityA, kycIssuer, kycTopic))

	verified, err := f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	require.True(t, verified)

	require.NoError(t, f.claims.Revoke(issuerCtx(kycIssuer), identityA, kycIssuer, kycTopic))
	verified, err = f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestIsVerified_DeleteInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := ownerCtx()
	f.trustKYC(t)
	require.NoError(t, f.svc.Register(ctx, walletA, identityA, 840))
	require.NoError(t, f.claims.Attest(issuerCtx(kycIssuer), identityA, kycIssuer, kycTopic))

	verified, err := f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	require.True(t, verified)

	require.NoError(t, f.svc.Delete(ctx, walletA))
	verified, err = f.svc.IsVerified(ctx, walletA)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestClaims_OnlyIssuerMayManage(t *testing.T) {
	f := newFixture(t)

	err := f.claims.Attest(ownerCtx(), identityA, kycIssuer, kycTopic)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = f.claims.Revoke(ownerCtx(), identityA, kycIssuer, kycTopic)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = f.claims.Revoke(issuerCtx(kycIssuer), identityA, kycIssuer, kycTopic)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
