package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriledger/internal/accesscontrol"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

const testOwner = domain.ActorID("owner-1")

// stubModule is a scriptable module for engine tests.
type stubModule struct {
	name    string
	allow   bool
	checkEr error
	hookEr  error

	checks int
	hooks  int
}

func (m *stubModule) Name() string { return m.name }

func (m *stubModule) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	m.checks++
	return m.allow, m.checkEr
}

func (m *stubModule) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	m.hooks++
	return m.hookEr
}

func (m *stubModule) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	m.hooks++
	return m.hookEr
}

func (m *stubModule) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	m.hooks++
	return m.hookEr
}

func ownerCtx() context.Context {
	return requestcontext.WithActor(context.Background(), testOwner)
}

func newEngine(maxModules int) *Compliance {
	return New(accesscontrol.New(testOwner), maxModules, nil)
}

func TestBindModule(t *testing.T) {
	c := newEngine(5)
	ctx := ownerCtx()

	require.NoError(t, c.BindModule(ctx, &stubModule{name: "a", allow: true}))
	require.NoError(t, c.BindModule(ctx, &stubModule{name: "b", allow: true}))
	assert.Equal(t, []string{"a", "b"}, c.ModuleNames())

	err := c.BindModule(ctx, &stubModule{name: "a", allow: true})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestBindModule_OwnerGated(t *testing.T) {
	c := newEngine(5)
	stranger := requestcontext.WithActor(context.Background(), domain.ActorID("stranger"))

	err := c.BindModule(stranger, &stubModule{name: "a", allow: true})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = c.UnbindModule(stranger, "a")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestBindModule_Cap(t *testing.T) {
	c := newEngine(2)
	ctx := ownerCtx()
	require.NoError(t, c.BindModule(ctx, &stubModule{name: "a", allow: true}))
	require.NoError(t, c.BindModule(ctx, &stubModule{name: "b", allow: true}))

	err := c.BindModule(ctx, &stubModule{name: "c", allow: true})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLimitExceeded))
}

func TestUnbindModule(t *testing.T) {
	c := newEngine(5)
	ctx := ownerCtx()
	require.NoError(t, c.BindModule(ctx, &stubModule{name: "a", allow: true}))
	require.NoError(t, c.UnbindModule(ctx, "a"))
	assert.Empty(t, c.ModuleNames())

	err := c.UnbindModule(ctx, "a")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCanTransfer_ShortCircuits(t *testing.T) {
	c := newEngine(5)
	ctx := ownerCtx()
	first := &stubModule{name: "first", allow: true}
	rejecting := &stubModule{name: "rejecting", allow: false}
	unreached := &stubModule{name: "unreached", allow: true}
	require.NoError(t, c.BindModule(ctx, first))
	require.NoError(t, c.BindModule(ctx, rejecting))
	require.NoError(t, c.BindModule(ctx, unreached))

	ok, rejectedBy, err := c.CanTransfer(ctx, "w1", "w2", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "rejecting", rejectedBy)
	assert.Equal(t, 1, first.checks)
	assert.Equal(t, 0, unreached.checks)
}

func TestCanTransfer_AllPass(t *testing.T) {
	c := newEngine(5)
	ctx := ownerCtx()
	require.NoError(t, c.BindModule(ctx, &stubModule{name: "a", allow: true}))

	ok, rejectedBy, err := c.CanTransfer(ctx, "w1", "w2", 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rejectedBy)
}

func TestCanTransfer_FaultAborts(t *testing.T) {
	c := newEngine(5)
	ctx := ownerCtx()
	faulty := &stubModule{name: "faulty", checkEr: errors.New("boom")}
	require.NoError(t, c.BindModule(ctx, faulty))

	ok, rejectedBy, err := c.CanTransfer(ctx, "w1", "w2", 10)
	assert.False(t, ok)
	assert.Equal(t, "faulty", rejectedBy)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeModuleFault))
}

func TestBroadcast_ReachesAllModulesDespiteFault(t *testing.T) {
	c := newEngine(5)
	ctx := ownerCtx()
	faulty := &stubModule{name: "faulty", allow: true, hookEr: errors.New("boom")}
	after := &stubModule{name: "after", allow: true}
	require.NoError(t, c.BindModule(ctx, faulty))
	require.NoError(t, c.BindModule(ctx, after))

	err := c.Transferred(ctx, "w1", "w2", 10)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeModuleFault))
	assert.Equal(t, 1, after.hooks, "later modules still see the hook")

	require.NoError(t, c.UnbindModule(ctx, "faulty"))
	assert.NoError(t, c.Created(ctx, "w2", 10))
	assert.NoError(t, c.Destroyed(ctx, "w1", 10))
	assert.Equal(t, 3, after.hooks)
}

// seedingModule records the snapshot BindModule hands it.
type seedingModule struct {
	stubModule
	balances map[domain.WalletID]uint64
	supply   uint64
	seeded   int
}

func (m *seedingModule) Seed(balances map[domain.WalletID]uint64, totalSupply uint64) {
	m.balances = balances
	m.supply = totalSupply
	m.seeded++
}

type stubState struct {
	balances map[domain.WalletID]uint64
	supply   uint64
}

func (s *stubState) Holdings() map[domain.WalletID]uint64 { return s.balances }
func (s *stubState) TotalSupply() uint64                  { return s.supply }

func TestBindModule_SeedsFromState(t *testing.T) {
	c := newEngine(5).WithState(&stubState{
		balances: map[domain.WalletID]uint64{"wallet-1": 100},
		supply:   100,
	})

	m := &seedingModule{stubModule: stubModule{name: "seeded", allow: true}}
	require.NoError(t, c.BindModule(ownerCtx(), m))

	assert.Equal(t, 1, m.seeded)
	assert.Equal(t, uint64(100), m.supply)
	assert.Equal(t, uint64(100), m.balances["wallet-1"])
}

func TestBindModule_NoStateSourceSkipsSeeding(t *testing.T) {
	c := newEngine(5)
	m := &seedingModule{stubModule: stubModule{name: "seeded", allow: true}}
	require.NoError(t, c.BindModule(ownerCtx(), m))
	assert.Zero(t, m.seeded)
}
