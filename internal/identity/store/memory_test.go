package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"veriledger/internal/identity/models"
	"veriledger/pkg/domain"
	"veriledger/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) binding(wallet domain.WalletID) *models.Binding {
	now := time.Now().UTC()
	return &models.Binding{
		Wallet:       wallet,
		Identity:     domain.IdentityID("id-" + wallet.String()),
		Country:      840,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
}

func (s *InMemoryStoreSuite) TestCreateAndGet() {
	b := s.binding("wallet-1")
	require.NoError(s.T(), s.store.Create(s.ctx, b))

	got, err := s.store.Binding(s.ctx, "wallet-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), b.Identity, got.Identity)
	assert.Equal(s.T(), domain.CountryCode(840), got.Country)
}

func (s *InMemoryStoreSuite) TestCreate_Conflict() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.binding("wallet-1")))
	err := s.store.Create(s.ctx, s.binding("wallet-1"))
	assert.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestGet_NotFound() {
	_, err := s.store.Binding(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdate() {
	b := s.binding("wallet-1")
	require.NoError(s.T(), s.store.Create(s.ctx, b))

	b.Country = 276
	require.NoError(s.T(), s.store.Update(s.ctx, b))

	got, err := s.store.Binding(s.ctx, "wallet-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.CountryCode(276), got.Country)
}

func (s *InMemoryStoreSuite) TestUpdate_NotFound() {
	err := s.store.Update(s.ctx, s.binding("missing"))
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDelete() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.binding("wallet-1")))
	require.NoError(s.T(), s.store.Delete(s.ctx, "wallet-1"))

	_, err := s.store.Binding(s.ctx, "wallet-1")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	assert.ErrorIs(s.T(), s.store.Delete(s.ctx, "wallet-1"), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDeleteThenRecreate() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.binding("wallet-1")))
	require.NoError(s.T(), s.store.Delete(s.ctx, "wallet-1"))
	require.NoError(s.T(), s.store.Create(s.ctx, s.binding("wallet-1")))
}

func (s *InMemoryStoreSuite) TestReturnedBindingIsACopy() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.binding("wallet-1")))

	got, err := s.store.Binding(s.ctx, "wallet-1")
	require.NoError(s.T(), err)
	got.Country = 999

	again, err := s.store.Binding(s.ctx, "wallet-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.CountryCode(840), again.Country)
}

func (s *InMemoryStoreSuite) TestRegistryBinding() {
	require.NoError(s.T(), s.store.BindRegistry(s.ctx, "primary"))
	require.NoError(s.T(), s.store.BindRegistry(s.ctx, "secondary"))
	assert.ErrorIs(s.T(), s.store.BindRegistry(s.ctx, "primary"), sentinel.ErrConflict)

	ids, err := s.store.BoundRegistries(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"primary", "secondary"}, ids)

	require.NoError(s.T(), s.store.UnbindRegistry(s.ctx, "primary"))
	assert.ErrorIs(s.T(), s.store.UnbindRegistry(s.ctx, "primary"), sentinel.ErrNotFound)
}
