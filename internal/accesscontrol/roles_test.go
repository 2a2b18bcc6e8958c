package accesscontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

const (
	owner = domain.ActorID("owner-1")
	agent = domain.ActorID("agent-1")
	other = domain.ActorID("other-1")
)

func TestInitialOwner(t *testing.T) {
	r := New(owner)
	assert.True(t, r.IsOwner(owner))
	assert.NoError(t, r.RequireOwner(owner))
	assert.True(t, dErrors.HasCode(r.RequireOwner(other), dErrors.CodeUnauthorized))
}

func TestOwnerImpliesAgent(t *testing.T) {
	r := New(owner)
	assert.NoError(t, r.RequireAgent(owner))
	assert.False(t, r.IsAgent(owner), "implicit privilege is not membership")
}

func TestAddRemoveAgent(t *testing.T) {
	r := New(owner)
	require.NoError(t, r.AddAgent(owner, agent))
	assert.True(t, r.IsAgent(agent))
	assert.NoError(t, r.RequireAgent(agent))

	err := r.AddAgent(owner, agent)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	require.NoError(t, r.RemoveAgent(owner, agent))
	assert.True(t, dErrors.HasCode(r.RequireAgent(agent), dErrors.CodeUnauthorized))

	err = r.RemoveAgent(owner, agent)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRoleMutationsAreOwnerGated(t *testing.T) {
	r := New(owner)
	assert.True(t, dErrors.HasCode(r.AddAgent(other, agent), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(r.RemoveAgent(other, agent), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(r.AddOwner(other, agent), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(r.RemoveOwner(other, owner), dErrors.CodeUnauthorized))
}

func TestOwnerSuccession(t *testing.T) {
	r := New(owner)
	require.NoError(t, r.AddOwner(owner, other))
	assert.True(t, r.IsOwner(other))

	require.NoError(t, r.RemoveOwner(other, owner))
	assert.False(t, r.IsOwner(owner))
}

func TestLastOwnerCannotBeRemoved(t *testing.T) {
	r := New(owner)
	err := r.RemoveOwner(owner, owner)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	assert.True(t, r.IsOwner(owner))
}

func TestAgentsSnapshot(t *testing.T) {
	r := New(owner)
	require.NoError(t, r.AddAgent(owner, agent))
	require.NoError(t, r.AddAgent(owner, other))
	assert.ElementsMatch(t, []domain.ActorID{agent, other}, r.Agents())
}
