package topics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriledger/internal/accesscontrol"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

const testOwner = domain.ActorID("owner-1")

func ownerCtx() context.Context {
	return requestcontext.WithActor(context.Background(), testOwner)
}

func TestAddAndRemove(t *testing.T) {
	r := New(accesscontrol.New(testOwner), 5)
	ctx := ownerCtx()

	require.NoError(t, r.Add(ctx, 1))
	require.NoError(t, r.Add(ctx, 7))
	assert.Equal(t, []domain.ClaimTopic{1, 7}, r.Topics())
	assert.True(t, r.Has(7))

	require.NoError(t, r.Remove(ctx, 1))
	assert.Equal(t, []domain.ClaimTopic{7}, r.Topics())
	assert.False(t, r.Has(1))
}

func TestAdd_Duplicate(t *testing.T) {
	r := New(accesscontrol.New(testOwner), 5)
	ctx := ownerCtx()
	require.NoError(t, r.Add(ctx, 1))

	err := r.Add(ctx, 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAdd_Cap(t *testing.T) {
	r := New(accesscontrol.New(testOwner), 2)
	ctx := ownerCtx()
	require.NoError(t, r.Add(ctx, 1))
	require.NoError(t, r.Add(ctx, 2))

	err := r.Add(ctx, 3)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLimitExceeded))
}

func TestRemove_Absent(t *testing.T) {
	r := New(accesscontrol.New(testOwner), 5)

	err := r.Remove(ownerCtx(), 42)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestOwnerGate(t *testing.T) {
	r := New(accesscontrol.New(testOwner), 5)
	stranger := requestcontext.WithActor(context.Background(), domain.ActorID("stranger"))

	assert.True(t, dErrors.HasCode(r.Add(stranger, 1), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(r.Remove(stranger, 1), dErrors.CodeUnauthorized))
}

func TestOnChange(t *testing.T) {
	r := New(accesscontrol.New(testOwner), 5)
	ctx := ownerCtx()

	var calls int
	r.OnChange(func(context.Context) { calls++ })

	require.NoError(t, r.Add(ctx, 1))
	require.NoError(t, r.Remove(ctx, 1))
	assert.Equal(t, 2, calls)

	// Failed mutations do not fire the hook.
	_ = r.Remove(ctx, 1)
	assert.Equal(t, 2, calls)
}
