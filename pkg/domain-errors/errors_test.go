package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "wallet is not registered")
	assert.Equal(t, CodeNotFound, err.Code())
	assert.Equal(t, "wallet is not registered", err.Message())
	assert.Equal(t, "not_found: wallet is not registered", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load binding")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, CodeInternal, err.Code())
}

func TestHasCode(t *testing.T) {
	err := Newf(CodeInsufficientBalance, "balance %d below amount %d", 10, 20)
	assert.True(t, HasCode(err, CodeInsufficientBalance))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	inner := New(CodeComplianceRejected, "rejected by module max-balance")
	outer := fmt.Errorf("batch item 2: %w", inner)
	assert.True(t, HasCode(outer, CodeComplianceRejected))
	assert.Equal(t, CodeComplianceRejected, CodeOf(outer))
}

func TestCodeOf_Fallback(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
