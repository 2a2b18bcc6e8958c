package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWalletID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseWalletID("")
		require.Error(t, err)
	})

	t.Run("rejects overlong input", func(t *testing.T) {
		_, err := ParseWalletID(strings.Repeat("a", 129))
		require.Error(t, err)
	})

	t.Run("accepts a plain identifier", func(t *testing.T) {
		w, err := ParseWalletID("wallet-1")
		require.NoError(t, err)
		assert.Equal(t, "wallet-1", w.String())
		assert.False(t, w.IsNil())
	})
}

func TestParseClaimTopic(t *testing.T) {
	topic, err := ParseClaimTopic("42")
	require.NoError(t, err)
	assert.Equal(t, ClaimTopic(42), topic)

	_, err = ParseClaimTopic("-1")
	require.Error(t, err)

	_, err = ParseClaimTopic("kyc")
	require.Error(t, err)
}

func TestParseCountryCode(t *testing.T) {
	code, err := ParseCountryCode("840")
	require.NoError(t, err)
	assert.Equal(t, CountryCode(840), code)
	assert.True(t, code.IsSet())
	assert.False(t, CountryUnset.IsSet())

	_, err = ParseCountryCode("70000")
	require.Error(t, err, "must fit in 16 bits")
}
