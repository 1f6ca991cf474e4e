package util

import (
	"testing"

	"github.com/cfit-project/cfit-ledger/config"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCoin(t *testing.T) {
	tests := []struct {
		in       *uint256.Int
		expected string
	}{
		{nil, "0.00"},
		{uint256.NewInt(0), "0.00"},
		{uint256.NewInt(1), "0.000000000000000001"},
		{config.Coins(55), "55.00"},
		{new(uint256.Int).Div(config.COIN, uint256.NewInt(2)), "0.50"},
		{config.Coins(2000), "2000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatCoin(tt.in))
	}
}

func TestParseCoin(t *testing.T) {
	n, err := ParseCoin("50")
	require.NoError(t, err)
	assert.Equal(t, config.Coins(50), n)

	n, err = ParseCoin("0.5")
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", n.Dec())

	n, err = ParseCoin(".000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1), n)

	n, err = ParseCoin("0")
	require.NoError(t, err)
	assert.True(t, n.IsZero())

	for _, bad := range []string{"", "1.", "abc", "-1", "1.0000000000000000001", "1e5"} {
		_, err = ParseCoin(bad)
		assert.Error(t, err, bad)
	}

	// round trip
	n, err = ParseCoin(FormatCoin(config.Coins(1234)))
	require.NoError(t, err)
	assert.Equal(t, config.Coins(1234), n)
}

func TestParseAmount(t *testing.T) {
	n, err := ParseAmount("55000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, config.Coins(55), n)

	_, err = ParseAmount("")
	assert.Error(t, err)
	_, err = ParseAmount("0x10")
	assert.Error(t, err)
}

func TestU64KeyOrder(t *testing.T) {
	assert.Less(t, string(U64Key(1)), string(U64Key(256)))
}
