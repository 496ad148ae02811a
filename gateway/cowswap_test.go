package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedPrice(t *testing.T) {
	// Sell 1000 USDC (6 decimals), receive 0.4 ETH (18 decimals):
	// price = 1000 / 0.4 = 2500 USDC per ETH.
	price, err := impliedPrice("1000000000", "400000000000000000", 6, 18)
	require.NoError(t, err)
	assert.InDelta(t, 2500.0, price, 1e-9)
}

func TestImpliedPriceErrors(t *testing.T) {
	_, err := impliedPrice("abc", "1", 6, 18)
	assert.Error(t, err)

	_, err = impliedPrice("1", "abc", 6, 18)
	assert.Error(t, err)

	_, err = impliedPrice("1", "0", 6, 18)
	assert.Error(t, err)
}
