package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarketParsesSymbol(t *testing.T) {
	m, err := NewMarket("BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC", m.BaseAsset)
	assert.Equal(t, "USDT", m.QuoteAsset)

	_, err = NewMarket("BTCUSDT")
	assert.Error(t, err)
	_, err = NewMarket("-USDT")
	assert.Error(t, err)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	m, err := NewMarket("ETH-USDT")
	require.NoError(t, err)
	require.NoError(t, r.Register(m))

	got, ok := r.Get("ETH-USDT")
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.True(t, r.Exists("ETH-USDT"))
	assert.False(t, r.Exists("DOGE-USDT"))
	assert.Equal(t, 1, r.Count())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	m, _ := NewMarket("BTC-USDT")
	require.NoError(t, r.Register(m))
	assert.Error(t, r.Register(m))
	assert.Error(t, r.Register(nil))
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	for _, sym := range []string{"BTC-USDT", "ETH-USDT"} {
		m, _ := NewMarket(sym)
		require.NoError(t, r.Register(m))
	}
	assert.Len(t, r.List(), 2)
}
