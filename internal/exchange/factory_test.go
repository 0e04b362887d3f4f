package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhawk/internal/config"
)

func TestNewClient(t *testing.T) {
	for _, name := range []string{"kraken", "binance"} {
		c, err := NewClient(name, testLogger(), config.ExchangeConfig{})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}

	_, err := NewClient("mtgox", testLogger(), config.ExchangeConfig{})
	assert.Error(t, err)
}
