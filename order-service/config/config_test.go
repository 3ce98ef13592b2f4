package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_Defaults(t *testing.T) {
	t.Setenv("ORDER_PORT", "9090")
	t.Setenv("ORDER_ORDER_ORDER_MINIMUM", "5000")

	cfg, err := ReadConfig()
	require.NoError(t, err)

	assert.Equal(t, "order-service", cfg.ServiceName)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(5000), cfg.Order.OrderMinimum)
	assert.Equal(t, time.Minute, cfg.Saga.WatchdogInterval)
	assert.Equal(t, 10*time.Minute, cfg.Saga.StaleAfter)
}

func TestReadConfig_UnlimitedOrderMinimum(t *testing.T) {
	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), cfg.Order.OrderMinimum)
}
