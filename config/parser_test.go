package config_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-handle/config"
	"github.com/saiset-co/sai-handle/types"
)

func TestParser_GetValue(t *testing.T) {
	cfg, err := config.NewLoader().Load([]byte(sample))
	require.NoError(t, err)

	parser, err := config.NewParser(cfg)
	require.NoError(t, err)

	assert.Equal(t, "lifo", parser.GetValue("chain.order", "fifo"))
	assert.Equal(t, 35, parser.GetValue("handlers.metrics.weight", 0))
	assert.Equal(t, "jobs", parser.GetValue("handlers.metrics.params.chain", ""))
	assert.Equal(t, "fallback", parser.GetValue("handlers.missing.weight", "fallback"))
	assert.Equal(t, "fallback", parser.GetValue("chain.order.deeper", "fallback"))
}

func TestParser_GetAs(t *testing.T) {
	cfg, err := config.NewLoader().Load([]byte(sample))
	require.NoError(t, err)

	parser, err := config.NewParser(cfg)
	require.NoError(t, err)

	var item types.HandlerItemConfig
	require.NoError(t, parser.GetAs("handlers.rate_limit", &item))
	assert.True(t, item.Enabled)
	assert.Equal(t, 60, item.Weight)
	assert.Equal(t, 5, item.Params["burst"])

	assert.ErrorIs(t, parser.GetAs("handlers.unknown", &item), types.ErrConfigNotFound)
}

func TestParser_Paths(t *testing.T) {
	parser, err := config.NewParser(config.NewLoader().Defaults())
	require.NoError(t, err)

	paths := parser.Paths()
	assert.Contains(t, paths, "chain.order")
	assert.Contains(t, paths, "handlers.timeout.params.timeout_ms")
	assert.True(t, sort.StringsAreSorted(paths))

	_, err = config.NewParser(nil)
	assert.ErrorIs(t, err, types.ErrConfigIsNil)
}
