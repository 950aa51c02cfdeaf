package container

import (
	"testing"

	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	c, err := New(config.Default())
	require.NoError(t, err)

	assert.NotNil(t, c.Logger)
	assert.NotNil(t, c.RNG)
	assert.NotNil(t, c.Analysis)
	assert.Equal(t, internal.LogLevelInfo, c.Logger.GetLevel())
}

func TestNewOptions(t *testing.T) {
	logger := internal.NewNopLogger()
	r := &testkit.RNGAdapter{}
	c, err := New(config.Default(), WithLogger(logger), WithRNG(r))
	require.NoError(t, err)

	assert.Same(t, logger, c.Logger)
	assert.Same(t, r, c.RNG)
	assert.NoError(t, c.Shutdown())
}
