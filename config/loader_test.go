package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/elasticbud/config"
)

type testConfig struct {
	Host    string `env:"TEST_CLUSTER_HOST" envDefault:"localhost"`
	Port    int    `env:"TEST_CLUSTER_PORT" envDefault:"443"`
	Verbose bool   `env:"TEST_CLUSTER_VERBOSE" envDefault:"false"`
}

type requiredConfig struct {
	Host string `env:"TEST_REQUIRED_HOST,required"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_CLUSTER_HOST", "search.example.com")
	t.Setenv("TEST_CLUSTER_PORT", "9200")
	t.Setenv("TEST_CLUSTER_VERBOSE", "true")

	var cfg testConfig
	err := config.Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "search.example.com", cfg.Host)
	assert.Equal(t, 9200, cfg.Port)
	assert.True(t, cfg.Verbose)
}

func TestLoad_DefaultValues(t *testing.T) {
	var cfg testConfig
	err := config.Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 443, cfg.Port)
	assert.False(t, cfg.Verbose)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestMustLoad_PanicsOnFailure(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
