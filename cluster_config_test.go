package elasticbud_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/elasticbud"
	"github.com/dmitrymomot/elasticbud/config"
)

func validConfig() elasticbud.ClusterConfig {
	return elasticbud.ClusterConfig{
		Host:          "search.example.com",
		Port:          443,
		Username:      "reader",
		Password:      "secret",
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		MaxIdleConns:  10,
	}
}

func TestClusterConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*elasticbud.ClusterConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *elasticbud.ClusterConfig) {}},
		{name: "valid without credentials", mutate: func(c *elasticbud.ClusterConfig) {
			c.Username, c.Password = "", ""
		}},
		{name: "empty host", mutate: func(c *elasticbud.ClusterConfig) { c.Host = "" }, wantErr: true},
		{name: "host with scheme", mutate: func(c *elasticbud.ClusterConfig) { c.Host = "https://search.example.com" }, wantErr: true},
		{name: "host with path", mutate: func(c *elasticbud.ClusterConfig) { c.Host = "search.example.com/prod" }, wantErr: true},
		{name: "host with whitespace", mutate: func(c *elasticbud.ClusterConfig) { c.Host = "search example.com" }, wantErr: true},
		{name: "zero port", mutate: func(c *elasticbud.ClusterConfig) { c.Port = 0 }, wantErr: true},
		{name: "port out of range", mutate: func(c *elasticbud.ClusterConfig) { c.Port = 70000 }, wantErr: true},
		{name: "username without password", mutate: func(c *elasticbud.ClusterConfig) { c.Password = "" }, wantErr: true},
		{name: "password without username", mutate: func(c *elasticbud.ClusterConfig) { c.Username = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *elasticbud.ClusterConfig) { c.Timeout = -time.Second }, wantErr: true},
		{name: "zero max retries", mutate: func(c *elasticbud.ClusterConfig) { c.MaxRetries = 0 }, wantErr: true},
		{name: "negative retry interval", mutate: func(c *elasticbud.ClusterConfig) { c.RetryInterval = -time.Millisecond }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, elasticbud.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClusterConfig_FromEnvironment(t *testing.T) {
	t.Setenv("ELASTICBUD_CLIENT_FQDN", "search.internal.example.com")
	t.Setenv("ELASTICBUD_USERNAME", "svc-elasticbud")
	t.Setenv("ELASTICBUD_PASSWORD", "hunter2")

	var cfg elasticbud.ClusterConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "search.internal.example.com", cfg.Host)
	assert.Equal(t, 443, cfg.Port, "port should default to 443")
	assert.Equal(t, "svc-elasticbud", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, 300*time.Second, cfg.Timeout, "timeout should default to 300s")
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryInterval)
	assert.False(t, cfg.Insecure)

	require.NoError(t, cfg.Validate())
}
