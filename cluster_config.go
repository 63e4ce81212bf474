package elasticbud

import (
	"fmt"
	"strings"
	"time"
)

// ClusterConfig holds connection parameters for a search cluster, with
// environment variable mapping compatible with
// github.com/dmitrymomot/elasticbud/config. The config is read-only after
// the client is constructed; one config may back any number of operations.
type ClusterConfig struct {
	// Host is the fully-qualified domain name of the cluster endpoint,
	// without scheme or path.
	Host string `env:"ELASTICBUD_CLIENT_FQDN,required"`
	Port int    `env:"ELASTICBUD_CLIENT_PORT" envDefault:"443"`

	Username string `env:"ELASTICBUD_USERNAME"`
	Password string `env:"ELASTICBUD_PASSWORD"`

	// Timeout bounds each facade operation end to end, including retries.
	Timeout time.Duration `env:"ELASTICBUD_TIMEOUT" envDefault:"300s"`

	// MaxRetries is the maximum number of attempts per request; transient
	// failures are retried with exponential backoff starting at
	// RetryInterval until the budget is spent.
	MaxRetries    int           `env:"ELASTICBUD_MAX_RETRIES" envDefault:"5"`
	RetryInterval time.Duration `env:"ELASTICBUD_RETRY_INTERVAL" envDefault:"500ms"`

	// MaxIdleConns sizes the pooled connections kept per cluster host.
	MaxIdleConns int `env:"ELASTICBUD_MAX_IDLE_CONNS" envDefault:"10"`

	// Insecure switches the connection to plain HTTP, for local clusters.
	Insecure bool `env:"ELASTICBUD_INSECURE" envDefault:"false"`
}

// Validate checks the configuration without any side effects. All failures
// match ErrInvalidConfig via errors.Is.
func (c ClusterConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if strings.Contains(c.Host, "://") || strings.ContainsAny(c.Host, "/ \t") {
		return fmt.Errorf("%w: host %q must be a bare FQDN without scheme or path", ErrInvalidConfig, c.Host)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if (c.Username == "") != (c.Password == "") {
		return fmt.Errorf("%w: username and password must be supplied together", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be at least 1", ErrInvalidConfig)
	}
	if c.RetryInterval < 0 {
		return fmt.Errorf("%w: negative retry interval", ErrInvalidConfig)
	}
	return nil
}

// address renders the cluster endpoint URL.
func (c ClusterConfig) address() string {
	scheme := "https"
	if c.Insecure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}
