package elasticbud

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/dmitrymomot/elasticbud/quota"
)

// Client issues operations against one search cluster. It owns its
// connection pool and optional quota gate explicitly, so several
// independently configured clients can coexist in one process.
//
// A Client is safe for concurrent use.
type Client struct {
	cfg  ClusterConfig
	os   *opensearch.Client
	gate *quota.Gate
	log  *slog.Logger

	// transportOverride is only consulted during New.
	transportOverride http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger for client diagnostics. The default
// discards all output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithQuota attaches a local admission gate. Every operation is admitted
// before dispatch; bulk operations cost one unit per item. Without a gate
// all operations are admitted.
func WithQuota(gate *quota.Gate) Option {
	return func(c *Client) {
		c.gate = gate
	}
}

// WithTransport overrides the HTTP transport used for cluster connections,
// replacing the default pooled http.Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transportOverride = rt
	}
}

// New validates cfg and constructs a client. No network call is made; use
// CheckCluster to verify the cluster is reachable and healthy.
func New(cfg ClusterConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg: cfg,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.transportOverride
	if rt == nil {
		rt = &http.Transport{
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConns,
		}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.address()},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: rt,
		// Retries are handled by the client's own transport loop so that
		// attempt counts, backoff and quota feedback stay under its control.
		DisableRetry: true,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	c.os = osClient

	return c, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() ClusterConfig {
	return c.cfg
}

// admit passes an operation through the quota gate, failing fast when the
// current window's budget is exhausted.
func (c *Client) admit(op string, cost int) error {
	if c.gate == nil {
		return nil
	}
	res := c.gate.Admit(cost)
	if !res.Allowed {
		c.log.Debug("operation rejected by quota gate",
			slog.String("op", op),
			slog.Int("cost", cost),
			slog.Time("reset_at", res.ResetAt))
		return fmt.Errorf("%w: %s (retry after %s)", quota.ErrQuotaExceeded, op, res.RetryAfter())
	}
	return nil
}
