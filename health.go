package elasticbud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// CheckCluster verifies the cluster is reachable and ready to serve,
// logging its name, version and health status. A cluster in red status
// fails with ErrClusterNotReady; a cluster that cannot be reached fails
// with ErrClusterUnreachable.
func (c *Client) CheckCluster(ctx context.Context) error {
	info, err := c.clusterInfo(ctx)
	if err != nil {
		return errors.Join(
			fmt.Errorf("%w: while attempting to connect to %s", ErrClusterUnreachable, c.cfg.address()),
			err,
		)
	}

	health, err := c.clusterHealth(ctx)
	if err != nil {
		return errors.Join(
			fmt.Errorf("%w: while attempting to connect to %s", ErrClusterUnreachable, c.cfg.address()),
			err,
		)
	}

	c.log.InfoContext(ctx, "cluster reachable",
		slog.String("address", c.cfg.address()),
		slog.String("cluster", health.ClusterName),
		slog.String("version", info.Version.Number),
		slog.String("status", health.Status))

	if health.Status == "red" {
		return fmt.Errorf("%w: cluster %q is red", ErrClusterNotReady, health.ClusterName)
	}
	return nil
}

// Healthcheck returns a probe function suitable for liveness and readiness
// endpoints.
func Healthcheck(c *Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.CheckCluster(ctx)
	}
}

type clusterInfo struct {
	Version struct {
		Number string `json:"number"`
	} `json:"version"`
}

func (c *Client) clusterInfo(ctx context.Context) (clusterInfo, error) {
	res, err := c.perform(ctx, "info", "", func() osRequest {
		return opensearchapi.InfoRequest{}
	})
	if err != nil {
		return clusterInfo{}, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return clusterInfo{}, c.requestError("info", "", res)
	}

	var info clusterInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return clusterInfo{}, fmt.Errorf("%w: cluster info: %v", ErrDecodeFailed, err)
	}
	return info, nil
}

type clusterHealth struct {
	ClusterName string `json:"cluster_name"`
	Status      string `json:"status"`
}

func (c *Client) clusterHealth(ctx context.Context) (clusterHealth, error) {
	res, err := c.perform(ctx, "cluster_health", "", func() osRequest {
		return opensearchapi.ClusterHealthRequest{}
	})
	if err != nil {
		return clusterHealth{}, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return clusterHealth{}, c.requestError("cluster_health", "", res)
	}

	var health clusterHealth
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return clusterHealth{}, fmt.Errorf("%w: cluster health: %v", ErrDecodeFailed, err)
	}
	return health, nil
}
