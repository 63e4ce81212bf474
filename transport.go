package elasticbud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// defaultPenalty throttles the quota gate after a rate-limit response that
// carries no Retry-After header.
const defaultPenalty = time.Second

// osRequest is satisfied by every opensearchapi request type.
type osRequest interface {
	Do(ctx context.Context, transport opensearchapi.Transport) (*opensearchapi.Response, error)
}

// perform sends a request with bounded retries. build must return a fresh
// request on every call so bodies are replayable across attempts. Transient
// failures (network errors, 5xx, 429) are retried on an exponential backoff
// schedule up to cfg.MaxRetries attempts; everything else, including 4xx
// rejections, is returned to the caller as-is for classification.
func (c *Client) perform(ctx context.Context, op, index string, build func() osRequest) (*opensearchapi.Response, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = c.cfg.RetryInterval
	schedule.MaxElapsedTime = 0 // attempts are bounded by MaxRetries

	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		res, err := build().Do(ctx, c.os)
		switch {
		case err == nil && !retryableStatus(res.StatusCode):
			if attempt > 1 {
				c.log.DebugContext(ctx, "request succeeded after retries",
					slog.String("op", op),
					slog.String("index", index),
					slog.Int("attempt", attempt))
			}
			return res, nil

		case err == nil:
			lastErr = fmt.Errorf("cluster responded %s", res.Status())
			lastStatus = res.StatusCode
			if res.StatusCode == 429 {
				c.reportRateLimit(res)
			}
			drain(res)

		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, &TransportError{Op: op, Index: index, Attempts: attempt, StatusCode: lastStatus, Err: err}

		default:
			lastErr = err
			lastStatus = 0
		}

		if attempt == c.cfg.MaxRetries {
			break
		}

		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		c.log.DebugContext(ctx, "retrying request",
			slog.String("op", op),
			slog.String("index", index),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("cause", lastErr.Error()))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &TransportError{Op: op, Index: index, Attempts: attempt, StatusCode: lastStatus, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	return nil, &TransportError{Op: op, Index: index, Attempts: c.cfg.MaxRetries, StatusCode: lastStatus, Err: lastErr}
}

// retryableStatus reports whether a response status is worth another
// attempt: server-side failures and rate limiting.
func retryableStatus(status int) bool {
	return status >= 500 || status == 429
}

// reportRateLimit feeds a cluster rate-limit response into the quota gate so
// local admission throttles alongside the server.
func (c *Client) reportRateLimit(res *opensearchapi.Response) {
	if c.gate == nil {
		return
	}
	penalty := defaultPenalty
	if v := res.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			penalty = time.Duration(secs) * time.Second
		}
	}
	c.gate.Penalize(penalty)
}

// requestError closes the response and wraps its payload into a
// *RequestError carrying the cluster-provided detail.
func (c *Client) requestError(op, index string, res *opensearchapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	return &RequestError{Op: op, Index: index, StatusCode: res.StatusCode, Body: body}
}

// drain consumes and closes a response body so the underlying connection
// can be reused.
func drain(res *opensearchapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
