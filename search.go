package elasticbud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/elasticbud/query"
)

// SearchOption tunes a Search call.
type SearchOption func(*searchOptions)

type searchOptions struct {
	size *int
	from *int
	sort []string
}

// WithSize caps the number of hits returned.
func WithSize(n int) SearchOption {
	return func(o *searchOptions) {
		if n >= 0 {
			o.size = &n
		}
	}
}

// WithFrom skips the first n hits, for offset pagination.
func WithFrom(n int) SearchOption {
	return func(o *searchOptions) {
		if n >= 0 {
			o.from = &n
		}
	}
}

// WithSort orders hits by the given field:direction specifiers, e.g.
// "views:desc".
func WithSort(fields ...string) SearchOption {
	return func(o *searchOptions) { o.sort = fields }
}

// Search runs q against index and decodes the ordered hits. A query with no
// matches returns a result with zero total hits and an empty hit list.
func (c *Client) Search(ctx context.Context, index string, q query.Query, opts ...SearchOption) (SearchResult, error) {
	if index == "" {
		return SearchResult{}, fmt.Errorf("%w: search operation", ErrMissingIndex)
	}
	if err := c.admit("search", 1); err != nil {
		return SearchResult{}, err
	}

	var options searchOptions
	for _, opt := range opts {
		opt(&options)
	}

	payload, err := query.MarshalBody(q)
	if err != nil {
		return SearchResult{}, err
	}

	res, err := c.perform(ctx, "search", index, func() osRequest {
		return opensearchapi.SearchRequest{
			Index: []string{index},
			Body:  bytes.NewReader(payload),
			Size:  options.size,
			From:  options.from,
			Sort:  options.sort,
		}
	})
	if err != nil {
		return SearchResult{}, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return SearchResult{}, c.requestError("search", index, res)
	}

	return decodeSearchResult(res.Body)
}

// SearchRaw runs a caller-assembled request body, for aggregations and
// other shapes the query tree does not model, and returns the raw decoded
// response. size bounds the number of hits; 0 returns aggregations only.
func (c *Client) SearchRaw(ctx context.Context, index string, body map[string]any, size int) (map[string]any, error) {
	if index == "" {
		return nil, fmt.Errorf("%w: search operation", ErrMissingIndex)
	}
	if err := c.admit("search", 1); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: search body: %v", ErrEncodeFailed, err)
	}

	res, err := c.perform(ctx, "search", index, func() osRequest {
		return opensearchapi.SearchRequest{
			Index: []string{index},
			Body:  bytes.NewReader(payload),
			Size:  &size,
		}
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, c.requestError("search", index, res)
	}

	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: search payload: %v", ErrDecodeFailed, err)
	}
	return decoded, nil
}

// Values runs body against index and extracts the values found at the splat
// path in the response, such as ("aggregations", "top_pages", "buckets") or
// ("hits", "hits", "*", "_source").
func (c *Client) Values(ctx context.Context, index string, body map[string]any, size int, path ...string) ([]any, error) {
	resp, err := c.SearchRaw(ctx, index, body, size)
	if err != nil {
		return nil, err
	}

	values, err := ExtractValues(resp, path...)
	if err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "extracted response values",
		slog.String("index", index),
		slog.Int("values", len(values)))
	return values, nil
}

// CompositeValues pages through the composite aggregation named aggName,
// extracting the splat path from every page and feeding each page's
// after_key back into the next request until the aggregation is exhausted.
// The caller's body is not modified.
func (c *Client) CompositeValues(ctx context.Context, index string, body map[string]any, aggName string, path ...string) ([]any, error) {
	body, err := deepCopyBody(body)
	if err != nil {
		return nil, err
	}

	var collected []any
	for {
		resp, err := c.SearchRaw(ctx, index, body, 0)
		if err != nil {
			return nil, err
		}

		values, err := ExtractValues(resp, path...)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			break
		}
		// A page whose terminal key is the bare bucket list signals
		// exhaustion with a single empty list rather than no values.
		if len(values) == 1 {
			if list, ok := values[0].([]any); ok && len(list) == 0 {
				break
			}
		}
		collected = append(collected, values...)

		afterKey, err := ExtractValues(resp, "aggregations", aggName, "after_key")
		if err != nil {
			return nil, fmt.Errorf("%w: no composite continuation key under %q: %v", ErrDecodeFailed, aggName, err)
		}
		if err := setCompositeAfter(body, aggName, afterKey[0]); err != nil {
			return nil, err
		}
	}

	c.log.DebugContext(ctx, "composite aggregation drained",
		slog.String("index", index),
		slog.String("aggregation", aggName),
		slog.Int("values", len(collected)))
	return collected, nil
}

// setCompositeAfter points body's composite aggregation at the next page.
func setCompositeAfter(body map[string]any, aggName string, after any) error {
	aggs, ok := body["aggs"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: body has no aggs section", ErrEncodeFailed)
	}
	agg, ok := aggs[aggName].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: body has no aggregation %q", ErrEncodeFailed, aggName)
	}
	composite, ok := agg["composite"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: aggregation %q is not composite", ErrEncodeFailed, aggName)
	}
	composite["after"] = after
	return nil
}

// deepCopyBody clones a request body so pagination state never leaks into
// the caller's map.
func deepCopyBody(body map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: search body: %v", ErrEncodeFailed, err)
	}
	var clone map[string]any
	if err := json.Unmarshal(raw, &clone); err != nil {
		return nil, fmt.Errorf("%w: search body: %v", ErrEncodeFailed, err)
	}
	return clone, nil
}

// FieldsInHits lists the unique field names present across a set of hits,
// sorted for stable output.
func FieldsInHits(hits []Hit) []string {
	seen := make(map[string]struct{})
	for _, hit := range hits {
		for field := range hit.Fields {
			seen[field] = struct{}{}
		}
	}

	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
