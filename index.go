package elasticbud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/elasticbud/query"
)

// Index stores doc in its index and returns the stored document with the
// cluster-assigned ID and version filled in. An empty doc.ID lets the
// cluster pick an identifier.
func (c *Client) Index(ctx context.Context, doc Document) (Document, error) {
	if doc.Index == "" {
		return Document{}, fmt.Errorf("%w: index operation", ErrMissingIndex)
	}
	if err := c.admit("index", 1); err != nil {
		return Document{}, err
	}

	payload, err := doc.encodeFields()
	if err != nil {
		return Document{}, err
	}

	res, err := c.perform(ctx, "index", doc.Index, func() osRequest {
		return opensearchapi.IndexRequest{
			Index:      doc.Index,
			DocumentID: doc.ID,
			Body:       bytes.NewReader(payload),
		}
	})
	if err != nil {
		return Document{}, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return Document{}, c.requestError("index", doc.Index, res)
	}

	var ack struct {
		ID      string `json:"_id"`
		Version int64  `json:"_version"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return Document{}, fmt.Errorf("%w: index acknowledgement: %v", ErrDecodeFailed, err)
	}

	doc.ID = ack.ID
	doc.Version = ack.Version
	return doc, nil
}

// Get retrieves a document by ID. A missing document fails with ErrNotFound.
func (c *Client) Get(ctx context.Context, index, id string) (Document, error) {
	if index == "" {
		return Document{}, fmt.Errorf("%w: get operation", ErrMissingIndex)
	}
	if err := c.admit("get", 1); err != nil {
		return Document{}, err
	}

	res, err := c.perform(ctx, "get", index, func() osRequest {
		return opensearchapi.GetRequest{Index: index, DocumentID: id}
	})
	if err != nil {
		return Document{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		drain(res)
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, index, id)
	}
	if res.IsError() {
		return Document{}, c.requestError("get", index, res)
	}

	return decodeDocument(res.Body)
}

// Delete removes a document by ID. It reports whether a document was
// actually deleted; deleting an absent document is not an error.
func (c *Client) Delete(ctx context.Context, index, id string) (bool, error) {
	if index == "" {
		return false, fmt.Errorf("%w: delete operation", ErrMissingIndex)
	}
	if err := c.admit("delete", 1); err != nil {
		return false, err
	}

	res, err := c.perform(ctx, "delete", index, func() osRequest {
		return opensearchapi.DeleteRequest{Index: index, DocumentID: id}
	})
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		drain(res)
		return false, nil
	}
	if res.IsError() {
		return false, c.requestError("delete", index, res)
	}

	drain(res)
	return true, nil
}

// Exists reports whether a document matching doc's identity fields is
// already present in index. A document missing one of its identity fields
// is treated as not present. With overwrite set, existing matches are
// deleted and false is returned so the caller proceeds to index the fresh
// document.
func (c *Client) Exists(ctx context.Context, index string, doc Document, identityFields []string, overwrite bool) (bool, error) {
	if index == "" {
		return false, fmt.Errorf("%w: exists operation", ErrMissingIndex)
	}
	if err := c.admit("exists", 1); err != nil {
		return false, err
	}

	filters := make([]query.Query, 0, len(identityFields))
	for _, field := range identityFields {
		value, ok := doc.Field(field)
		if !ok {
			// A doc without one of its identity fields is always indexed anew.
			return false, nil
		}
		if values, isList := value.([]any); isList {
			filters = append(filters, query.Terms(field, values...))
		} else {
			filters = append(filters, query.Term(field, value))
		}
	}
	if len(filters) == 0 {
		return false, nil
	}

	payload, err := query.MarshalBody(query.Filter(filters...))
	if err != nil {
		return false, err
	}

	res, err := c.perform(ctx, "exists", index, func() osRequest {
		return opensearchapi.SearchRequest{
			Index: []string{index},
			Body:  bytes.NewReader(payload),
		}
	})
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		drain(res)
		return false, nil
	}
	if res.IsError() {
		return false, c.requestError("exists", index, res)
	}

	result, err := decodeSearchResult(res.Body)
	if err != nil {
		return false, err
	}
	if len(result.Hits) == 0 {
		return false, nil
	}

	if !overwrite {
		return true, nil
	}

	if len(result.Hits) > 1 {
		c.log.WarnContext(ctx, "multiple documents matched identity fields",
			slog.String("index", index),
			slog.Int("matches", len(result.Hits)))
	}
	for _, hit := range result.Hits {
		c.log.InfoContext(ctx, "deleting existing document before overwrite",
			slog.String("index", index),
			slog.String("id", hit.ID))
		if _, err := c.Delete(ctx, index, hit.ID); err != nil {
			return false, err
		}
	}
	return false, nil
}

// PutTemplate applies an index template under the given name before any
// documents are indexed against it.
func (c *Client) PutTemplate(ctx context.Context, name string, template map[string]any) error {
	if name == "" {
		return fmt.Errorf("%w: template name", ErrMissingIndex)
	}
	if len(template) == 0 {
		return ErrMissingTemplate
	}
	if err := c.admit("put_template", 1); err != nil {
		return err
	}

	payload, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("%w: template %q: %v", ErrEncodeFailed, name, err)
	}

	res, err := c.perform(ctx, "put_template", name, func() osRequest {
		return opensearchapi.IndicesPutTemplateRequest{
			Name: name,
			Body: bytes.NewReader(payload),
		}
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return c.requestError("put_template", name, res)
	}

	drain(res)
	c.log.DebugContext(ctx, "applied index template", slog.String("name", name))
	return nil
}

// refresh makes recent writes visible to search; required before
// identity-field existence checks so they observe prior batches.
func (c *Client) refresh(ctx context.Context, index string) error {
	if err := c.admit("refresh", 1); err != nil {
		return err
	}

	ignoreUnavailable := true
	res, err := c.perform(ctx, "refresh", index, func() osRequest {
		return opensearchapi.IndicesRefreshRequest{
			Index:             []string{index},
			IgnoreUnavailable: &ignoreUnavailable,
		}
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return c.requestError("refresh", index, res)
	}

	drain(res)
	return nil
}
