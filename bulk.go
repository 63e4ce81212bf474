package elasticbud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// BulkAction identifies what a single bulk item does.
type BulkAction string

const (
	// BulkIndex stores the document, overwriting any existing one.
	BulkIndex BulkAction = "index"
	// BulkCreate stores the document only if its ID is not taken.
	BulkCreate BulkAction = "create"
	// BulkDelete removes the document with the given ID.
	BulkDelete BulkAction = "delete"
)

// BulkOp is one item of a bulk batch. Index and delete items address their
// target through Doc.Index/Doc.ID and ID respectively.
type BulkOp struct {
	Action BulkAction
	Index  string

	// Doc is the document for index/create actions.
	Doc Document

	// ID addresses the document for delete actions.
	ID string
}

// BulkResult is the per-item outcome of a bulk batch, in input order. Err is
// nil on success; on success of an index/create action, Doc carries the
// stored document with its assigned ID and version.
type BulkResult struct {
	Action BulkAction
	ID     string
	Status int
	Doc    Document
	Err    error
}

// bulk response shape: one envelope per item, keyed by action.
type bulkItemAck struct {
	ID      string          `json:"_id"`
	Index   string          `json:"_index"`
	Version int64           `json:"_version"`
	Status  int             `json:"status"`
	Error   json.RawMessage `json:"error"`
}

// Bulk submits a batch of independent operations in one request and returns
// one result per input item, preserving input order. Items that cannot be
// encoded are reported in their slot without being sent; cluster-side
// per-item rejections are likewise isolated, so one bad item never masks
// the rest of the batch. Only a failure of the batch request itself is
// returned as an overall error.
func (c *Client) Bulk(ctx context.Context, ops []BulkOp) ([]BulkResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	if err := c.admit("bulk", len(ops)); err != nil {
		return nil, err
	}

	results := make([]BulkResult, len(ops))
	var body bytes.Buffer
	// sent maps position-in-request to position-in-input, skipping items
	// that failed client-side.
	sent := make([]int, 0, len(ops))

	for i, op := range ops {
		results[i] = BulkResult{Action: op.Action, ID: bulkOpID(op)}

		meta, payload, err := encodeBulkOp(op)
		if err != nil {
			results[i].Err = err
			continue
		}

		body.Write(meta)
		body.WriteByte('\n')
		if payload != nil {
			body.Write(payload)
			body.WriteByte('\n')
		}
		sent = append(sent, i)
	}

	if len(sent) == 0 {
		return results, nil
	}

	res, err := c.perform(ctx, "bulk", "", func() osRequest {
		return opensearchapi.BulkRequest{Body: bytes.NewReader(body.Bytes())}
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, c.requestError("bulk", "", res)
	}

	var envelope struct {
		Errors bool                         `json:"errors"`
		Items  []map[string]json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: bulk payload: %v", ErrDecodeFailed, err)
	}
	if len(envelope.Items) != len(sent) {
		return nil, fmt.Errorf("%w: bulk payload reports %d items for %d operations",
			ErrDecodeFailed, len(envelope.Items), len(sent))
	}

	for j, item := range envelope.Items {
		i := sent[j]
		op := ops[i]

		raw, ok := item[string(op.Action)]
		if !ok {
			results[i].Err = fmt.Errorf("%w: bulk item %d missing %q ack", ErrDecodeFailed, j, op.Action)
			continue
		}
		var ack bulkItemAck
		if err := json.Unmarshal(raw, &ack); err != nil {
			results[i].Err = fmt.Errorf("%w: bulk item %d: %v", ErrDecodeFailed, j, err)
			continue
		}

		results[i].ID = ack.ID
		results[i].Status = ack.Status

		if len(ack.Error) > 0 && string(ack.Error) != "null" {
			results[i].Err = &RequestError{
				Op:         "bulk." + string(op.Action),
				Index:      ack.Index,
				StatusCode: ack.Status,
				Body:       ack.Error,
			}
			continue
		}

		if op.Action == BulkIndex || op.Action == BulkCreate {
			doc := op.Doc
			doc.ID = ack.ID
			doc.Index = ack.Index
			doc.Version = ack.Version
			results[i].Doc = doc
		}
	}

	if envelope.Errors {
		c.log.DebugContext(ctx, "bulk batch completed with item failures",
			slog.Int("items", len(ops)))
	}

	return results, nil
}

func bulkOpID(op BulkOp) string {
	if op.Action == BulkDelete {
		return op.ID
	}
	return op.Doc.ID
}

// encodeBulkOp renders one item's NDJSON lines: the action metadata and,
// for document actions, the source payload.
func encodeBulkOp(op BulkOp) (meta, payload []byte, err error) {
	index := op.Index
	if index == "" {
		index = op.Doc.Index
	}
	if index == "" {
		return nil, nil, fmt.Errorf("%w: bulk %s item", ErrMissingIndex, op.Action)
	}

	target := map[string]any{"_index": index}

	switch op.Action {
	case BulkIndex, BulkCreate:
		if op.Doc.ID != "" {
			target["_id"] = op.Doc.ID
		}
		payload, err = op.Doc.encodeFields()
		if err != nil {
			return nil, nil, err
		}
	case BulkDelete:
		if op.ID == "" {
			return nil, nil, fmt.Errorf("%w: bulk delete item requires an id", ErrEncodeFailed)
		}
		target["_id"] = op.ID
	default:
		return nil, nil, fmt.Errorf("%w: unknown bulk action %q", ErrEncodeFailed, op.Action)
	}

	meta, err = json.Marshal(map[string]any{string(op.Action): target})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bulk %s metadata: %v", ErrEncodeFailed, op.Action, err)
	}

	return meta, payload, nil
}

// IndexManyOption tunes an IndexMany call.
type IndexManyOption func(*indexManyOptions)

type indexManyOptions struct {
	identityFields []string
	overwrite      bool
	batchSize      int
	template       map[string]any
}

// WithIdentityFields makes indexing idempotent: documents whose identity
// fields already match an indexed document are skipped.
func WithIdentityFields(fields ...string) IndexManyOption {
	return func(o *indexManyOptions) { o.identityFields = fields }
}

// WithOverwrite deletes previously indexed documents matching the identity
// fields instead of skipping the new ones.
func WithOverwrite() IndexManyOption {
	return func(o *indexManyOptions) { o.overwrite = true }
}

// WithBatchSize splits the documents into batches of n per bulk request.
func WithBatchSize(n int) IndexManyOption {
	return func(o *indexManyOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithTemplate applies an index template named after the target index before
// any documents are indexed.
func WithTemplate(template map[string]any) IndexManyOption {
	return func(o *indexManyOptions) { o.template = template }
}

// IndexManyStats summarizes an IndexMany call.
type IndexManyStats struct {
	// Indexed is the number of documents accepted by the cluster.
	Indexed int
	// Skipped is the number of documents that already existed.
	Skipped int
	// Failed is the number of documents the cluster rejected.
	Failed int
}

// IndexMany bulk-indexes docs into index. With identity fields configured
// the call is idempotent: the index is refreshed first so existence checks
// observe earlier writes, and documents that already exist are skipped (or
// replaced, with WithOverwrite). Large inputs can be split with
// WithBatchSize; each batch is an independent bulk request.
func (c *Client) IndexMany(ctx context.Context, index string, docs []Document, opts ...IndexManyOption) (IndexManyStats, error) {
	if index == "" {
		return IndexManyStats{}, fmt.Errorf("%w: index_many operation", ErrMissingIndex)
	}

	var options indexManyOptions
	for _, opt := range opts {
		opt(&options)
	}

	var stats IndexManyStats
	if len(docs) == 0 {
		return stats, nil
	}

	if options.template != nil {
		if err := c.PutTemplate(ctx, index, options.template); err != nil {
			return stats, err
		}
	}

	if len(options.identityFields) > 0 {
		if err := c.refresh(ctx, index); err != nil {
			return stats, err
		}
	}

	batchSize := options.batchSize
	if batchSize <= 0 {
		batchSize = len(docs)
	}

	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))

		batch := make([]BulkOp, 0, end-start)
		for _, doc := range docs[start:end] {
			if len(options.identityFields) > 0 {
				exists, err := c.Exists(ctx, index, doc, options.identityFields, options.overwrite)
				if err != nil {
					return stats, err
				}
				if exists {
					stats.Skipped++
					continue
				}
			}
			doc.Index = index
			batch = append(batch, BulkOp{Action: BulkIndex, Doc: doc})
		}
		if len(batch) == 0 {
			continue
		}

		results, err := c.Bulk(ctx, batch)
		if err != nil {
			return stats, err
		}
		for _, result := range results {
			if result.Err != nil {
				stats.Failed++
			} else {
				stats.Indexed++
			}
		}
	}

	c.log.InfoContext(ctx, "bulk indexing complete",
		slog.String("index", index),
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))

	return stats, nil
}
