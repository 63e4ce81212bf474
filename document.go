package elasticbud

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Document is a single indexed record. Fields carries the full document
// source, so fields the client does not know about survive a round trip to
// the cluster untouched.
type Document struct {
	// ID identifies the document within its index. An empty ID on Index
	// lets the cluster assign one.
	ID string

	// Index is the name of the index the document belongs to.
	Index string

	// Version is the cluster-assigned version for optimistic concurrency.
	// Zero means unknown.
	Version int64

	// Fields maps field names to values.
	Fields map[string]any
}

// Field returns the named field value and whether it is present.
func (d Document) Field(name string) (any, bool) {
	v, ok := d.Fields[name]
	return v, ok
}

// encodeFields renders the document source as JSON. Encoding is
// deterministic: map keys are serialized in sorted order, so identical
// logical documents produce byte-identical payloads.
func (d Document) encodeFields() ([]byte, error) {
	fields := d.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: document %q: %v", ErrEncodeFailed, d.ID, err)
	}
	return payload, nil
}

// docEnvelope is the cluster's document wrapper common to get and hit
// payloads.
type docEnvelope struct {
	Index   string         `json:"_index"`
	ID      string         `json:"_id"`
	Version int64          `json:"_version"`
	Found   bool           `json:"found"`
	Source  map[string]any `json:"_source"`
}

func (e docEnvelope) document() Document {
	return Document{
		ID:      e.ID,
		Index:   e.Index,
		Version: e.Version,
		Fields:  e.Source,
	}
}

// decodeDocument parses a get response body into a Document.
func decodeDocument(r io.Reader) (Document, error) {
	var envelope docEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return Document{}, fmt.Errorf("%w: document payload: %v", ErrDecodeFailed, err)
	}
	return envelope.document(), nil
}

// Hit pairs a matched document with its relevance score.
type Hit struct {
	Document
	Score float64
}

// SearchResult is the decoded outcome of a search operation. Hits are
// ordered by descending relevance as returned by the cluster.
type SearchResult struct {
	TotalHits int64
	Hits      []Hit
	Took      time.Duration
}

// decodeSearchResult parses a search response body. The total hits field is
// accepted both as a bare integer (older clusters) and as the value/relation
// object newer clusters return.
func decodeSearchResult(r io.Reader) (SearchResult, error) {
	var envelope struct {
		Took int64 `json:"took"`
		Hits struct {
			Total json.RawMessage `json:"total"`
			Hits  []struct {
				docEnvelope
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return SearchResult{}, fmt.Errorf("%w: search payload: %v", ErrDecodeFailed, err)
	}

	total, err := decodeTotalHits(envelope.Hits.Total)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{
		TotalHits: total,
		Hits:      make([]Hit, 0, len(envelope.Hits.Hits)),
		Took:      time.Duration(envelope.Took) * time.Millisecond,
	}
	for _, hit := range envelope.Hits.Hits {
		result.Hits = append(result.Hits, Hit{
			Document: hit.document(),
			Score:    hit.Score,
		})
	}

	return result, nil
}

func decodeTotalHits(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("%w: total hits: %v", ErrDecodeFailed, err)
	}
	return obj.Value, nil
}
