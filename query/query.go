package query

import (
	"encoding/json"
	"fmt"
)

// Query is a node in a search expression tree. Leaf nodes (term, terms,
// match, range) test a single field; boolean nodes (and, or, not, filter)
// combine other nodes. Clause renders the node into the cluster's query
// language as a plain map.
type Query interface {
	// Clause returns the wire representation of this node.
	Clause() (map[string]any, error)
}

// Body wraps the query under the standard search envelope:
//
//	{"query": {...}}
func Body(q Query) (map[string]any, error) {
	clause, err := q.Clause()
	if err != nil {
		return nil, err
	}
	return map[string]any{"query": clause}, nil
}

// MarshalBody encodes the search envelope to JSON. Encoding is
// deterministic: identical trees produce byte-identical payloads.
func MarshalBody(q Query) ([]byte, error) {
	body, err := Body(q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(body)
}

type termQuery struct {
	field string
	value any
}

// Term matches documents where field holds exactly value (no analysis).
func Term(field string, value any) Query {
	return termQuery{field: field, value: value}
}

func (q termQuery) Clause() (map[string]any, error) {
	if q.field == "" {
		return nil, fmt.Errorf("%w: term clause requires a field", ErrInvalidQuery)
	}
	return map[string]any{"term": map[string]any{q.field: q.value}}, nil
}

type termsQuery struct {
	field  string
	values []any
}

// Terms matches documents where field holds any of the given values.
func Terms(field string, values ...any) Query {
	return termsQuery{field: field, values: values}
}

func (q termsQuery) Clause() (map[string]any, error) {
	if q.field == "" {
		return nil, fmt.Errorf("%w: terms clause requires a field", ErrInvalidQuery)
	}
	if len(q.values) == 0 {
		return nil, fmt.Errorf("%w: terms clause for %q requires at least one value", ErrInvalidQuery, q.field)
	}
	return map[string]any{"terms": map[string]any{q.field: q.values}}, nil
}

type matchQuery struct {
	field string
	text  string
}

// Match performs full-text matching of text against an analyzed field.
func Match(field, text string) Query {
	return matchQuery{field: field, text: text}
}

func (q matchQuery) Clause() (map[string]any, error) {
	if q.field == "" {
		return nil, fmt.Errorf("%w: match clause requires a field", ErrInvalidQuery)
	}
	return map[string]any{"match": map[string]any{q.field: q.text}}, nil
}

type matchAllQuery struct{}

// MatchAll matches every document in the index.
func MatchAll() Query {
	return matchAllQuery{}
}

func (matchAllQuery) Clause() (map[string]any, error) {
	return map[string]any{"match_all": map[string]any{}}, nil
}

// RangeQuery restricts a field to an interval. Bounds are accumulated with
// Gt/Gte/Lt/Lte; at least one bound must be set before encoding.
type RangeQuery struct {
	field  string
	bounds map[string]any
}

// Range starts a range clause over field.
func Range(field string) *RangeQuery {
	return &RangeQuery{field: field, bounds: make(map[string]any)}
}

// Gt sets an exclusive lower bound.
func (q *RangeQuery) Gt(v any) *RangeQuery { q.bounds["gt"] = v; return q }

// Gte sets an inclusive lower bound.
func (q *RangeQuery) Gte(v any) *RangeQuery { q.bounds["gte"] = v; return q }

// Lt sets an exclusive upper bound.
func (q *RangeQuery) Lt(v any) *RangeQuery { q.bounds["lt"] = v; return q }

// Lte sets an inclusive upper bound.
func (q *RangeQuery) Lte(v any) *RangeQuery { q.bounds["lte"] = v; return q }

func (q *RangeQuery) Clause() (map[string]any, error) {
	if q.field == "" {
		return nil, fmt.Errorf("%w: range clause requires a field", ErrInvalidQuery)
	}
	if len(q.bounds) == 0 {
		return nil, fmt.Errorf("%w: range clause for %q requires at least one bound", ErrInvalidQuery, q.field)
	}
	return map[string]any{"range": map[string]any{q.field: q.bounds}}, nil
}

type boolOp string

const (
	opMust    boolOp = "must"
	opShould  boolOp = "should"
	opMustNot boolOp = "must_not"
	opFilter  boolOp = "filter"
)

type boolQuery struct {
	op       boolOp
	operands []Query
}

// And matches documents satisfying all operands (bool/must context).
func And(qs ...Query) Query {
	return boolQuery{op: opMust, operands: qs}
}

// Or matches documents satisfying at least one operand (bool/should context).
func Or(qs ...Query) Query {
	return boolQuery{op: opShould, operands: qs}
}

// Not matches documents satisfying none of the operands.
func Not(qs ...Query) Query {
	return boolQuery{op: opMustNot, operands: qs}
}

// Filter matches documents satisfying all operands without contributing to
// relevance scoring.
func Filter(qs ...Query) Query {
	return boolQuery{op: opFilter, operands: qs}
}

func (q boolQuery) Clause() (map[string]any, error) {
	if len(q.operands) == 0 {
		return nil, fmt.Errorf("%w: bool %s clause requires at least one operand", ErrInvalidQuery, q.op)
	}

	clauses := make([]map[string]any, 0, len(q.operands))
	for _, operand := range q.operands {
		if operand == nil {
			return nil, fmt.Errorf("%w: bool %s clause contains a nil operand", ErrInvalidQuery, q.op)
		}
		clause, err := operand.Clause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	inner := map[string]any{string(q.op): clauses}
	if q.op == opShould {
		inner["minimum_should_match"] = 1
	}

	return map[string]any{"bool": inner}, nil
}
