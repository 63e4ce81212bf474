// Package query models search expressions as an explicit tree of typed
// nodes and encodes them into the JSON query language understood by
// Elasticsearch/OpenSearch-compatible clusters.
//
// Leaf nodes test a single field:
//
//   - Term / Terms — exact value matching
//   - Match — analyzed full-text matching
//   - Range — interval bounds via Gt/Gte/Lt/Lte
//   - MatchAll — every document
//
// Boolean nodes combine children: And (must), Or (should), Not (must_not)
// and Filter (non-scoring must). Trees compose freely:
//
//	q := query.And(
//	    query.Match("title", "budget report"),
//	    query.Filter(
//	        query.Term("status", "published"),
//	        query.Range("views").Gte(1000),
//	    ),
//	)
//
//	body, err := query.MarshalBody(q)
//
// Encoding is pure and deterministic: the same tree always yields the same
// bytes, which keeps request payloads cache- and diff-friendly. Structurally
// invalid trees (empty field names, boolean nodes without operands, ranges
// without bounds) fail with ErrInvalidQuery at encode time rather than being
// sent to the cluster.
package query
