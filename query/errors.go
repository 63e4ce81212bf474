package query

import "errors"

var (
	// ErrInvalidQuery indicates a query tree that cannot be encoded, such as
	// a clause with an empty field name, a boolean node without operands, or
	// a range with no bounds.
	ErrInvalidQuery = errors.New("invalid query")
)
