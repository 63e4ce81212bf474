package elasticbud

import (
	"errors"
	"fmt"
)

var (
	// ErrSplatNotAList indicates a "*" path element landed on a value that
	// is not a list.
	ErrSplatNotAList = errors.New("splat element requires a list")

	// ErrKeyNotFound indicates a path element is absent from the payload.
	ErrKeyNotFound = errors.New("key not found in payload")
)

// ExtractValues walks a decoded JSON payload along path and returns the
// values found at its end. A "*" element fans out over every item of a
// list, so ("hits", "hits", "*", "_source") yields each hit's source and
// ("aggregations", "top", "buckets") yields the bucket list itself as a
// single value.
func ExtractValues(data any, path ...string) ([]any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrKeyNotFound)
	}

	key := path[0]

	if key == "*" {
		list, ok := data.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: splat over %T", ErrSplatNotAList, data)
		}
		if len(path) == 1 {
			return append([]any(nil), list...), nil
		}
		var values []any
		for _, item := range list {
			nested, err := ExtractValues(item, path[1:]...)
			if err != nil {
				return nil, err
			}
			values = append(values, nested...)
		}
		return values, nil
	}

	node, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: cannot descend into %T looking for %q", ErrKeyNotFound, data, key)
	}
	value, ok := node[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}

	if len(path) == 1 {
		return []any{value}, nil
	}
	return ExtractValues(value, path[1:]...)
}
