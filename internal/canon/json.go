package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FromJSON decodes data into a value tree MarshalCanonical accepts.
//
// Numbers must be integers. JSON null is dropped from objects (omitempty
// semantics) and rejected elsewhere.
func FromJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return normalize(v)
}

// MarshalJSONCanonical encodes v with encoding/json and re-emits it canonically.
func MarshalJSONCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tree, err := FromJSON(raw)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(tree)
}

func normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case json.Number:
		if strings.ContainsAny(val.String(), ".eE") {
			return nil, fmt.Errorf("floats are forbidden in canonical JSON: %s", val)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer out of range: %s", val)
		}
		return n, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			if elem == nil {
				continue
			}
			n, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	default:
		return val, nil
	}
}
