package shape

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Projection is a deterministic field-selection rule that reduces a full
// payload to a narrower shape.
//
// Contract:
// - Purity: the output depends only on the input payload and the field
//   list. The same full payload always projects to the same bytes.
// - Errors: Apply errors only when the payload is not valid JSON.
type Projection struct {
	// Fields is the set of object keys the projection keeps, at any depth.
	// Keys not listed are dropped. List structure and scalar values pass
	// through untouched. An empty list is the identity projection.
	Fields []string
}

// Apply projects a full payload down to the shape's fields.
func (p Projection) Apply(full []byte) ([]byte, error) {
	if len(p.Fields) == 0 {
		return full, nil
	}

	var doc any
	if err := json.Unmarshal(full, &doc); err != nil {
		return nil, fmt.Errorf("shape: invalid full payload: %w", err)
	}

	keep := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		keep[f] = true
	}

	out, err := json.Marshal(project(doc, keep))
	if err != nil {
		return nil, fmt.Errorf("shape: failed to encode projection: %w", err)
	}
	return out, nil
}

// project recursively filters objects down to the kept keys.
func project(v any, keep map[string]bool) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if keep[k] {
				out[k] = project(inner, keep)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = project(inner, keep)
		}
		return out
	default:
		return v
	}
}
