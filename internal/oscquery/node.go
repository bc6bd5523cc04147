package oscquery

import "encoding/json"

// Node is one entry in an OSCQuery namespace tree.
//
// The wire format is loosely typed JSON: FULL_PATH may be absent, the value
// may appear under "VALUE" or "value" as either a scalar or an array, and
// CONTENTS maps child names to child nodes.
type Node struct {
	FullPath string           `json:"FULL_PATH"`
	Value    json.RawMessage  `json:"VALUE"`
	Contents map[string]*Node `json:"CONTENTS"`
}

// FirstValue decodes the node's value, unwrapping a singleton (or longer)
// array to its first element.
//
// Returns:
//   - any: The decoded scalar value
//   - bool: false when the node carries no usable value
func (n *Node) FirstValue() (any, bool) {
	if len(n.Value) == 0 {
		return nil, false
	}

	var v any
	if err := json.Unmarshal(n.Value, &v); err != nil {
		return nil, false
	}

	if arr, isArray := v.([]any); isArray {
		if len(arr) == 0 {
			return nil, false
		}
		v = arr[0]
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

// Find searches the tree depth-first for a node whose FULL_PATH equals
// target and returns its first value.
//
// A matching node consumes the search for its subtree: if it carries no
// value, the match counts as "not found" and the search continues through
// the node's siblings. This mirrors how the RNBO runner exposes parameter
// values.
//
// Returns:
//   - any: The matched node's value
//   - bool: false when no valued node with the target path exists
func (n *Node) Find(target string) (any, bool) {
	if n == nil {
		return nil, false
	}
	if n.FullPath == target {
		return n.FirstValue()
	}
	for _, child := range n.Contents {
		if v, ok := child.Find(target); ok {
			return v, true
		}
	}
	return nil, false
}
