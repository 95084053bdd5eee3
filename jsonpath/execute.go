package jsonpath

import "github.com/samber/lo"

// Node is one match produced by executing a plan: the matched value plus
// its normalized path from the document root (RFC 9535 §2.7).
type Node struct {
	Value *Value
	Path  string
}

// Execute applies plan to root and returns matches in document order
// (spec §4.4's depth-first pre-order traversal, invariant 2).
func Execute(plan *Plan, root *Value) ([]Node, error) {
	current := []Node{{Value: root, Path: "$"}}
	for _, seg := range plan.Segments {
		var next []Node
		for _, n := range current {
			next = append(next, applySegment(seg, n, root)...)
		}
		current = next
	}
	return current, nil
}

func applySegment(seg Segment, n Node, root *Value) []Node {
	if seg.Kind == SegChild {
		return applySelectors(seg.Selectors, n, root)
	}
	// Descendant: apply selectors at every node in the subtree rooted at
	// n, visiting the parent before its children (pre-order).
	var out []Node
	var walk func(Node)
	walk = func(cur Node) {
		out = append(out, applySelectors(seg.Selectors, cur, root)...)
		switch cur.Value.Kind {
		case KArray:
			for i, e := range cur.Value.Arr {
				walk(Node{Value: e, Path: indexPath(cur.Path, i)})
			}
		case KObject:
			for i, k := range cur.Value.Keys {
				walk(Node{Value: cur.Value.Vals[i], Path: namePath(cur.Path, k)})
			}
		}
	}
	walk(n)
	return out
}

func applySelectors(sels []Selector, n Node, root *Value) []Node {
	var out []Node
	for _, sel := range sels {
		out = append(out, applySelector(sel, n, root)...)
	}
	return out
}

func applySelector(sel Selector, n Node, root *Value) []Node {
	v := n.Value
	switch sel.Kind {
	case SelName:
		if v.Kind != KObject {
			return nil
		}
		child := v.Get(sel.Name)
		if child == nil {
			return nil
		}
		return []Node{{Value: child, Path: namePath(n.Path, sel.Name)}}

	case SelIndex:
		if v.Kind != KArray {
			return nil
		}
		i := normalizeIndex(sel.Index, len(v.Arr))
		if i < 0 || i >= len(v.Arr) {
			return nil
		}
		return []Node{{Value: v.Arr[i], Path: indexPath(n.Path, i)}}

	case SelWildcard:
		switch v.Kind {
		case KArray:
			return lo.Map(v.Arr, func(e *Value, i int) Node {
				return Node{Value: e, Path: indexPath(n.Path, i)}
			})
		case KObject:
			out := make([]Node, 0, len(v.Keys))
			for i, k := range v.Keys {
				out = append(out, Node{Value: v.Vals[i], Path: namePath(n.Path, k)})
			}
			return out
		default:
			return nil
		}

	case SelSlice:
		if v.Kind != KArray {
			return nil
		}
		indices := sliceIndices(sel, len(v.Arr))
		return lo.Map(indices, func(i int, _ int) Node {
			return Node{Value: v.Arr[i], Path: indexPath(n.Path, i)}
		})

	case SelFilter:
		switch v.Kind {
		case KArray:
			var out []Node
			for i, e := range v.Arr {
				if evalLogical(sel.Filter, e, root) {
					out = append(out, Node{Value: e, Path: indexPath(n.Path, i)})
				}
			}
			return out
		case KObject:
			var out []Node
			for i, k := range v.Keys {
				e := v.Vals[i]
				if evalLogical(sel.Filter, e, root) {
					out = append(out, Node{Value: e, Path: namePath(n.Path, k)})
				}
			}
			return out
		default:
			return nil
		}

	default:
		return nil
	}
}

// normalizeIndex implements spec §4.4: Normalize(i, len) = i if i >= 0
// else len + i.
func normalizeIndex(i int64, length int) int {
	if i >= 0 {
		return int(i)
	}
	return length + int(i)
}

// sliceIndices implements RFC 9535 Table 8's Normalize/Bounds rules for
// `[start:end:step]`, never panicking on out-of-range indices.
func sliceIndices(sel Selector, length int) []int {
	step := sel.SliceStep
	n := int64(length)

	var start, end int64
	if step > 0 {
		start, end = 0, n
	} else {
		start, end = n-1, -n-1
	}
	if sel.SliceStart != nil {
		start = boundsNormalize(*sel.SliceStart, n, step)
	}
	if sel.SliceEnd != nil {
		end = boundsNormalize(*sel.SliceEnd, n, step)
	}

	var out []int
	if step > 0 {
		for i := start; i < end; i += step {
			if i >= 0 && i < n {
				out = append(out, int(i))
			}
		}
	} else {
		for i := start; i > end; i += step {
			if i >= 0 && i < n {
				out = append(out, int(i))
			}
		}
	}
	return out
}

// boundsNormalize applies RFC 9535 §2.3.4.2.2's Normalize then clamps into
// the [-1, len-1] (step<0) or [0, len] (step>0) bound before iteration.
func boundsNormalize(i, length, step int64) int64 {
	if i < 0 {
		i += length
	}
	if step > 0 {
		if i < 0 {
			return 0
		}
		if i > length {
			return length
		}
		return i
	}
	if i < -1 {
		return -1
	}
	if i > length-1 {
		return length - 1
	}
	return i
}

func namePath(parent, name string) string {
	return parent + "['" + name + "']"
}

func indexPath(parent string, i int) string {
	return parent + "[" + formatInt(int64(i)) + "]"
}
