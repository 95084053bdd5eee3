package jsonpath

// SelectorKind tags the variant carried by a Selector.
type SelectorKind int

const (
	SelName SelectorKind = iota
	SelIndex
	SelSlice
	SelWildcard
	SelFilter
)

// Selector is one of the five RFC 9535 §2.3 selector forms.
type Selector struct {
	Kind SelectorKind

	Name string // SelName

	Index int64 // SelIndex

	// SelSlice: nil Start/End means "use the step-sign default" per
	// RFC 9535 Table 8; Step defaults to 1 if the selector text omitted it.
	SliceStart *int64
	SliceEnd   *int64
	SliceStep  int64

	Filter *FilterExpr // SelFilter
}

// SegmentKind distinguishes a child segment from a descendant segment.
type SegmentKind int

const (
	SegChild SegmentKind = iota
	SegDescendant
)

// Segment is `Child{selectors}` or `Descendant{selectors}` from spec §3.
type Segment struct {
	Kind      SegmentKind
	Selectors []Selector
}

// Plan is a compiled query: the root segment sequence plus the source text
// it was compiled from, retained for error messages and canonicalization.
type Plan struct {
	Segments []Segment
	Source   string
}

// isSingularSegment reports whether a segment is a child segment with
// exactly one Name or Index selector -- the building block of spec §4.4's
// singular-query definition.
func isSingularSegment(s Segment) bool {
	if s.Kind != SegChild || len(s.Selectors) != 1 {
		return false
	}
	k := s.Selectors[0].Kind
	return k == SelName || k == SelIndex
}

// IsSingular reports whether every segment in the plan is singular, i.e.
// the query can match at most one node (spec §4.4, invariant 4).
func (p *Plan) IsSingular() bool {
	for _, seg := range p.Segments {
		if !isSingularSegment(seg) {
			return false
		}
	}
	return true
}
