package jsonpath

import (
	"strconv"
	"strings"
)

// canonicalQuoter escapes backslashes and single quotes inside the
// single-quoted names and string literals that Canonical emits.
var canonicalQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Compile parses and type-checks query, returning an executable Plan.
// Compile-time failures -- grammar, type-system, or depth-limit violations
// -- are reported as a *Error with Kind == KindCompile (spec §4.4, §7).
func Compile(query string) (*Plan, error) {
	return parseQuery(query)
}

// MustCompile is a convenience wrapper for call sites compiling a constant
// query known to be valid; it panics on a compile error.
func MustCompile(query string) *Plan {
	p, err := Compile(query)
	if err != nil {
		panic(err)
	}
	return p
}

// Canonical renders the plan back to query text. Re-compiling it must
// yield an equivalent plan (spec §8's "compile(Q).canonical_text() compiles
// to the same plan" round-trip property).
func (p *Plan) Canonical() string {
	out := "$"
	for _, seg := range p.Segments {
		out += canonicalSegment(seg)
	}
	return out
}

func canonicalSegment(seg Segment) string {
	prefix := "."
	if seg.Kind == SegDescendant {
		prefix = ".."
	}
	if len(seg.Selectors) == 1 && seg.Selectors[0].Kind == SelWildcard {
		return prefix + "*"
	}
	out := "["
	if seg.Kind == SegDescendant {
		out = "..["
	}
	for i, sel := range seg.Selectors {
		if i > 0 {
			out += ","
		}
		out += canonicalSelector(sel)
	}
	return out + "]"
}

func canonicalSelector(sel Selector) string {
	switch sel.Kind {
	case SelName:
		return "'" + canonicalQuoter.Replace(sel.Name) + "'"
	case SelIndex:
		return formatInt(sel.Index)
	case SelWildcard:
		return "*"
	case SelSlice:
		s := ""
		if sel.SliceStart != nil {
			s += formatInt(*sel.SliceStart)
		}
		s += ":"
		if sel.SliceEnd != nil {
			s += formatInt(*sel.SliceEnd)
		}
		s += ":" + formatInt(sel.SliceStep)
		return s
	case SelFilter:
		return "?" + canonicalFilter(sel.Filter)
	default:
		return ""
	}
}

func canonicalFilter(e *FilterExpr) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case LogNot:
		return "!(" + canonicalFilter(e.Operand) + ")"
	case LogAnd:
		return "(" + canonicalFilter(e.Left) + "&&" + canonicalFilter(e.Right) + ")"
	case LogOr:
		return "(" + canonicalFilter(e.Left) + "||" + canonicalFilter(e.Right) + ")"
	case LogCompare:
		return canonicalComparable(e.CompareL) + compareOpText(e.Op) + canonicalComparable(e.CompareR)
	case LogTest:
		return canonicalComparable(e.Test)
	default:
		return ""
	}
}

func canonicalComparable(c *Comparable) string {
	switch c.Kind {
	case CompQuery:
		root := "@"
		if c.QueryRoot {
			root = "$"
		}
		for _, seg := range c.Query {
			root += canonicalSegment(seg)
		}
		return root
	case CompFunc:
		out := c.Func.Name + "("
		for i, a := range c.Func.Args {
			if i > 0 {
				out += ","
			}
			out += canonicalComparable(a)
		}
		return out + ")"
	case CompLiteral:
		return canonicalLiteral(c.Literal)
	default:
		return ""
	}
}

func canonicalLiteral(v *Value) string {
	switch v.Kind {
	case KString:
		return "'" + canonicalQuoter.Replace(v.S) + "'"
	case KNumber:
		return formatFloat(v.N)
	case KBool:
		if v.B {
			return "true"
		}
		return "false"
	default:
		return "null"
	}
}

func compareOpText(op CompareOp) string {
	switch op {
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	default:
		return ">="
	}
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return formatInt(int64(f))
	}
	return trimFloat(f)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
