package jsonpath

import (
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// regexBudget bounds every match()/search() evaluation so a crafted
// pattern cannot exhibit catastrophic backtracking against an adversarial
// input, per spec §4.4's "explicit time/step budget".
const regexBudget = 50 * time.Millisecond

// funcSignature describes one built-in function's arity and argument/
// return types for the compile-time type-check rules in spec §4.4.
type funcSignature struct {
	arity      int
	argTypes   []ExprType // per-position expected type; ValueType accepts a singular query or literal, NodesType accepts any query
	returnType ExprType
}

var funcSignatures = map[string]funcSignature{
	"length": {arity: 1, argTypes: []ExprType{TypeValue}, returnType: TypeValue},
	"count":  {arity: 1, argTypes: []ExprType{TypeNodes}, returnType: TypeValue},
	"match":  {arity: 2, argTypes: []ExprType{TypeValue, TypeValue}, returnType: TypeLogical},
	"search": {arity: 2, argTypes: []ExprType{TypeValue, TypeValue}, returnType: TypeLogical},
	"value":  {arity: 1, argTypes: []ExprType{TypeNodes}, returnType: TypeValue},
}

// checkFuncCall validates arity and per-argument type compatibility at
// compile time, per spec §4.4: "length/match/search/value parameters that
// require ValueType reject non-singular NodesType; count requires
// NodesType; ... Arity mismatches are rejected."
func checkFuncCall(query, name string, args []*Comparable) (*funcSignature, error) {
	sig, ok := funcSignatures[name]
	if !ok {
		return nil, compileErr(query, "unknown function %q", name)
	}
	if len(args) != sig.arity {
		return nil, compileErr(query, "function %q expects %d argument(s), got %d", name, sig.arity, len(args))
	}
	for i, arg := range args {
		want := sig.argTypes[i]
		got := comparableType(arg)
		if want == TypeValue && got == TypeNodes && !comparableIsSingular(arg) {
			return nil, compileErr(query, "function %q argument %d requires ValueType but got a non-singular NodesType query", name, i+1)
		}
		if want == TypeNodes && got != TypeNodes {
			return nil, compileErr(query, "function %q argument %d requires NodesType", name, i+1)
		}
		if name == "value" && !comparableIsSingular(arg) {
			return nil, compileErr(query, "value() requires a singular query argument")
		}
	}
	return &sig, nil
}

// comparableType reports the static type a Comparable produces, per
// spec §4.4's type system: a query is NodesType unless the call site
// narrows it (value() does so explicitly); a literal or a function whose
// signature returns ValueType/LogicalType carries that type directly.
func comparableType(c *Comparable) ExprType {
	switch c.Kind {
	case CompLiteral:
		return TypeValue
	case CompQuery:
		return TypeNodes
	case CompFunc:
		if sig, ok := funcSignatures[c.Func.Name]; ok {
			return sig.returnType
		}
		return TypeValue
	default:
		return TypeValue
	}
}

func comparableIsSingular(c *Comparable) bool {
	if c.Kind != CompQuery {
		return false
	}
	for _, seg := range c.Query {
		if !isSingularSegment(seg) {
			return false
		}
	}
	return true
}

// callFunction evaluates a compiled FuncCall against already-evaluated
// argument nodes (one []*Value per argument, NodesType-shaped; ValueType
// arguments arrive as a single-element or empty slice).
func callFunction(name string, args [][]*Value) (logical bool, value *Value, isLogical bool) {
	switch name {
	case "length":
		v := singularOf(args[0])
		return false, lengthOf(v), false
	case "count":
		n := float64(len(args[0]))
		return false, &Value{Kind: KNumber, N: n}, false
	case "value":
		if len(args[0]) != 1 {
			return false, nil, false
		}
		return false, args[0][0], false
	case "match":
		return regexTest(args, true), nil, true
	case "search":
		return regexTest(args, false), nil, true
	default:
		return false, nil, false
	}
}

func singularOf(vs []*Value) *Value {
	if len(vs) != 1 {
		return nil
	}
	return vs[0]
}

// lengthOf implements spec §4.4's length(): code points for a string,
// elements for an array, members for an object, "nothing" otherwise.
func lengthOf(v *Value) *Value {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KString:
		return &Value{Kind: KNumber, N: float64(utf8.RuneCountInString(v.S))}
	case KArray:
		return &Value{Kind: KNumber, N: float64(len(v.Arr))}
	case KObject:
		return &Value{Kind: KNumber, N: float64(len(v.Keys))}
	default:
		return nil
	}
}

func regexTest(args [][]*Value, anchored bool) bool {
	subject := singularOf(args[0])
	pattern := singularOf(args[1])
	if subject == nil || pattern == nil || subject.Kind != KString || pattern.Kind != KString {
		return false
	}
	re, err := compileIRegexp(pattern.S, anchored)
	if err != nil {
		return false
	}
	m, err := re.FindStringMatch(subject.S)
	if err != nil || m == nil {
		return false
	}
	// For the anchored case, compileIRegexp already wraps the pattern in
	// ^(?:...)$, so any match found here is already a full-string match;
	// no further bounds check is needed (m.Length is a rune count and
	// subject.S's byte length isn't comparable to it anyway).
	return true
}

// compileIRegexp compiles pattern with regexp2's RE2-compatible syntax
// option. The pattern is not checked against the RFC 9485 I-Regexp
// subset: backreferences and lookaround are accepted. MatchTimeout bounds
// matching so adversarial patterns cannot hang the filter evaluator.
func compileIRegexp(pattern string, anchored bool) (*regexp2.Regexp, error) {
	p := pattern
	if anchored {
		p = "^(?:" + pattern + ")$"
	}
	re, err := regexp2.Compile(p, regexp2.RE2)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexBudget
	return re, nil
}
