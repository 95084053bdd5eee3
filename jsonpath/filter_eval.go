package jsonpath

// evalLogical evaluates a compiled filter expression with `@` bound to
// current and `$` bound to root, per spec §4.4.
func evalLogical(e *FilterExpr, current, root *Value) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case LogNot:
		return !evalLogical(e.Operand, current, root)
	case LogAnd:
		return evalLogical(e.Left, current, root) && evalLogical(e.Right, current, root)
	case LogOr:
		return evalLogical(e.Left, current, root) || evalLogical(e.Right, current, root)
	case LogCompare:
		return evalCompare(e, current, root)
	case LogTest:
		return evalTest(e.Test, current, root)
	default:
		return false
	}
}

func evalTest(c *Comparable, current, root *Value) bool {
	switch c.Kind {
	case CompQuery:
		nodes := evalQuery(c, current, root)
		return len(nodes) > 0
	case CompFunc:
		logical, _, isLogical := evalFuncCall(c.Func, current, root)
		if isLogical {
			return logical
		}
		return false
	default:
		return false
	}
}

func evalCompare(e *FilterExpr, current, root *Value) bool {
	l := evalSingularValue(e.CompareL, current, root)
	r := evalSingularValue(e.CompareR, current, root)
	switch e.Op {
	case OpEQ:
		return compareEqual(l, r)
	case OpNE:
		return !compareEqual(l, r)
	case OpLT:
		return compareOrdered(l, r, OpLT)
	case OpLE:
		return compareOrdered(l, r, OpLE)
	case OpGT:
		return compareOrdered(l, r, OpGT)
	case OpGE:
		return compareOrdered(l, r, OpGE)
	default:
		return false
	}
}

// evalSingularValue reduces a Comparable to a ValueType result: literals
// pass through, singular queries yield their sole node (or nothing), and
// function calls return their ValueType result.
func evalSingularValue(c *Comparable, current, root *Value) *Value {
	switch c.Kind {
	case CompLiteral:
		return c.Literal
	case CompQuery:
		nodes := evalQuery(c, current, root)
		if len(nodes) != 1 {
			return nothing
		}
		return nodes[0]
	case CompFunc:
		_, v, isLogical := evalFuncCall(c.Func, current, root)
		if isLogical {
			return nothing
		}
		return v
	default:
		return nothing
	}
}

func evalQuery(c *Comparable, current, root *Value) []*Value {
	base := current
	if c.QueryRoot {
		base = root
	}
	plan := &Plan{Segments: c.Query}
	nodes, _ := Execute(plan, base)
	out := make([]*Value, len(nodes))
	for i, n := range nodes {
		out[i] = n.Value
	}
	return out
}

func evalFuncCall(f *FuncCall, current, root *Value) (logical bool, value *Value, isLogical bool) {
	args := make([][]*Value, len(f.Args))
	for i, a := range f.Args {
		switch a.Kind {
		case CompQuery:
			args[i] = evalQuery(a, current, root)
		default:
			v := evalSingularValue(a, current, root)
			if v == nil {
				args[i] = nil
			} else {
				args[i] = []*Value{v}
			}
		}
	}
	return callFunction(f.Name, args)
}

// compareEqual implements spec §4.4's SameType equality: numbers by
// value, strings by code points, arrays/objects by deep equality, null/
// bool by identity; "nothing" equals only "nothing".
func compareEqual(a, b *Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KNull:
		return true
	case KBool:
		return a.B == b.B
	case KNumber:
		return a.N == b.N
	case KString:
		return a.S == b.S
	case KArray, KObject:
		return deepEqual(a, b)
	default:
		return false
	}
}

// compareOrdered implements spec §4.4: ordering is defined only between
// two numbers or two strings; any other pairing is false.
func compareOrdered(a, b *Value, op CompareOp) bool {
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KNumber:
		return orderResult(op, a.N < b.N, a.N == b.N, a.N > b.N)
	case KString:
		return orderResult(op, a.S < b.S, a.S == b.S, a.S > b.S)
	default:
		return false
	}
}

func orderResult(op CompareOp, lt, eq, gt bool) bool {
	switch op {
	case OpLT:
		return lt
	case OpLE:
		return lt || eq
	case OpGT:
		return gt
	case OpGE:
		return gt || eq
	default:
		return false
	}
}
