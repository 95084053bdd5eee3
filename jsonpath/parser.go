package jsonpath

// maxSegments and maxFilterNesting enforce spec §4.4's security bounds:
// "rejects at parse time pathological queries that would cause unbounded
// recursion (more than 256 segments, more than 256 filter-expression
// nesting levels)".
const (
	maxSegments      = 256
	maxFilterNesting = 256
)

type parser struct {
	toks     []token
	pos      int
	query    string
	nSegs    int
	maxDepth int
}

func parseQuery(query string) (*Plan, error) {
	toks, err := lex(query)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, query: query}
	if p.cur().kind != tDollar {
		return nil, compileErr(query, "query must start with '$'")
	}
	p.pos++
	segs, err := p.parseSegments(false)
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tEOF {
		return nil, compileErr(query, "unexpected trailing input at token %d", p.pos)
	}
	return &Plan{Segments: segs, Source: query}, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) peek() token { return p.toks[p.pos+1] }

// parseSegments parses the segment sequence of either the root query
// (relative=false) or a filter sub-query rooted at `@`/`$` (relative=true,
// which only changes nothing about grammar but keeps the call symmetric).
func (p *parser) parseSegments(relative bool) ([]Segment, error) {
	var out []Segment
	for {
		switch p.cur().kind {
		case tDot:
			p.pos++
			seg, err := p.parseDotSegment(SegChild)
			if err != nil {
				return nil, err
			}
			out = append(out, seg)
		case tDotDot:
			p.pos++
			seg, err := p.parseDescendantSegment()
			if err != nil {
				return nil, err
			}
			out = append(out, seg)
		case tLBracket:
			sels, err := p.parseBracketedSelectors()
			if err != nil {
				return nil, err
			}
			out = append(out, Segment{Kind: SegChild, Selectors: sels})
		default:
			if err := p.checkSegmentCount(len(out)); err != nil {
				return nil, err
			}
			return out, nil
		}
		if err := p.checkSegmentCount(len(out)); err != nil {
			return nil, err
		}
	}
}

func (p *parser) checkSegmentCount(n int) error {
	if n > maxSegments {
		return compileErr(p.query, "query has more than %d segments", maxSegments)
	}
	return nil
}

// parseDotSegment parses what follows a single '.': `.name`, `.*`, or a
// member-name-shorthand identifier.
func (p *parser) parseDotSegment(kind SegmentKind) (Segment, error) {
	switch p.cur().kind {
	case tStar:
		p.pos++
		return Segment{Kind: kind, Selectors: []Selector{{Kind: SelWildcard}}}, nil
	case tIdent:
		name := p.cur().text
		p.pos++
		return Segment{Kind: kind, Selectors: []Selector{{Kind: SelName, Name: name}}}, nil
	default:
		return Segment{}, compileErr(p.query, "expected member name or '*' after '.'")
	}
}

// parseDescendantSegment parses what follows '..': a name, '*', or a
// bracketed selector list. Bare '..' (nothing usable following) is a
// compile error per spec §4.4.
func (p *parser) parseDescendantSegment() (Segment, error) {
	switch p.cur().kind {
	case tStar:
		p.pos++
		return Segment{Kind: SegDescendant, Selectors: []Selector{{Kind: SelWildcard}}}, nil
	case tIdent:
		name := p.cur().text
		p.pos++
		return Segment{Kind: SegDescendant, Selectors: []Selector{{Kind: SelName, Name: name}}}, nil
	case tLBracket:
		sels, err := p.parseBracketedSelectors()
		if err != nil {
			return Segment{}, err
		}
		return Segment{Kind: SegDescendant, Selectors: sels}, nil
	default:
		return Segment{}, compileErr(p.query, "bare '..' is invalid; expected name, '*', or '[selector_list]'")
	}
}

func (p *parser) parseBracketedSelectors() ([]Selector, error) {
	if p.cur().kind != tLBracket {
		return nil, compileErr(p.query, "expected '['")
	}
	p.pos++
	var sels []Selector
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		sels = append(sels, sel)
		if p.cur().kind == tComma {
			p.pos++
			continue
		}
		break
	}
	if p.cur().kind != tRBracket {
		return nil, compileErr(p.query, "expected ']' to close selector list")
	}
	p.pos++
	return sels, nil
}

func (p *parser) parseSelector() (Selector, error) {
	switch p.cur().kind {
	case tStar:
		p.pos++
		return Selector{Kind: SelWildcard}, nil
	case tString:
		name := p.cur().text
		p.pos++
		return Selector{Kind: SelName, Name: name}, nil
	case tQuestion:
		p.pos++
		expr, err := p.parseFilterExpr(0)
		if err != nil {
			return Selector{}, err
		}
		return Selector{Kind: SelFilter, Filter: expr}, nil
	case tNumber, tMinus:
		return p.parseIndexOrSlice()
	case tColon:
		return p.parseIndexOrSlice()
	default:
		return Selector{}, compileErr(p.query, "unexpected token in selector list")
	}
}

// parseIndexOrSlice parses `N`, `:`, `N:M`, `N:M:S`, `::S`, etc. Colons
// present at any point commit the selector to slice form.
func (p *parser) parseIndexOrSlice() (Selector, error) {
	var parts []*int64
	haveColon := false
	for i := 0; i < 3; i++ {
		if p.cur().kind == tNumber {
			n := int64(p.cur().num)
			if err := p.checkIntegerLiteral(); err != nil {
				return Selector{}, err
			}
			p.pos++
			parts = append(parts, &n)
		} else {
			parts = append(parts, nil)
		}
		if p.cur().kind == tColon {
			haveColon = true
			p.pos++
			continue
		}
		break
	}
	if !haveColon {
		if len(parts) != 1 || parts[0] == nil {
			return Selector{}, compileErr(p.query, "expected integer index")
		}
		return Selector{Kind: SelIndex, Index: *parts[0]}, nil
	}
	for len(parts) < 3 {
		parts = append(parts, nil)
	}
	step := int64(1)
	if parts[2] != nil {
		step = *parts[2]
	}
	if step == 0 {
		return Selector{}, compileErr(p.query, "slice step 0 is a compile error")
	}
	return Selector{Kind: SelSlice, SliceStart: parts[0], SliceEnd: parts[1], SliceStep: step}, nil
}

// checkIntegerLiteral rejects non-integer numeric literals (decimals,
// exponents) in index/slice position; spec §4.4 only allows plain integers
// there, leading zeros and '+' already rejected by the lexer.
func (p *parser) checkIntegerLiteral() error {
	t := p.cur().text
	for i, c := range t {
		if c == '-' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return compileErr(p.query, "index/slice bound %q must be an integer", t)
		}
	}
	return nil
}

// --- filter expressions ---
//
// Precedence highest-to-lowest per spec §4.4: function call / unary not,
// comparison, logical and, logical or. Parentheses override.

func (p *parser) parseFilterExpr(depth int) (*FilterExpr, error) {
	if depth > maxFilterNesting {
		return nil, compileErr(p.query, "filter expression nesting exceeds %d levels", maxFilterNesting)
	}
	return p.parseOr(depth)
}

func (p *parser) parseOr(depth int) (*FilterExpr, error) {
	left, err := p.parseAnd(depth)
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tOr {
		p.pos++
		right, err := p.parseAnd(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &FilterExpr{Kind: LogOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd(depth int) (*FilterExpr, error) {
	left, err := p.parseUnary(depth)
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tAnd {
		p.pos++
		right, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &FilterExpr{Kind: LogAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary(depth int) (*FilterExpr, error) {
	if p.cur().kind == tNot {
		p.pos++
		parenthesized := p.cur().kind == tLParen
		operand, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		if operand.Kind == LogCompare && !parenthesized {
			return nil, compileErr(p.query, "'!' cannot negate a comparison without parentheses")
		}
		return &FilterExpr{Kind: LogNot, Operand: operand}, nil
	}
	return p.parseComparisonOrTest(depth)
}

func (p *parser) parseComparisonOrTest(depth int) (*FilterExpr, error) {
	if p.cur().kind == tLParen {
		p.pos++
		inner, err := p.parseFilterExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tRParen {
			return nil, compileErr(p.query, "expected ')' to close parenthesized expression")
		}
		p.pos++
		return p.maybeComparison(inner, depth)
	}

	left, err := p.parseComparable(depth)
	if err != nil {
		return nil, err
	}
	if op, ok := p.compareOp(); ok {
		p.pos++
		right, err := p.parseComparable(depth)
		if err != nil {
			return nil, err
		}
		if err := checkComparisonTypes(p.query, left, right); err != nil {
			return nil, err
		}
		return &FilterExpr{Kind: LogCompare, Op: op, CompareL: left, CompareR: right}, nil
	}

	// Not a comparison: this Comparable stands alone as a test expression
	// (existence of a query, or a LogicalType function call).
	if left.Kind == CompFunc {
		if left.Func.ReturnType != TypeLogical {
			return nil, compileErr(p.query, "function %q used as a bare test must return LogicalType", left.Func.Name)
		}
	} else if left.Kind != CompQuery {
		return nil, compileErr(p.query, "a literal cannot stand alone as a filter expression")
	}
	return &FilterExpr{Kind: LogTest, Test: left}, nil
}

// maybeComparison returns a parenthesized group as-is: RFC 9535 comparisons
// compare Comparables, so a parenthesized logical expression can never be
// a comparison operand.
func (p *parser) maybeComparison(inner *FilterExpr, depth int) (*FilterExpr, error) {
	return inner, nil
}

func (p *parser) compareOp() (CompareOp, bool) {
	switch p.cur().kind {
	case tEQ:
		return OpEQ, true
	case tNE:
		return OpNE, true
	case tLT:
		return OpLT, true
	case tLE:
		return OpLE, true
	case tGT:
		return OpGT, true
	case tGE:
		return OpGE, true
	default:
		return 0, false
	}
}

// parseComparable parses a literal, a query (`@...`/`$...`), or a function
// call -- the operand grammar for both comparisons and test expressions.
func (p *parser) parseComparable(depth int) (*Comparable, error) {
	switch p.cur().kind {
	case tString:
		s := p.cur().text
		p.pos++
		return &Comparable{Kind: CompLiteral, Literal: &Value{Kind: KString, S: s}}, nil
	case tNumber:
		n := p.cur().num
		p.pos++
		return &Comparable{Kind: CompLiteral, Literal: &Value{Kind: KNumber, N: n}}, nil
	case tIdent:
		switch p.cur().text {
		case "true":
			p.pos++
			return &Comparable{Kind: CompLiteral, Literal: &Value{Kind: KBool, B: true}}, nil
		case "false":
			p.pos++
			return &Comparable{Kind: CompLiteral, Literal: &Value{Kind: KBool, B: false}}, nil
		case "null":
			p.pos++
			return &Comparable{Kind: CompLiteral, Literal: &Value{Kind: KNull}}, nil
		default:
			return p.parseFuncCall(depth)
		}
	case tAt:
		p.pos++
		segs, err := p.parseSegments(true)
		if err != nil {
			return nil, err
		}
		return &Comparable{Kind: CompQuery, QueryRoot: false, Query: segs}, nil
	case tDollar:
		p.pos++
		segs, err := p.parseSegments(true)
		if err != nil {
			return nil, err
		}
		return &Comparable{Kind: CompQuery, QueryRoot: true, Query: segs}, nil
	default:
		return nil, compileErr(p.query, "expected literal, query, or function call in filter expression")
	}
}

func (p *parser) parseFuncCall(depth int) (*Comparable, error) {
	name := p.cur().text
	p.pos++
	if p.cur().kind != tLParen {
		return nil, compileErr(p.query, "unknown identifier %q in filter expression", name)
	}
	p.pos++
	var args []*Comparable
	if p.cur().kind != tRParen {
		for {
			arg, err := p.parseComparable(depth + 1)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().kind == tComma {
				p.pos++
				continue
			}
			break
		}
	}
	if p.cur().kind != tRParen {
		return nil, compileErr(p.query, "expected ')' to close call to %q", name)
	}
	p.pos++
	sig, err := checkFuncCall(p.query, name, args)
	if err != nil {
		return nil, err
	}
	return &Comparable{Kind: CompFunc, Func: &FuncCall{Name: name, Args: args, ReturnType: sig.returnType}}, nil
}

// checkComparisonTypes enforces spec §4.4: comparisons require ValueType
// operands, so a non-singular query (NodesType) on either side is a
// compile-time type error.
func checkComparisonTypes(query string, l, r *Comparable) error {
	for _, c := range []*Comparable{l, r} {
		if c.Kind == CompQuery && !comparableIsSingular(c) {
			return compileErr(query, "comparison operand must be a singular query (ValueType), got a non-singular NodesType query")
		}
		if c.Kind == CompFunc && comparableType(c) == TypeNodes {
			return compileErr(query, "comparison operand cannot be NodesType")
		}
	}
	return nil
}
