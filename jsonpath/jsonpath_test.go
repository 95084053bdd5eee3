package jsonpath

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustExecute(t *testing.T, query, doc string) []Node {
	t.Helper()
	plan, err := Compile(query)
	require.NoError(t, err)
	root, err := DecodeBytes([]byte(doc))
	require.NoError(t, err)
	nodes, err := Execute(plan, root)
	require.NoError(t, err)
	return nodes
}

func values(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = canonicalLiteral(n.Value)
	}
	return out
}

// scenario (d): filter selector.
func TestFilterSelectorScenarioD(t *testing.T) {
	doc := `{"store":{"book":[{"title":"A","price":8},{"title":"B","price":12},{"title":"C","price":5}]}}`
	nodes := mustExecute(t, "$.store.book[?@.price < 10].title", doc)
	require.Equal(t, []string{"'A'", "'C'"}, values(nodes))
}

// scenario (e): slice with negative step.
func TestSliceNegativeStepScenarioE(t *testing.T) {
	doc := `{"nums":[1,2,3]}`
	nodes := mustExecute(t, "$.nums[::-1]", doc)
	require.Equal(t, []string{"3", "2", "1"}, values(nodes))
}

func TestNameAndIndexSelectors(t *testing.T) {
	doc := `{"a":{"b":[10,20,30]}}`
	nodes := mustExecute(t, "$.a.b[1]", doc)
	require.Len(t, nodes, 1)
	require.Equal(t, float64(20), nodes[0].Value.N)

	nodes = mustExecute(t, "$['a']['b'][-1]", doc)
	require.Len(t, nodes, 1)
	require.Equal(t, float64(30), nodes[0].Value.N)
}

func TestIndexOutOfRangeYieldsEmpty(t *testing.T) {
	nodes := mustExecute(t, "$.arr[3]", `{"arr":[1,2,3]}`)
	require.Empty(t, nodes)
}

func TestSliceStartEqualsEndYieldsEmpty(t *testing.T) {
	nodes := mustExecute(t, "$.arr[2:2]", `{"arr":[1,2,3,4,5]}`)
	require.Empty(t, nodes)
}

func TestSliceImpossibleDirectionYieldsEmpty(t *testing.T) {
	nodes := mustExecute(t, "$.arr[1:4:-1]", `{"arr":[1,2,3,4,5]}`)
	require.Empty(t, nodes)
}

func TestSliceStepZeroIsCompileError(t *testing.T) {
	_, err := Compile("$.arr[1:4:0]")
	require.Error(t, err)
	var jerr *Error
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, KindCompile, jerr.Kind)
}

func TestWildcardOrderStable(t *testing.T) {
	doc := `{"z":1,"a":2,"m":3}`
	first := mustExecute(t, "$.*", doc)
	second := mustExecute(t, "$.*", doc)
	require.Equal(t, values(first), values(second))
}

func TestDescendantSegment(t *testing.T) {
	doc := `{"a":{"x":1},"b":[{"x":2},{"y":3}]}`
	nodes := mustExecute(t, "$..x", doc)
	require.Len(t, nodes, 2)
}

func TestBareDotDotIsCompileError(t *testing.T) {
	_, err := Compile("$..")
	require.Error(t, err)
}

func TestSingularQueryAtMostOneNode(t *testing.T) {
	plan, err := Compile("$.a.b")
	require.NoError(t, err)
	require.True(t, plan.IsSingular())

	plan, err = Compile("$.a[*]")
	require.NoError(t, err)
	require.False(t, plan.IsSingular())
}

func TestComparisonOperators(t *testing.T) {
	doc := `{"items":[{"n":1},{"n":2},{"n":3}]}`
	nodes := mustExecute(t, "$.items[?@.n >= 2].n", doc)
	require.Len(t, nodes, 2)

	nodes = mustExecute(t, "$.items[?@.n == 2].n", doc)
	require.Len(t, nodes, 1)
	require.Equal(t, float64(2), nodes[0].Value.N)
}

func TestLogicalAndOrNot(t *testing.T) {
	doc := `{"items":[{"n":1,"ok":true},{"n":2,"ok":false},{"n":3,"ok":true}]}`
	// @.ok is an existence test: "ok":false still exists, so it passes.
	nodes := mustExecute(t, "$.items[?@.ok && @.n > 1]", doc)
	require.Len(t, nodes, 2)

	nodes = mustExecute(t, "$.items[?!@.ok]", doc)
	require.Len(t, nodes, 0)

	nodes = mustExecute(t, "$.items[?@.n == 1 || @.n == 3]", doc)
	require.Len(t, nodes, 2)
}

func TestExistenceTest(t *testing.T) {
	doc := `{"items":[{"opt":1},{}]}`
	nodes := mustExecute(t, "$.items[?@.opt]", doc)
	require.Len(t, nodes, 1)
}

func TestFunctionLength(t *testing.T) {
	doc := `{"items":[{"s":"ab"},{"s":"abcd"}]}`
	nodes := mustExecute(t, "$.items[?length(@.s) > 2]", doc)
	require.Len(t, nodes, 1)
}

func TestFunctionCount(t *testing.T) {
	doc := `{"a":{"x":[1,2,3]},"b":{"x":[]}}`
	nodes := mustExecute(t, "$[?count(@.x[*]) > 0]", doc)
	require.Len(t, nodes, 1)
}

func TestFunctionMatchAndSearch(t *testing.T) {
	doc := `{"items":[{"s":"hello"},{"s":"world"}]}`
	nodes := mustExecute(t, `$.items[?match(@.s, "hel.*")]`, doc)
	require.Len(t, nodes, 1)

	nodes = mustExecute(t, `$.items[?search(@.s, "orl")]`, doc)
	require.Len(t, nodes, 1)
}

func TestFunctionValueRejectsNonSingularAtCompileTime(t *testing.T) {
	_, err := Compile("$[?value(@.items[*]) == 1]")
	require.Error(t, err)
}

func TestFunctionCountRejectsValueTypeArgument(t *testing.T) {
	_, err := Compile(`$[?count("x") > 0]`)
	require.Error(t, err)
}

func TestComparisonRejectsNonSingularQuery(t *testing.T) {
	_, err := Compile("$[?@.items[*] == 1]")
	require.Error(t, err)
}

func TestMaxSegmentsRejected(t *testing.T) {
	var b strings.Builder
	b.WriteString("$")
	for i := 0; i < 300; i++ {
		b.WriteString(".a")
	}
	_, err := Compile(b.String())
	require.Error(t, err)
}

func TestBracketStringEscapes(t *testing.T) {
	doc := `{"a\"b":1}`
	nodes := mustExecute(t, `$['a"b']`, doc)
	require.Len(t, nodes, 1)
	require.Equal(t, float64(1), nodes[0].Value.N)
}

func TestByteOrderMarkRejected(t *testing.T) {
	_, err := Compile("\xef\xbb\xbf$.a")
	require.Error(t, err)
}

func TestCanonicalRoundTrip(t *testing.T) {
	plan, err := Compile("$.store.book[0]")
	require.NoError(t, err)
	canon := plan.Canonical()
	plan2, err := Compile(canon)
	require.NoError(t, err)
	require.Equal(t, plan.Canonical(), plan2.Canonical())
}
