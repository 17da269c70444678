package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-pH/equaio/internal/expr"
)

func parse(t *testing.T, text string) expr.Expression {
	t.Helper()
	e, err := expr.ParseStrict(text, expr.ArithmeticContext().WithVariables("x", "y", "z"))
	require.NoError(t, err, text)
	return e
}

func TestBuildLeafAndChain(t *testing.T) {
	ctx := DefaultContext()
	b := Build(expr.Leaf("x"), ctx)
	assert.Equal(t, KindSymbol, b.Kind)
	assert.Equal(t, "x", b.Text)
	assert.Equal(t, expr.Root(), b.Address)

	b = Build(parse(t, "x + y + 1"), ctx)
	require.Equal(t, KindHorizontal, b.Kind)
	require.Len(t, b.Children, 5)
	texts := make([]string, len(b.Children))
	for i, c := range b.Children {
		texts[i] = c.Text
	}
	assert.Equal(t, []string{"x", "+", "y", "+", "1"}, texts)
	assert.Equal(t, expr.Address{2}, b.Children[4].Address)
	assert.Equal(t, expr.Root(), b.Children[1].Address, "operator symbols point at their operator node")
}

func TestBuildParenthesizesLowerPrecedenceChildren(t *testing.T) {
	ctx := DefaultContext()

	b := Build(parse(t, "2 * (x + 3)"), ctx)
	require.Len(t, b.Children, 3)
	assert.False(t, b.Children[0].HasTag(TagParentheses))
	assert.True(t, b.Children[2].HasTag(TagParentheses))
	assert.Equal(t, "2*(x+3)", b.String())

	b = Build(parse(t, "(2 * x) + 3"), ctx)
	assert.False(t, b.Children[0].HasTag(TagParentheses), "higher precedence child needs no parentheses")
	assert.Equal(t, "2*x+3", b.String())

	b = Build(parse(t, "(x - y) - z"), ctx)
	assert.False(t, b.Children[0].HasTag(TagParentheses), "equal precedence child needs no parentheses")

	b = Build(parse(t, "-(x + y)"), ctx)
	require.Len(t, b.Children, 2)
	assert.Equal(t, "-", b.Children[0].Text)
	assert.True(t, b.Children[1].HasTag(TagParentheses))
	assert.Equal(t, "-(x+y)", b.String())
}

func TestBuildUnknownOperatorIsAlwaysParenthesized(t *testing.T) {
	e := expr.Op("+", expr.Leaf("x"), expr.Op("^", expr.Leaf("y"), expr.Leaf("2")))
	b := Build(e, DefaultContext())
	assert.True(t, b.Children[2].HasTag(TagParentheses))
}

func TestBuildDisplayInversion(t *testing.T) {
	ctx := DefaultContext()
	e := parse(t, "x + (-y)")
	b := Build(e, ctx)
	require.Len(t, b.Children, 4)
	assert.Equal(t, "-", b.Children[1].Text)
	assert.Equal(t, expr.Root(), b.Children[1].Address)
	assert.True(t, b.Children[2].HasTag(TagConcealed))
	assert.Equal(t, expr.Address{1}, b.Children[2].Address, "the hidden sign keeps the negation selectable")
	assert.Equal(t, expr.Address{1, 0}, b.Children[3].Address)
	assert.Equal(t, "x-y", b.String())

	b = Build(parse(t, "x + (-(y + z))"), ctx)
	assert.True(t, b.Children[3].HasTag(TagParentheses))
	assert.Equal(t, "x-(y+z)", b.String())

	b = Build(parse(t, "x + (-(y * z))"), ctx)
	assert.False(t, b.Children[3].HasTag(TagParentheses))
	assert.Equal(t, "x-y*z", b.String())

	b = Build(parse(t, "(-x) + y"), ctx)
	assert.Equal(t, "-x+y", b.String(), "the first operand is never inverted")

	assert.Equal(t, "+(x,-(y))", e.Prefix(), "layout leaves the expression alone")
}

func TestBuildFraction(t *testing.T) {
	ctx := DefaultContext()
	b := Build(parse(t, "(x + 1) / (y * 2)"), ctx)
	require.Equal(t, KindFraction, b.Kind)
	require.Len(t, b.Children, 2)
	assert.False(t, b.Children[0].HasTag(TagParentheses))
	assert.False(t, b.Children[1].HasTag(TagParentheses))
	assert.Equal(t, expr.Address{0, 1}, b.Children[0].Children[2].Address)

	b = Build(parse(t, "2 * (x / y)"), ctx)
	assert.Equal(t, KindFraction, b.Children[2].Kind)
	assert.False(t, b.Children[2].HasTag(TagParentheses), "fractions are atomic")
}

func TestBuildConcealOps(t *testing.T) {
	ctx := DefaultContext()
	ctx.ConcealOps = []string{"*"}
	b := Build(parse(t, "2 * x"), ctx)
	assert.True(t, b.Children[1].HasTag(TagConcealed))
	assert.Equal(t, "2x", b.String())
}

func TestBuildAlignable(t *testing.T) {
	ctx := DefaultContext()
	e := parse(t, "x + 3 = 5")
	a := BuildAlignable(e, ctx)
	require.NotNil(t, a.LHS)
	require.NotNil(t, a.Mid)
	require.NotNil(t, a.RHS)
	assert.Equal(t, build(e.Children[0], expr.Address{0}, ctx), *a.LHS)
	assert.Equal(t, "=", a.Mid.Text)
	assert.Equal(t, build(e.Children[1], expr.Address{1}, ctx), *a.RHS)
	assert.Equal(t, expr.Address{0, 1}, a.LHS.Children[2].Address)

	e = parse(t, "x + 3")
	a = BuildAlignable(e, ctx)
	require.NotNil(t, a.LHS)
	assert.Equal(t, Build(e, ctx), *a.LHS)
	assert.Nil(t, a.Mid)
	assert.Nil(t, a.RHS)
}

func TestMathVar(t *testing.T) {
	assert.Equal(t, "\U0001D465", MathVar("x"))
	assert.Equal(t, "\U0001D434\U0001D44E", MathVar("Aa"))
	assert.Equal(t, "ℎ", MathVar("h"))
	assert.Equal(t, "2−\U0001D466", MathVar("2-y"))
	assert.Equal(t, "1 + 2", MathVar("1 + 2"))

	ctx := DefaultContext()
	ctx.MathVariables = true
	b := Build(parse(t, "x - 1"), ctx)
	assert.Equal(t, "\U0001D465−1", b.String())
}
