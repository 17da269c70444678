// Package block lays out expression trees as presentation blocks that carry
// the address of the node they came from.
package block

import (
	"slices"
	"strings"

	"github.com/ray-pH/equaio/internal/expr"
)

type Kind string

const (
	KindSymbol     Kind = "symbol"
	KindHorizontal Kind = "horizontal"
	// KindFraction has exactly two children: numerator then denominator.
	KindFraction Kind = "fraction"
)

type Tag string

const (
	TagParentheses Tag = "parentheses"
	TagConcealed   Tag = "concealed"
)

type Block struct {
	Kind     Kind         `json:"kind"`
	Text     string       `json:"text,omitempty"`
	Address  expr.Address `json:"address"`
	Tags     []Tag        `json:"tags,omitempty"`
	Children []Block      `json:"children,omitempty"`
}

func (b Block) HasTag(tag Tag) bool {
	return slices.Contains(b.Tags, tag)
}

// String flattens the block to plain text. Concealed symbols are dropped and
// fractions are written inline.
func (b Block) String() string {
	var sb strings.Builder
	b.write(&sb)
	return sb.String()
}

func (b Block) write(sb *strings.Builder) {
	if b.HasTag(TagParentheses) {
		sb.WriteByte('(')
		defer sb.WriteByte(')')
	}
	switch b.Kind {
	case KindSymbol:
		if !b.HasTag(TagConcealed) {
			sb.WriteString(b.Text)
		}
	case KindFraction:
		b.Children[0].write(sb)
		sb.WriteByte('/')
		b.Children[1].write(sb)
	default:
		for _, child := range b.Children {
			child.write(sb)
		}
	}
}

// Context controls how expressions are laid out. It is read-only once
// built.
type Context struct {
	// InverseOps maps an operator to the operator displayed in its place
	// when the operand is a unary application of the inverse.
	InverseOps  map[string]string `json:"inverse_ops"`
	FractionOps []string          `json:"fraction_ops"`
	ConcealOps  []string          `json:"conceal_ops"`
	// OpPrecedence maps infix operators to binding strength; higher binds
	// tighter and missing operators bind loosest.
	OpPrecedence  map[string]int `json:"op_precedence"`
	RelationOp    string         `json:"relation_op"`
	MathVariables bool           `json:"math_variables"`
}

func DefaultContext() Context {
	prec := make(map[string]int)
	for _, op := range []string{expr.RelationEq, "|", "&", "+", "-", "*", "/"} {
		prec[op] = expr.Precedence(op)
	}
	return Context{
		InverseOps:   map[string]string{"+": "-"},
		FractionOps:  []string{"/"},
		OpPrecedence: prec,
		RelationOp:   expr.RelationEq,
	}
}

func (c Context) precedence(op string) int {
	return c.OpPrecedence[op]
}

func (c Context) isFraction(e expr.Expression) bool {
	return len(e.Children) == 2 && slices.Contains(c.FractionOps, e.Symbol)
}

func (c Context) text(s string) string {
	if c.MathVariables {
		return MathVar(s)
	}
	return s
}

func (c Context) symbol(text string, addr expr.Address) Block {
	b := Block{Kind: KindSymbol, Text: c.text(text), Address: addr.Clone()}
	if slices.Contains(c.ConcealOps, text) {
		b.Tags = append(b.Tags, TagConcealed)
	}
	return b
}

// Build lays out e with addresses relative to e itself.
func Build(e expr.Expression, ctx Context) Block {
	return build(e, expr.Root(), ctx)
}

func build(e expr.Expression, addr expr.Address, ctx Context) Block {
	switch {
	case e.IsLeaf():
		return ctx.symbol(e.Symbol, addr)
	case len(e.Children) == 1:
		operand := build(e.Children[0], addr.Child(0), ctx)
		if isInfix(e.Children[0], ctx) {
			operand = parenthesize(operand)
		}
		return horizontal(addr, ctx.symbol(e.Symbol, addr), operand)
	case ctx.isFraction(e):
		return Block{
			Kind:    KindFraction,
			Address: addr.Clone(),
			Children: []Block{
				build(e.Children[0], addr.Child(0), ctx),
				build(e.Children[1], addr.Child(1), ctx),
			},
		}
	}
	prec := ctx.precedence(e.Symbol)
	inverse, hasInverse := ctx.InverseOps[e.Symbol]
	var children []Block
	for i, child := range e.Children {
		childAddr := addr.Child(i)
		if i > 0 && hasInverse && child.Symbol == inverse && len(child.Children) == 1 {
			operand := child.Children[0]
			ob := build(operand, childAddr.Child(0), ctx)
			if isInfix(operand, ctx) && ctx.precedence(operand.Symbol) <= ctx.precedence(inverse) {
				ob = parenthesize(ob)
			}
			sign := ctx.symbol(child.Symbol, childAddr)
			if !sign.HasTag(TagConcealed) {
				sign.Tags = append(sign.Tags, TagConcealed)
			}
			children = append(children, ctx.symbol(inverse, addr), sign, ob)
			continue
		}
		if i > 0 {
			children = append(children, ctx.symbol(e.Symbol, addr))
		}
		cb := build(child, childAddr, ctx)
		if isInfix(child, ctx) && ctx.precedence(child.Symbol) < prec {
			cb = parenthesize(cb)
		}
		children = append(children, cb)
	}
	return horizontal(addr, children...)
}

// isInfix reports a node laid out as an operator chain, the only kind that
// may need parentheses. Fractions are atomic.
func isInfix(e expr.Expression, ctx Context) bool {
	return len(e.Children) >= 2 && !ctx.isFraction(e)
}

func horizontal(addr expr.Address, children ...Block) Block {
	return Block{Kind: KindHorizontal, Address: addr.Clone(), Children: children}
}

func parenthesize(b Block) Block {
	if !b.HasTag(TagParentheses) {
		b.Tags = append(slices.Clone(b.Tags), TagParentheses)
	}
	return b
}

// Alignable splits a relation into columns. Mid and RHS are nil when the
// expression is not a relation.
type Alignable struct {
	LHS *Block `json:"lhs"`
	Mid *Block `json:"mid,omitempty"`
	RHS *Block `json:"rhs,omitempty"`
}

// BuildAlignable lays out a relation as left side, relation symbol and right
// side, keeping addresses relative to e.
func BuildAlignable(e expr.Expression, ctx Context) Alignable {
	if e.Symbol != ctx.RelationOp || len(e.Children) != 2 {
		whole := Build(e, ctx)
		return Alignable{LHS: &whole}
	}
	root := expr.Root()
	lhs := build(e.Children[0], root.Child(0), ctx)
	mid := ctx.symbol(e.Symbol, root)
	rhs := build(e.Children[1], root.Child(1), ctx)
	return Alignable{LHS: &lhs, Mid: &mid, RHS: &rhs}
}
