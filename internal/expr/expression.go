package expr

import (
	"strconv"
	"strings"
)

// Ellipsis is the leaf symbol that closes a variadic pattern such as
// `A_i + ...`.
const Ellipsis = "..."

// Expression is an immutable term tree. A node without children is a leaf
// (number, variable or constant); otherwise Symbol names the operator.
//
// Expressions are values: every transformation returns a new tree and leaves
// the receiver untouched.
type Expression struct {
	Symbol   string       `json:"symbol"`
	Children []Expression `json:"children,omitempty"`
}

func Leaf(symbol string) Expression {
	return Expression{Symbol: symbol}
}

func Op(symbol string, children ...Expression) Expression {
	out := make([]Expression, len(children))
	copy(out, children)
	return Expression{Symbol: symbol, Children: out}
}

func (e Expression) IsLeaf() bool {
	return len(e.Children) == 0
}

func (e Expression) IsNumeric() bool {
	if !e.IsLeaf() || e.Symbol == "" {
		return false
	}
	_, err := strconv.ParseFloat(e.Symbol, 64)
	return err == nil
}

func (e Expression) IsEllipsis() bool {
	return e.IsLeaf() && e.Symbol == Ellipsis
}

func (e Expression) Equal(other Expression) bool {
	if e.Symbol != other.Symbol || len(e.Children) != len(other.Children) {
		return false
	}
	for i := range e.Children {
		if !e.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

func (e Expression) Clone() Expression {
	if e.IsLeaf() {
		return Expression{Symbol: e.Symbol}
	}
	children := make([]Expression, len(e.Children))
	for i, child := range e.Children {
		children[i] = child.Clone()
	}
	return Expression{Symbol: e.Symbol, Children: children}
}

// At resolves addr against e.
func (e Expression) At(addr Address) (Expression, bool) {
	node := e
	for _, idx := range addr {
		if idx < 0 || idx >= len(node.Children) {
			return Expression{}, false
		}
		node = node.Children[idx]
	}
	return node, true
}

// Replace returns a copy of e with the node at addr swapped for sub. Only the
// nodes along the path are copied.
func (e Expression) Replace(addr Address, sub Expression) (Expression, bool) {
	if len(addr) == 0 {
		return sub, true
	}
	idx := addr[0]
	if idx < 0 || idx >= len(e.Children) {
		return Expression{}, false
	}
	child, ok := e.Children[idx].Replace(addr[1:], sub)
	if !ok {
		return Expression{}, false
	}
	children := make([]Expression, len(e.Children))
	copy(children, e.Children)
	children[idx] = child
	return Expression{Symbol: e.Symbol, Children: children}, true
}

// Walk visits every node in pre-order. Returning false stops the walk.
func (e Expression) Walk(fn func(addr Address, node Expression) bool) {
	e.walk(Root(), fn)
}

func (e Expression) walk(addr Address, fn func(Address, Expression) bool) bool {
	if !fn(addr, e) {
		return false
	}
	for i, child := range e.Children {
		if !child.walk(addr.Child(i), fn) {
			return false
		}
	}
	return true
}

func (e Expression) Contains(pred func(Expression) bool) bool {
	found := false
	e.Walk(func(_ Address, node Expression) bool {
		if pred(node) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Prefix renders e in prefix notation, e.g. `=(+(x,3),5)`.
func (e Expression) Prefix() string {
	if e.IsLeaf() {
		return e.Symbol
	}
	var b strings.Builder
	b.WriteString(e.Symbol)
	b.WriteByte('(')
	for i, child := range e.Children {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(child.Prefix())
	}
	b.WriteByte(')')
	return b.String()
}

// String renders e in infix form with the parentheses needed to parse it back.
func (e Expression) String() string {
	var b strings.Builder
	writeInfix(&b, e)
	return b.String()
}

func writeInfix(b *strings.Builder, e Expression) {
	if e.IsLeaf() {
		b.WriteString(e.Symbol)
		return
	}
	if len(e.Children) == 1 {
		b.WriteString(e.Symbol)
		child := e.Children[0]
		if child.IsLeaf() {
			writeInfix(b, child)
			return
		}
		b.WriteByte('(')
		writeInfix(b, child)
		b.WriteByte(')')
		return
	}
	prec := Precedence(e.Symbol)
	for i, child := range e.Children {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(e.Symbol)
			b.WriteByte(' ')
		}
		if needsParens(child, prec) {
			b.WriteByte('(')
			writeInfix(b, child)
			b.WriteByte(')')
			continue
		}
		writeInfix(b, child)
	}
}

// needsParens keeps String output stable under Parse: any nested binary node
// of equal or lower precedence is wrapped so associative chains never merge.
func needsParens(child Expression, parentPrec int) bool {
	if len(child.Children) < 2 {
		return false
	}
	return Precedence(child.Symbol) <= parentPrec
}
