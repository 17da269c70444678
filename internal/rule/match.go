package rule

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ray-pH/equaio/internal/expr"
)

// Pattern variables start with an uppercase letter. A variable containing an
// underscore (A_i) is indexed: it binds once per element of an ellipsis match.
func isPatternVar(symbol string) bool {
	r, _ := utf8.DecodeRuneInString(symbol)
	return unicode.IsUpper(r)
}

func isIndexedVar(symbol string) bool {
	return isPatternVar(symbol) && strings.Contains(symbol, "_")
}

func isVariadic(pattern expr.Expression) bool {
	return len(pattern.Children) == 2 && pattern.Children[1].IsEllipsis()
}

type bindings struct {
	single map[string]expr.Expression
	lists  map[string][]expr.Expression
}

func newBindings() *bindings {
	return &bindings{
		single: map[string]expr.Expression{},
		lists:  map[string][]expr.Expression{},
	}
}

// bindsEllipsis reports a variable bound to the ellipsis marker itself, which
// would tear a variadic pattern apart.
func (b *bindings) bindsEllipsis() bool {
	for _, v := range b.single {
		if v.IsEllipsis() {
			return true
		}
	}
	return false
}

// match unifies pattern with target, extending b. On failure b may hold
// partial bindings and must be discarded.
func match(pattern, target expr.Expression, b *bindings) bool {
	if pattern.IsLeaf() {
		if isPatternVar(pattern.Symbol) {
			if bound, ok := b.single[pattern.Symbol]; ok {
				return bound.Equal(target)
			}
			b.single[pattern.Symbol] = target
			return true
		}
		return target.IsLeaf() && target.Symbol == pattern.Symbol
	}
	if target.IsLeaf() || pattern.Symbol != target.Symbol {
		return false
	}
	if isVariadic(pattern) {
		return matchVariadic(pattern.Children[0], target.Children, b)
	}
	if len(pattern.Children) != len(target.Children) {
		return false
	}
	for i := range pattern.Children {
		if !match(pattern.Children[i], target.Children[i], b) {
			return false
		}
	}
	return true
}

func matchVariadic(element expr.Expression, targets []expr.Expression, b *bindings) bool {
	if len(targets) < 2 {
		return false
	}
	for _, target := range targets {
		local := newBindings()
		for k, v := range b.single {
			local.single[k] = v
		}
		if !match(element, target, local) {
			return false
		}
		for k, v := range local.single {
			if isIndexedVar(k) {
				b.lists[k] = append(b.lists[k], v)
				continue
			}
			if bound, ok := b.single[k]; ok {
				if !bound.Equal(v) {
					return false
				}
				continue
			}
			b.single[k] = v
		}
	}
	return true
}

// instantiate builds the expression described by pattern under b. index
// selects the element for indexed variables and is -1 outside an ellipsis.
func instantiate(pattern expr.Expression, b *bindings, index int) (expr.Expression, bool) {
	if pattern.IsLeaf() {
		if !isPatternVar(pattern.Symbol) {
			return expr.Leaf(pattern.Symbol), true
		}
		if isIndexedVar(pattern.Symbol) {
			list := b.lists[pattern.Symbol]
			if index < 0 || index >= len(list) {
				return expr.Expression{}, false
			}
			return list[index], true
		}
		v, ok := b.single[pattern.Symbol]
		return v, ok
	}
	if isVariadic(pattern) {
		n := listLen(pattern.Children[0], b)
		if n == 0 {
			return expr.Expression{}, false
		}
		children := make([]expr.Expression, n)
		for k := 0; k < n; k++ {
			child, ok := instantiate(pattern.Children[0], b, k)
			if !ok {
				return expr.Expression{}, false
			}
			children[k] = child
		}
		if n == 1 {
			return children[0], true
		}
		return expr.Op(pattern.Symbol, children...), true
	}
	children := make([]expr.Expression, len(pattern.Children))
	for i, child := range pattern.Children {
		c, ok := instantiate(child, b, index)
		if !ok {
			return expr.Expression{}, false
		}
		children[i] = c
	}
	return expr.Op(pattern.Symbol, children...), true
}

func listLen(pattern expr.Expression, b *bindings) int {
	n := 0
	pattern.Walk(func(_ expr.Address, node expr.Expression) bool {
		if node.IsLeaf() && isIndexedVar(node.Symbol) {
			n = len(b.lists[node.Symbol])
			return false
		}
		return true
	})
	return n
}

// rewrite applies lhs => rhs to target when lhs matches it.
func rewrite(lhs, rhs, target expr.Expression) (expr.Expression, bool) {
	b := newBindings()
	if !match(lhs, target, b) {
		return expr.Expression{}, false
	}
	return instantiate(rhs, b, -1)
}

// variationForms returns lhs followed by every distinct pattern obtained by
// applying one variation at one position of lhs.
func variationForms(lhs expr.Expression, variations []Variation) []expr.Expression {
	forms := []expr.Expression{lhs}
	for _, v := range variations {
		lhs.Walk(func(addr expr.Address, node expr.Expression) bool {
			b := newBindings()
			if !match(v.From, node, b) || b.bindsEllipsis() {
				return true
			}
			rewritten, ok := instantiate(v.To, b, -1)
			if !ok {
				return true
			}
			form, ok := lhs.Replace(addr, rewritten)
			if ok && !containsExpr(forms, form) {
				forms = append(forms, form)
			}
			return true
		})
	}
	return forms
}

func containsExpr(list []expr.Expression, e expr.Expression) bool {
	for _, item := range list {
		if item.Equal(e) {
			return true
		}
	}
	return false
}
