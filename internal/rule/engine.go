package rule

import (
	"slices"

	"github.com/ray-pH/equaio/internal/expr"
)

const normalizeLabel = "Normalize"

// Engine enumerates the rewrites a RuleSet allows and drives automatic
// normalization. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	rules *RuleSet
}

func NewEngine(rules *RuleSet) *Engine {
	return &Engine{rules: rules}
}

func (en *Engine) RuleSet() *RuleSet {
	return en.rules
}

// site is the sub-term the learner's selection points at. When subset is
// non-nil the sub-term is made of the selected children of the associative
// node at addr, and results are spliced back in place of those children.
type site struct {
	root   expr.Expression
	addr   expr.Address
	node   expr.Expression
	subset []int
}

func siteFor(root expr.Expression, addrs []expr.Address, ctx expr.Context) (site, bool) {
	for _, a := range addrs {
		if _, ok := root.At(a); !ok {
			return site{}, false
		}
	}
	target := expr.CommonPrefix(addrs...)
	node, _ := root.At(target)
	s := site{root: root, addr: target, node: node}
	if !ctx.IsAssoc(node.Symbol) || node.IsLeaf() {
		return s, true
	}
	var picked []int
	for _, a := range addrs {
		if len(a) == len(target) {
			return s, true
		}
		idx := a[len(target)]
		if !slices.Contains(picked, idx) {
			picked = append(picked, idx)
		}
	}
	if len(picked) < 2 || len(picked) >= len(node.Children) {
		return s, true
	}
	slices.Sort(picked)
	children := make([]expr.Expression, len(picked))
	for i, idx := range picked {
		children[i] = node.Children[idx]
	}
	s.node = expr.Op(node.Symbol, children...)
	s.subset = picked
	return s, true
}

// splice substitutes result for the site's sub-term inside the root.
func (s site) splice(result expr.Expression) (expr.Expression, bool) {
	if s.subset == nil {
		return s.root.Replace(s.addr, result)
	}
	parent, _ := s.root.At(s.addr)
	var children []expr.Expression
	for i, child := range parent.Children {
		switch {
		case i == s.subset[0]:
			if result.Symbol == parent.Symbol && !result.IsLeaf() {
				children = append(children, result.Children...)
			} else {
				children = append(children, result)
			}
		case slices.Contains(s.subset, i):
		default:
			children = append(children, child)
		}
	}
	if len(children) == 1 {
		return s.root.Replace(s.addr, children[0])
	}
	return s.root.Replace(s.addr, expr.Op(parent.Symbol, children...))
}

// GetPossibleActions lists every rewrite of e allowed at the selection, in
// rule-set order followed by evaluation and equation actions. Addresses that
// do not resolve against e yield no actions.
func (en *Engine) GetPossibleActions(e expr.Expression, ctx expr.Context, addrs []expr.Address) []Candidate {
	if len(addrs) == 0 {
		return nil
	}
	s, ok := siteFor(e, addrs, ctx)
	if !ok {
		return nil
	}
	var out []Candidate
	add := func(c Candidate) {
		for _, existing := range out {
			if existing.Action.Label == c.Action.Label && existing.Result.Equal(c.Result) {
				return
			}
		}
		out = append(out, c)
	}
	for _, r := range en.rules.Rules {
		for _, form := range r.Forms {
			rewritten, ok := rewrite(form, r.RHS, s.node)
			if !ok {
				continue
			}
			result, ok := s.splice(rewritten)
			if !ok {
				continue
			}
			add(Candidate{
				Action: Action{Kind: KindRule, RuleID: r.ID, Label: r.Label, Address: s.addr.Clone()},
				Result: result,
			})
		}
	}
	if ctx.HandleNumerics {
		if value, ok := evaluate(s.node); ok {
			if result, ok := s.splice(value); ok {
				add(Candidate{
					Action: Action{Kind: KindEvaluate, Label: "Evaluate", Address: s.addr.Clone()},
					Result: result,
				})
			}
		}
	}
	if len(addrs) == 1 {
		if c, ok := bothSides(e, addrs[0], ctx); ok {
			add(c)
		}
	}
	return out
}

// bothSides offers moving an additive term of an equation to the other side.
func bothSides(e expr.Expression, addr expr.Address, ctx expr.Context) (Candidate, bool) {
	const plus, minus = "+", "-"
	if e.Symbol != expr.RelationEq || len(e.Children) != 2 || len(addr) != 2 {
		return Candidate{}, false
	}
	if !ctx.IsAssoc(plus) || !ctx.IsUnary(minus) {
		return Candidate{}, false
	}
	side := e.Children[addr[0]]
	if side.Symbol != plus || side.IsLeaf() {
		return Candidate{}, false
	}
	term := side.Children[addr[1]]
	label := "Subtract from both sides"
	inverse := expr.Op(minus, term)
	if term.Symbol == minus && len(term.Children) == 1 {
		label = "Add to both sides"
		inverse = term.Children[0]
	}
	sides := make([]expr.Expression, 2)
	for i, s := range e.Children {
		if s.Symbol == plus && !s.IsLeaf() {
			sides[i] = expr.Op(plus, append(slices.Clone(s.Children), inverse)...)
			continue
		}
		sides[i] = expr.Op(plus, s, inverse)
	}
	return Candidate{
		Action: Action{Kind: KindEquation, Label: label, Address: addr.Clone()},
		Result: expr.Op(expr.RelationEq, sides...),
	}, true
}

// Normalize performs one automatic step: a structural clean-up when one is
// due, otherwise the first auto rule that applies in pre-order. It reports
// false once e is in normal form.
func (en *Engine) Normalize(e expr.Expression, ctx expr.Context) (Candidate, bool) {
	if c, ok := structuralStep(e, ctx); ok {
		return c, true
	}
	var found Candidate
	ok := false
	e.Walk(func(addr expr.Address, node expr.Expression) bool {
		for _, r := range en.rules.Rules {
			if !r.Auto {
				continue
			}
			if c, hit := en.autoAt(e, addr, node, r, ctx); hit {
				found, ok = c, true
				return false
			}
		}
		return true
	})
	return found, ok
}

func (en *Engine) autoAt(root expr.Expression, addr expr.Address, node expr.Expression, r Rule, ctx expr.Context) (Candidate, bool) {
	for _, form := range r.Forms {
		sites := []site{{root: root, addr: addr, node: node}}
		if ctx.IsAssoc(node.Symbol) && form.Symbol == node.Symbol && !isVariadic(form) {
			width := len(form.Children)
			for start := 0; width >= 2 && start+width <= len(node.Children) && width < len(node.Children); start++ {
				subset := make([]int, width)
				for i := range subset {
					subset[i] = start + i
				}
				sites = append(sites, site{
					root:   root,
					addr:   addr,
					node:   expr.Op(node.Symbol, node.Children[start:start+width]...),
					subset: subset,
				})
			}
		}
		for _, s := range sites {
			rewritten, ok := rewrite(form, r.RHS, s.node)
			if !ok {
				continue
			}
			result, ok := s.splice(rewritten)
			if !ok || result.Equal(root) {
				continue
			}
			return Candidate{
				Action: Action{Kind: KindRule, RuleID: r.ID, Label: r.Label, Address: addr.Clone()},
				Result: result,
			}, true
		}
	}
	return Candidate{}, false
}

// structuralStep collapses single-child associative nodes and merges nested
// applications of the same associative operator.
func structuralStep(e expr.Expression, ctx expr.Context) (Candidate, bool) {
	var found Candidate
	ok := false
	e.Walk(func(addr expr.Address, node expr.Expression) bool {
		if node.IsLeaf() || !ctx.IsAssoc(node.Symbol) {
			return true
		}
		var replacement expr.Expression
		switch {
		case len(node.Children) == 1:
			replacement = node.Children[0]
		case hasNestedSame(node):
			var children []expr.Expression
			for _, child := range node.Children {
				if child.Symbol == node.Symbol && len(child.Children) >= 2 {
					children = append(children, child.Children...)
					continue
				}
				children = append(children, child)
			}
			replacement = expr.Op(node.Symbol, children...)
		default:
			return true
		}
		result, replaced := e.Replace(addr, replacement)
		if !replaced {
			return true
		}
		found = Candidate{
			Action: Action{Kind: KindNormalize, Label: normalizeLabel, Address: addr.Clone()},
			Result: result,
		}
		ok = true
		return false
	})
	return found, ok
}

func hasNestedSame(node expr.Expression) bool {
	for _, child := range node.Children {
		if child.Symbol == node.Symbol && len(child.Children) >= 2 {
			return true
		}
	}
	return false
}
