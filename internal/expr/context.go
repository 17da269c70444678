package expr

import "slices"

// Context describes which operators and variables an expression may use. It
// is a value; the With* methods return modified copies.
type Context struct {
	UnaryOps       []string `json:"unary_ops"`
	BinaryOps      []string `json:"binary_ops"`
	AssocOps       []string `json:"assoc_ops"`
	HandleNumerics bool     `json:"handle_numerics"`
	Variables      []string `json:"variables,omitempty"`
}

func ArithmeticContext() Context {
	return Context{
		UnaryOps:       []string{"-"},
		BinaryOps:      []string{"+", "-", "*", "/"},
		AssocOps:       []string{"+", "*"},
		HandleNumerics: true,
	}
}

// WithVariables returns a copy of c that additionally accepts names.
func (c Context) WithVariables(names ...string) Context {
	out := c.clone()
	for _, name := range names {
		if !slices.Contains(out.Variables, name) {
			out.Variables = append(out.Variables, name)
		}
	}
	return out
}

func (c Context) clone() Context {
	return Context{
		UnaryOps:       slices.Clone(c.UnaryOps),
		BinaryOps:      slices.Clone(c.BinaryOps),
		AssocOps:       slices.Clone(c.AssocOps),
		HandleNumerics: c.HandleNumerics,
		Variables:      slices.Clone(c.Variables),
	}
}

func (c Context) IsUnary(op string) bool {
	return slices.Contains(c.UnaryOps, op)
}

// IsBinary reports infix operators. Every associative operator is infix even
// when a rule set forgets to list it among binary_ops.
func (c Context) IsBinary(op string) bool {
	return slices.Contains(c.BinaryOps, op) || slices.Contains(c.AssocOps, op) || op == RelationEq
}

func (c Context) IsAssoc(op string) bool {
	return slices.Contains(c.AssocOps, op)
}

func (c Context) IsVariable(name string) bool {
	return slices.Contains(c.Variables, name)
}

// RelationEq is the relation separating the two sides of an equation and of a
// rule.
const RelationEq = "="

var precedence = map[string]int{
	RelationEq: 1,
	"|":        2,
	"&":        3,
	"+":        4,
	"-":        4,
	"*":        5,
	"/":        5,
}

const unknownPrecedence = 4

// Precedence returns the binding strength of an infix operator; higher binds
// tighter.
func Precedence(op string) int {
	if p, ok := precedence[op]; ok {
		return p
	}
	return unknownPrecedence
}
