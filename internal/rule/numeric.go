package rule

import (
	"math/big"
	"strings"

	"github.com/ray-pH/equaio/internal/expr"
)

// numeral reads a number literal, optionally under a unary minus.
func numeral(e expr.Expression) (*big.Rat, bool, bool) {
	if e.Symbol == "-" && len(e.Children) == 1 {
		v, decimal, ok := numeral(e.Children[0])
		if !ok || !e.Children[0].IsLeaf() {
			return nil, false, false
		}
		return new(big.Rat).Neg(v), decimal, true
	}
	if !e.IsNumeric() {
		return nil, false, false
	}
	v, ok := new(big.Rat).SetString(e.Symbol)
	if !ok {
		return nil, false, false
	}
	return v, strings.Contains(e.Symbol, "."), true
}

// evaluate folds an arithmetic node whose operands are all numerals. Integer
// division that does not come out even is left alone.
func evaluate(node expr.Expression) (expr.Expression, bool) {
	if len(node.Children) < 2 {
		return expr.Expression{}, false
	}
	var acc *big.Rat
	decimal := false
	for i, child := range node.Children {
		v, isDecimal, ok := numeral(child)
		if !ok {
			return expr.Expression{}, false
		}
		decimal = decimal || isDecimal
		if i == 0 {
			acc = v
			continue
		}
		switch node.Symbol {
		case "+":
			acc = new(big.Rat).Add(acc, v)
		case "-":
			acc = new(big.Rat).Sub(acc, v)
		case "*":
			acc = new(big.Rat).Mul(acc, v)
		case "/":
			if v.Sign() == 0 {
				return expr.Expression{}, false
			}
			acc = new(big.Rat).Quo(acc, v)
		default:
			return expr.Expression{}, false
		}
	}
	if !acc.IsInt() && !decimal {
		return expr.Expression{}, false
	}
	return fromRat(acc), true
}

func fromRat(v *big.Rat) expr.Expression {
	abs := new(big.Rat).Abs(v)
	var text string
	if abs.IsInt() {
		text = abs.Num().String()
	} else {
		text = strings.TrimRight(abs.FloatString(6), "0")
		text = strings.TrimSuffix(text, ".")
	}
	leaf := expr.Leaf(text)
	if v.Sign() < 0 {
		return expr.Op("-", leaf)
	}
	return leaf
}
