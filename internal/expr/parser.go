package expr

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrParse = errors.New("parse failed")

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEllipsis
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse reads an infix expression whose identifiers must be variables of
// ctx. It reports false for any malformed input and never panics.
func Parse(text string, ctx Context) (Expression, bool) {
	e, err := ParseStrict(text, ctx)
	return e, err == nil
}

// ParseStrict is Parse with a descriptive error.
func ParseStrict(text string, ctx Context) (Expression, error) {
	return parse(text, ctx, false)
}

// ParsePattern reads a rule pattern. Any identifier is accepted and the
// ellipsis token is allowed.
func ParsePattern(text string, ctx Context) (Expression, error) {
	return parse(text, ctx, true)
}

func parse(text string, ctx Context, pattern bool) (Expression, error) {
	toks, err := tokenize(text)
	if err != nil {
		return Expression{}, err
	}
	if len(toks) == 0 {
		return Expression{}, fmt.Errorf("%w: empty input", ErrParse)
	}
	p := &parser{toks: toks, ctx: ctx, pattern: pattern}
	e, err := p.parseExpr(0)
	if err != nil {
		return Expression{}, err
	}
	if p.pos < len(p.toks) {
		return Expression{}, p.errorf("unexpected %q", p.toks[p.pos].text)
	}
	return e, nil
}

func tokenize(text string) ([]token, error) {
	var toks []token
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '.' && strings.HasPrefix(string(runes[i:]), Ellipsis):
			toks = append(toks, token{kind: tokEllipsis, text: Ellipsis, pos: i})
			i += len(Ellipsis)
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					if seenDot {
						return nil, fmt.Errorf("%w: malformed number at %d", ErrParse, start)
					}
					seenDot = true
				}
				i++
			}
			num := string(runes[start:i])
			if num == "." {
				return nil, fmt.Errorf("%w: malformed number at %d", ErrParse, start)
			}
			toks = append(toks, token{kind: tokNumber, text: num, pos: start})
		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrParse, r, i)
		}
	}
	return toks, nil
}

type parser struct {
	toks    []token
	pos     int
	ctx     Context
	pattern bool
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) parseExpr(minPrec int) (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Expression{}, err
	}
	chain := ""
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokOp || !p.ctx.IsBinary(tok.text) {
			break
		}
		prec := Precedence(tok.text)
		if prec < minPrec {
			break
		}
		p.pos++
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return Expression{}, err
		}
		if chain == tok.text && p.ctx.IsAssoc(tok.text) {
			left.Children = append(left.Children, right)
			continue
		}
		left = Op(tok.text, left, right)
		chain = tok.text
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	tok, ok := p.peek()
	if !ok {
		return Expression{}, p.errorf("unexpected end of input")
	}
	if tok.kind == tokOp {
		if !p.ctx.IsUnary(tok.text) {
			return Expression{}, p.errorf("unexpected operator %q at %d", tok.text, tok.pos)
		}
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return Expression{}, err
		}
		return Op(tok.text, operand), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	tok, _ := p.peek()
	switch tok.kind {
	case tokLParen:
		p.pos++
		inner, err := p.parseExpr(0)
		if err != nil {
			return Expression{}, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return Expression{}, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case tokNumber:
		if !p.ctx.HandleNumerics && !p.pattern {
			return Expression{}, p.errorf("numbers are not allowed here (%q)", tok.text)
		}
		p.pos++
		return Leaf(tok.text), nil
	case tokIdent:
		if !p.pattern && !p.ctx.IsVariable(tok.text) {
			return Expression{}, p.errorf("unknown identifier %q", tok.text)
		}
		p.pos++
		return Leaf(tok.text), nil
	case tokEllipsis:
		if !p.pattern {
			return Expression{}, p.errorf("ellipsis outside of a pattern")
		}
		p.pos++
		return Leaf(Ellipsis), nil
	default:
		return Expression{}, p.errorf("unexpected %q at %d", tok.text, tok.pos)
	}
}
