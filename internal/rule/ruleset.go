// Package rule loads rule-set descriptions and enumerates the rewrites they
// allow on an expression.
package rule

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/ray-pH/equaio/internal/expr"
)

//go:embed schema.cue
var schemaSrc string

// SchemaError reports a rule-set description that does not satisfy the
// schema or whose rule text cannot be parsed.
type SchemaError struct {
	RuleID string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("ruleset schema: rule %q: %s", e.RuleID, e.Detail)
	}
	return fmt.Sprintf("ruleset schema: %s", e.Detail)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

type document struct {
	Name    string `json:"name"`
	Context struct {
		UnaryOps       []string `json:"unary_ops"`
		BinaryOps      []string `json:"binary_ops"`
		AssocOps       []string `json:"assoc_ops"`
		HandleNumerics bool     `json:"handle_numerics"`
	} `json:"context"`
	Variations []variationDoc `json:"variations"`
	Rules      []ruleDoc      `json:"rules"`
}

type variationDoc struct {
	Expr string `json:"expr"`
}

type ruleDoc struct {
	ID         string          `json:"id"`
	Expr       string          `json:"expr"`
	Label      string          `json:"label"`
	Auto       bool            `json:"auto"`
	Variations *[]variationDoc `json:"variations"`
}

// Variation is a rewrite used to derive alternative forms of rule patterns,
// typically commutativity.
type Variation struct {
	From expr.Expression
	To   expr.Expression
}

type Rule struct {
	ID    string
	Label string
	Auto  bool
	LHS   expr.Expression
	RHS   expr.Expression
	// Forms holds LHS followed by every distinct variation of it.
	Forms []expr.Expression
}

type RuleSet struct {
	Name       string
	Context    expr.Context
	Variations []Variation
	Rules      []Rule
}

func (rs *RuleSet) Rule(id string) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Parse validates a JSON rule-set description against the embedded schema
// and compiles every rule. All failures are *SchemaError.
func Parse(data []byte) (*RuleSet, error) {
	doc, err := validate(data)
	if err != nil {
		return nil, err
	}
	rs := &RuleSet{
		Name: doc.Name,
		Context: expr.Context{
			UnaryOps:       doc.Context.UnaryOps,
			BinaryOps:      doc.Context.BinaryOps,
			AssocOps:       doc.Context.AssocOps,
			HandleNumerics: doc.Context.HandleNumerics,
		},
	}
	rs.Variations, err = parseVariations(doc.Variations, rs.Context, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(doc.Rules))
	for _, rd := range doc.Rules {
		if seen[rd.ID] {
			return nil, &SchemaError{RuleID: rd.ID, Detail: "duplicate rule id"}
		}
		seen[rd.ID] = true
		lhs, rhs, err := parseRelation(rd.Expr, rs.Context)
		if err != nil {
			return nil, &SchemaError{RuleID: rd.ID, Detail: err.Error(), Err: err}
		}
		variations := rs.Variations
		if rd.Variations != nil {
			variations, err = parseVariations(*rd.Variations, rs.Context, rd.ID)
			if err != nil {
				return nil, err
			}
		}
		rs.Rules = append(rs.Rules, Rule{
			ID:    rd.ID,
			Label: rd.Label,
			Auto:  rd.Auto,
			LHS:   lhs,
			RHS:   rhs,
			Forms: variationForms(lhs, variations),
		})
	}
	return rs, nil
}

func validate(data []byte) (*document, error) {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &SchemaError{Detail: "schema does not compile", Err: err}
	}
	value := cctx.CompileBytes(data, cue.Filename("ruleset.json"))
	if err := value.Err(); err != nil {
		return nil, &SchemaError{Detail: strings.TrimSpace(cueerrors.Details(err, nil)), Err: err}
	}
	unified := schema.LookupPath(cue.ParsePath("#RuleSet")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &SchemaError{Detail: strings.TrimSpace(cueerrors.Details(err, nil)), Err: err}
	}
	var doc document
	if err := unified.Decode(&doc); err != nil {
		return nil, &SchemaError{Detail: err.Error(), Err: err}
	}
	return &doc, nil
}

func parseVariations(docs []variationDoc, ctx expr.Context, ruleID string) ([]Variation, error) {
	out := make([]Variation, 0, len(docs))
	for _, d := range docs {
		from, to, err := parseRelation(d.Expr, ctx)
		if err != nil {
			return nil, &SchemaError{RuleID: ruleID, Detail: "variation: " + err.Error(), Err: err}
		}
		out = append(out, Variation{From: from, To: to})
	}
	return out, nil
}

// parseRelation splits `L = R` into its two pattern sides.
func parseRelation(text string, ctx expr.Context) (expr.Expression, expr.Expression, error) {
	e, err := expr.ParsePattern(text, ctx)
	if err != nil {
		return expr.Expression{}, expr.Expression{}, err
	}
	if e.Symbol != expr.RelationEq || len(e.Children) != 2 {
		return expr.Expression{}, expr.Expression{}, fmt.Errorf("%w: %q is not of the form L = R", expr.ErrParse, text)
	}
	return e.Children[0], e.Children[1], nil
}
