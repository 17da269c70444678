// Package worksheet holds step histories of expressions being rewritten and
// the operations that advance or rewind them.
package worksheet

import (
	"github.com/ray-pH/equaio/internal/expr"
	"github.com/ray-pH/equaio/internal/rule"
)

// Line is one recorded step. Lines are never modified after they are
// appended; readers receive copies.
type Line struct {
	Expression      expr.Expression `json:"expression"`
	Action          rule.Action     `json:"action"`
	IsAutoGenerated bool            `json:"is_auto_generated"`
}

func (l Line) Clone() Line {
	return Line{
		Expression:      l.Expression.Clone(),
		Action:          l.Action.Clone(),
		IsAutoGenerated: l.IsAutoGenerated,
	}
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// Strategy discovers the rewrites available for a selection and produces
// automatic follow-up steps. *rule.Engine implements it.
type Strategy interface {
	GetPossibleActions(e expr.Expression, ctx expr.Context, addrs []expr.Address) []rule.Candidate
	Normalize(e expr.Expression, ctx expr.Context) (rule.Candidate, bool)
}

var _ Strategy = (*rule.Engine)(nil)
