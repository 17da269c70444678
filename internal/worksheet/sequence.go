package worksheet

import (
	"errors"
	"fmt"

	"github.com/ray-pH/equaio/internal/expr"
	"github.com/ray-pH/equaio/internal/rule"
	"github.com/ray-pH/equaio/internal/selection"
)

// MaxAutoSteps bounds the automatic lines appended after one manual step.
const MaxAutoSteps = 16

var (
	ErrInvalidActionIndex   = errors.New("invalid action index")
	ErrInvalidHistoryIndex  = errors.New("invalid history index")
	ErrInvalidSequenceIndex = errors.New("invalid sequence index")
)

// Sequence is the step history of one expression. A Sequence obtained from
// Introduce always holds at least its initial line.
type Sequence struct {
	history  []Line
	ctx      expr.Context
	strategy Strategy
}

func Introduce(e expr.Expression, ctx expr.Context, strategy Strategy) Sequence {
	return Sequence{
		history: []Line{{
			Expression: e.Clone(),
			Action:     rule.InitialAction(),
		}},
		ctx:      ctx,
		strategy: strategy,
	}
}

// History returns a copy of every line, oldest first.
func (s *Sequence) History() []Line {
	return cloneLines(s.history)
}

func (s *Sequence) Len() int {
	return len(s.history)
}

// Top returns a copy of the current line.
func (s *Sequence) Top() Line {
	return s.history[len(s.history)-1].Clone()
}

func (s *Sequence) Context() expr.Context {
	return s.ctx
}

// GetPossibleActions asks the strategy for the rewrites of the current
// expression allowed at sel, in the strategy's order. A nil sel is empty.
func (s *Sequence) GetPossibleActions(sel *selection.Set) []rule.Candidate {
	var addrs []expr.Address
	if sel != nil {
		addrs = sel.Addresses()
	}
	return s.strategy.GetPossibleActions(s.history[len(s.history)-1].Expression, s.ctx, addrs)
}

// TryApplyActionByIndex re-derives the actions for sel and appends the i-th
// result as a manual line, followed by any automatic normalization steps.
// History is unchanged on error.
func (s *Sequence) TryApplyActionByIndex(sel *selection.Set, i int) error {
	candidates := s.GetPossibleActions(sel)
	if i < 0 || i >= len(candidates) {
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidActionIndex, i, len(candidates))
	}
	chosen := candidates[i]
	s.history = append(s.history, Line{
		Expression: chosen.Result.Clone(),
		Action:     chosen.Action.Clone(),
	})
	s.normalize()
	return nil
}

func (s *Sequence) normalize() {
	for step := 0; step < MaxAutoSteps; step++ {
		top := s.history[len(s.history)-1].Expression
		next, ok := s.strategy.Normalize(top, s.ctx)
		if !ok || next.Result.Equal(top) {
			return
		}
		s.history = append(s.history, Line{
			Expression:      next.Result.Clone(),
			Action:          next.Action.Clone(),
			IsAutoGenerated: true,
		})
	}
}

// ResetTo truncates history to its first index+1 lines.
func (s *Sequence) ResetTo(index int) error {
	if index < 0 || index >= len(s.history) {
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidHistoryIndex, index, len(s.history))
	}
	s.history = s.history[:index+1:index+1]
	return nil
}

// Clone returns a Sequence that shares no lines with s.
func (s *Sequence) Clone() Sequence {
	return Sequence{
		history:  cloneLines(s.history),
		ctx:      s.ctx,
		strategy: s.strategy,
	}
}
