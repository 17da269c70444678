package worksheet

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-pH/equaio/internal/expr"
	"github.com/ray-pH/equaio/internal/rule"
	"github.com/ray-pH/equaio/internal/selection"
)

// fakeStrategy offers a fixed list of candidates and replays a scripted
// chain of normalization steps.
type fakeStrategy struct {
	mu         sync.Mutex
	candidates []rule.Candidate
	autoSteps  map[string]rule.Candidate
	seen       [][]expr.Address
}

func (f *fakeStrategy) GetPossibleActions(e expr.Expression, _ expr.Context, addrs []expr.Address) []rule.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, addrs)
	if len(addrs) == 0 {
		return nil
	}
	return f.candidates
}

func (f *fakeStrategy) Normalize(e expr.Expression, _ expr.Context) (rule.Candidate, bool) {
	c, ok := f.autoSteps[e.Prefix()]
	return c, ok
}

func ruleAction(label string) rule.Action {
	return rule.Action{Kind: rule.KindRule, RuleID: label, Label: label, Address: expr.Root()}
}

func candidate(label, symbol string) rule.Candidate {
	return rule.Candidate{Action: ruleAction(label), Result: expr.Leaf(symbol)}
}

func manual(symbol string) Line {
	return Line{Expression: expr.Leaf(symbol), Action: ruleAction("m")}
}

func auto(symbol string) Line {
	return Line{Expression: expr.Leaf(symbol), Action: ruleAction("a"), IsAutoGenerated: true}
}

func TestIntroduceCreatesInitialLine(t *testing.T) {
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), &fakeStrategy{})
	require.Equal(t, 1, seq.Len())
	top := seq.Top()
	assert.Equal(t, "x", top.Expression.Symbol)
	assert.Equal(t, rule.KindInitial, top.Action.Kind)
	assert.False(t, top.IsAutoGenerated)
}

func TestTryApplyActionByIndexBounds(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), fake)
	sel := selection.New(expr.Root())

	err := seq.TryApplyActionByIndex(sel, 1)
	assert.ErrorIs(t, err, ErrInvalidActionIndex)
	assert.Equal(t, 1, seq.Len())

	assert.ErrorIs(t, seq.TryApplyActionByIndex(sel, -1), ErrInvalidActionIndex)
	assert.ErrorIs(t, seq.TryApplyActionByIndex(nil, 0), ErrInvalidActionIndex, "empty selection offers nothing")
	assert.Equal(t, 1, seq.Len())
}

func TestTryApplyActionByIndexAppendsManualLine(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), fake)
	sel := selection.New(expr.Address{0, 1})

	require.NoError(t, seq.TryApplyActionByIndex(sel, 0))
	require.Equal(t, 2, seq.Len())
	top := seq.Top()
	assert.Equal(t, expr.Leaf("e"), top.Expression)
	assert.Equal(t, ruleAction("A"), top.Action)
	assert.False(t, top.IsAutoGenerated)
	require.NotEmpty(t, fake.seen)
	assert.Equal(t, []expr.Address{{0, 1}}, fake.seen[len(fake.seen)-1], "actions are re-derived from the caller's selection")
}

func TestTryApplyActionByIndexAppendsAutoSteps(t *testing.T) {
	fake := &fakeStrategy{
		candidates: []rule.Candidate{candidate("A", "e")},
		autoSteps: map[string]rule.Candidate{
			"e": candidate("auto1", "f"),
			"f": candidate("auto2", "g"),
		},
	}
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), fake)
	require.NoError(t, seq.TryApplyActionByIndex(selection.New(expr.Root()), 0))

	history := seq.History()
	require.Len(t, history, 4)
	assert.False(t, history[1].IsAutoGenerated)
	assert.True(t, history[2].IsAutoGenerated)
	assert.True(t, history[3].IsAutoGenerated)
	assert.Equal(t, "g", history[3].Expression.Symbol)
	assert.Equal(t, "auto2", history[3].Action.Label)
}

func TestAutoStepsAreBounded(t *testing.T) {
	fake := &fakeStrategy{
		candidates: []rule.Candidate{candidate("A", "e")},
		autoSteps: map[string]rule.Candidate{
			"e": candidate("loop", "f"),
			"f": candidate("loop", "e"),
		},
	}
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), fake)
	require.NoError(t, seq.TryApplyActionByIndex(selection.New(expr.Root()), 0))
	assert.Equal(t, 2+MaxAutoSteps, seq.Len())
}

func TestAutoStepWithoutProgressStops(t *testing.T) {
	fake := &fakeStrategy{
		candidates: []rule.Candidate{candidate("A", "e")},
		autoSteps:  map[string]rule.Candidate{"e": candidate("same", "e")},
	}
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), fake)
	require.NoError(t, seq.TryApplyActionByIndex(selection.New(expr.Root()), 0))
	assert.Equal(t, 2, seq.Len())
}

func TestResetTo(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	seq := Introduce(expr.Leaf("x"), expr.ArithmeticContext(), fake)
	sel := selection.New(expr.Root())
	for i := 0; i < 4; i++ {
		require.NoError(t, seq.TryApplyActionByIndex(sel, 0))
	}
	require.Equal(t, 5, seq.Len())

	err := seq.ResetTo(seq.Len())
	assert.ErrorIs(t, err, ErrInvalidHistoryIndex)
	assert.Equal(t, 5, seq.Len())
	assert.ErrorIs(t, seq.ResetTo(-1), ErrInvalidHistoryIndex)

	for _, k := range []int{4, 2, 0} {
		require.NoError(t, seq.ResetTo(k))
		assert.Equal(t, k+1, seq.Len())
	}
	assert.Equal(t, rule.KindInitial, seq.Top().Action.Kind)

	require.NoError(t, seq.TryApplyActionByIndex(sel, 0))
	assert.Equal(t, 2, seq.Len())
}

func TestSequenceCopiesDoNotAlias(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	seq := Introduce(expr.Op("+", expr.Leaf("x"), expr.Leaf("1")), expr.ArithmeticContext(), fake)

	history := seq.History()
	history[0].Expression.Children[0].Symbol = "y"
	assert.Equal(t, "x", seq.Top().Expression.Children[0].Symbol)

	clone := seq.Clone()
	require.NoError(t, clone.TryApplyActionByIndex(selection.New(expr.Root()), 0))
	assert.Equal(t, 1, seq.Len())
	assert.Equal(t, 2, clone.Len())

	// Reset then apply on the clone must not resurrect lines in a shared
	// backing array.
	require.NoError(t, clone.ResetTo(0))
	require.NoError(t, clone.TryApplyActionByIndex(selection.New(expr.Root()), 0))
	assert.Equal(t, 1, seq.Len())
}

func TestWorksheetGetStore(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	ws := New(expr.ArithmeticContext(), fake)
	assert.Equal(t, 0, ws.Len())
	assert.Equal(t, 0, ws.Introduce(expr.Leaf("x")))
	assert.Equal(t, 1, ws.Introduce(expr.Leaf("y")))
	assert.Equal(t, 2, ws.Len())

	_, ok := ws.Get(2)
	assert.False(t, ok)
	_, ok = ws.Get(-1)
	assert.False(t, ok)

	seq, ok := ws.Get(0)
	require.True(t, ok)
	require.NoError(t, seq.TryApplyActionByIndex(selection.New(expr.Root()), 0))

	fresh, _ := ws.Get(0)
	assert.Equal(t, 1, fresh.Len(), "mutating a fetched copy does not touch the slot")

	require.NoError(t, ws.Store(0, seq))
	fresh, _ = ws.Get(0)
	assert.Equal(t, 2, fresh.Len())

	other, _ := ws.Get(1)
	assert.Equal(t, 1, other.Len())

	assert.ErrorIs(t, ws.Store(5, seq), ErrInvalidSequenceIndex)
	assert.Equal(t, 2, ws.Len())
}

func TestWorksheetUpdate(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	ws := New(expr.ArithmeticContext(), fake)
	ws.Introduce(expr.Leaf("x"))

	err := ws.Update(0, func(seq *Sequence) error {
		return seq.TryApplyActionByIndex(selection.New(expr.Root()), 3)
	})
	assert.ErrorIs(t, err, ErrInvalidActionIndex)
	seq, _ := ws.Get(0)
	assert.Equal(t, 1, seq.Len())

	err = ws.Update(0, func(seq *Sequence) error {
		if err := seq.TryApplyActionByIndex(selection.New(expr.Root()), 0); err != nil {
			return err
		}
		// A failure after a partial change discards the whole change.
		return seq.ResetTo(9)
	})
	assert.ErrorIs(t, err, ErrInvalidHistoryIndex)
	seq, _ = ws.Get(0)
	assert.Equal(t, 1, seq.Len())

	assert.ErrorIs(t, ws.Update(1, func(*Sequence) error { return nil }), ErrInvalidSequenceIndex)
}

func TestWorksheetConcurrentUpdatesAreNotLost(t *testing.T) {
	fake := &fakeStrategy{candidates: []rule.Candidate{candidate("A", "e")}}
	ws := New(expr.ArithmeticContext(), fake)
	ws.Introduce(expr.Leaf("x"))
	ws.Introduce(expr.Leaf("y"))

	const perSlot = 25
	var wg sync.WaitGroup
	for slot := 0; slot < 2; slot++ {
		for n := 0; n < perSlot; n++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				_ = ws.Update(slot, func(seq *Sequence) error {
					return seq.TryApplyActionByIndex(selection.New(expr.Root()), 0)
				})
			}(slot)
		}
	}
	wg.Wait()

	for slot := 0; slot < 2; slot++ {
		seq, ok := ws.Get(slot)
		require.True(t, ok)
		assert.Equal(t, perSlot+1, seq.Len())
	}
}

func TestGroupEndToEnd(t *testing.T) {
	history := []Line{manual("a"), auto("b"), auto("c"), manual("d"), manual("e")}
	groups := Group(history)
	require.Len(t, groups, 3)

	anchors := []int{groups[0].AnchorIndex, groups[1].AnchorIndex, groups[2].AnchorIndex}
	lengths := []int{len(groups[0].Lines), len(groups[1].Lines), len(groups[2].Lines)}
	assert.Equal(t, []int{0, 3, 4}, anchors)
	assert.Equal(t, []int{3, 1, 1}, lengths)
	for _, g := range groups {
		assert.False(t, g.Headless())
	}
}

func TestGroupLeadingAutoRunIsHeadless(t *testing.T) {
	groups := Group([]Line{auto("a"), auto("b"), manual("c"), auto("d")})
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Headless())
	assert.Equal(t, 0, groups[0].AnchorIndex)
	assert.Len(t, groups[0].Lines, 2)
	assert.False(t, groups[1].Headless())
	assert.Equal(t, 2, groups[1].AnchorIndex)
	assert.Len(t, groups[1].Lines, 2)
}

func TestGroupReconstructsHistory(t *testing.T) {
	histories := [][]Line{
		nil,
		{manual("a")},
		{auto("a")},
		{manual("a"), manual("b"), manual("c")},
		{auto("a"), manual("b"), auto("c"), auto("d"), manual("e"), auto("f")},
		{manual("a"), auto("b"), manual("c"), auto("d"), auto("e"), auto("f")},
	}
	for _, history := range histories {
		var rebuilt []Line
		next := 0
		for _, g := range Group(history) {
			require.NotEmpty(t, g.Lines)
			assert.Equal(t, next, g.AnchorIndex)
			next += len(g.Lines)
			rebuilt = append(rebuilt, g.Lines...)
		}
		assert.Equal(t, history, rebuilt)
	}
}
