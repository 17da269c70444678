package engine

import (
	"github.com/ray-pH/equaio/internal/block"
	"github.com/ray-pH/equaio/internal/expr"
	"github.com/ray-pH/equaio/internal/rule"
	"github.com/ray-pH/equaio/internal/selection"
	"github.com/ray-pH/equaio/internal/settings"
	"github.com/ray-pH/equaio/internal/worksheet"
)

type lineView struct {
	Index           int             `json:"index"`
	Text            string          `json:"text"`
	Prefix          string          `json:"prefix"`
	Action          rule.Action     `json:"action"`
	IsAutoGenerated bool            `json:"is_auto_generated"`
	Selectable      bool            `json:"selectable"`
	Blocks          block.Alignable `json:"blocks"`
}

type groupView struct {
	AnchorIndex int  `json:"anchor_index"`
	Length      int  `json:"length"`
	Headless    bool `json:"headless"`
	Collapsed   bool `json:"collapsed"`
}

type actionView struct {
	Index   int         `json:"index"`
	Label   string      `json:"label"`
	Action  rule.Action `json:"action"`
	Text    string      `json:"text"`
	Preview block.Block `json:"preview"`
}

type sequenceView struct {
	SessionID     string         `json:"session_id"`
	SequenceIndex int            `json:"sequence_index"`
	Lines         []lineView     `json:"lines"`
	Groups        []groupView    `json:"groups"`
	Selection     []expr.Address `json:"selection"`
	Actions       []actionView   `json:"actions"`
}

func (e *Engine) displaySettings() *settings.Settings {
	s, err := e.settings.Load()
	if err != nil {
		e.logger.Warn("settings.load_failed", "error", err.Error())
		collapse := true
		return &settings.Settings{CollapseAutoSteps: &collapse}
	}
	return s
}

func blockContext(s *settings.Settings) block.Context {
	ctx := block.DefaultContext()
	ctx.MathVariables = s.MathVariables
	return ctx
}

func actionViews(candidates []rule.Candidate, ctx block.Context) []actionView {
	out := make([]actionView, len(candidates))
	for i, c := range candidates {
		out[i] = actionView{
			Index:   i,
			Label:   c.Action.Label,
			Action:  c.Action,
			Text:    c.Result.String(),
			Preview: block.Build(c.Result, ctx),
		}
	}
	return out
}

func (e *Engine) buildSequenceView(sessionID string, index int, seq *worksheet.Sequence, sel *selection.Set) sequenceView {
	prefs := e.displaySettings()
	ctx := blockContext(prefs)
	history := seq.History()
	lines := make([]lineView, len(history))
	for i, l := range history {
		lines[i] = lineView{
			Index:           i,
			Text:            l.Expression.String(),
			Prefix:          l.Expression.Prefix(),
			Action:          l.Action,
			IsAutoGenerated: l.IsAutoGenerated,
			Selectable:      i == len(history)-1,
			Blocks:          block.BuildAlignable(l.Expression, ctx),
		}
	}
	groups := worksheet.Group(history)
	groupViews := make([]groupView, len(groups))
	for i, g := range groups {
		groupViews[i] = groupView{
			AnchorIndex: g.AnchorIndex,
			Length:      len(g.Lines),
			Headless:    g.Headless(),
			Collapsed:   prefs.Collapse() && len(g.Lines) > 1,
		}
	}
	return sequenceView{
		SessionID:     sessionID,
		SequenceIndex: index,
		Lines:         lines,
		Groups:        groupViews,
		Selection:     sel.Addresses(),
		Actions:       actionViews(seq.GetPossibleActions(sel), ctx),
	}
}
