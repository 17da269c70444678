package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/expr"
)

type selectionResult struct {
	Selection []expr.Address `json:"selection"`
	Actions   []actionView   `json:"actions"`
}

// SelectionToggle changes membership of one address of the current line.
// Addresses that do not resolve against the current line are rejected.
func (e *Engine) SelectionToggle(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		slotRequest
		Address  []int `json:"address"`
		Selected bool  `json:"selected"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseSelection, &req); errInfo != nil {
		return nil, errInfo
	}
	addr := expr.Address(req.Address).Clone()
	return e.withSlot(errinfo.PhaseSelection, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		seq, ok := s.sheet.Get(req.SequenceIndex)
		if !ok {
			return nil, errinfo.InvalidSequenceIndex(errinfo.PhaseSelection, "")
		}
		if _, ok := seq.Top().Expression.At(addr); !ok {
			return nil, errinfo.ValidationFailed(errinfo.PhaseSelection, fmt.Sprintf("address %s does not resolve on the current line", addr))
		}
		st.sel.Toggle(addr, req.Selected)
		e.emit(NotifySelectionChanged, map[string]any{
			"session_id":     s.id,
			"sequence_index": req.SequenceIndex,
		})
		prefs := e.displaySettings()
		return selectionResult{
			Selection: st.sel.Addresses(),
			Actions:   actionViews(seq.GetPossibleActions(&st.sel), blockContext(prefs)),
		}, nil
	})
}

func (e *Engine) SelectionClear(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req slotRequest
	if errInfo := decodeParams(params, errinfo.PhaseSelection, &req); errInfo != nil {
		return nil, errInfo
	}
	return e.withSlot(errinfo.PhaseSelection, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		st.sel.Clear()
		e.emit(NotifySelectionChanged, map[string]any{
			"session_id":     s.id,
			"sequence_index": req.SequenceIndex,
		})
		return selectionResult{Selection: st.sel.Addresses(), Actions: []actionView{}}, nil
	})
}
