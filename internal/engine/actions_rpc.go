package engine

import (
	"context"
	"encoding/json"

	"github.com/ray-pH/equaio/internal/diff"
	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/worksheet"
)

func (e *Engine) ActionsList(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req slotRequest
	if errInfo := decodeParams(params, errinfo.PhaseAction, &req); errInfo != nil {
		return nil, errInfo
	}
	return e.withSlot(errinfo.PhaseAction, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		seq, ok := s.sheet.Get(req.SequenceIndex)
		if !ok {
			return nil, errinfo.InvalidSequenceIndex(errinfo.PhaseAction, "")
		}
		prefs := e.displaySettings()
		return map[string]any{
			"selection": st.sel.Addresses(),
			"actions":   actionViews(seq.GetPossibleActions(&st.sel), blockContext(prefs)),
		}, nil
	})
}

// ActionApply re-derives the actions from the selection held for the slot,
// applies the chosen one and clears the selection, all under the slot lock.
func (e *Engine) ActionApply(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		slotRequest
		ActionIndex int `json:"action_index"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseAction, &req); errInfo != nil {
		return nil, errInfo
	}
	return e.withSlot(errinfo.PhaseAction, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		var before, after int
		err := s.sheet.Update(req.SequenceIndex, func(seq *worksheet.Sequence) error {
			before = seq.Len()
			if err := seq.TryApplyActionByIndex(&st.sel, req.ActionIndex); err != nil {
				return err
			}
			after = seq.Len()
			return nil
		})
		if err != nil {
			e.logger.Debug("action.rejected", "session_id", s.id, "sequence_index", req.SequenceIndex, "action_index", req.ActionIndex, "error", err.Error())
			return nil, sequenceError(errinfo.PhaseAction, err)
		}
		st.sel.Clear()
		e.logger.Info("action.applied", "session_id", s.id, "sequence_index", req.SequenceIndex, "action_index", req.ActionIndex, "auto_steps", after-before-1)
		return e.committed(s, st, req.SequenceIndex)
	})
}

func (e *Engine) HistoryReset(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		slotRequest
		LineIndex int `json:"line_index"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseHistory, &req); errInfo != nil {
		return nil, errInfo
	}
	return e.withSlot(errinfo.PhaseHistory, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		err := s.sheet.Update(req.SequenceIndex, func(seq *worksheet.Sequence) error {
			return seq.ResetTo(req.LineIndex)
		})
		if err != nil {
			return nil, sequenceError(errinfo.PhaseHistory, err)
		}
		st.sel.Clear()
		e.logger.Info("history.reset", "session_id", s.id, "sequence_index", req.SequenceIndex, "line_index", req.LineIndex)
		return e.committed(s, st, req.SequenceIndex)
	})
}

// committed notifies listeners of a new sequence state and returns it.
func (e *Engine) committed(s *session, st *slotState, index int) (any, *errinfo.ErrorInfo) {
	seq, ok := s.sheet.Get(index)
	if !ok {
		return nil, errinfo.InvalidSequenceIndex(errinfo.PhaseAction, "")
	}
	e.emit(NotifySequenceUpdated, map[string]any{
		"session_id":     s.id,
		"sequence_index": index,
		"line_count":     seq.Len(),
	})
	return map[string]any{"sequence": e.buildSequenceView(s.id, index, &seq, &st.sel)}, nil
}

func (e *Engine) HistoryDiff(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		slotRequest
		From int `json:"from"`
		To   int `json:"to"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseHistory, &req); errInfo != nil {
		return nil, errInfo
	}
	return e.withSlot(errinfo.PhaseHistory, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		seq, ok := s.sheet.Get(req.SequenceIndex)
		if !ok {
			return nil, errinfo.InvalidSequenceIndex(errinfo.PhaseHistory, "")
		}
		history := seq.History()
		for _, idx := range []int{req.From, req.To} {
			if idx < 0 || idx >= len(history) {
				return nil, sequenceError(errinfo.PhaseHistory, worksheet.ErrInvalidHistoryIndex)
			}
		}
		before := history[req.From].Expression.String()
		after := history[req.To].Expression.String()
		segments, stats := diff.ExprDiff(before, after)
		return map[string]any{
			"before":   before,
			"after":    after,
			"segments": segments,
			"stats":    stats,
		}, nil
	})
}
