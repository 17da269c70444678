package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ray-pH/equaio/internal/block"
	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/settings"
)

func (e *Engine) CatalogGetMenu(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	type entryView struct {
		ID           string `json:"id"`
		Label        string `json:"label"`
		Sublabel     string `json:"sublabel,omitempty"`
		SublabelMath string `json:"sublabel_math,omitempty"`
		Rule         string `json:"rule"`
	}
	type sectionView struct {
		Name    string      `json:"name"`
		Entries []entryView `json:"entries"`
	}
	sections := e.catalog.Entries()
	out := make([]sectionView, len(sections))
	for i, s := range sections {
		entries := make([]entryView, len(s.Entries))
		for j, entry := range s.Entries {
			entries[j] = entryView{
				ID:       entry.ID,
				Label:    entry.Label,
				Sublabel: entry.Sublabel,
				Rule:     entry.Rule,
			}
			if entry.Sublabel != "" {
				entries[j].SublabelMath = block.MathVar(entry.Sublabel)
			}
		}
		out[i] = sectionView{Name: s.Name, Entries: entries}
	}
	return map[string]any{"sections": out}, nil
}

func (e *Engine) SessionOpen(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		ProblemID string `json:"problem_id"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseSession, &req); errInfo != nil {
		return nil, errInfo
	}
	problemID := strings.TrimSpace(req.ProblemID)
	if problemID == "" {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSession, "problem_id is required")
	}
	problem, ok := e.catalog.Lookup(problemID)
	if !ok {
		return nil, errinfo.NotFound(errinfo.PhaseCatalog, fmt.Sprintf("problem %q", problemID))
	}
	rs, err := e.rules.Get(problem.Rule)
	if err != nil {
		e.logger.Warn("session.ruleset_failed", "problem_id", problemID, "ruleset", problem.Rule, "error", err.Error())
		return nil, ruleSetError(problem.Rule, err)
	}
	s, skipped := newSession(uuid.NewString(), problemID, problem, rs)
	for _, skip := range skipped {
		e.logger.Warn("session.seed_skipped", "problem_id", problemID, "expression", skip.Expression, "error", skip.Error)
	}
	if len(s.slots) == 0 {
		return nil, errinfo.ParseFailed(errinfo.PhaseSession, fmt.Sprintf("problem %q has no parsable expression", problemID))
	}
	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	if _, err := e.settings.Update(func(st *settings.Settings) { st.LastProblemID = problemID }); err != nil {
		e.logger.Warn("settings.save_failed", "error", err.Error())
	}
	e.logger.Info("session.opened", "session_id", s.id, "problem_id", problemID, "sequences", len(s.slots))
	return map[string]any{
		"session_id":     s.id,
		"problem_id":     problemID,
		"label":          problem.Label,
		"ruleset":        rs.Name,
		"sequence_count": len(s.slots),
		"skipped":        skipped,
	}, nil
}

func (e *Engine) SessionClose(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseSession, &req); errInfo != nil {
		return nil, errInfo
	}
	e.mu.Lock()
	_, ok := e.sessions[req.SessionID]
	delete(e.sessions, req.SessionID)
	e.mu.Unlock()
	if !ok {
		return nil, errinfo.NotFound(errinfo.PhaseSession, fmt.Sprintf("session %q", req.SessionID))
	}
	e.logger.Info("session.closed", "session_id", req.SessionID)
	e.emit(NotifySessionClosed, map[string]any{"session_id": req.SessionID})
	return map[string]any{}, nil
}

type slotRequest struct {
	SessionID     string `json:"session_id"`
	SequenceIndex int    `json:"sequence_index"`
}

func (e *Engine) SessionGetState(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req slotRequest
	if errInfo := decodeParams(params, errinfo.PhaseSession, &req); errInfo != nil {
		return nil, errInfo
	}
	return e.withSlot(errinfo.PhaseSession, req.SessionID, req.SequenceIndex, func(s *session, st *slotState) (any, *errinfo.ErrorInfo) {
		seq, ok := s.sheet.Get(req.SequenceIndex)
		if !ok {
			return nil, errinfo.InvalidSequenceIndex(errinfo.PhaseSession, "")
		}
		view := e.buildSequenceView(s.id, req.SequenceIndex, &seq, &st.sel)
		return map[string]any{
			"problem_id":     s.problemID,
			"label":          s.problem.Label,
			"sublabel":       s.problem.Sublabel,
			"ruleset":        s.ruleSet.Name,
			"sequence_count": len(s.slots),
			"opened_at":      s.openedAt.Format(time.RFC3339),
			"sequence":       view,
		}, nil
	})
}
