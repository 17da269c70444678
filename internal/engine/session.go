package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ray-pH/equaio/internal/catalog"
	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/expr"
	"github.com/ray-pH/equaio/internal/rule"
	"github.com/ray-pH/equaio/internal/selection"
	"github.com/ray-pH/equaio/internal/worksheet"
)

// slotState guards one sequence. Its lock is held across the whole
// read-modify-store of the sequence and the selection that goes with it.
type slotState struct {
	mu  sync.Mutex
	sel selection.Set
}

type session struct {
	id        string
	problemID string
	problem   catalog.Problem
	ruleSet   *rule.RuleSet
	sheet     *worksheet.Worksheet
	slots     []*slotState
	openedAt  time.Time
}

type seedSkip struct {
	Expression string `json:"expression"`
	Error      string `json:"error"`
}

func newSession(id, problemID string, problem catalog.Problem, rs *rule.RuleSet) (*session, []seedSkip) {
	ctx := rs.Context.WithVariables(problem.Variables...)
	s := &session{
		id:        id,
		problemID: problemID,
		problem:   problem,
		ruleSet:   rs,
		sheet:     worksheet.New(ctx, rule.NewEngine(rs)),
		openedAt:  time.Now().UTC(),
	}
	var skipped []seedSkip
	for _, text := range problem.InitialExpressions {
		e, err := expr.ParseStrict(text, ctx)
		if err != nil {
			skipped = append(skipped, seedSkip{Expression: text, Error: err.Error()})
			continue
		}
		s.sheet.Introduce(e)
		s.slots = append(s.slots, &slotState{})
	}
	return s, skipped
}

func (s *session) slot(index int) (*slotState, bool) {
	if index < 0 || index >= len(s.slots) {
		return nil, false
	}
	return s.slots[index], true
}

func (e *Engine) lookupSession(phase, sessionID string) (*session, *errinfo.ErrorInfo) {
	e.mu.RLock()
	s, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, errinfo.NotFound(phase, fmt.Sprintf("session %q", sessionID))
	}
	return s, nil
}

// withSlot runs fn holding the lock of one sequence slot.
func (e *Engine) withSlot(phase, sessionID string, index int, fn func(s *session, st *slotState) (any, *errinfo.ErrorInfo)) (any, *errinfo.ErrorInfo) {
	s, errInfo := e.lookupSession(phase, sessionID)
	if errInfo != nil {
		return nil, errInfo
	}
	st, ok := s.slot(index)
	if !ok {
		detail := fmt.Sprintf("sequence %d (have %d)", index, len(s.slots))
		return nil, errinfo.InvalidSequenceIndex(phase, detail).WithSession(sessionID, index)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	result, errInfo := fn(s, st)
	if errInfo != nil && errInfo.SessionID == "" {
		errInfo.WithSession(sessionID, index)
	}
	return result, errInfo
}

// sequenceError maps worksheet errors onto the wire taxonomy.
func sequenceError(phase string, err error) *errinfo.ErrorInfo {
	switch {
	case errors.Is(err, worksheet.ErrInvalidActionIndex):
		return errinfo.InvalidActionIndex(err.Error())
	case errors.Is(err, worksheet.ErrInvalidHistoryIndex):
		return errinfo.InvalidHistoryIndex(err.Error())
	case errors.Is(err, worksheet.ErrInvalidSequenceIndex):
		return errinfo.InvalidSequenceIndex(phase, err.Error())
	default:
		return errinfo.ValidationFailed(phase, err.Error())
	}
}

func ruleSetError(name string, err error) *errinfo.ErrorInfo {
	var schemaErr *rule.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return errinfo.SchemaError(errinfo.PhaseSession, name, schemaErr.RuleID, schemaErr.Error())
	case errors.Is(err, rule.ErrUnknownRuleSet):
		return errinfo.NotFound(errinfo.PhaseSession, err.Error())
	default:
		return errinfo.FileReadFailed(errinfo.PhaseSession, err.Error())
	}
}
