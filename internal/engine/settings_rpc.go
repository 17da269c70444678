package engine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/settings"
)

func settingsView(s *settings.Settings) map[string]any {
	return map[string]any{
		"math_variables":      s.MathVariables,
		"collapse_auto_steps": s.Collapse(),
		"last_problem_id":     s.LastProblemID,
	}
}

func (e *Engine) SettingsGet(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	s, err := e.settings.Load()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	return settingsView(s), nil
}

func (e *Engine) SettingsUpdate(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		MathVariables     *bool `json:"math_variables"`
		CollapseAutoSteps *bool `json:"collapse_auto_steps"`
	}
	if errInfo := decodeParams(params, errinfo.PhaseSettings, &req); errInfo != nil {
		return nil, errInfo
	}
	updated, err := e.settings.Update(func(s *settings.Settings) {
		if req.MathVariables != nil {
			s.MathVariables = *req.MathVariables
		}
		if req.CollapseAutoSteps != nil {
			collapse := *req.CollapseAutoSteps
			s.CollapseAutoSteps = &collapse
		}
	})
	if err != nil {
		if errors.Is(err, settings.ErrInvalid) {
			return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, err.Error())
		}
		return nil, errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error())
	}
	e.logger.Info("settings.updated", "math_variables", updated.MathVariables, "collapse_auto_steps", updated.Collapse())
	return settingsView(updated), nil
}
