package errinfo

// ErrorInfo is the structured data attached to every failed RPC.
type ErrorInfo struct {
	ErrorCode     string   `json:"error_code"`
	Phase         string   `json:"phase,omitempty"`
	Retryable     bool     `json:"retryable"`
	Actions       []string `json:"actions,omitempty"`
	SessionID     string   `json:"session_id,omitempty"`
	SequenceIndex *int     `json:"sequence_index,omitempty"`
	RuleSet       string   `json:"ruleset,omitempty"`
	RuleID        string   `json:"rule_id,omitempty"`
	Detail        string   `json:"detail,omitempty"`
}

const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeParseFailed          = "PARSE_FAILED"
	CodeSchemaError          = "SCHEMA_ERROR"
	CodeInvalidActionIndex   = "INVALID_ACTION_INDEX"
	CodeInvalidHistoryIndex  = "INVALID_HISTORY_INDEX"
	CodeInvalidSequenceIndex = "INVALID_SEQUENCE_INDEX"
	CodeFileReadFailed       = "FILE_READ_FAILED"
	CodeFileWriteFailed      = "FILE_WRITE_FAILED"
)

const (
	// ActionRefresh asks the client to re-fetch state before retrying.
	ActionRefresh      = "refresh"
	ActionOpenCatalog  = "open_catalog"
	ActionOpenSettings = "open_settings"
)

const (
	PhaseCatalog   = "catalog"
	PhaseSession   = "session"
	PhaseSelection = "selection"
	PhaseAction    = "action"
	PhaseHistory   = "history"
	PhaseSettings  = "settings"
)

// Message is the human-readable summary sent next to the structured data.
func (e *ErrorInfo) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.ErrorCode
}

func (e *ErrorInfo) WithSession(sessionID string, sequenceIndex int) *ErrorInfo {
	e.SessionID = sessionID
	e.SequenceIndex = &sequenceIndex
	return e
}

func ValidationFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeValidationFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func NotFound(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeNotFound,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenCatalog},
		Detail:    detail,
	}
}

func ParseFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeParseFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func SchemaError(phase, ruleSet, ruleID, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeSchemaError,
		Phase:     phase,
		Retryable: false,
		RuleSet:   ruleSet,
		RuleID:    ruleID,
		Detail:    detail,
	}
}

// Index errors leave state untouched; the client refreshes and may retry.

func InvalidActionIndex(detail string) *ErrorInfo {
	return indexError(CodeInvalidActionIndex, PhaseAction, detail)
}

func InvalidHistoryIndex(detail string) *ErrorInfo {
	return indexError(CodeInvalidHistoryIndex, PhaseHistory, detail)
}

func InvalidSequenceIndex(phase, detail string) *ErrorInfo {
	return indexError(CodeInvalidSequenceIndex, phase, detail)
}

func indexError(code, phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: code,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRefresh},
		Detail:    detail,
	}
}

func FileReadFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileReadFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func FileWriteFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileWriteFailed,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionOpenSettings},
		Detail:    detail,
	}
}
