package errinfo

import "testing"

func TestNotFound(t *testing.T) {
	err := NotFound(PhaseCatalog, "problem algebra9")
	if err.ErrorCode != CodeNotFound {
		t.Fatalf("expected not found")
	}
	if len(err.Actions) == 0 || err.Actions[0] != ActionOpenCatalog {
		t.Fatalf("expected open_catalog action")
	}
	if err.Message() != "problem algebra9" {
		t.Fatalf("expected detail as message, got %q", err.Message())
	}
}

func TestIndexErrorsAskForRefresh(t *testing.T) {
	for _, err := range []*ErrorInfo{
		InvalidActionIndex("3"),
		InvalidHistoryIndex("9"),
		InvalidSequenceIndex(PhaseSession, "2"),
	} {
		if !err.Retryable {
			t.Fatalf("%s: expected retryable", err.ErrorCode)
		}
		if len(err.Actions) != 1 || err.Actions[0] != ActionRefresh {
			t.Fatalf("%s: expected refresh action, got %v", err.ErrorCode, err.Actions)
		}
	}
}

func TestWithSession(t *testing.T) {
	err := InvalidActionIndex("").WithSession("abc", 0)
	if err.SessionID != "abc" || err.SequenceIndex == nil || *err.SequenceIndex != 0 {
		t.Fatalf("expected session and index to be set, got %+v", err)
	}
	if err.Message() != CodeInvalidActionIndex {
		t.Fatalf("expected code as message, got %q", err.Message())
	}
}

func TestValidationHelpers(t *testing.T) {
	if ValidationFailed(PhaseSession, "bad").ErrorCode != CodeValidationFailed {
		t.Fatalf("expected validation failed")
	}
	schema := SchemaError(PhaseSession, "logic", "r1", "bad rule")
	if schema.ErrorCode != CodeSchemaError || schema.RuleSet != "logic" || schema.RuleID != "r1" {
		t.Fatalf("unexpected schema error %+v", schema)
	}
	if ParseFailed(PhaseSession, "x +").ErrorCode != CodeParseFailed {
		t.Fatalf("expected parse failed")
	}
	if FileReadFailed(PhaseSettings, "").ErrorCode != CodeFileReadFailed {
		t.Fatalf("expected file read failed")
	}
	if FileWriteFailed(PhaseSettings, "").ErrorCode != CodeFileWriteFailed {
		t.Fatalf("expected file write failed")
	}
}
