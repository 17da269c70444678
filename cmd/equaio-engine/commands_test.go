package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ray-pH/equaio/internal/appdirs"
	"github.com/ray-pH/equaio/internal/envfile"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(appdirs.DataDirEnv, t.TempDir())
	t.Setenv(appdirs.CatalogDirEnv, "")
	t.Setenv(envfile.PathEnv, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv(debugEnv, "")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProblemsListsCatalog(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "problems")
	if err != nil {
		t.Fatalf("problems: %v", err)
	}
	if !strings.Contains(out, "algebra0") || !strings.Contains(out, "x + 3 = 5") {
		t.Fatalf("expected algebra0 in listing, got:\n%s", out)
	}
}

func TestCheckRules(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	doc := `{"name":"tiny","context":{"unary_ops":["-"],"binary_ops":["+"],"assoc_ops":["+"],"handle_numerics":true},
		"rules":[{"id":"add_zero","expr":"X + 0 = X","label":"Add zero","auto":true}]}`
	if err := os.WriteFile(good, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execute(t, "", "check-rules", good)
	if err != nil {
		t.Fatalf("check-rules: %v", err)
	}
	if !strings.Contains(out, `ruleset "tiny" ok, 1 rules (1 automatic)`) {
		t.Fatalf("unexpected output %q", out)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := execute(t, "", "check-rules", bad); err == nil {
		t.Fatalf("expected schema error")
	}
	if _, err := execute(t, "", "check-rules"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestServeAnswersRequests(t *testing.T) {
	isolate(t)
	stdin := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"EngineGetInfo"}`,
		`{"jsonrpc":"2.0","id":2,"method":"SessionOpen","params":{"problem_id":"nope"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"Missing"}`,
	}, "\n") + "\n"
	out, err := execute(t, stdin, "serve")
	if err != nil {
		t.Fatalf("serve: %v", err)
	}

	var responses []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var msg map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		responses = append(responses, msg)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d:\n%s", len(responses), out)
	}
	if _, ok := responses[0]["result"].(map[string]any); !ok {
		t.Fatalf("expected info result, got %v", responses[0])
	}
	data := responses[1]["error"].(map[string]any)["data"].(map[string]any)
	if data["error_code"] != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", data)
	}
	if responses[2]["error"].(map[string]any)["code"] != float64(-32601) {
		t.Fatalf("expected method not found, got %v", responses[2])
	}
}
