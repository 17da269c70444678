package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
)

func readResponses(t *testing.T, output *bytes.Buffer) []Response {
	t.Helper()
	var out []Response
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		out = append(out, resp)
	}
	return out
}

func TestServerHandlesRequest(t *testing.T) {
	input := "{\"jsonrpc\":\"2.0\",\"id\":1,\"method\":\"Ping\",\"api_version\":\"1\"}\n"
	var output bytes.Buffer
	server := NewServer("1", strings.NewReader(input), &output, nil)
	server.Register("Ping", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return map[string]any{"pong": true}, nil
	})

	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("serve: %v", err)
	}
	responses := readResponses(t, &output)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("unexpected error: %v", responses[0].Error)
	}
	result := responses[0].Result.(map[string]any)
	if result["pong"] != true {
		t.Fatalf("expected pong true")
	}
}

func TestServerAnswersInArrivalOrder(t *testing.T) {
	var input strings.Builder
	for i := 1; i <= 20; i++ {
		input.WriteString(`{"jsonrpc":"2.0","id":` + strconv.Itoa(i) + `,"method":"Next"}` + "\n")
	}
	var output bytes.Buffer
	server := NewServer("1", strings.NewReader(input.String()), &output, nil)
	counter := 0
	server.Register("Next", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		counter++
		return counter, nil
	})
	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("serve: %v", err)
	}
	responses := readResponses(t, &output)
	if len(responses) != 20 {
		t.Fatalf("expected 20 responses, got %d", len(responses))
	}
	for i, resp := range responses {
		if resp.Result != float64(i+1) {
			t.Fatalf("response %d: expected %d, got %v", i, i+1, resp.Result)
		}
	}
}

func TestServerErrors(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		`{"jsonrpc":"1.0","id":1,"method":"Ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"Missing"}`,
		`{"jsonrpc":"2.0","id":3,"method":"Ping","api_version":"9"}`,
		`{"jsonrpc":"2.0","id":4,"method":"Fail"}`,
		`{"jsonrpc":"2.0","method":"Fail"}`,
		``,
	}, "\n")
	var output bytes.Buffer
	server := NewServer("1", strings.NewReader(input), &output, nil)
	server.Register("Ping", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return "pong", nil
	})
	server.Register("Fail", func(ctx context.Context, params json.RawMessage) (any, *Error) {
		return nil, &Error{Message: "boom", Data: map[string]string{"error_code": "NOT_FOUND"}}
	})
	if err := server.Serve(context.Background()); err != nil {
		t.Fatalf("serve: %v", err)
	}
	responses := readResponses(t, &output)
	wantCodes := []int{codeParseError, codeInvalidRequest, codeMethodNotFound, codeInvalidRequest, codeServerError}
	if len(responses) != len(wantCodes) {
		t.Fatalf("expected %d responses (notifications get none), got %d", len(wantCodes), len(responses))
	}
	for i, resp := range responses {
		if resp.Error == nil || resp.Error.Code != wantCodes[i] {
			t.Fatalf("response %d: expected code %d, got %+v", i, wantCodes[i], resp.Error)
		}
	}
	data := responses[4].Error.Data.(map[string]any)
	if data["error_code"] != "NOT_FOUND" {
		t.Fatalf("expected error data to pass through, got %v", data)
	}
}

func TestServerNotify(t *testing.T) {
	var output bytes.Buffer
	server := NewServer("1", strings.NewReader(""), &output, nil)
	server.Notify("SequenceUpdated", map[string]int{"sequence_index": 0})
	var n Notification
	if err := json.Unmarshal(bytes.TrimSpace(output.Bytes()), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.Method != "SequenceUpdated" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestServeStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	server := NewServer("1", strings.NewReader("{}\n"), &bytes.Buffer{}, nil)
	if err := server.Serve(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
