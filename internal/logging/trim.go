package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxLoggedString = 256
	maxLoggedItems  = 16
)

// TrimString shortens s for logging, keeping its head.
func TrimString(s string) string {
	if len(s) <= maxLoggedString {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:maxLoggedString], len(s))
}

// TrimAny bounds strings and lists inside decoded JSON so block trees and
// histories do not flood the debug log.
func TrimAny(value any) any {
	switch typed := value.(type) {
	case string:
		return TrimString(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = TrimAny(val)
		}
		return out
	case []any:
		n := len(typed)
		if n > maxLoggedItems {
			n = maxLoggedItems
		}
		out := make([]any, 0, n+1)
		for _, val := range typed[:n] {
			out = append(out, TrimAny(val))
		}
		if len(typed) > n {
			out = append(out, fmt.Sprintf("...(%d more)", len(typed)-n))
		}
		return out
	default:
		return value
	}
}

// TrimJSON decodes raw and trims it. Undecodable input is logged as text.
func TrimJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return TrimString(strings.TrimSpace(string(raw)))
	}
	return TrimAny(payload)
}

// TrimValue round-trips v through JSON so typed results are trimmed the same
// way as requests.
func TrimValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	return TrimJSON(data)
}
