package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrOracleDecode is returned when oracle output cannot be decoded as JSON
var ErrOracleDecode = errors.New("oracle output is not valid JSON")

// StripCodeFence removes a surrounding markdown code fence such as ```json ... ```
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop the info string (e.g. "json") up to the first newline
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		if info := strings.TrimSpace(text[:i]); !strings.ContainsAny(info, "{[") {
			text = text[i+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}

// DecodeJSON strips code fences from raw oracle output and decodes it into v,
// which must be a non-nil pointer. If the text does not decode as-is, the span
// from the first '{' to the last '}' is tried before giving up. v is only
// written when a whole attempt succeeds, so a failed decode leaves it as it
// was.
func DecodeJSON(raw string, v any) error {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}

	text := StripCodeFence(raw)
	if text == "" {
		return fmt.Errorf("%w: empty output", ErrOracleDecode)
	}

	err := decodeInto(text, target)
	if err == nil {
		return nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("%w: %v", ErrOracleDecode, err)
	}

	if err := decodeInto(text[start:end+1], target); err != nil {
		return fmt.Errorf("%w: %v", ErrOracleDecode, err)
	}
	return nil
}

// decodeInto unmarshals into a fresh value and copies it to target on success
func decodeInto(text string, target reflect.Value) error {
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal([]byte(text), fresh.Interface()); err != nil {
		return err
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

// Quantities coerces a decoded JSON object into a product->quantity map.
// Numbers are rounded, numeric strings are parsed, and anything that is not a
// positive quantity is dropped. Keys are trimmed.
func Quantities(raw map[string]any) map[string]int {
	out := make(map[string]int, len(raw))
	for key, value := range raw {
		id := strings.TrimSpace(key)
		if id == "" {
			continue
		}
		qty, ok := quantity(value)
		if !ok || qty <= 0 {
			continue
		}
		out[id] = qty
	}
	return out
}

func quantity(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n + 0.5), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int(f + 0.5), true
	case int:
		return n, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err != nil {
			return 0, false
		}
		return int(f + 0.5), true
	default:
		return 0, false
	}
}
