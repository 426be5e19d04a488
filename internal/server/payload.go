package server

import (
	"encoding/json"
	"fmt"
	"math"
)

// Event names used on the wire.
const (
	EventJoin      = "join"
	EventStructure = "structure"
	EventDefines   = "defines"
	EventEmitCount = "emit_count"
	EventSync      = "sync"
	EventSynced    = "synced"
	EventComposed  = "composed"
	EventSystems   = "systems"
	EventRejected  = "rejected"
)

// Composed is the output pushed to a contributor.
type Composed struct {
	Contributor  string   `json:"contributor"`
	System       string   `json:"system"`
	Output       []string `json:"output"`
	ElementCount int      `json:"element_count"`
	Stride       int      `json:"stride"`
}

// DecodeComposed converts a decoded event payload back into a Composed.
func DecodeComposed(v any) (Composed, error) {
	var c Composed
	raw, err := json.Marshal(v)
	if err != nil {
		return c, fmt.Errorf("failed to re-encode composed payload: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("failed to decode composed payload: %w", err)
	}
	return c, nil
}

func firstArg(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing payload")
	}
	return args[0], nil
}

func toString(args []any) (string, error) {
	v, err := firstArg(args)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", v)
	}
	return s, nil
}

// toStrings accepts a single string or a list of strings.
func toStrings(args []any) ([]string, error) {
	v, err := firstArg(args)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", v)
}

// toCount accepts any JSON number that is a whole, non-negative value.
func toCount(args []any) (int, error) {
	v, err := firstArg(args)
	if err != nil {
		return 0, err
	}
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		if f, err = t.Float64(); err != nil {
			return 0, fmt.Errorf("invalid number '%s': %w", t, err)
		}
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("emit count must be a whole number between 0 and %d, got %v", math.MaxInt32, f)
	}
	return int(f), nil
}
