package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeError reports a model response that could not be parsed into the
// expected contract. Raw carries the full response text so callers can log
// or surface what the model actually said.
type DecodeError struct {
	Shape string
	Raw   string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q response: %v", e.Shape, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses a schema-constrained model response into the contract type.
// It never assumes well-formedness: any parse failure is returned as a
// *DecodeError with the raw text preserved.
func Decode[T any](shape, raw string) (T, error) {
	var out T
	trimmed := stripCodeFence(raw)
	if trimmed == "" {
		return out, &DecodeError{Shape: shape, Raw: raw, Err: fmt.Errorf("empty response body")}
	}
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return out, &DecodeError{Shape: shape, Raw: raw, Err: err}
	}
	return out, nil
}

// Invoke sends one schema-constrained request and decodes the response into
// the contract type. This is the atomic unit every workflow step composes:
// transport failures and decode failures both surface as errors, never as a
// partially-filled contract.
func Invoke[T any](ctx context.Context, svc Service, req StructuredRequest, messages []Message) (T, *CallStats, error) {
	var zero T

	raw, stats, err := svc.ChatStructured(ctx, messages, req)
	if err != nil {
		return zero, stats, err
	}

	out, err := Decode[T](req.Name, raw)
	if err != nil {
		return zero, stats, err
	}
	return out, stats, nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
// Smaller local models sometimes wrap their JSON in one even when a schema
// was requested.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json" or similar).
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
