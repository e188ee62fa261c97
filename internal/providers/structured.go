package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DecodeLenient decodes nominally-JSON model output into v, tolerating
// markdown code fences and surrounding prose. Decoding failures are never
// fatal: they are logged and the function returns false, leaving whatever
// default the caller pre-populated in v.
func DecodeLenient(logger *slog.Logger, raw string, v any) bool {
	if logger == nil {
		logger = slog.Default()
	}

	normalized, err := ExtractJSON(raw)
	if err != nil {
		logger.Warn("structured output decode failed", "error", err, "snippet", snippet(raw))
		return false
	}
	if err := json.Unmarshal(normalized, v); err != nil {
		logger.Warn("structured output has unexpected shape", "error", err, "snippet", snippet(raw))
		return false
	}
	return true
}

// ExtractJSON parses JSON from model output, with lightweight recovery for
// markdown code fences and surrounding text. The result is re-marshaled into
// normalized form.
func ExtractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("failed to normalize structured output: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("no JSON found in structured output")
}

// ValidateWarn checks decoded output against a schema and logs any mismatch.
// Validation never fails the caller: malformed fragments are repaired or
// defaulted downstream, not rejected.
func ValidateWarn(logger *slog.Logger, schema *jsonschema.Schema, normalized json.RawMessage) {
	if logger == nil {
		logger = slog.Default()
	}
	if schema == nil || len(normalized) == 0 {
		return
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return
	}
	if err := schema.Validate(doc); err != nil {
		logger.Warn("structured output does not match schema", "error", err)
	}
}

// stripCodeFences removes a leading ``` (optionally ```json) fence line and a
// trailing ``` line.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate slices out the outermost {...} or [...] region.
func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
