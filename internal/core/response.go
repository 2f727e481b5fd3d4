package core

import (
	"encoding/json"
	"strings"
)

const fallbackReasonLimit = 200

// UnwrapCodeFence strips a markdown code fence from a model response. A fence
// opened with ```json wins over a bare fence; with no fence the response is
// returned as-is.
func UnwrapCodeFence(raw string) string {
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(raw[start:], "```"); end >= 0 {
			return strings.TrimSpace(raw[start : start+end])
		}
		return strings.TrimSpace(raw[start:])
	}
	if idx := strings.Index(raw, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.Index(raw[start:], "```"); end >= 0 {
			return strings.TrimSpace(raw[start : start+end])
		}
		return strings.TrimSpace(raw[start:])
	}
	return strings.TrimSpace(raw)
}

// ParseClassificationResult parses a raw classifier response into a
// structured result. Parse failure is never fatal: it degrades to an unknown
// verdict carrying the raw response for diagnostics.
func ParseClassificationResult(raw string) *ClassificationResult {
	unwrapped := UnwrapCodeFence(raw)

	var result ClassificationResult
	if err := json.Unmarshal([]byte(unwrapped), &result); err != nil || result.Classification == "" {
		return fallbackResult(raw)
	}
	return &result
}

func fallbackResult(raw string) *ClassificationResult {
	reason := strings.TrimSpace(raw)
	if len(reason) > fallbackReasonLimit {
		reason = reason[:fallbackReasonLimit]
	}
	if reason == "" {
		reason = "Classification failed"
	}
	return &ClassificationResult{
		Classification: ClassUnknown,
		Confidence:     0.5,
		PrimaryReason:  reason,
		RawResult:      raw,
	}
}
