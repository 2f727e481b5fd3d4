package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVerdict = `{
  "classification": "scam",
  "confidence": 0.92,
  "primary_reason": "Payment redirect to unrelated domain",
  "indicators": ["urgency", "mismatched_links"]
}`

func TestParseClassificationResultBare(t *testing.T) {
	result := ParseClassificationResult(sampleVerdict)

	assert.Equal(t, ClassScam, result.Classification)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, "Payment redirect to unrelated domain", result.PrimaryReason)
	assert.Empty(t, result.RawResult)
}

func TestParseClassificationResultFenced(t *testing.T) {
	fenced := "Here is my analysis:\n```json\n" + sampleVerdict + "\n```\nLet me know."
	bare := "```\n" + sampleVerdict + "\n```"

	fromFenced := ParseClassificationResult(fenced)
	fromBare := ParseClassificationResult(bare)
	fromPlain := ParseClassificationResult(sampleVerdict)

	assert.Equal(t, fromPlain, fromFenced)
	assert.Equal(t, fromPlain, fromBare)
}

func TestParseClassificationResultUnterminatedFence(t *testing.T) {
	result := ParseClassificationResult("```json\n" + sampleVerdict)
	assert.Equal(t, ClassScam, result.Classification)
}

func TestParseClassificationResultFallback(t *testing.T) {
	raw := "I am sorry, I cannot classify this email."
	result := ParseClassificationResult(raw)

	assert.Equal(t, ClassUnknown, result.Classification)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, raw, result.PrimaryReason)
	assert.Equal(t, raw, result.RawResult)
}

func TestParseClassificationResultFallbackTruncatesReason(t *testing.T) {
	raw := strings.Repeat("x", 1000)
	result := ParseClassificationResult(raw)

	assert.Len(t, result.PrimaryReason, 200)
	assert.Equal(t, raw, result.RawResult)
}

func TestParseClassificationResultEmptyResponse(t *testing.T) {
	result := ParseClassificationResult("")

	assert.Equal(t, ClassUnknown, result.Classification)
	assert.Equal(t, "Classification failed", result.PrimaryReason)
}

func TestParseClassificationResultMissingLabel(t *testing.T) {
	// Valid JSON without a classification field still degrades.
	result := ParseClassificationResult(`{"confidence": 0.9}`)
	assert.Equal(t, ClassUnknown, result.Classification)
}

func TestUnwrapCodeFencePrefersJSONFence(t *testing.T) {
	raw := "```\nnot this\n```\n```json\n{\"a\":1}\n```"
	require.Equal(t, `{"a":1}`, UnwrapCodeFence(raw))
}
