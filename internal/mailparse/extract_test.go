package mailparse

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestExtractMultipartPrefersPlainText(t *testing.T) {
	msg := &Message{
		ThreadID:     "t-1",
		Snippet:      "Your invoice is attached",
		InternalDate: Millis(1741946813000),
		Payload: Payload{
			Headers: []Header{
				{Name: "From", Value: "billing@example.com"},
				{Name: "Subject", Value: "Invoice Due"},
				{Name: "Date", Value: "Fri, 14 Mar 2025 09:26:53 +0000"},
			},
			Parts: []Part{
				{MimeType: "text/html", Body: Body{Data: b64("<p>html body</p>")}},
				{MimeType: "text/plain", Body: Body{Data: b64("plain body")}},
			},
		},
	}

	content, meta := Extract(msg, fixedNow)

	assert.True(t, strings.HasPrefix(content, "From: billing@example.com\nSubject: Invoice Due\n"))
	assert.Contains(t, content, "\n\nplain body\n")
	assert.NotContains(t, content, "html body")
	assert.Equal(t, "billing@example.com", meta.Sender)
	assert.Equal(t, "Invoice Due", meta.Subject)
	assert.Equal(t, "t-1", meta.ThreadID)
	assert.Equal(t, "2025-03-14T09:26:53Z", meta.ReceivedAt)
}

func TestExtractHTMLOnlyFallback(t *testing.T) {
	msg := &Message{
		Payload: Payload{
			Headers: []Header{{Name: "From", Value: "a@b.c"}},
			Parts: []Part{
				{MimeType: "text/html", Body: Body{Data: b64("<b>only html</b>")}},
			},
		},
	}

	content, _ := Extract(msg, fixedNow)
	assert.Contains(t, content, "<b>only html</b>")
}

func TestExtractSinglePartBody(t *testing.T) {
	msg := &Message{
		Payload: Payload{
			Headers: []Header{{Name: "Subject", Value: "hi"}},
			Body:    Body{Data: b64("single part text")},
		},
	}

	content, _ := Extract(msg, fixedNow)
	assert.Contains(t, content, "single part text")
}

func TestExtractHeaderDefaults(t *testing.T) {
	msg := &Message{Payload: Payload{Body: Body{Data: b64("x")}}}

	content, meta := Extract(msg, fixedNow)

	assert.Equal(t, "Unknown", meta.Sender)
	assert.Equal(t, "No Subject", meta.Subject)
	assert.Equal(t, "", meta.Date)
	assert.True(t, strings.HasPrefix(content, "From: Unknown\nSubject: No Subject\nDate: \n"))
}

func TestExtractHeaderMatchIsExactCase(t *testing.T) {
	msg := &Message{
		Payload: Payload{
			Headers: []Header{{Name: "subject", Value: "lowercase"}},
			Body:    Body{Data: b64("x")},
		},
	}

	_, meta := Extract(msg, fixedNow)
	assert.Equal(t, "No Subject", meta.Subject)
}

func TestExtractMalformedBase64NeverFatal(t *testing.T) {
	msg := &Message{
		Payload: Payload{
			Headers: []Header{{Name: "From", Value: "a@b.c"}},
			Body:    Body{Data: "!!!not-base64!!!"},
		},
	}

	content, _ := Extract(msg, fixedNow)
	assert.True(t, strings.HasSuffix(content, "\n\n\n"))
}

func TestExtractSnippetTruncated(t *testing.T) {
	msg := &Message{
		Snippet: strings.Repeat("a", 500),
		Payload: Payload{Body: Body{Data: b64("x")}},
	}

	_, meta := Extract(msg, fixedNow)
	assert.Len(t, meta.Snippet, 200)
}

func TestExtractMissingInternalDateUsesNow(t *testing.T) {
	msg := &Message{Payload: Payload{Body: Body{Data: b64("x")}}}

	_, meta := Extract(msg, fixedNow)
	assert.Equal(t, "2025-03-14T09:26:53Z", meta.ReceivedAt)
}

func TestFromMap(t *testing.T) {
	raw := map[string]any{
		"id":           "m-7",
		"threadId":     "t-7",
		"snippet":      "hello",
		"internalDate": "1741946813000",
		"payload": map[string]any{
			"headers": []any{
				map[string]any{"name": "Subject", "value": "Hello"},
			},
			"body": map[string]any{"data": b64("body text")},
		},
	}

	msg, err := FromMap(raw)
	require.NoError(t, err)
	assert.Equal(t, "m-7", msg.ID)
	assert.Equal(t, Millis(1741946813000), msg.InternalDate)

	content, meta := Extract(msg, fixedNow)
	assert.Contains(t, content, "body text")
	assert.Equal(t, "Hello", meta.Subject)
}

func TestMillisAcceptsNumberAndString(t *testing.T) {
	for _, raw := range []map[string]any{
		{"internalDate": "1741946813000"},
		{"internalDate": float64(1741946813000)},
	} {
		msg, err := FromMap(raw)
		require.NoError(t, err)
		assert.Equal(t, Millis(1741946813000), msg.InternalDate)
	}
}
