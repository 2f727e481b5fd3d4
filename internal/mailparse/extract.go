// Package mailparse converts stored provider-style email payloads into plain
// text and structured metadata for classification.
package mailparse

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header is one name/value pair from the message payload.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Body holds a transport-encoded body chunk.
type Body struct {
	Data string `json:"data"`
	Size int    `json:"size,omitempty"`
}

// Part is one entry of a multipart payload.
type Part struct {
	MimeType string   `json:"mimeType"`
	Headers  []Header `json:"headers,omitempty"`
	Body     Body     `json:"body"`
}

// Payload is the root of the message body tree: headers plus either a single
// body or an ordered list of parts.
type Payload struct {
	MimeType string   `json:"mimeType,omitempty"`
	Headers  []Header `json:"headers"`
	Body     Body     `json:"body"`
	Parts    []Part   `json:"parts,omitempty"`
}

// Message mirrors a provider message as stored in the document database.
type Message struct {
	ID           string  `json:"id,omitempty"`
	ThreadID     string  `json:"threadId"`
	Snippet      string  `json:"snippet"`
	InternalDate Millis  `json:"internalDate"`
	Payload      Payload `json:"payload"`
}

// Millis is an epoch-milliseconds timestamp that may arrive as a JSON string
// or number.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("internalDate %q: %w", s, err)
	}
	*m = Millis(int64(f))
	return nil
}

// Metadata is the structured side of an extracted email.
type Metadata struct {
	Sender     string `json:"sender"`
	Subject    string `json:"subject"`
	Date       string `json:"date"`
	Snippet    string `json:"snippet"`
	ThreadID   string `json:"threadId"`
	ReceivedAt string `json:"receivedAt"`
}

const snippetLimit = 200

// FromMap decodes a stored raw-email mapping into a Message. The mapping is
// whatever shape the document store handed back, so decoding goes through a
// JSON round trip rather than trusting concrete types.
func FromMap(raw map[string]any) (*Message, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode raw email: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("decode raw email: %w", err)
	}
	return &msg, nil
}

// Extract renders the message into a display string (sender, subject, date,
// blank line, body) and collects its metadata. Malformed bodies degrade to
// empty text rather than failing.
func Extract(msg *Message, now func() time.Time) (string, Metadata) {
	subject := headerValue(msg.Payload.Headers, "Subject", "No Subject")
	sender := headerValue(msg.Payload.Headers, "From", "Unknown")
	date := headerValue(msg.Payload.Headers, "Date", "")

	body := extractBody(&msg.Payload)

	content := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s\n", sender, subject, date, body)

	meta := Metadata{
		Sender:     sender,
		Subject:    subject,
		Date:       date,
		Snippet:    truncate(msg.Snippet, snippetLimit),
		ThreadID:   msg.ThreadID,
		ReceivedAt: receivedAt(msg.InternalDate, now),
	}
	return content, meta
}

// headerValue finds the first header whose name matches exactly.
func headerValue(headers []Header, name, fallback string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return fallback
}

// extractBody picks the body text: the first text/plain part, else the first
// text/html part, else the top-level body of a single-part message.
func extractBody(p *Payload) string {
	if len(p.Parts) > 0 {
		html := ""
		for _, part := range p.Parts {
			switch part.MimeType {
			case "text/plain":
				if part.Body.Data != "" {
					return decodeBody(part.Body.Data)
				}
			case "text/html":
				if html == "" && part.Body.Data != "" {
					html = decodeBody(part.Body.Data)
				}
			}
		}
		return html
	}
	if p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	return ""
}

// decodeBody decodes URL-safe base64 leniently: stray padding is tolerated
// and invalid byte sequences are dropped, never fatal.
func decodeBody(data string) string {
	trimmed := strings.TrimRight(data, "=")
	decoded, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		// Salvage the longest cleanly-decodable prefix.
		n := (len(trimmed) / 4) * 4
		for n > 0 {
			if d, err := base64.RawURLEncoding.DecodeString(trimmed[:n]); err == nil {
				decoded = d
				break
			}
			n -= 4
		}
	}
	return strings.ToValidUTF8(string(decoded), "")
}

// receivedAt derives the received time from epoch milliseconds, falling back
// to the current UTC time, always as ISO-8601 with a trailing Z.
func receivedAt(ms Millis, now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	t := now().UTC()
	if ms > 0 {
		t = time.UnixMilli(int64(ms)).UTC()
	}
	return t.Format(time.RFC3339)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
