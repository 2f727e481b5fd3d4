package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DocumentChangeEvent is the normalized form of an inbound document change,
// independent of which wire encoding delivered it.
type DocumentChangeEvent struct {
	DocumentID string
	Collection string
	FullPath   string
	Fields     map[string]Value
	CreateTime *time.Time
	UpdateTime *time.Time
}

// DecodeError reports that no known encoding matched the inbound payload.
// It records which encodings were attempted and the content type observed.
type DecodeError struct {
	Attempted   []string
	ContentType string
	Reason      string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode event (content-type %q, attempted %s): %s",
		e.ContentType, strings.Join(e.Attempted, ", "), e.Reason)
}

// parseAttempt is one fallible parser in the decoding chain.
type parseAttempt struct {
	name  string
	parse func(raw []byte) (*DocumentChangeEvent, error)
}

// Decode normalizes an inbound payload into a DocumentChangeEvent. The
// encodings are tried in priority order and the first success wins:
// Pub/Sub-binding JSON, direct CloudEvent JSON, binary document change
// record, then a last-resort scan for embedded JSON text.
func Decode(raw []byte, contentType string) (*DocumentChangeEvent, error) {
	var chain []parseAttempt

	binaryHint := isBinaryContentType(contentType)
	jsonLike := looksLikeJSON(raw)

	if !binaryHint && jsonLike {
		chain = append(chain,
			parseAttempt{"pubsub-json", parsePubSubEnvelope},
			parseAttempt{"cloudevent-json", parseDirectEnvelope},
		)
	}
	chain = append(chain, parseAttempt{"protobuf", parseWireRecord})
	if binaryHint && !jsonLike {
		chain = append(chain, parseAttempt{"embedded-json", parseEmbeddedJSON})
	}

	var attempted []string
	var lastErr error
	for _, p := range chain {
		attempted = append(attempted, p.name)
		ev, err := p.parse(raw)
		if err == nil {
			return ev, nil
		}
		lastErr = err
	}

	reason := "no parser matched"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return nil, &DecodeError{Attempted: attempted, ContentType: contentType, Reason: reason}
}

// isBinaryContentType reports whether the hint strongly implies binary framing.
func isBinaryContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "protobuf") || strings.Contains(ct, "octet-stream")
}

// looksLikeJSON reports whether the body is UTF-8 text starting with { or [.
func looksLikeJSON(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || !utf8.Valid(trimmed) {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

// parsePubSubEnvelope handles the Pub/Sub binding shape: a top-level
// message.data field holding the base64-encoded CloudEvent.
func parsePubSubEnvelope(raw []byte) (*DocumentChangeEvent, error) {
	var outer struct {
		Message struct {
			Data string `json:"data"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("outer envelope: %w", err)
	}
	if outer.Message.Data == "" {
		return nil, fmt.Errorf("no message.data field")
	}
	decoded, err := base64.StdEncoding.DecodeString(outer.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("message.data is not base64: %w", err)
	}
	var envelope map[string]any
	if err := json.Unmarshal(decoded, &envelope); err != nil {
		return nil, fmt.Errorf("decoded message.data is not JSON: %w", err)
	}
	return eventFromEnvelope(envelope)
}

// parseDirectEnvelope handles a bare CloudEvent: the object itself carries
// data and source fields.
func parseDirectEnvelope(raw []byte) (*DocumentChangeEvent, error) {
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if _, ok := envelope["data"]; !ok {
		return nil, fmt.Errorf("no data field")
	}
	if _, ok := envelope["source"]; !ok {
		return nil, fmt.Errorf("no source field")
	}
	return eventFromEnvelope(envelope)
}

// parseEmbeddedJSON scans a non-JSON body for embedded JSON-looking text.
// Last resort for payloads with a misleading binary content type.
func parseEmbeddedJSON(raw []byte) (*DocumentChangeEvent, error) {
	idx := bytes.IndexAny(raw, "{[")
	if idx < 0 {
		return nil, fmt.Errorf("no JSON-looking text in body")
	}
	sub := raw[idx:]
	if ev, err := parsePubSubEnvelope(sub); err == nil {
		return ev, nil
	}
	return parseDirectEnvelope(sub)
}

// eventFromEnvelope extracts the document change from a CloudEvent envelope.
// The data field may itself be a JSON-encoded string needing one more pass.
func eventFromEnvelope(envelope map[string]any) (*DocumentChangeEvent, error) {
	data := envelope["data"]
	if s, ok := data.(string); ok {
		var inner map[string]any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil, fmt.Errorf("data string is not JSON: %w", err)
		}
		data = inner
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("data is %T, expected object", data)
	}
	value, ok := obj["value"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("no value object in event data")
	}

	name, _ := value["name"].(string)
	collection, documentID, err := ParseDocumentPath(name)
	if err != nil {
		return nil, err
	}

	var fields map[string]Value
	if rawFields, ok := value["fields"].(map[string]any); ok {
		fields, err = fieldsFromJSON(rawFields)
		if err != nil {
			return nil, err
		}
	}

	ev := &DocumentChangeEvent{
		DocumentID: documentID,
		Collection: collection,
		FullPath:   name,
		Fields:     fields,
	}
	if ts := parseEnvelopeTime(value["createTime"]); ts != nil {
		ev.CreateTime = ts
	}
	if ts := parseEnvelopeTime(value["updateTime"]); ts != nil {
		ev.UpdateTime = ts
	}
	return ev, nil
}

func parseEnvelopeTime(raw any) *time.Time {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseDocumentPath splits a full document path into collection and document
// id. The path must contain "/documents/" followed by at least two segments.
func ParseDocumentPath(path string) (collection, documentID string, err error) {
	const marker = "/documents/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return "", "", fmt.Errorf("document path %q has no %s segment", path, marker)
	}
	rest := path[idx+len(marker):]
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("document path %q is too short after %s", path, marker)
	}
	return parts[0], parts[1], nil
}
