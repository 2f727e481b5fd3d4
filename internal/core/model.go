package core

import (
	"github.com/rescam/phish-triage/internal/mailparse"
)

// Classification labels produced by the classifier.
const (
	ClassBenign     = "benign"
	ClassSpam       = "spam"
	ClassScam       = "scam"
	ClassSuspicious = "suspicious"
	ClassUnknown    = "unknown"
)

// EmailRecord is the stored document payload for one incoming email.
type EmailRecord struct {
	UserID    string
	MessageID string
	StoredAt  string
	RawEmail  *mailparse.Message
}

// Evidence is one quoted signal backing a classification.
type Evidence struct {
	Source string `json:"source"`
	Quote  string `json:"quote"`
}

// ParsedFacts are sender/link/attachment facts the classifier extracted.
type ParsedFacts struct {
	SenderDisplay string   `json:"sender_display,omitempty"`
	SenderEmail   string   `json:"sender_email,omitempty"`
	FromDomain    string   `json:"from_domain,omitempty"`
	ReplyTo       string   `json:"reply_to,omitempty"`
	Links         []string `json:"links,omitempty"`
	Attachments   []string `json:"attachments,omitempty"`
	HeadersUsed   bool     `json:"headers_used,omitempty"`
}

// ClassificationResult is the structured verdict for one email. RawResult is
// populated when the classifier response could not be parsed and the result
// degraded to the unknown fallback.
type ClassificationResult struct {
	Classification    string       `json:"classification"`
	Confidence        float64      `json:"confidence"`
	PrimaryReason     string       `json:"primary_reason"`
	Indicators        []string     `json:"indicators,omitempty"`
	Evidence          []Evidence   `json:"evidence,omitempty"`
	Parsed            *ParsedFacts `json:"parsed,omitempty"`
	RecommendedAction string       `json:"recommended_action,omitempty"`
	RawResult         string       `json:"raw_result,omitempty"`
}

// PersistedClassification is one entry of a user's classification log,
// most-recently-processed first, unique by message id.
type PersistedClassification struct {
	ID             string                `json:"id"`
	ThreadID       string                `json:"threadId"`
	ReceivedAt     string                `json:"receivedAt"`
	Sender         string                `json:"sender"`
	Subject        string                `json:"subject"`
	Snippet        string                `json:"snippet"`
	Classification *ClassificationResult `json:"classification"`
	ProcessedAt    string                `json:"processedAt"`
}

// classificationLog is the on-blob shape of a user's log.
type classificationLog struct {
	Emails []PersistedClassification `json:"emails"`
}

// Stage names for pipeline outcomes.
const (
	StageDecode   = "decode"
	StageFetch    = "fetch"
	StageExtract  = "extract"
	StageClassify = "classify"
	StagePersist  = "persist"
)

// Outcome is the stable response of one pipeline run. Status carries the
// HTTP-style code the caller should surface.
type Outcome struct {
	Status         int                   `json:"-"`
	Stage          string                `json:"-"`
	Ignored        bool                  `json:"-"`
	Message        string                `json:"message,omitempty"`
	Error          string                `json:"error,omitempty"`
	DocumentID     string                `json:"document_id,omitempty"`
	UserID         string                `json:"user_id,omitempty"`
	MessageID      string                `json:"message_id,omitempty"`
	LogPath        string                `json:"gcs_path,omitempty"`
	Classification *ClassificationResult `json:"classification,omitempty"`
}
