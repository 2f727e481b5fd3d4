package core_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rescam/phish-triage/internal/adapters/blobstore"
	"github.com/rescam/phish-triage/internal/adapters/docstore"
	"github.com/rescam/phish-triage/internal/adapters/retrieval"
	"github.com/rescam/phish-triage/internal/core"
)

const testCollection = "user-emails-incoming"

// fakeClassifier returns a canned response, an error, or blocks until the
// call context expires.
type fakeClassifier struct {
	response string
	err      error
	block    bool
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, emailContent, ragContext string) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fixture struct {
	docs       *docstore.MemoryStore
	blobs      *blobstore.MemoryStore
	classifier *fakeClassifier
	svc        *core.TriageService
}

func newFixture(t *testing.T, classifier *fakeClassifier, opts core.PipelineOptions) *fixture {
	t.Helper()
	if opts.Collection == "" {
		opts.Collection = testCollection
	}
	if opts.StagingPrefix == "" {
		opts.StagingPrefix = "temp-emails"
	}
	if opts.ResultsPrefix == "" {
		opts.ResultsPrefix = "email-classifications"
	}
	docs := docstore.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()
	svc := core.NewTriageService(
		docs,
		blobs,
		classifier,
		retrieval.NewStaticProvider("known scam patterns"),
		zap.NewNop(),
		opts,
	)
	return &fixture{docs: docs, blobs: blobs, classifier: classifier, svc: svc}
}

// eventPayload builds a direct CloudEvent JSON body for a document change.
func eventPayload(t *testing.T, collection, documentID string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"source": "//firestore.googleapis.com/projects/p/databases/(default)",
		"data": map[string]any{
			"value": map[string]any{
				"name": fmt.Sprintf("projects/p/databases/(default)/documents/%s/%s", collection, documentID),
			},
		},
	})
	require.NoError(t, err)
	return raw
}

func storedEmail(userID, messageID, bodyText string) map[string]any {
	return map[string]any{
		"user-id":    userID,
		"message-id": messageID,
		"stored-at":  "2025-03-14T09:00:00Z",
		"raw-email": map[string]any{
			"id":           messageID,
			"threadId":     "thread-" + messageID,
			"snippet":      "snippet for " + messageID,
			"internalDate": "1741946813000",
			"payload": map[string]any{
				"headers": []any{
					map[string]any{"name": "From", "value": "sender@example.com"},
					map[string]any{"name": "Subject", "value": "Invoice Due"},
					map[string]any{"name": "Date", "value": "Fri, 14 Mar 2025 09:26:53 +0000"},
				},
				"body": map[string]any{
					"data": base64.RawURLEncoding.EncodeToString([]byte(bodyText)),
				},
			},
		},
	}
}

const scamVerdict = `{"classification":"scam","confidence":0.95,"primary_reason":"Urgent payment demand"}`

func TestProcessSuccess(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put(testCollection, "doc42", storedEmail("alice", "m-1", "Pay now or else"))

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc42"), "application/json")

	require.Equal(t, 200, oc.Status)
	assert.Equal(t, "Email processed successfully", oc.Message)
	assert.Equal(t, "doc42", oc.DocumentID)
	assert.Equal(t, "alice", oc.UserID)
	assert.Equal(t, "m-1", oc.MessageID)
	assert.Equal(t, "email-classifications/alice/emails.json", oc.LogPath)
	require.NotNil(t, oc.Classification)
	assert.Equal(t, core.ClassScam, oc.Classification.Classification)

	// The log and freshness marker are written, the staged text is gone.
	raw, err := f.blobs.Get(context.Background(), oc.LogPath)
	require.NoError(t, err)
	var log struct {
		Emails []core.PersistedClassification `json:"emails"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &log))
	require.Len(t, log.Emails, 1)
	assert.Equal(t, "m-1", log.Emails[0].ID)
	assert.Equal(t, "thread-m-1", log.Emails[0].ThreadID)
	assert.Equal(t, "sender@example.com", log.Emails[0].Sender)
	assert.Equal(t, core.ClassScam, log.Emails[0].Classification.Classification)

	assert.True(t, f.blobs.Exists("email-classifications/alice/latest-timestamp.txt"))
	assert.False(t, f.blobs.Exists("temp-emails/m-1.txt"))
}

func TestProcessInvalidEvent(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})

	oc := f.svc.Process(context.Background(), []byte{0xff, 0xfe}, "")

	assert.Equal(t, 400, oc.Status)
	assert.Equal(t, "Invalid event format", oc.Error)
	assert.Zero(t, f.classifier.calls)
}

func TestProcessIgnoredCollection(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put("other-collection", "doc1", storedEmail("alice", "m-1", "hello"))

	oc := f.svc.Process(context.Background(), eventPayload(t, "other-collection", "doc1"), "application/json")

	assert.Equal(t, 200, oc.Status)
	assert.True(t, oc.Ignored)
	assert.Equal(t, "Ignored event from collection: other-collection", oc.Message)
	assert.Zero(t, f.classifier.calls)
	assert.False(t, f.blobs.Exists("email-classifications/alice/emails.json"))
}

func TestProcessDocumentNotFound(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "missing"), "application/json")

	assert.Equal(t, 404, oc.Status)
	assert.Equal(t, "Document missing not found", oc.Error)
}

func TestProcessInvalidRawEmailShape(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put(testCollection, "doc1", map[string]any{
		"user-id":   "alice",
		"raw-email": "not a mapping",
	})

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc1"), "application/json")

	assert.Equal(t, 400, oc.Status)
	assert.Equal(t, "Invalid raw-email shape", oc.Error)
}

func TestProcessMissingDocumentFieldsDefaulted(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put(testCollection, "doc9", map[string]any{
		"raw-email": map[string]any{
			"payload": map[string]any{
				"body": map[string]any{
					"data": base64.RawURLEncoding.EncodeToString([]byte("hi")),
				},
			},
		},
	})

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc9"), "application/json")

	require.Equal(t, 200, oc.Status)
	assert.Equal(t, "unknown", oc.UserID)
	assert.Equal(t, "doc9", oc.MessageID)
}

func TestProcessClassifierFailureCleansStagedText(t *testing.T) {
	f := newFixture(t, &fakeClassifier{err: fmt.Errorf("model unavailable")}, core.PipelineOptions{})
	f.docs.Put(testCollection, "doc42", storedEmail("alice", "m-1", "hello"))

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc42"), "application/json")

	assert.Equal(t, 500, oc.Status)
	assert.Contains(t, oc.Error, "model unavailable")
	assert.False(t, f.blobs.Exists("temp-emails/m-1.txt"))
	assert.False(t, f.blobs.Exists("email-classifications/alice/emails.json"))
}

func TestProcessClassifierTimeout(t *testing.T) {
	f := newFixture(t, &fakeClassifier{block: true}, core.PipelineOptions{
		ClassifyTimeout: 20 * time.Millisecond,
	})
	f.docs.Put(testCollection, "doc42", storedEmail("alice", "m-1", "hello"))

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc42"), "application/json")

	assert.Equal(t, 500, oc.Status)
	assert.Contains(t, oc.Error, "timed out")
	assert.False(t, f.blobs.Exists("temp-emails/m-1.txt"))
}

func TestProcessUnparsableVerdictStillSucceeds(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: "I refuse to answer."}, core.PipelineOptions{})
	f.docs.Put(testCollection, "doc42", storedEmail("alice", "m-1", "hello"))

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc42"), "application/json")

	require.Equal(t, 200, oc.Status)
	require.NotNil(t, oc.Classification)
	assert.Equal(t, core.ClassUnknown, oc.Classification.Classification)
	assert.Equal(t, "I refuse to answer.", oc.Classification.RawResult)
}

func TestProcessReprocessReplacesEntryInPlace(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put(testCollection, "docA", storedEmail("alice", "m-old", "first"))
	f.docs.Put(testCollection, "docB", storedEmail("alice", "m-new", "second"))

	require.Equal(t, 200, f.svc.Process(context.Background(), eventPayload(t, testCollection, "docA"), "application/json").Status)
	require.Equal(t, 200, f.svc.Process(context.Background(), eventPayload(t, testCollection, "docB"), "application/json").Status)

	// Reclassify the older message with a new verdict.
	f.classifier.response = `{"classification":"benign","confidence":0.8,"primary_reason":"Known sender"}`
	require.Equal(t, 200, f.svc.Process(context.Background(), eventPayload(t, testCollection, "docA"), "application/json").Status)

	raw, err := f.blobs.Get(context.Background(), "email-classifications/alice/emails.json")
	require.NoError(t, err)
	var log struct {
		Emails []core.PersistedClassification `json:"emails"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &log))

	// Newest-first insertion, replacement keeps the original position.
	require.Len(t, log.Emails, 2)
	assert.Equal(t, "m-new", log.Emails[0].ID)
	assert.Equal(t, "m-old", log.Emails[1].ID)
	assert.Equal(t, core.ClassBenign, log.Emails[1].Classification.Classification)
}

func TestProcessCorruptLogStartsFresh(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put(testCollection, "doc42", storedEmail("alice", "m-1", "hello"))
	require.NoError(t, f.blobs.Put(context.Background(), "email-classifications/alice/emails.json", "{corrupt"))

	oc := f.svc.Process(context.Background(), eventPayload(t, testCollection, "doc42"), "application/json")
	require.Equal(t, 200, oc.Status)

	raw, err := f.blobs.Get(context.Background(), "email-classifications/alice/emails.json")
	require.NoError(t, err)
	var log struct {
		Emails []core.PersistedClassification `json:"emails"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &log))
	require.Len(t, log.Emails, 1)
	assert.Equal(t, "m-1", log.Emails[0].ID)
}

func TestProcessLogsAreSeparatedPerUser(t *testing.T) {
	f := newFixture(t, &fakeClassifier{response: scamVerdict}, core.PipelineOptions{})
	f.docs.Put(testCollection, "docA", storedEmail("alice", "m-1", "one"))
	f.docs.Put(testCollection, "docB", storedEmail("bob", "m-2", "two"))

	require.Equal(t, 200, f.svc.Process(context.Background(), eventPayload(t, testCollection, "docA"), "application/json").Status)
	require.Equal(t, 200, f.svc.Process(context.Background(), eventPayload(t, testCollection, "docB"), "application/json").Status)

	assert.True(t, f.blobs.Exists("email-classifications/alice/emails.json"))
	assert.True(t, f.blobs.Exists("email-classifications/bob/emails.json"))
}
