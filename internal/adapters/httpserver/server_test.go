package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rescam/phish-triage/internal/adapters/blobstore"
	"github.com/rescam/phish-triage/internal/adapters/docstore"
	"github.com/rescam/phish-triage/internal/adapters/retrieval"
	"github.com/rescam/phish-triage/internal/core"
)

type fixedClassifier struct {
	response string
}

func (f *fixedClassifier) Classify(_ context.Context, _, _ string) (string, error) {
	return f.response, nil
}

func newTestServer(t *testing.T) (*Server, *docstore.MemoryStore, *blobstore.MemoryStore) {
	t.Helper()
	docs := docstore.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()
	svc := core.NewTriageService(
		docs,
		blobs,
		&fixedClassifier{response: "```json\n{\"classification\":\"scam\",\"confidence\":0.9,\"primary_reason\":\"Urgent payment demand\"}\n```"},
		retrieval.NewStaticProvider(""),
		zap.NewNop(),
		core.PipelineOptions{
			Collection:    "user-emails-incoming",
			StagingPrefix: "temp-emails",
			ResultsPrefix: "email-classifications",
		},
	)
	return NewServer(svc, zap.NewNop(), "127.0.0.1:0"), docs, blobs
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestIncomingEmailEndToEnd(t *testing.T) {
	srv, docs, blobs := newTestServer(t)

	docs.Put("user-emails-incoming", "doc42", map[string]any{
		"user-id":    "alice",
		"message-id": "m-1",
		"stored-at":  "2025-03-14T09:00:00Z",
		"raw-email": map[string]any{
			"threadId":     "t-1",
			"snippet":      "Invoice Due",
			"internalDate": "1741946813000",
			"payload": map[string]any{
				"headers": []any{
					map[string]any{"name": "From", "value": "billing@example.com"},
					map[string]any{"name": "Subject", "value": "Invoice Due"},
				},
				"body": map[string]any{
					"data": base64.RawURLEncoding.EncodeToString([]byte("Pay immediately.")),
				},
			},
		},
	})

	inner, err := json.Marshal(map[string]any{
		"value": map[string]any{
			"name": "projects/p/databases/(default)/documents/user-emails-incoming/doc42",
		},
	})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"message": map[string]any{
			"data": base64.StdEncoding.EncodeToString(inner),
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/route/firestore-incoming-email", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)
	var outcome struct {
		Message        string `json:"message"`
		DocumentID     string `json:"document_id"`
		UserID         string `json:"user_id"`
		MessageID      string `json:"message_id"`
		GCSPath        string `json:"gcs_path"`
		Classification struct {
			Classification string `json:"classification"`
		} `json:"classification"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.Equal(t, "Email processed successfully", outcome.Message)
	assert.Equal(t, "doc42", outcome.DocumentID)
	assert.Equal(t, "alice", outcome.UserID)
	assert.Equal(t, "m-1", outcome.MessageID)
	assert.Equal(t, "email-classifications/alice/emails.json", outcome.GCSPath)
	assert.Equal(t, "scam", outcome.Classification.Classification)

	assert.True(t, blobs.Exists("email-classifications/alice/emails.json"))
	assert.False(t, blobs.Exists("temp-emails/m-1.txt"))
}

func TestIncomingEmailBadPayload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/route/firestore-incoming-email", bytes.NewReader([]byte{0xff, 0xfe}))
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Invalid event format"}`, string(body))
}

func TestIncomingEmailUnknownDocument(t *testing.T) {
	srv, _, _ := newTestServer(t)

	inner, err := json.Marshal(map[string]any{
		"value": map[string]any{
			"name": "projects/p/databases/(default)/documents/user-emails-incoming/missing",
		},
	})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"source": "//firestore.googleapis.com/projects/p",
		"data":   json.RawMessage(inner),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/route/firestore-incoming-email", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 404, resp.StatusCode)
}
