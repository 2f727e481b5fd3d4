package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rescam/phish-triage/internal/event"
	"github.com/rescam/phish-triage/internal/mailparse"
	"go.uber.org/zap"
)

// PipelineOptions carries the pipeline's configuration.
type PipelineOptions struct {
	Collection      string
	StagingPrefix   string
	ResultsPrefix   string
	ClassifyTimeout time.Duration
}

// TriageService runs the triage pipeline for one inbound event: decode,
// fetch, extract, classify, persist. Each run is independent; the only state
// shared between runs is configuration and the per-user write locks.
type TriageService struct {
	docs       DocumentStore
	blobs      BlobStore
	classifier ClassifierClient
	retrieval  ContextProvider
	logger     *zap.Logger
	opts       PipelineOptions
	userLocks  keyedMutex
	now        func() time.Time
}

// NewTriageService creates a new triage service.
func NewTriageService(
	docs DocumentStore,
	blobs BlobStore,
	classifier ClassifierClient,
	retrieval ContextProvider,
	logger *zap.Logger,
	opts PipelineOptions,
) *TriageService {
	return &TriageService{
		docs:       docs,
		blobs:      blobs,
		classifier: classifier,
		retrieval:  retrieval,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Process runs the full pipeline for one inbound event payload. It never
// returns an error: every failure is absorbed into a typed Outcome so the
// delivery layer can decide whether to redeliver.
func (s *TriageService) Process(ctx context.Context, raw []byte, contentType string) *Outcome {
	ev, err := event.Decode(raw, contentType)
	if err != nil {
		s.logger.Warn("Could not parse inbound event", zap.Error(err))
		return &Outcome{Status: 400, Stage: StageDecode, Error: "Invalid event format"}
	}

	s.logger.Info("Processing document change event",
		zap.String("collection", ev.Collection),
		zap.String("document_id", ev.DocumentID))

	if ev.Collection != s.opts.Collection {
		s.logger.Warn("Event from unexpected collection", zap.String("collection", ev.Collection))
		return &Outcome{
			Status:  200,
			Ignored: true,
			Message: fmt.Sprintf("Ignored event from collection: %s", ev.Collection),
		}
	}

	record, oc := s.fetch(ctx, ev)
	if oc != nil {
		return oc
	}

	content, meta := mailparse.Extract(record.RawEmail, s.now)

	result, oc := s.classify(ctx, record.MessageID, content)
	if oc != nil {
		return oc
	}

	logPath, err := s.persist(ctx, record.UserID, record.MessageID, meta, result)
	if err != nil {
		s.logger.Error("Failed to persist classification",
			zap.String("user_id", record.UserID),
			zap.String("message_id", record.MessageID),
			zap.Error(err))
		return &Outcome{Status: 500, Stage: StagePersist, Error: err.Error()}
	}

	s.logger.Info("Email processed successfully",
		zap.String("document_id", ev.DocumentID),
		zap.String("message_id", record.MessageID),
		zap.String("classification", result.Classification))

	return &Outcome{
		Status:         200,
		Message:        "Email processed successfully",
		DocumentID:     ev.DocumentID,
		UserID:         record.UserID,
		MessageID:      record.MessageID,
		LogPath:        logPath,
		Classification: result,
	}
}

// fetch loads and validates the document behind the event. The second return
// is non-nil when the pipeline should stop with that outcome.
func (s *TriageService) fetch(ctx context.Context, ev *event.DocumentChangeEvent) (*EmailRecord, *Outcome) {
	fields, err := s.docs.Get(ctx, s.opts.Collection, ev.DocumentID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			s.logger.Warn("Document does not exist", zap.String("document_id", ev.DocumentID))
			return nil, &Outcome{
				Status: 404,
				Stage:  StageFetch,
				Error:  fmt.Sprintf("Document %s not found", ev.DocumentID),
			}
		}
		ferr := &FetchError{DocumentID: ev.DocumentID, Reason: err.Error()}
		s.logger.Error("Document fetch failed", zap.String("document_id", ev.DocumentID), zap.Error(err))
		return nil, &Outcome{Status: 500, Stage: StageFetch, Error: ferr.Error()}
	}

	record := &EmailRecord{
		UserID:    stringField(fields, "user-id", "unknown"),
		MessageID: stringField(fields, "message-id", ev.DocumentID),
		StoredAt:  stringField(fields, "stored-at", "unknown"),
	}

	rawEmail, ok := fields["raw-email"].(map[string]any)
	if !ok {
		s.logger.Warn("Document raw-email field is not a mapping", zap.String("document_id", ev.DocumentID))
		return nil, &Outcome{Status: 400, Stage: StageFetch, Error: "Invalid raw-email shape"}
	}
	msg, err := mailparse.FromMap(rawEmail)
	if err != nil {
		return nil, &Outcome{Status: 400, Stage: StageExtract, Error: err.Error()}
	}
	record.RawEmail = msg
	return record, nil
}

// classify stages the extracted text, invokes the classifier and parses its
// response. The staged blob is removed on every exit path; its cleanup
// failing is logged but never escalated.
func (s *TriageService) classify(ctx context.Context, messageID, content string) (*ClassificationResult, *Outcome) {
	stagingPath := fmt.Sprintf("%s/%s.txt", s.opts.StagingPrefix, messageID)
	if err := s.blobs.Put(ctx, stagingPath, content); err != nil {
		s.logger.Error("Failed to stage email text", zap.String("path", stagingPath), zap.Error(err))
		return nil, &Outcome{Status: 500, Stage: StageClassify, Error: err.Error()}
	}
	defer func() {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), stagingPath); err != nil {
			s.logger.Warn("Failed to remove staged email text", zap.String("path", stagingPath), zap.Error(err))
		}
	}()

	ragContext := ""
	if s.retrieval != nil {
		rc, err := s.retrieval.FetchContext(ctx, content)
		if err != nil {
			s.logger.Warn("Failed to fetch retrieval context", zap.Error(err))
		} else {
			ragContext = rc
		}
	}

	callCtx := ctx
	if s.opts.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.ClassifyTimeout)
		defer cancel()
	}

	raw, err := s.classifier.Classify(callCtx, content, ragContext)
	if err != nil {
		cerr := &ClassifyError{Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
		s.logger.Error("Classification service call failed",
			zap.String("message_id", messageID),
			zap.Bool("timeout", cerr.Timeout),
			zap.Error(err))
		return nil, &Outcome{Status: 500, Stage: StageClassify, Error: cerr.Error()}
	}

	return ParseClassificationResult(raw), nil
}

func stringField(fields map[string]any, key, fallback string) string {
	if s, ok := fields[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
