package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rescam/phish-triage/internal/mailparse"
	"go.uber.org/zap"
)

// keyedMutex serializes work per string key. Used to serialize log writes per
// user within this process; writers in other processes can still race, which
// remains a documented weak-consistency point of the log format.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	if m, ok := k.locks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	k.locks[key] = m
	return m
}

// persist merges the classification into the user's log: an existing entry
// with the same message id is replaced in place, otherwise the new entry goes
// to the front. The whole log is written back in one put.
func (s *TriageService) persist(
	ctx context.Context,
	userID, messageID string,
	meta mailparse.Metadata,
	result *ClassificationResult,
) (string, error) {
	lock := s.userLocks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	logPath := fmt.Sprintf("%s/%s/emails.json", s.opts.ResultsPrefix, userID)

	entry := PersistedClassification{
		ID:             messageID,
		ThreadID:       meta.ThreadID,
		ReceivedAt:     meta.ReceivedAt,
		Sender:         meta.Sender,
		Subject:        meta.Subject,
		Snippet:        meta.Snippet,
		Classification: result,
		ProcessedAt:    s.now().UTC().Format(time.RFC3339),
	}

	log := s.loadLog(ctx, logPath)

	replaced := false
	for i := range log.Emails {
		if log.Emails[i].ID == messageID {
			log.Emails[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		log.Emails = append([]PersistedClassification{entry}, log.Emails...)
	}

	buf, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", &PersistError{Path: logPath, Err: err}
	}
	if err := s.blobs.Put(ctx, logPath, string(buf)); err != nil {
		return "", &PersistError{Path: logPath, Err: err}
	}

	// Freshness marker for the client application; best effort.
	tsPath := fmt.Sprintf("%s/%s/latest-timestamp.txt", s.opts.ResultsPrefix, userID)
	ts := strconv.FormatInt(s.now().UTC().UnixMilli(), 10)
	if err := s.blobs.Put(ctx, tsPath, ts); err != nil {
		s.logger.Warn("Failed to update timestamp marker", zap.String("path", tsPath), zap.Error(err))
	}

	s.logger.Info("Saved classification",
		zap.String("user_id", userID),
		zap.String("message_id", messageID),
		zap.String("path", logPath))
	return logPath, nil
}

// loadLog reads the user's existing log. A missing or unreadable log starts
// fresh rather than failing the pipeline.
func (s *TriageService) loadLog(ctx context.Context, path string) *classificationLog {
	log := &classificationLog{}
	raw, err := s.blobs.Get(ctx, path)
	if err != nil {
		return log
	}
	if err := json.Unmarshal([]byte(raw), log); err != nil {
		s.logger.Warn("Existing classification log is corrupt, starting fresh",
			zap.String("path", path), zap.Error(err))
		return &classificationLog{}
	}
	if log.Emails == nil {
		log.Emails = []PersistedClassification{}
	}
	return log
}
