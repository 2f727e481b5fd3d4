package core

import (
	"errors"
	"fmt"
)

// ErrDocumentNotFound is returned by DocumentStore when no document exists.
var ErrDocumentNotFound = errors.New("document not found")

// ErrBlobNotFound is returned by BlobStore when no blob exists at a path.
var ErrBlobNotFound = errors.New("blob not found")

// FetchError reports a failed document fetch.
type FetchError struct {
	DocumentID string
	NotFound   bool
	Reason     string
}

func (e *FetchError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("document %s not found", e.DocumentID)
	}
	return fmt.Sprintf("document %s: %s", e.DocumentID, e.Reason)
}

// ClassifyError reports a failed classification service invocation. Timeout
// distinguishes deadline expiry from other service failures; response parse
// failures are not errors at all and degrade to the unknown fallback.
type ClassifyError struct {
	Timeout bool
	Err     error
}

func (e *ClassifyError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("classification timed out: %v", e.Err)
	}
	return fmt.Sprintf("classification service failure: %v", e.Err)
}

func (e *ClassifyError) Unwrap() error { return e.Err }

// PersistError reports a failed write of the per-user classification log.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
