package core

import (
	"context"
)

// DocumentStore provides keyed lookup of documents by collection and id.
type DocumentStore interface {
	// Get returns the field mapping of a document, or ErrDocumentNotFound.
	Get(ctx context.Context, collection, documentID string) (map[string]any, error)
}

// BlobStore provides path-addressed get/put/delete of text blobs.
type BlobStore interface {
	// Get returns the blob at path, or ErrBlobNotFound.
	Get(ctx context.Context, path string) (string, error)

	// Put writes the blob at path, replacing any existing content.
	Put(ctx context.Context, path, content string) error

	// Delete removes the blob at path.
	Delete(ctx context.Context, path string) error
}

// ClassifierClient invokes the generative classification service. It returns
// the raw model output, expected to contain one JSON object per the
// classification schema; parsing is the pipeline's concern.
type ClassifierClient interface {
	Classify(ctx context.Context, emailContent, ragContext string) (string, error)
}

// ContextProvider supplies retrieved similar-email context for a query.
type ContextProvider interface {
	FetchContext(ctx context.Context, query string) (string, error)
}
