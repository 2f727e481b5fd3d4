// Package retrieval implements the ContextProvider port.
package retrieval

import (
	"context"
)

// StaticProvider returns a fixed retrieved-context string for every query.
// Stands in for a vector-search index, which lives outside this service.
type StaticProvider struct {
	context string
}

// NewStaticProvider creates a provider returning the given context text.
func NewStaticProvider(context string) *StaticProvider {
	return &StaticProvider{context: context}
}

// FetchContext returns the configured context text.
func (p *StaticProvider) FetchContext(_ context.Context, _ string) (string, error) {
	return p.context, nil
}
