// Package oracle defines the narrow contract the pipeline uses to talk
// to external language-model services. The oracle is an untrusted,
// latency-bearing dependency; callers validate everything it returns.
package oracle

import "context"

// Schema constrains a completion to a strict JSON document.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Request describes one completion request.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	// Schema, when set, forces a schema-conformant JSON response
	// instead of free text.
	Schema *Schema
}

// Client is one language-model backend.
type Client interface {
	Health(ctx context.Context) error
	Complete(ctx context.Context, req Request) (string, error)
}
