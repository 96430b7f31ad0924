// Package llm is the seam to the external ranking/summarization
// capability. Callers build a prompt, receive free text expected to
// contain a single JSON object (optionally fenced), and parse it with
// ExtractJSON.
package llm

import "context"

type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// Completer submits one prompt and returns the raw model text. The
// network-backed client and deterministic test stubs are interchangeable
// behind this interface.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
