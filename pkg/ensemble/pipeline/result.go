package pipeline

import "github.com/mmichie/ensemble/pkg/ensemble/streaming"

// ProviderResult accumulates one provider invocation's output. It has a
// single writer (the call in flight); the orchestrator reads it only
// after the invocation has settled. The failed flag is the authoritative
// failure signal, set exclusively by the adapter's error path, never
// inferred from the text.
type ProviderResult struct {
	text   *streaming.ChunkedTextBuilder
	failed bool
	err    error
}

// NewProviderResult creates an empty accumulator
func NewProviderResult() *ProviderResult {
	return &ProviderResult{text: streaming.NewChunkedTextBuilder()}
}

// Append adds a text fragment. Fragments after failure are ignored; the
// result is sealed.
func (r *ProviderResult) Append(chunk string) {
	if r.failed {
		return
	}
	r.text.Append(chunk)
}

// Fail seals the result with the causing error
func (r *ProviderResult) Fail(err error) {
	r.failed = true
	r.err = err
}

// Failed reports whether the invocation failed
func (r *ProviderResult) Failed() bool {
	return r.failed
}

// Err returns the sealing error, if any
func (r *ProviderResult) Err() error {
	return r.err
}

// Text returns the accumulated content
func (r *ProviderResult) Text() string {
	return r.text.String()
}
