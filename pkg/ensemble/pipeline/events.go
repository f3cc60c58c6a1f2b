package pipeline

// EventType tags one event on the per-request stream.
type EventType string

const (
	// EventStatus carries a human-readable progress message
	EventStatus EventType = "status"

	// EventInitialData announces the chosen pipeline and the
	// classifier's reasoning
	EventInitialData EventType = "initial_data"

	// EventModelAChunk and EventModelBChunk carry base-provider text
	// fragments, interleaved by arrival but ordered per provider
	EventModelAChunk EventType = "model_a_chunk"
	EventModelBChunk EventType = "model_b_chunk"

	// EventFallbackLog describes which degraded branch was taken
	EventFallbackLog EventType = "fallback_log"

	// EventSynthesisChunk carries synthesizer text fragments
	EventSynthesisChunk EventType = "synthesis_chunk"

	// EventDone and EventError terminate the stream; exactly one of
	// them is emitted, and nothing follows it
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one entry on the ordered, append-only request stream. The
// orchestrator is the only writer; payload fields are populated
// according to Type.
type Event struct {
	Type EventType `json:"type"`

	// Message for status/done/error
	Message string `json:"message,omitempty"`

	// Text for provider and synthesis chunks
	Text string `json:"text,omitempty"`

	// Log for fallback_log
	Log string `json:"log,omitempty"`

	// initial_data payload
	PipelineName        string `json:"pipelineName,omitempty"`
	ClassifierReasoning string `json:"classifierReasoning,omitempty"`

	// RequestID identifies the run; stamped on every event
	RequestID string `json:"requestId,omitempty"`
}

// Terminal reports whether the event ends the stream
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
